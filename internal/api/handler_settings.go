package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailproof/internal/model"
	"mailproof/internal/settings"
)

// MarkerWiper clears all dispatch markers; part of the full reset.
type MarkerWiper interface {
	DeleteAll(ctx context.Context) error
}

type SettingsHandler struct {
	repo    *settings.Repository
	markers MarkerWiper
	logger  *zap.Logger
}

func NewSettingsHandler(repo *settings.Repository, markers MarkerWiper, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		repo:    repo,
		markers: markers,
		logger:  logger,
	}
}

// Get handles GET /settings. The stored secret never leaves the server;
// only its presence is reported.
func (h *SettingsHandler) Get(c *gin.Context) {
	st, err := h.repo.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"site_role":       st.SiteRole,
		"notify_address":  st.NotifyAddress,
		"target_day":      st.TargetDayOrDefault(),
		"has_password":    st.MailboxSecret != "",
		"expected_tokens": st.ExpectedTokens,
	})
}

// Update handles PUT /settings. A blank mailbox_password leaves the stored
// secret unchanged.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req struct {
		SiteRole        string `json:"site_role"`
		NotifyAddress   string `json:"notify_address"`
		TargetDay       string `json:"target_day"`
		MailboxPassword string `json:"mailbox_password"`
		ExpectedTokens  string `json:"expected_tokens"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	role := model.SiteRole(req.SiteRole)
	if role != model.RoleChild && role != model.RoleParent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "site_role must be child or parent"})
		return
	}

	st := &model.Settings{
		SiteRole:       role,
		NotifyAddress:  req.NotifyAddress,
		TargetDay:      req.TargetDay,
		ExpectedTokens: req.ExpectedTokens,
	}

	if err := h.repo.Save(c.Request.Context(), st, req.MailboxPassword); err != nil {
		h.logger.Error("Failed to save settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// Reset handles POST /reset: every settings key and every dispatch marker
// is removed. Calling it twice is fine.
func (h *SettingsHandler) Reset(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.repo.Reset(ctx); err != nil {
		h.logger.Error("Failed to reset settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset settings"})
		return
	}

	if err := h.markers.DeleteAll(ctx); err != nil {
		h.logger.Error("Failed to clear dispatch markers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear dispatch markers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
