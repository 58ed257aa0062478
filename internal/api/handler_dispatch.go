package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailproof/internal/dispatch"
	"mailproof/internal/repository"
)

type DispatchHandler struct {
	svc *dispatch.Service
	log *repository.DispatchLogRepository // optional
}

func NewDispatchHandler(svc *dispatch.Service, log *repository.DispatchLogRepository) *DispatchHandler {
	return &DispatchHandler{svc: svc, log: log}
}

// SendNow handles POST /send: an unconditional manual send, no gate.
func (h *DispatchHandler) SendNow(c *gin.Context) {
	sent, token, err := h.svc.SendNow(c.Request.Context())
	if err != nil {
		if errors.Is(err, dispatch.ErrNoRecipient) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no notify address configured"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sent":  sent,
		"token": token,
	})
}

// History handles GET /dispatches.
func (h *DispatchHandler) History(c *gin.Context) {
	if h.log == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "dispatch history not enabled"})
		return
	}

	recs, err := h.log.Recent(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dispatch history"})
		return
	}

	out := make([]gin.H, 0, len(recs))
	for _, rec := range recs {
		out = append(out, gin.H{
			"site":    rec.Site,
			"token":   rec.Token,
			"to":      rec.To,
			"trigger": rec.Trigger,
			"sent":    rec.Sent,
			"error":   rec.Error,
			"sent_at": rec.SentAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"dispatches": out})
}
