package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailproof/internal/repository"
	"mailproof/internal/verify"
)

type CheckHandler struct {
	svc  *verify.Service
	runs *repository.CheckRunRepository // optional
}

func NewCheckHandler(svc *verify.Service, runs *repository.CheckRunRepository) *CheckHandler {
	return &CheckHandler{svc: svc, runs: runs}
}

// Run handles GET /check: one verification pass against the shared inbox.
// Failures come back as a message the caller can render directly.
func (h *CheckHandler) Run(c *gin.Context) {
	run, err := h.svc.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, verify.ErrNoPassword) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no valid password available"})
			return
		}
		// mailbox connect/auth failure, remote text included
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ran_at":   run.RanAt,
		"messages": run.MessageCount,
		"results":  run.Results,
	})
}

// History handles GET /history.
func (h *CheckHandler) History(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "check history not enabled"})
		return
	}

	runs, err := h.runs.RecentRuns(c.Request.Context(), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load check history"})
		return
	}

	out := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		out = append(out, gin.H{
			"ran_at":   run.RanAt,
			"messages": run.MessageCount,
			"results":  run.Results,
		})
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}
