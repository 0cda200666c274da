package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/excellere/excellere/internal/review"
)

type reviewHandler struct {
	svc *review.Service
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *reviewHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badJSON(err))
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

func (h *reviewHandler) Queue(c *gin.Context) {
	entries, err := h.svc.Queue(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"items": entries})
}

func (h *reviewHandler) Review(c *gin.Context) {
	var req review.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badJSON(err))
		return
	}
	rep, err := h.svc.Review(c.Request.Context(), subject(c), c.Param("reportId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"reportId":       rep.ID,
		"status":         rep.Status,
		"artefactStatus": rep.ArtefactStatus,
		"badgesEarned":   rep.BadgesEarned,
		"validatedAt":    rep.ValidatedAt,
	})
}
