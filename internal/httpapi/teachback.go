package httpapi

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/excellere/excellere/internal/curriculum"
	"github.com/excellere/excellere/internal/teachback"
)

type teachBackHandler struct {
	svc     *teachback.Service
	catalog *curriculum.Catalog
}

func (h *teachBackHandler) Submit(c *gin.Context) {
	var req teachback.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badJSON(err))
		return
	}
	res, err := h.svc.Submit(c.Request.Context(), subject(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

func (h *teachBackHandler) SubmitDeeper(c *gin.Context) {
	var req teachback.DeeperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badJSON(err))
		return
	}
	res, err := h.svc.SubmitDeeper(c.Request.Context(), subject(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

func (h *teachBackHandler) Phase(c *gin.Context) {
	v, err := h.svc.PhaseState(c.Request.Context(), subject(c), c.Param("conceptId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, v)
}

func (h *teachBackHandler) AdvancePhase(c *gin.Context) {
	var req teachback.AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badJSON(err))
		return
	}
	v, err := h.svc.AdvancePhase(c.Request.Context(), subject(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, v)
}

func (h *teachBackHandler) Nodes(c *gin.Context) {
	list, err := h.svc.Nodes(c.Request.Context(), subject(c), c.Query("moduleId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

func (h *teachBackHandler) UpsertNode(c *gin.Context) {
	var in teachback.NodeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, badJSON(err))
		return
	}
	res, err := h.svc.UpsertNode(c.Request.Context(), subject(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

func (h *teachBackHandler) CompleteModule(c *gin.Context) {
	var req teachback.CompleteRequest
	// The body is optional.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, badJSON(err))
		return
	}
	rep, err := h.svc.CompleteModule(c.Request.Context(), subject(c), c.Param("moduleId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rep)
}

func (h *teachBackHandler) Badges(c *gin.Context) {
	list, err := h.svc.Badges(c.Request.Context(), subject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"badges": list})
}

func (h *teachBackHandler) SaveProfile(c *gin.Context) {
	var in teachback.ProfileUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, badJSON(err))
		return
	}
	p, err := h.svc.SaveProfile(c.Request.Context(), subject(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"role":        p.Role,
		"sector":      p.Sector,
		"orgSize":     p.OrgSize,
		"priorGaps":   p.PriorGaps,
		"calibration": p.Calibration.Data(),
	})
}

type conceptSummary struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Checks []string `json:"checks"`
}

type moduleSummary struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Summary  string           `json:"summary"`
	Concepts []conceptSummary `json:"concepts"`
}

func (h *teachBackHandler) Curriculum(c *gin.Context) {
	mods := h.catalog.Modules()
	out := make([]moduleSummary, 0, len(mods))
	for _, m := range mods {
		ms := moduleSummary{ID: m.ID, Title: m.Title, Summary: m.Summary}
		for _, cc := range m.Concepts {
			ms.Concepts = append(ms.Concepts, conceptSummary{ID: cc.ID, Title: cc.Title, Checks: cc.Checks})
		}
		out = append(out, ms)
	}
	respondOK(c, gin.H{"modules": out})
}
