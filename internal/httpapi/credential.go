package httpapi

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/excellere/excellere/internal/apierr"
	"github.com/excellere/excellere/internal/credential"
	"github.com/excellere/excellere/internal/logger"
)

type credentialHandler struct {
	svc *credential.Service
	log *logger.Logger
}

func (h *credentialHandler) Page(c *gin.Context) {
	v, err := h.svc.Load(c.Request.Context(), c.Param("reportId"))
	if err != nil {
		h.plainError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := credential.RenderHTML(&buf, v); err != nil {
		h.log.Error("render credential page failed", "report_id", v.ReportID, "error", err)
		h.plainError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *credentialHandler) Card(c *gin.Context) {
	v, err := h.svc.Load(c.Request.Context(), c.Param("reportId"))
	if err != nil {
		h.plainError(c, err)
		return
	}
	png, err := credential.RenderCard(v)
	if err != nil {
		h.log.Error("render credential card failed", "report_id", v.ReportID, "error", err)
		h.plainError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *credentialHandler) plainError(c *gin.Context, err error) {
	ae := apierr.From(err)
	_ = c.Error(err)
	msg := "credential unavailable"
	if ae.Status == http.StatusNotFound {
		msg = "credential not found"
	}
	c.String(ae.Status, msg)
	c.Abort()
}
