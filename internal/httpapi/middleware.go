package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/excellere/excellere/internal/apierr"
	"github.com/excellere/excellere/internal/auth"
	"github.com/excellere/excellere/internal/logger"
)

const (
	ctxClaims    = "claims"
	ctxRequestID = "request_id"

	headerRequestID = "X-Request-ID"
)

var errUnauthorized = errors.New("missing or invalid token")

// requestID propagates or assigns an X-Request-ID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// accessLog writes one entry per request once the handler chain is done.
func accessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(ctxRequestID),
		}
		if cl := claimsFrom(c); cl != nil {
			kv = append(kv, "user_id", cl.Subject)
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "error", c.Errors.Last().Error())
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", kv...)
		case status >= http.StatusBadRequest:
			log.Warn("request", kv...)
		default:
			log.Info("request", kv...)
		}
	}
}

// requireRole rejects requests without a valid bearer token for role.
func requireRole(issuer *auth.Issuer, role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondError(c, apierr.New(http.StatusUnauthorized, "unauthorized", errUnauthorized))
			return
		}
		claims, err := issuer.Parse(token)
		if err != nil {
			respondError(c, apierr.New(http.StatusUnauthorized, "unauthorized", err))
			return
		}
		if claims.Role != role {
			respondError(c, apierr.New(http.StatusForbidden, "forbidden", errors.New("token does not grant access to this resource")))
			return
		}
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil
	}
	cl, _ := v.(*auth.Claims)
	return cl
}

// subject is the authenticated user or validator id.
func subject(c *gin.Context) string {
	if cl := claimsFrom(c); cl != nil {
		return cl.Subject
	}
	return ""
}
