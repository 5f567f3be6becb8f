package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"labelshop/internal/domain"
	authsvc "labelshop/internal/service/auth"
)

const (
	userCtxKey      = "labelshop.user"
	authErrCtxKey   = "labelshop.auth_err"
	bearerPrefix    = "Bearer "
	accessCookie    = "access_token"
	refreshCookie   = "refresh_token"
	refreshCookPath = "/api/auth"
)

// requestLogger logs one line per request, at a level chosen by status.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}
		switch {
		case status >= 500:
			logger.Error("http request", fields...)
		case status >= 400:
			logger.Warn("http request", fields...)
		default:
			logger.Info("http request", fields...)
		}
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Message: "internal error"})
			}
		}()
		c.Next()
	}
}

// identify resolves the caller from the access cookie or a bearer header.
// Anonymous requests pass through; requireUser enforces authentication.
func (h *handlers) identify(c *gin.Context) {
	token := accessTokenFrom(c)
	if token == "" {
		c.Next()
		return
	}
	u, err := h.deps.AuthSvc.LookupByToken(c.Request.Context(), token)
	if err != nil {
		c.Set(authErrCtxKey, err)
		c.Next()
		return
	}
	c.Set(userCtxKey, u)
	c.Next()
}

func (h *handlers) requireUser(c *gin.Context) {
	if currentUser(c) != nil {
		c.Next()
		return
	}
	h.rejectAuth(c)
}

// optionalUser lets anonymous callers through but rejects a credential that was
// presented and could not be verified, so a signed-in caller is never served as a guest.
func (h *handlers) optionalUser(c *gin.Context) {
	if _, failed := c.Get(authErrCtxKey); failed && currentUser(c) == nil {
		h.rejectAuth(c)
		return
	}
	c.Next()
}

func (h *handlers) rejectAuth(c *gin.Context) {
	msg := "authentication required"
	if v, ok := c.Get(authErrCtxKey); ok {
		if err, _ := v.(error); errors.Is(err, authsvc.ErrTokenExpired) {
			msg = "token expired"
		} else if err != nil && !errors.Is(err, authsvc.ErrInvalidToken) {
			h.logger.Error("resolve access token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Message: "internal error"})
			return
		}
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: msg})
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userCtxKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

func accessTokenFrom(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	if v, err := c.Cookie(accessCookie); err == nil {
		return v
	}
	return ""
}
