package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"labelshop/internal/domain"
	authsvc "labelshop/internal/service/auth"
)

type loginRequest struct {
	// Identifier is an email or a username.
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (r loginRequest) identifier() string {
	switch {
	case r.Identifier != "":
		return r.Identifier
	case r.Email != "":
		return r.Email
	default:
		return r.Username
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type authResponse struct {
	User        userResponse `json:"user"`
	AccessToken string       `json:"accessToken,omitempty"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

func (h *handlers) register(c *gin.Context) {
	var req authsvc.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	sess, err := h.deps.AuthSvc.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.writeSession(c, http.StatusCreated, sess)
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.identifier() == "" || req.Password == "" {
		badRequest(c, "identifier and password are required")
		return
	}
	sess, err := h.deps.AuthSvc.Login(c.Request.Context(), req.identifier(), req.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: "invalid credentials"})
			return
		}
		h.writeError(c, err)
		return
	}
	h.writeSession(c, http.StatusOK, sess)
}

// refresh rotates the refresh token taken from its cookie, or from the body for non-browser clients.
func (h *handlers) refresh(c *gin.Context) {
	token, _ := c.Cookie(refreshCookie)
	if token == "" {
		var req refreshRequest
		if c.Request.ContentLength != 0 {
			_ = c.ShouldBindJSON(&req)
		}
		token = req.RefreshToken
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: "refresh token required"})
		return
	}
	sess, err := h.deps.AuthSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidToken) {
			h.clearCookies(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: "invalid refresh token"})
			return
		}
		h.writeError(c, err)
		return
	}
	h.writeSession(c, http.StatusOK, sess)
}

func (h *handlers) logout(c *gin.Context) {
	token, _ := c.Cookie(refreshCookie)
	if token != "" {
		if err := h.deps.AuthSvc.Logout(c.Request.Context(), token); err != nil {
			h.writeError(c, err)
			return
		}
	}
	h.clearCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *handlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, authResponse{User: toUserResponse(*currentUser(c))})
}

func (h *handlers) writeSession(c *gin.Context, status int, sess *authsvc.Session) {
	// The access cookie lives as long as the refresh token so an expired JWT still
	// reaches the server and comes back as a 401 the client can refresh.
	h.setCookie(c, accessCookie, sess.AccessToken, "/", sess.RefreshExpiresAt)
	h.setCookie(c, refreshCookie, sess.RefreshToken, refreshCookPath, sess.RefreshExpiresAt)
	c.JSON(status, authResponse{User: toUserResponse(sess.User), AccessToken: sess.AccessToken})
}

func (h *handlers) clearCookies(c *gin.Context) {
	h.setCookie(c, accessCookie, "", "/", time.Time{})
	h.setCookie(c, refreshCookie, "", refreshCookPath, time.Time{})
}

// setCookie writes an HttpOnly, SameSite=Lax cookie. A zero expiry deletes it.
func (h *handlers) setCookie(c *gin.Context, name, value, path string, expires time.Time) {
	maxAge := -1
	if !expires.IsZero() {
		maxAge = int(time.Until(expires).Seconds())
		if maxAge <= 0 {
			maxAge = -1
		}
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
