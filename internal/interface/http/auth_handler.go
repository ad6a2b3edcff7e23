package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/scent-recommender/internal/application"
	"github.com/oksasatya/scent-recommender/internal/interface/middleware"
	"github.com/oksasatya/scent-recommender/pkg/helpers"
	"github.com/oksasatya/scent-recommender/pkg/response"
	"github.com/oksasatya/scent-recommender/pkg/validation"
)

type AuthHandler struct {
	Svc     *application.AuthService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	Username        string `json:"username" binding:"required,uname"`
	Password        string `json:"password" binding:"required,pwd"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), req.Username, req.Password, req.ConfirmPassword)
	switch {
	case errors.Is(err, application.ErrPasswordMismatch):
		response.Error[any](c, http.StatusBadRequest, "Passwords do not match", map[string]string{"confirm_password": "must equal password"})
		return
	case errors.Is(err, application.ErrInvalidUsername):
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"username": "must be 3 to 64 printable ASCII characters"})
		return
	case errors.Is(err, application.ErrUsernameTaken):
		response.Error[any](c, http.StatusConflict, "Username already exists", nil)
		return
	case err != nil:
		response.Error[any](c, http.StatusInternalServerError, "registration failed", nil)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"username": u.Username}, "registered", nil)
}

// Login POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, application.ErrInvalidCredentials) {
		response.Error[any](c, http.StatusUnauthorized, "Invalid username or password", nil)
		return
	}
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "login failed", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{"username": u.Username}, "login successful", map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

// Refresh POST /api/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed", map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

// Logout POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	username := c.GetString(middleware.CtxUsername)
	if err := h.Svc.Logout(c.Request.Context(), username); err != nil && h.Logger != nil {
		h.Logger.WithError(err).WithField("username", username).Warn("drop session failed")
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}
