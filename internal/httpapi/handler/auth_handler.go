package handler

import (
	"net/http"

	"filmvault/internal/httpapi/apperr"
	"filmvault/internal/httpapi/dto"
	"filmvault/internal/httpapi/response"
	"filmvault/internal/httpapi/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	dev         bool
}

func NewAuthHandler(authService service.AuthService, dev bool) *AuthHandler {
	return &AuthHandler{authService: authService, dev: dev}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("%s", err.Error()), h.dev)
		return
	}

	user, err := h.authService.Register(req.Username, req.Password, req.Email)
	if err == service.ErrNameInUse || err == service.ErrEmailInUse {
		// one message for both, no account enumeration
		response.AbortError(c, http.StatusConflict, "account creation failed")
		return
	}
	if err != nil {
		response.Error(c, apperr.Internal("registration failed", err), h.dev)
		return
	}

	response.Created(c, "account created", dto.RegisterResponse{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("%s", err.Error()), h.dev)
		return
	}

	accessToken, refreshToken, user, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		response.AbortError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	response.OK(c, "login successful", dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		ExpiresIn:    int64(h.authService.AccessTokenTTL().Seconds()),
	})
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("%s", err.Error()), h.dev)
		return
	}

	newAccessToken, err := h.authService.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		response.AbortError(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	response.OK(c, "token refreshed", dto.RefreshResponse{
		AccessToken: newAccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.authService.AccessTokenTTL().Seconds()),
	})
}
