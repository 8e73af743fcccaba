package handler

import (
	"context"
	"net/http"

	"livepoll/internal/services"
	"livepoll/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Register(ctx context.Context, in services.RegisterInput) (services.AuthResponse, error)
	Login(ctx context.Context, in services.LoginInput) (services.AuthResponse, error)
	Logout(ctx context.Context) error
}

// AuthHandler handles account registration, login and logout.
type AuthHandler struct {
	service Authenticator
}

func NewAuthHandler(service Authenticator) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register handles POST /v1/auth/register. New accounts get the user role.
func (h *AuthHandler) Register(c *gin.Context) {
	var req httpdto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "invalid request")
		return
	}

	res, err := h.service.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(toLoginResponse(res)))
}

// Login handles POST /v1/auth/token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req httpdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "invalid request")
		return
	}

	res, err := h.service.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toLoginResponse(res)))
}

// Logout handles POST /v1/auth/logout. The presented token stops working.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toLoginResponse(res services.AuthResponse) httpdto.LoginResponse {
	return httpdto.LoginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   res.ExpiresIn,
		User: httpdto.UserDTO{
			UserID: res.User.ID,
			Name:   res.User.Name,
			Email:  res.User.Email,
			Role:   res.User.Role,
		},
	}
}
