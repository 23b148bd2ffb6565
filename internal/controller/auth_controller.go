package controller

import (
	"errors"
	"faqbot_backend/internal/service"
	"faqbot_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// swagger:model RegisterRequest
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "registration payload"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response "user already exists"
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AuthService.Register(req.Username, req.Password); err != nil {
		if errors.Is(err, util.ErrUserExists) {
			util.Error(ctx, 409, "User already exists. Please log in.")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"message": "Registration successful. Please log in."})
}

// swagger:model LoginRequest
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Log in and open a chat session
// @Description Verifies credentials, archives any superseded session's buffer, and issues a JWT bound to the new session.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "login credentials"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response
// @Failure 503 {object} util.Response "store unavailable, retry"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, sess, err := c.AuthService.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidCredentials):
			util.Error(ctx, 401, "Invalid username or password.")
		case errors.Is(err, util.ErrStoreUnavailable):
			util.ServiceUnavailable(ctx, "Store unavailable, please retry.")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"token":      token,
		"session_id": sess.ID,
	})
}

// Logout godoc
// @Summary End the chat session and archive its buffer
// @Description Merges the session's buffered turns into durable history and the keyword index, then releases the session. Safe to retry on store failures.
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.EndSessionResult}
// @Failure 401 {object} util.Response
// @Failure 502 {object} util.Response "partial archive, do not blindly retry"
// @Failure 503 {object} util.Response "store unavailable, retry"
// @Router /api/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.AuthService.Logout(ctx.Request.Context(), claims)
	if err != nil {
		var partial *util.PartialArchiveError
		switch {
		case errors.As(err, &partial):
			// History committed, keyword index did not: re-driving the
			// whole logout would duplicate history rows.
			util.Error(ctx, 502, "Archive partially committed at "+partial.Stage+"; keyword index needs re-drive.")
		case errors.Is(err, util.ErrStoreUnavailable):
			util.ServiceUnavailable(ctx, "Store unavailable, buffer preserved; please retry logout.")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"message": "You have been logged out successfully.",
		"result":  result,
	})
}
