package controller

import (
	"errors"
	"faqbot_backend/internal/model"
	"faqbot_backend/internal/service"
	"faqbot_backend/internal/util"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

type ChatController struct {
	ChatService *service.ChatService
	AuthService *service.AuthService
	Responder   *service.FAQResponder
}

func NewChatController(chatService *service.ChatService, authService *service.AuthService, responder *service.FAQResponder) *ChatController {
	return &ChatController{
		ChatService: chatService,
		AuthService: authService,
		Responder:   responder,
	}
}

// GetChat godoc
// @Summary Chat welcome and insights
// @Tags chat
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/chat [get]
func (c *ChatController) GetChat(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, gin.H{
		"message": fmt.Sprintf("Welcome, %s! I'm the store chatbot. How can I assist you today?", claims.Username),
		"insights": gin.H{
			"FAQ":      c.Responder.Keywords(),
			"commands": []string{"logout"},
		},
	})
}

// swagger:model MessageRequest
type MessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// PostMessage godoc
// @Summary Send one chat message
// @Description Answers the query and appends the turn to the session buffer. A literal "logout" message ends the session instead.
// @Tags chat
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body MessageRequest true "user message"
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response "buffer unavailable, turn not recorded"
// @Router /api/chat [post]
func (c *ChatController) PostMessage(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req MessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if strings.ToLower(strings.TrimSpace(req.Message)) == "logout" {
		result, err := c.AuthService.Logout(ctx.Request.Context(), claims)
		if err != nil {
			if errors.Is(err, util.ErrStoreUnavailable) {
				util.ServiceUnavailable(ctx, "Store unavailable, buffer preserved; please retry.")
			} else {
				util.LogInternalError(ctx, err)
			}
			return
		}
		util.Success(ctx, gin.H{
			"response": "You have been logged out successfully.",
			"result":   result,
		})
		return
	}

	sess := &model.Session{ID: claims.SessionID, Username: claims.Username}
	response, err := c.ChatService.RecordTurn(ctx.Request.Context(), sess, req.Message)
	if err != nil {
		if errors.Is(err, util.ErrStoreUnavailable) {
			util.ServiceUnavailable(ctx, "Store unavailable, turn not recorded; please retry.")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"response": response})
}

// GetHistory godoc
// @Summary Archived chat history for the caller
// @Description Returns the durable per-date history buckets and the parallel per-date keyword sets.
// @Tags chat
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserArchive}
// @Router /api/chat/history [get]
func (c *ChatController) GetHistory(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	archive, err := c.ChatService.History(ctx.Request.Context(), claims.Username)
	if err != nil {
		if errors.Is(err, util.ErrStoreUnavailable) {
			util.ServiceUnavailable(ctx, "Store unavailable, please retry.")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, archive)
}
