package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mathtutor-backend/internal/model"
	"mathtutor-backend/internal/service"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.chatService.Send(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage),
			errors.Is(err, service.ErrUnknownMode),
			errors.Is(err, service.ErrModeMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrDispatchInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req model.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.Mode.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode"})
		return
	}

	session := h.chatService.Sessions().CreateSession(c.Request.Context(), req.Mode)

	c.JSON(http.StatusOK, session)
}

func (h *ChatHandler) GetSessionList(c *gin.Context) {
	mode := model.Mode(c.Query("mode"))
	if !mode.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode"})
		return
	}

	sessions := h.chatService.Sessions().ListSessions(mode)

	resp := model.SessionListResponse{
		Sessions:        make([]model.SessionResponse, 0, len(sessions)),
		ActiveSessionID: h.chatService.Sessions().Active(mode),
	}
	for _, session := range sessions {
		resp.Sessions = append(resp.Sessions, model.SessionResponse{
			SessionID:    session.ID,
			Title:        session.Title,
			Mode:         session.Mode,
			CreatedAt:    session.CreatedAt,
			UpdatedAt:    session.UpdatedAt,
			MessageCount: len(session.Messages),
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	session, found := h.chatService.Sessions().Get(sessionID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, model.SessionResponse{
		SessionID:    session.ID,
		Title:        session.Title,
		Mode:         session.Mode,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
		MessageCount: len(session.Messages),
	})
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	sessionID := c.Param("session_id")

	session, found := h.chatService.Sessions().Get(sessionID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"messages":   session.Messages,
	})
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	h.chatService.Sessions().DeleteSession(c.Request.Context(), sessionID)

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}

func (h *ChatHandler) SwitchActive(c *gin.Context) {
	sessionID := c.Param("session_id")

	if !h.chatService.Sessions().SwitchActive(sessionID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Active session switched"})
}
