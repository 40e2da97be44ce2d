package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mathtutor-backend/internal/model"
	"mathtutor-backend/internal/service"
)

type RenderHandler struct {
	renderService *service.RenderService
}

func NewRenderHandler(renderService *service.RenderService) *RenderHandler {
	return &RenderHandler{
		renderService: renderService,
	}
}

func (h *RenderHandler) Generate(c *gin.Context) {
	var req model.GenerateAnimationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.renderService.Generate(c.Request.Context(), req.Prompt); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.renderService.Snapshot())
}

func (h *RenderHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.renderService.Snapshot())
}

func (h *RenderHandler) Cancel(c *gin.Context) {
	h.renderService.Cancel(c.Request.Context())

	c.JSON(http.StatusOK, h.renderService.Snapshot())
}
