package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mathtutor-backend/internal/model"
	"mathtutor-backend/internal/service"
)

type SolveHandler struct {
	solveService *service.SolveService
}

func NewSolveHandler(solveService *service.SolveService) *SolveHandler {
	return &SolveHandler{
		solveService: solveService,
	}
}

// Solve serves the built-in solve endpoints. Failures always carry an
// {error} body so the dispatcher can surface the detail in-band.
func (h *SolveHandler) Solve(c *gin.Context) {
	mode := model.Mode(c.Param("mode"))
	if !mode.Valid() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown mode"})
		return
	}

	var req model.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.solveService.Solve(c.Request.Context(), mode, &req)
	if err != nil {
		if errors.Is(err, service.ErrUnknownMode) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		// A missing API key is deliberately indistinguishable from any
		// other upstream failure.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
