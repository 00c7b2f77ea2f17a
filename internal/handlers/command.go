// Package handlers provides the Echo HTTP handlers for the operator API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CommandService executes operator commands.
type CommandService interface {
	ExecuteCommand(ctx context.Context, input string) (string, error)
}

// CommandHandler serves POST /command.
type CommandHandler struct {
	service CommandService
	logger  *slog.Logger
}

// NewCommandHandler creates a command handler.
func NewCommandHandler(log *slog.Logger, service CommandService) *CommandHandler {
	return &CommandHandler{
		service: service,
		logger:  log.With(slog.String("handler", "command")),
	}
}

// Register mounts POST /command on the Echo instance.
func (h *CommandHandler) Register(e *echo.Echo) {
	e.POST("/command", h.Submit)
}

type commandRequest struct {
	Command string `json:"command" form:"command"`
}

type commandResponse struct {
	Output string `json:"output"`
}

// Submit godoc
// @Summary Execute an operator command
// @Description Parses a leading verb (e.g. /new, /import) and runs it
// @Tags command
// @Param payload body commandRequest true "Command payload"
// @Success 200 {object} commandResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /command [post]
func (h *CommandHandler) Submit(c echo.Context) error {
	var req commandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Command) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "command is required")
	}

	output, err := h.service.ExecuteCommand(c.Request().Context(), req.Command)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, commandResponse{Output: output})
}
