package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/threadlinehq/threadline/internal/threads"
)

// IncomingService routes inbound messages by sender phone.
type IncomingService interface {
	RouteIncoming(ctx context.Context, senderPhone, text string) (threads.Message, error)
}

// IncomingHandler serves POST /incoming, the inbound SMS webhook.
type IncomingHandler struct {
	service IncomingService
	logger  *slog.Logger
}

// NewIncomingHandler creates an incoming webhook handler.
func NewIncomingHandler(log *slog.Logger, service IncomingService) *IncomingHandler {
	return &IncomingHandler{
		service: service,
		logger:  log.With(slog.String("handler", "incoming")),
	}
}

// Register mounts POST /incoming on the Echo instance.
func (h *IncomingHandler) Register(e *echo.Echo) {
	e.POST("/incoming", h.Receive)
}

type incomingRequest struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// Receive godoc
// @Summary Receive an inbound SMS
// @Description Routes the message to the sender's open thread; unroutable messages are still recorded
// @Tags incoming
// @Param payload body incomingRequest true "Inbound message payload"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /incoming [post]
func (h *IncomingHandler) Receive(c echo.Context) error {
	var req incomingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.From) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "from is required")
	}

	if _, err := h.service.RouteIncoming(c.Request().Context(), req.From, req.Message); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
