package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/threadlinehq/threadline/internal/threads"
)

// ThreadLister lists open threads for display.
type ThreadLister interface {
	ListOpen(ctx context.Context) ([]threads.OpenThread, error)
}

// ThreadsHandler serves GET /threads.
type ThreadsHandler struct {
	service ThreadLister
	logger  *slog.Logger
}

// NewThreadsHandler creates a threads view handler.
func NewThreadsHandler(log *slog.Logger, service ThreadLister) *ThreadsHandler {
	return &ThreadsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "threads")),
	}
}

// Register mounts GET /threads on the Echo instance.
func (h *ThreadsHandler) Register(e *echo.Echo) {
	e.GET("/threads", h.List)
}

// List godoc
// @Summary List open threads
// @Description Open threads with owning contact display name and appointment type, in creation order
// @Tags threads
// @Success 200 {array} threads.OpenThread
// @Failure 500 {object} ErrorResponse
// @Router /threads [get]
func (h *ThreadsHandler) List(c echo.Context) error {
	items, err := h.service.ListOpen(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []threads.OpenThread{}
	}
	return c.JSON(http.StatusOK, items)
}
