package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	appconfig "github.com/astroamber/amber/config"
	"github.com/astroamber/amber/internal/archive"
	"github.com/astroamber/amber/internal/research"
)

var researchTracer trace.Tracer = otel.Tracer("amber/internal/server")

// ResearchHandler serves the streaming research endpoint and the archive
// lookup.
type ResearchHandler struct {
	Config  *appconfig.Config
	Session *research.Session
	Archive Archive
}

// Register mounts the handler's routes on the given group.
func (h *ResearchHandler) Register(g *echo.Group) {
	g.POST("/research", h.stream)
	g.GET("/research/:session_id", h.get)
}

// stream runs one research session and streams its notices as Server-Sent
// Events. The terminal notice (completed or error) ends the stream.
func (h *ResearchHandler) stream(c echo.Context) error {
	if h.Config != nil && !h.Config.Server.ResearchStreamEnabled {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "research stream disabled")
	}

	var req research.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = uuid.NewString()
	}

	httpReq := c.Request()
	ctx, cancel := context.WithCancel(httpReq.Context())
	defer cancel()
	ctx, span := researchTracer.Start(ctx, "ResearchHandler.stream")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", req.SessionID))
	c.SetRequest(httpReq.WithContext(ctx))

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		span.SetStatus(codes.Error, "streaming unsupported")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}

	for notice := range h.Session.Run(ctx, req) {
		data, err := json.Marshal(notice)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if _, err := resp.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			span.RecordError(err)
			return err
		}
		flusher.Flush()

		if notice.Status == research.StatusCompleted && h.Archive != nil {
			answer := research.FinalAnswer{
				FormattedResponse: notice.FormattedResponse,
				ToolsUsed:         notice.ToolsUsed,
				ToolCount:         notice.ToolCount,
				SessionID:         notice.SessionID,
			}
			if err := h.Archive.Save(ctx, answer); err != nil {
				span.RecordError(err)
			}
		}
	}
	return nil
}

// get returns the archived final answer for a completed session.
func (h *ResearchHandler) get(c echo.Context) error {
	if h.Archive == nil {
		return echo.NewHTTPError(http.StatusNotFound, "archive disabled")
	}
	sessionID := c.Param("session_id")
	answer, err := h.Archive.Get(c.Request().Context(), sessionID)
	if errors.Is(err, archive.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "no result for session "+sessionID)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, answer)
}
