package research

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/astroamber/amber/internal/telemetry"
)

// DefaultSessionID is used when a request carries no session id.
const DefaultSessionID = "default"

var sessionTracer trace.Tracer = otel.Tracer("amber/internal/research")

// Request is an immutable research request.
type Request struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// FinalAnswer is the derived outcome of one research session.
type FinalAnswer struct {
	FormattedResponse string   `json:"formatted_response"`
	ToolsUsed         []string `json:"tools_used"`
	ToolCount         int      `json:"tool_count"`
	SessionID         string   `json:"session_id"`
}

// Session drives one research request through the agent runtime and reduces
// the event stream to ordered notices. A Session is good for any number of
// sequential runs; each run owns its own ledger and history.
type Session struct {
	factory RuntimeFactory
	logger  *log.Logger
	metrics *telemetry.Metrics
}

// NewSession builds a session driver. metrics may be nil.
func NewSession(factory RuntimeFactory, logger *log.Logger, metrics *telemetry.Metrics) *Session {
	if logger == nil {
		logger = log.New(log.Writer(), "[RESEARCH] ", log.LstdFlags)
	}
	return &Session{factory: factory, logger: logger, metrics: metrics}
}

// Run processes one research request and returns a channel of notices in
// emission order. The channel is closed after the terminal notice
// (completed or error); exactly one terminal notice is emitted per run.
func (s *Session) Run(ctx context.Context, req Request) <-chan Notice {
	out := make(chan Notice)
	go func() {
		defer close(out)
		s.run(ctx, req, out)
	}()
	return out
}

func (s *Session) run(ctx context.Context, req Request, out chan<- Notice) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	ctx, span := sessionTracer.Start(ctx, "Session.run")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionID))

	if strings.TrimSpace(req.Query) == "" {
		span.SetStatus(codes.Error, "missing query")
		send(ctx, out, Notice{
			Status:  StatusError,
			Error:   "Missing 'query' field in payload",
			Example: map[string]string{"query": "What are the latest features in AWS Bedrock?"},
		})
		return
	}

	s.logger.Printf("Starting research for session %s: %s", sessionID, req.Query)
	if s.metrics != nil {
		s.metrics.SessionsStarted.Inc()
	}
	started := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.SessionDuration.Observe(time.Since(started).Seconds())
		}
	}()

	if !send(ctx, out, Notice{
		Status:    StatusStarting,
		Message:   "Starting research: " + req.Query,
		SessionID: sessionID,
	}) {
		return
	}

	runtime, err := s.factory(ctx)
	if err != nil {
		s.fail(ctx, span, out, err)
		return
	}

	if !send(ctx, out, Notice{
		Status:  StatusAgentCreated,
		Message: "Research agent initialized with web tools",
	}) {
		return
	}

	events, err := runtime.Stream(ctx, req.Query)
	if err != nil {
		s.fail(ctx, span, out, err)
		return
	}

	toolsUsed := []string{}
	seen := make(map[string]struct{})

streaming:
	for event := range events {
		switch event.Type {
		case EventTextDelta:
			if !send(ctx, out, Notice{Status: StatusThinking, Content: event.Content}) {
				return
			}
		case EventToolInvocation:
			name := event.ToolName
			if name == "" {
				name = "unknown"
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			toolsUsed = append(toolsUsed, name)
			if s.metrics != nil {
				s.metrics.ToolInvocations.WithLabelValues(name).Inc()
			}
			if !send(ctx, out, Notice{
				Status:    StatusToolExecution,
				Tool:      name,
				Category:  toolCategory(name),
				Message:   "Executing " + name,
				ToolCount: len(toolsUsed),
			}) {
				return
			}
			s.logger.Printf("Tool %d: %s", len(toolsUsed), name)
		case EventResult:
			// Terminal value observed; do not wait for stream closure.
			break streaming
		case EventError:
			s.fail(ctx, span, out, event.Err)
			return
		}
	}

	answer := resolveAnswer(runtime.Messages())

	s.logger.Printf("Completed %d tool invocations", len(toolsUsed))
	if s.metrics != nil {
		s.metrics.SessionsCompleted.Inc()
	}
	span.SetAttributes(attribute.Int("tool_count", len(toolsUsed)))

	send(ctx, out, Notice{
		Status:            StatusCompleted,
		FormattedResponse: answer,
		ToolsUsed:         toolsUsed,
		ToolCount:         len(toolsUsed),
		SessionID:         sessionID,
		Message:           fmt.Sprintf("Research completed with %d tool invocations", len(toolsUsed)),
	})
}

func (s *Session) fail(ctx context.Context, span trace.Span, out chan<- Notice, err error) {
	s.logger.Printf("Error during research: %v", err)
	if s.metrics != nil {
		s.metrics.SessionsFailed.Inc()
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	send(ctx, out, Notice{
		Status:  StatusError,
		Error:   err.Error(),
		Message: "An error occurred during research",
	})
}

// send delivers a notice unless the consumer is gone. A false return means
// the context was cancelled and the run must stop; without the guard an
// abandoned channel would pin the session goroutine forever.
func send(ctx context.Context, out chan<- Notice, n Notice) bool {
	select {
	case out <- n:
		return true
	case <-ctx.Done():
		return false
	}
}

// resolveAnswer walks the conversation history for the payload of the last
// successful formatting-tool result. When none exists it falls back to the
// text of the final message, whatever its role.
func resolveAnswer(messages []Message) string {
	// Correlation index over assistant tool uses; first match wins when an
	// id is duplicated.
	uses := make(map[string]string)
	for _, msg := range messages {
		if msg.Role != RoleAssistant {
			continue
		}
		for _, content := range msg.Content {
			if content.ToolUse == nil {
				continue
			}
			if _, ok := uses[content.ToolUse.ID]; !ok {
				uses[content.ToolUse.ID] = content.ToolUse.Name
			}
		}
	}

	var formatted string
	var found bool
	for _, msg := range messages {
		if msg.Role != RoleUser {
			continue
		}
		for _, content := range msg.Content {
			result := content.ToolResult
			if result == nil || result.Status != StatusSuccess {
				continue
			}
			if uses[result.ID] == ToolFormat {
				formatted = result.Text
				found = true
			}
		}
	}
	if found {
		return formatted
	}

	if len(messages) == 0 {
		return ""
	}
	last := messages[len(messages)-1]
	for _, content := range last.Content {
		if content.ToolUse == nil && content.ToolResult == nil {
			return content.Text
		}
	}
	return ""
}
