package research

import (
	"context"
	"encoding/json"
	"strings"
)

// EventType discriminates the variants of a StreamEvent.
type EventType int

const (
	// EventTextDelta carries a chunk of assistant text as it is produced.
	EventTextDelta EventType = iota
	// EventToolInvocation signals that the runtime started executing a tool.
	EventToolInvocation
	// EventResult carries the terminal value of the run.
	EventResult
	// EventError signals a failure inside the stream itself.
	EventError
)

// StreamEvent is one element of the ordered event stream produced by the
// agent runtime. Exactly the fields of the active variant are set.
type StreamEvent struct {
	Type     EventType
	Content  string // EventTextDelta
	ToolName string // EventToolInvocation
	Value    string // EventResult
	Err      error  // EventError
}

// Role tags the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation history owned by the runtime.
type Message struct {
	Role    Role
	Content []Content
}

// Content is a single content item: plain text, an assistant tool use, or a
// user tool result. Exactly one field is populated.
type Content struct {
	Text       string
	ToolUse    *ToolUse
	ToolResult *ToolResult
}

// ToolUse records an assistant-authored tool invocation.
type ToolUse struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResult records the outcome of a tool invocation, correlated back to its
// ToolUse through ID.
type ToolResult struct {
	ID     string
	Status string // "success" or "error"
	Text   string
}

const StatusSuccess = "success"

// Runtime is the consumer-side contract of the agent runtime: an ordered
// event stream plus the conversation history it accumulated. Messages must
// only be read after the stream has been fully consumed.
type Runtime interface {
	Stream(ctx context.Context, query string) (<-chan StreamEvent, error)
	Messages() []Message
}

// RuntimeFactory constructs the runtime for one research session.
type RuntimeFactory func(ctx context.Context) (Runtime, error)

// Notice is one progress or terminal update emitted to the caller.
type Notice struct {
	Status            string            `json:"status"`
	Message           string            `json:"message,omitempty"`
	Content           string            `json:"content,omitempty"`
	Tool              string            `json:"tool,omitempty"`
	Category          string            `json:"category,omitempty"`
	ToolCount         int               `json:"tool_count"`
	FormattedResponse string            `json:"formatted_response"`
	ToolsUsed         []string          `json:"tools_used"`
	SessionID         string            `json:"session_id,omitempty"`
	Error             string            `json:"error,omitempty"`
	Example           map[string]string `json:"example,omitempty"`
}

// Notice statuses, in the order a successful session emits them.
const (
	StatusStarting      = "starting"
	StatusAgentCreated  = "agent_created"
	StatusThinking      = "thinking"
	StatusToolExecution = "tool_execution"
	StatusCompleted     = "completed"
	StatusError         = "error"
)

// toolCategory tags a tool name by substring so callers can render a glyph
// without knowing the tool set.
func toolCategory(name string) string {
	switch {
	case strings.Contains(name, "crawl"):
		return "spider"
	case strings.Contains(name, "search"):
		return "search"
	case strings.Contains(name, "format"):
		return "document"
	case strings.Contains(name, "extract"):
		return "page"
	default:
		return "tool"
	}
}
