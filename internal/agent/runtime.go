// Package agent implements the runtime side of the research event contract:
// an LLM tool-calling loop that executes the research toolbox and records the
// conversation history the orchestration loop reads back.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/astroamber/amber/internal/llm"
	"github.com/astroamber/amber/internal/research"
)

// DefaultMaxTurns caps the tool-calling loop so a confused model cannot spin
// forever.
const DefaultMaxTurns = 12

// Options configures a Runtime.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	MaxTurns    int
}

// Runtime drives one research conversation. It satisfies research.Runtime:
// Stream produces the ordered event stream and Messages exposes the
// accumulated history once the stream has ended.
type Runtime struct {
	client  llm.ChatClient
	toolbox *research.Toolbox
	opts    Options
	logger  *log.Logger

	mu      sync.Mutex
	history []research.Message
}

// New builds a runtime bound to a chat client and a toolbox.
func New(client llm.ChatClient, toolbox *research.Toolbox, opts Options, logger *log.Logger) *Runtime {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	}
	return &Runtime{client: client, toolbox: toolbox, opts: opts, logger: logger}
}

// Messages returns a snapshot of the conversation history.
func (r *Runtime) Messages() []research.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]research.Message, len(r.history))
	copy(out, r.history)
	return out
}

// Stream starts the tool-calling loop for query and returns the event
// channel. The channel is closed when the loop ends; an EventResult or
// EventError is always the last event on it.
func (r *Runtime) Stream(ctx context.Context, query string) (<-chan research.StreamEvent, error) {
	events := make(chan research.StreamEvent)
	go func() {
		defer close(events)
		r.loop(ctx, query, events)
	}()
	return events, nil
}

func (r *Runtime) loop(ctx context.Context, query string, events chan<- research.StreamEvent) {
	wire := []llm.Message{
		{Role: "system", Content: researchPrompt(time.Now())},
		{Role: "user", Content: query},
	}
	r.append(research.Message{Role: research.RoleUser, Content: []research.Content{{Text: query}}})

	emit := func(ev research.StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for turn := 0; turn < r.opts.MaxTurns; turn++ {
		resp, err := r.client.Chat(ctx, llm.ChatRequest{
			Model:       r.opts.Model,
			Messages:    wire,
			Tools:       toolDefinitions,
			Temperature: r.opts.Temperature,
			MaxTokens:   r.opts.MaxTokens,
		})
		if err != nil {
			emit(research.StreamEvent{Type: research.EventError, Err: err})
			return
		}
		assistant := resp.Choices[0].Message
		wire = append(wire, assistant)

		var contents []research.Content
		if assistant.Content != "" {
			contents = append(contents, research.Content{Text: assistant.Content})
		}
		for _, call := range assistant.ToolCalls {
			contents = append(contents, research.Content{ToolUse: &research.ToolUse{
				ID:    call.ID,
				Name:  call.Function.Name,
				Input: json.RawMessage(call.Function.Arguments),
			}})
		}
		r.append(research.Message{Role: research.RoleAssistant, Content: contents})

		if assistant.Content != "" {
			if !emit(research.StreamEvent{Type: research.EventTextDelta, Content: assistant.Content}) {
				return
			}
		}

		if len(assistant.ToolCalls) == 0 {
			emit(research.StreamEvent{Type: research.EventResult, Value: assistant.Content})
			return
		}

		var results []research.Content
		for _, call := range assistant.ToolCalls {
			if !emit(research.StreamEvent{Type: research.EventToolInvocation, ToolName: call.Function.Name}) {
				return
			}
			output, status := r.dispatch(ctx, call)
			wire = append(wire, llm.Message{Role: "tool", Content: output, ToolCallID: call.ID})
			results = append(results, research.Content{ToolResult: &research.ToolResult{
				ID:     call.ID,
				Status: status,
				Text:   output,
			}})
		}
		r.append(research.Message{Role: research.RoleUser, Content: results})
	}

	emit(research.StreamEvent{Type: research.EventError, Err: fmt.Errorf("agent exceeded %d turns without a final response", r.opts.MaxTurns)})
}

func (r *Runtime) append(msg research.Message) {
	r.mu.Lock()
	r.history = append(r.history, msg)
	r.mu.Unlock()
}

// dispatch executes one tool call. Tool adapters absorb provider failures, so
// a non-success status only means the model named a tool that does not exist
// or sent undecodable arguments.
func (r *Runtime) dispatch(ctx context.Context, call llm.ToolCall) (string, string) {
	args := call.Function.Arguments
	switch call.Function.Name {
	case research.ToolWebSearch:
		var in struct {
			Query          string     `json:"query"`
			TimeRange      string     `json:"time_range"`
			IncludeDomains stringList `json:"include_domains"`
		}
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return fmt.Sprintf("Invalid arguments for %s: %v", call.Function.Name, err), "error"
		}
		return r.toolbox.Search(ctx, in.Query, in.TimeRange, in.IncludeDomains), research.StatusSuccess
	case research.ToolWebExtract:
		var in struct {
			URLs          stringList `json:"urls"`
			IncludeImages bool       `json:"include_images"`
			ExtractDepth  string     `json:"extract_depth"`
		}
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return fmt.Sprintf("Invalid arguments for %s: %v", call.Function.Name, err), "error"
		}
		return r.toolbox.Extract(ctx, in.URLs, in.IncludeImages, in.ExtractDepth), research.StatusSuccess
	case research.ToolWebCrawl:
		var in struct {
			URL          string `json:"url"`
			Instructions string `json:"instructions"`
		}
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return fmt.Sprintf("Invalid arguments for %s: %v", call.Function.Name, err), "error"
		}
		return r.toolbox.Crawl(ctx, in.URL, in.Instructions), research.StatusSuccess
	case research.ToolFormat:
		var in struct {
			ResearchContent string `json:"research_content"`
			FormatStyle     string `json:"format_style"`
			UserQuery       string `json:"user_query"`
		}
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return fmt.Sprintf("Invalid arguments for %s: %v", call.Function.Name, err), "error"
		}
		out := r.toolbox.FormatResponse(ctx, in.ResearchContent, in.FormatStyle, in.UserQuery)
		return out, research.StatusSuccess
	default:
		r.logger.Printf("model requested unknown tool %q", call.Function.Name)
		return fmt.Sprintf("Unknown tool: %s", call.Function.Name), "error"
	}
}

// stringList decodes either a JSON string or an array of strings. Models are
// inconsistent about which shape they send for URL and domain parameters.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*s = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*s = []string{single}
	return nil
}

var toolDefinitions = []llm.Tool{
	{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        research.ToolWebSearch,
			Description: "Perform a web search. Returns the title, url, and content of each result ranked by relevance.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The search query to be sent for the web search."},
					"time_range": {"type": "string", "enum": ["d", "w", "m", "y"], "description": "Limits results to content published within a specific timeframe."},
					"include_domains": {"type": "array", "items": {"type": "string"}, "description": "Domains to restrict search results to."}
				},
				"required": ["query"]
			}`),
		},
	},
	{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        research.ToolWebExtract,
			Description: "Extract content from one or more web pages, including the full raw content and any images found.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"urls": {"type": "array", "items": {"type": "string"}, "description": "One or more URLs to extract content from."},
					"include_images": {"type": "boolean", "description": "Whether to also extract image URLs from the pages."},
					"extract_depth": {"type": "string", "enum": ["basic", "advanced"], "description": "The depth of extraction."}
				},
				"required": ["urls"]
			}`),
		},
	},
	{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        research.ToolWebCrawl,
			Description: "Crawl a URL and its nested links, returning the url and content of each discovered page.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"url": {"type": "string", "description": "The URL of the website to crawl."},
					"instructions": {"type": "string", "description": "Specific instructions to guide the crawler."}
				},
				"required": ["url"]
			}`),
		},
	},
	{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        research.ToolFormat,
			Description: "Format research content into a well-structured, properly cited response. Must be called at the end of the research process.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"research_content": {"type": "string", "description": "The raw research content to be formatted."},
					"format_style": {"type": "string", "description": "Desired format style, e.g. blog, report, executive summary."},
					"user_query": {"type": "string", "description": "Original user question to help determine the appropriate format."}
				},
				"required": ["research_content"]
			}`),
		},
	},
}
