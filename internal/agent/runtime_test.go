package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/astroamber/amber/internal/llm"
	"github.com/astroamber/amber/internal/research"
	"github.com/astroamber/amber/internal/tavily"
)

type scriptedChat struct {
	responses []*llm.ChatResponse
	requests  []llm.ChatRequest
	err       error
}

func (s *scriptedChat) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func chatText(text string) *llm.ChatResponse {
	resp := &llm.ChatResponse{}
	resp.Choices = append(resp.Choices, struct {
		Message      llm.Message `json:"message"`
		FinishReason string      `json:"finish_reason"`
	}{Message: llm.Message{Role: "assistant", Content: text}})
	return resp
}

func chatToolCall(text, id, name, args string) *llm.ChatResponse {
	resp := chatText(text)
	resp.Choices[0].Message.ToolCalls = []llm.ToolCall{{
		ID:   id,
		Type: "function",
		Function: llm.FunctionCall{Name: name, Arguments: args},
	}}
	return resp
}

type stubProvider struct{}

func (stubProvider) Search(context.Context, tavily.SearchRequest) (*tavily.SearchResponse, error) {
	return &tavily.SearchResponse{Results: []tavily.SearchResult{{Title: "Hit", URL: "https://hit.example", Content: "c"}}}, nil
}
func (stubProvider) Extract(context.Context, tavily.ExtractRequest) (*tavily.ExtractResponse, error) {
	return &tavily.ExtractResponse{}, nil
}
func (stubProvider) Crawl(context.Context, tavily.CrawlRequest) (*tavily.CrawlResponse, error) {
	return &tavily.CrawlResponse{}, nil
}

type stubFormatter struct{ out string }

func (s stubFormatter) Format(context.Context, string, string, string) (string, error) {
	return s.out, nil
}

func newTestRuntime(chat llm.ChatClient) *Runtime {
	toolbox := research.NewToolbox(stubProvider{}, stubFormatter{out: "formatted"}, research.ToolboxOptions{}, nil)
	return New(chat, toolbox, Options{Model: "test-model"}, nil)
}

func drain(t *testing.T, ch <-chan research.StreamEvent) []research.StreamEvent {
	t.Helper()
	var events []research.StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestRuntimeToolLoop(t *testing.T) {
	chat := &scriptedChat{responses: []*llm.ChatResponse{
		chatToolCall("Let me search.", "call-1", research.ToolWebSearch, `{"query": "go"}`),
		chatText("All done."),
	}}
	rt := newTestRuntime(chat)

	ch, err := rt.Stream(context.Background(), "what is go?")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	events := drain(t, ch)

	var types []research.EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	want := []research.EventType{
		research.EventTextDelta,
		research.EventToolInvocation,
		research.EventTextDelta,
		research.EventResult,
	}
	if len(types) != len(want) {
		t.Fatalf("event sequence %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event sequence %v, want %v", types, want)
		}
	}
	if events[1].ToolName != research.ToolWebSearch {
		t.Fatalf("tool name lost: %+v", events[1])
	}
	if events[len(events)-1].Value != "All done." {
		t.Fatalf("result value wrong: %+v", events[len(events)-1])
	}

	// Second request must carry the tool result back to the model.
	second := chat.requests[1]
	last := second.Messages[len(second.Messages)-1]
	if last.Role != "tool" || last.ToolCallID != "call-1" {
		t.Fatalf("tool result not relayed: %+v", last)
	}
	if !strings.Contains(last.Content, "Title: Hit") {
		t.Fatalf("tool output not formatted: %q", last.Content)
	}
}

func TestRuntimeHistoryShape(t *testing.T) {
	chat := &scriptedChat{responses: []*llm.ChatResponse{
		chatToolCall("", "call-1", research.ToolFormat, `{"research_content": "notes"}`),
		chatText("final"),
	}}
	rt := newTestRuntime(chat)

	ch, _ := rt.Stream(context.Background(), "q")
	drain(t, ch)

	messages := rt.Messages()
	// user query, assistant tool use, user tool result, assistant final
	if len(messages) != 4 {
		t.Fatalf("expected 4 history messages, got %d", len(messages))
	}
	if messages[0].Role != research.RoleUser || messages[0].Content[0].Text != "q" {
		t.Fatalf("query message wrong: %+v", messages[0])
	}
	use := messages[1].Content[0].ToolUse
	if use == nil || use.Name != research.ToolFormat || use.ID != "call-1" {
		t.Fatalf("tool use wrong: %+v", messages[1])
	}
	result := messages[2].Content[0].ToolResult
	if result == nil || result.ID != "call-1" || result.Status != research.StatusSuccess {
		t.Fatalf("tool result wrong: %+v", messages[2])
	}
	if result.Text != "formatted" {
		t.Fatalf("formatter output lost: %+v", result)
	}

	// The history now satisfies the session's answer resolution.
	if messages[3].Content[0].Text != "final" {
		t.Fatalf("final message wrong: %+v", messages[3])
	}
}

func TestRuntimeUnknownToolYieldsErrorResult(t *testing.T) {
	chat := &scriptedChat{responses: []*llm.ChatResponse{
		chatToolCall("", "call-9", "telepathy", `{}`),
		chatText("ok"),
	}}
	rt := newTestRuntime(chat)

	ch, _ := rt.Stream(context.Background(), "q")
	drain(t, ch)

	messages := rt.Messages()
	result := messages[2].Content[0].ToolResult
	if result.Status != "error" {
		t.Fatalf("unknown tool must produce an error result: %+v", result)
	}
	if !strings.Contains(result.Text, "Unknown tool") {
		t.Fatalf("unexpected error text: %q", result.Text)
	}
}

func TestRuntimeChatFailureEmitsErrorEvent(t *testing.T) {
	chat := &scriptedChat{err: errors.New("api down")}
	rt := newTestRuntime(chat)

	ch, _ := rt.Stream(context.Background(), "q")
	events := drain(t, ch)

	if len(events) != 1 || events[0].Type != research.EventError {
		t.Fatalf("expected a single error event, got %+v", events)
	}
}

func TestRuntimeTurnCap(t *testing.T) {
	// The model keeps asking for the same tool and never concludes.
	var responses []*llm.ChatResponse
	for i := 0; i < DefaultMaxTurns+1; i++ {
		responses = append(responses, chatToolCall("", "loop", research.ToolWebSearch, `{"query": "again"}`))
	}
	chat := &scriptedChat{responses: responses}
	rt := newTestRuntime(chat)

	ch, _ := rt.Stream(context.Background(), "q")
	events := drain(t, ch)

	last := events[len(events)-1]
	if last.Type != research.EventError {
		t.Fatalf("runaway loop must end in an error event, got %+v", last)
	}
	if len(chat.requests) != DefaultMaxTurns {
		t.Fatalf("expected %d turns, got %d", DefaultMaxTurns, len(chat.requests))
	}
}

func TestRuntimeSendsToolDefinitions(t *testing.T) {
	chat := &scriptedChat{responses: []*llm.ChatResponse{chatText("hi")}}
	rt := newTestRuntime(chat)

	ch, _ := rt.Stream(context.Background(), "q")
	drain(t, ch)

	if len(chat.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(chat.requests))
	}
	req := chat.requests[0]
	if len(req.Tools) != 4 {
		t.Fatalf("expected 4 tool definitions, got %d", len(req.Tools))
	}
	if req.Messages[0].Role != "system" || !strings.Contains(req.Messages[0].Content, "research assistant") {
		t.Fatalf("system prompt missing: %+v", req.Messages[0])
	}
}
