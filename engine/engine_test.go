package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/benchwise/finsight/core"
	"github.com/benchwise/finsight/tools"
)

// scriptedModel replays a fixed sequence of completions and records
// every request it receives.
type scriptedModel struct {
	script   []*Completion
	requests []*CompletionRequest
}

func (m *scriptedModel) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	m.requests = append(m.requests, req)
	if len(m.script) == 0 {
		return &Completion{Text: "done"}, nil
	}
	next := m.script[0]
	m.script = m.script[1:]
	return next, nil
}

func echoTool(name string) core.Tool {
	return tools.New(name).
		Description("echoes its input").
		Schema(tools.ObjectSchema(map[string]interface{}{})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var args map[string]interface{}
			if err := params.Args(&args); err != nil {
				return core.Fail(err.Error()), nil
			}
			return core.Ok(map[string]interface{}{"echo": args, "caller": params.UserID}), nil
		}).
		Build()
}

func newTestEngine(model ModelClient, toolset ...core.Tool) *Engine {
	registry := NewToolRegistry()
	registry.RegisterAll(toolset...)
	return New(model, registry)
}

func TestRunNoModel(t *testing.T) {
	e := New(nil, NewToolRegistry())
	if _, err := e.Run(context.Background(), &Input{UserID: "u"}); err != ErrModelUnavailable {
		t.Fatalf("err = %v, want ErrModelUnavailable", err)
	}
}

func TestRunPlainAnswer(t *testing.T) {
	model := &scriptedModel{script: []*Completion{{Text: "all good"}}}
	e := newTestEngine(model)

	out, err := e.Run(context.Background(), &Input{UserID: "u", UserMessage: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusComplete || out.Text != "all good" {
		t.Fatalf("out = %+v", out)
	}
	if out.Iterations != 1 || len(out.ToolsUsed) != 0 {
		t.Fatalf("out = %+v", out)
	}
	// no schema means no finalize call
	if len(model.requests) != 1 {
		t.Fatalf("model calls = %d, want 1", len(model.requests))
	}
}

func TestRunToolLoopWithFinalize(t *testing.T) {
	model := &scriptedModel{script: []*Completion{
		{ToolCalls: []core.ToolCall{{ID: "c1", Name: "echo", Arguments: json.RawMessage(`{"top": 3}`)}}},
		{Text: "I have what I need."},
		{Text: `{"answer": "42"}`},
	}}
	e := newTestEngine(model, echoTool("echo"))

	out, err := e.Run(context.Background(), &Input{
		UserID:         "user-1",
		PeriodDays:     60,
		UserMessage:    "analyze",
		MaxIterations:  6,
		ResponseSchema: json.RawMessage(`{"type":"object"}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusComplete {
		t.Fatalf("status = %s", out.Status)
	}
	if string(out.Raw) != `{"answer": "42"}` {
		t.Fatalf("raw = %s", out.Raw)
	}
	if out.Iterations != 2 {
		t.Errorf("iterations = %d, want 2 (finalize excluded)", out.Iterations)
	}
	if len(out.ToolsUsed) != 1 || out.ToolsUsed[0] != "echo" {
		t.Errorf("tools used = %v", out.ToolsUsed)
	}

	// three model calls: tool turn, answer turn, finalize
	if len(model.requests) != 3 {
		t.Fatalf("model calls = %d, want 3", len(model.requests))
	}
	// finalize call carries no tools and embeds the schema
	final := model.requests[2]
	if len(final.Tools) != 0 {
		t.Error("finalize call should not offer tools")
	}
	lastMsg := final.Messages[len(final.Messages)-1]
	if lastMsg.Role != core.RoleUser {
		t.Errorf("finalize prompt role = %s", lastMsg.Role)
	}

	// the tool result fed back to the model carries the injected identity
	second := model.requests[1]
	toolMsg := second.Messages[len(second.Messages)-1]
	if toolMsg.Role != core.RoleTool || toolMsg.ToolID != "c1" {
		t.Fatalf("tool message = %+v", toolMsg)
	}
	var result struct {
		Echo   map[string]interface{} `json:"echo"`
		Caller string                 `json:"caller"`
	}
	if err := json.Unmarshal([]byte(toolMsg.Content), &result); err != nil {
		t.Fatal(err)
	}
	if result.Caller != "user-1" {
		t.Errorf("caller = %q", result.Caller)
	}
	if result.Echo["user_id"] != "user-1" {
		t.Errorf("user_id not injected: %v", result.Echo)
	}
	if result.Echo["period_days"] != 60.0 {
		t.Errorf("period_days not injected: %v", result.Echo)
	}
	if result.Echo["top"] != 3.0 {
		t.Errorf("original argument lost: %v", result.Echo)
	}
}

func TestRunMalformedArguments(t *testing.T) {
	model := &scriptedModel{script: []*Completion{
		{ToolCalls: []core.ToolCall{{ID: "c1", Name: "echo", Arguments: json.RawMessage(`{not json`)}}},
		{Text: "ok"},
	}}
	e := newTestEngine(model, echoTool("echo"))

	out, err := e.Run(context.Background(), &Input{UserID: "u1", PeriodDays: 30, UserMessage: "go"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusComplete {
		t.Fatalf("status = %s", out.Status)
	}

	toolMsg := model.requests[1].Messages[len(model.requests[1].Messages)-1]
	if toolMsg.IsError {
		t.Fatalf("malformed args should degrade to empty object, got error: %s", toolMsg.Content)
	}
	var result struct {
		Echo map[string]interface{} `json:"echo"`
	}
	if err := json.Unmarshal([]byte(toolMsg.Content), &result); err != nil {
		t.Fatal(err)
	}
	if result.Echo["user_id"] != "u1" || result.Echo["period_days"] != 30.0 {
		t.Errorf("injection missing after malformed args: %v", result.Echo)
	}
}

func TestRunUnknownTool(t *testing.T) {
	model := &scriptedModel{script: []*Completion{
		{ToolCalls: []core.ToolCall{{ID: "c1", Name: "no_such_tool", Arguments: json.RawMessage(`{}`)}}},
		{Text: "understood"},
	}}
	e := newTestEngine(model)

	out, err := e.Run(context.Background(), &Input{UserID: "u", UserMessage: "go"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusComplete {
		t.Fatalf("status = %s", out.Status)
	}

	toolMsg := model.requests[1].Messages[len(model.requests[1].Messages)-1]
	if !toolMsg.IsError {
		t.Fatal("unknown tool should produce an error result")
	}
	if toolMsg.Content != `{"error":"unknown tool: no_such_tool"}` {
		t.Errorf("content = %s", toolMsg.Content)
	}
}

func TestRunIterationBudget(t *testing.T) {
	loop := &Completion{ToolCalls: []core.ToolCall{{ID: "c", Name: "echo", Arguments: json.RawMessage(`{}`)}}}
	model := &scriptedModel{script: []*Completion{loop, loop, loop, loop, loop}}
	e := newTestEngine(model, echoTool("echo"))

	out, err := e.Run(context.Background(), &Input{UserID: "u", UserMessage: "go", MaxIterations: 3})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusIncomplete {
		t.Fatalf("status = %s, want incomplete", out.Status)
	}
	if out.Iterations != 3 {
		t.Errorf("iterations = %d", out.Iterations)
	}
	if out.Text != "Analysis incomplete" {
		t.Errorf("text = %q", out.Text)
	}
	if len(model.requests) != 3 {
		t.Errorf("model calls = %d, want 3", len(model.requests))
	}
	if len(out.ToolsUsed) != 3 {
		t.Errorf("tools used = %v", out.ToolsUsed)
	}
}

func TestRunHistoryTrimmed(t *testing.T) {
	model := &scriptedModel{script: []*Completion{{Text: "hi"}}}
	e := newTestEngine(model)

	var history []core.Message
	for i := 0; i < 10; i++ {
		history = append(history, core.UserMessage("old"))
	}
	history = append(history, core.AssistantMessage("newest"))

	if _, err := e.Run(context.Background(), &Input{UserID: "u", UserMessage: "now", History: history}); err != nil {
		t.Fatal(err)
	}

	msgs := model.requests[0].Messages
	// 6 history entries plus the new user message
	if len(msgs) != 7 {
		t.Fatalf("messages = %d, want 7", len(msgs))
	}
	if msgs[5].Content != "newest" {
		t.Errorf("trim dropped the wrong end: %+v", msgs[5])
	}
	if msgs[6].Content != "now" {
		t.Errorf("user message missing: %+v", msgs[6])
	}
}

func TestRunUnparseableFinalAnswer(t *testing.T) {
	model := &scriptedModel{script: []*Completion{
		{Text: "my analysis"},
		{Text: "sorry, I cannot produce JSON"},
	}}
	e := newTestEngine(model)

	out, err := e.Run(context.Background(), &Input{
		UserID:         "u",
		UserMessage:    "go",
		ResponseSchema: json.RawMessage(`{"type":"object"}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusComplete {
		t.Fatalf("status = %s", out.Status)
	}
	if out.Raw != nil {
		t.Errorf("raw = %s, want nil", out.Raw)
	}
	if out.Text != "my analysis" {
		t.Errorf("text = %q", out.Text)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around", `Here you go: {"a": 1} hope it helps`, `{"a": 1}`},
		{"nested braces", `{"a": {"b": "}"}}`, `{"a": {"b": "}"}}`},
		{"no object", "no json here", ""},
		{"unbalanced", `{"a": 1`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractJSON(tc.in)
			if string(got) != tc.want {
				t.Fatalf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	registry := NewToolRegistry()
	registry.RegisterAll(echoTool("b_tool"), echoTool("a_tool"))

	if _, ok := registry.Get("a_tool"); !ok {
		t.Fatal("a_tool not registered")
	}
	if _, ok := registry.Get("missing"); ok {
		t.Fatal("unexpected tool")
	}

	names := registry.List()
	if len(names) != 2 || names[0] != "a_tool" || names[1] != "b_tool" {
		t.Fatalf("List() = %v", names)
	}

	defs := registry.Definitions()
	if len(defs) != 2 || defs[0].Name != "a_tool" {
		t.Fatalf("Definitions() = %+v", defs)
	}
}
