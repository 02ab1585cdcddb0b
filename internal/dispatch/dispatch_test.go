package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thaaaru/kadiya/internal/provider"
	"github.com/thaaaru/kadiya/internal/router"
	"github.com/thaaaru/kadiya/internal/usage"
)

// fakeTransport records requests and serves canned responses. failures sets
// how many calls fail before it starts succeeding.
type fakeTransport struct {
	mu       sync.Mutex
	requests []*provider.ChatRequest
	failures int
	content  string
	usage    provider.Usage
}

func (f *fakeTransport) Chat(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("upstream unavailable")
	}
	return &provider.ChatResponse{Content: f.content, Usage: f.usage}, nil
}

func (f *fakeTransport) sent() []*provider.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*provider.ChatRequest(nil), f.requests...)
}

func newTestDispatcher(ft *fakeTransport) *Dispatcher {
	return New(ft, nil, usage.NewTracker(), nil)
}

func userMsg(text string) []provider.Message {
	return []provider.Message{{Role: provider.RoleUser, Content: text}}
}

func TestDispatch_DefaultCheapRouting(t *testing.T) {
	ft := &fakeTransport{content: "hi!"}
	d := newTestDispatcher(ft)

	resp, err := d.Dispatch(context.Background(), &Request{Messages: userMsg("hello there")})
	require.NoError(t, err)
	assert.Equal(t, "hi!", resp.Content)
	assert.Equal(t, "general", resp.Intent)
	assert.Equal(t, router.TierCheapGeneral, resp.Decision.Tier)
	assert.Equal(t, router.ReasonDefaultCheap, resp.Decision.Reason)
	assert.Equal(t, 1024, resp.EffectiveMaxTokens)

	sent := ft.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "deepseek/deepseek-chat", sent[0].Model)
	assert.Equal(t, 1024, sent[0].MaxTokens)
	assert.Equal(t, 0.3, sent[0].Temperature)
}

func TestDispatch_RetryEscalation(t *testing.T) {
	ft := &fakeTransport{content: "ok", failures: 2}
	d := newTestDispatcher(ft)
	req := &Request{Messages: userMsg("hello there"), SessionKey: "s1"}

	_, err := d.Dispatch(context.Background(), req)
	require.Error(t, err)
	_, err = d.Dispatch(context.Background(), req)
	require.Error(t, err)

	// Third attempt has retry_count=2 and escalates to the fallback tier.
	_, err = d.Dispatch(context.Background(), req)
	require.NoError(t, err)

	sent := ft.sent()
	require.Len(t, sent, 3)
	assert.Equal(t, "deepseek/deepseek-chat", sent[0].Model)
	assert.Equal(t, "deepseek/deepseek-chat", sent[1].Model)
	assert.Equal(t, "openai/gpt-4o-mini", sent[2].Model)

	// Success resets the counter; the next request routes cheap again.
	_, err = d.Dispatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "deepseek/deepseek-chat", ft.sent()[3].Model)
}

func TestDispatch_RetryCountIsPerSession(t *testing.T) {
	ft := &fakeTransport{content: "ok", failures: 2}
	d := newTestDispatcher(ft)

	_, _ = d.Dispatch(context.Background(), &Request{Messages: userMsg("hello"), SessionKey: "a"})
	_, _ = d.Dispatch(context.Background(), &Request{Messages: userMsg("hello"), SessionKey: "a"})

	// A different session starts from retry_count=0.
	_, err := d.Dispatch(context.Background(), &Request{Messages: userMsg("hello"), SessionKey: "b"})
	require.NoError(t, err)
	assert.Equal(t, "deepseek/deepseek-chat", ft.sent()[2].Model)
}

func TestDispatch_ModelOverrideClampsCeiling(t *testing.T) {
	ft := &fakeTransport{content: "ok"}
	d := newTestDispatcher(ft)

	_, err := d.Dispatch(context.Background(), &Request{
		Messages:  userMsg("hello there"),
		Model:     "openai/gpt-4o",
		MaxTokens: 99999,
	})
	require.NoError(t, err)

	sent := ft.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "openai/gpt-4o", sent[0].Model)
	// Requested ceiling above the profile hard limit is clamped, never raised.
	assert.Equal(t, 2048, sent[0].MaxTokens)
}

func TestDispatch_ModelOverrideKeepsLowerCeiling(t *testing.T) {
	ft := &fakeTransport{content: "ok"}
	d := newTestDispatcher(ft)

	_, err := d.Dispatch(context.Background(), &Request{
		Messages:  userMsg("hello there"),
		Model:     "openai/gpt-4o",
		MaxTokens: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, ft.sent()[0].MaxTokens)
}

func TestDispatch_IntentLimitApplied(t *testing.T) {
	ft := &fakeTransport{content: "ok"}
	d := newTestDispatcher(ft)

	_, err := d.Dispatch(context.Background(), &Request{Messages: userMsg("summarize this for me")})
	require.NoError(t, err)
	assert.Equal(t, 256, ft.sent()[0].MaxTokens)
}

func TestDispatch_SensitiveContentRouting(t *testing.T) {
	ft := &fakeTransport{content: "ok"}
	d := newTestDispatcher(ft)

	_, err := d.Dispatch(context.Background(), &Request{Messages: userMsg("my password is hunter2")})
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-3-haiku-20240307", ft.sent()[0].Model)
}

func TestDispatch_ToolsForceStructuredTier(t *testing.T) {
	ft := &fakeTransport{content: "ok"}
	d := newTestDispatcher(ft)

	_, err := d.Dispatch(context.Background(), &Request{
		Messages: userMsg("hello there"),
		Tools:    []provider.Tool{{Name: "get_weather"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-3-haiku-20240307", ft.sent()[0].Model)
}

func TestDispatch_SystemPromptJSONDetection(t *testing.T) {
	ft := &fakeTransport{content: "ok"}
	d := newTestDispatcher(ft)

	_, err := d.Dispatch(context.Background(), &Request{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "Always respond in JSON."},
			{Role: provider.RoleUser, Content: "list three fruits"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-3-haiku-20240307", ft.sent()[0].Model)
}

func TestDispatch_OptimizesLongUserMessages(t *testing.T) {
	ft := &fakeTransport{content: "ok"}
	d := newTestDispatcher(ft)

	long := strings.Repeat("could you please pass the salt. ", 5)
	_, err := d.Dispatch(context.Background(), &Request{Messages: userMsg(long)})
	require.NoError(t, err)

	sent := ft.sent()[0].Messages[0].Content
	assert.NotContains(t, strings.ToLower(sent), "please")
	assert.Less(t, utf8.RuneCountInString(sent), utf8.RuneCountInString(long))
}

func TestDispatch_ShortMessagesNotOptimized(t *testing.T) {
	ft := &fakeTransport{content: "ok"}
	d := newTestDispatcher(ft)

	_, err := d.Dispatch(context.Background(), &Request{Messages: userMsg("could you pass the salt")})
	require.NoError(t, err)
	assert.Equal(t, "could you pass the salt", ft.sent()[0].Messages[0].Content)
}

func TestDispatch_TruncatesOverlongResponses(t *testing.T) {
	ft := &fakeTransport{content: strings.Repeat("a", 5000)}
	d := newTestDispatcher(ft)

	resp, err := d.Dispatch(context.Background(), &Request{
		Messages:  userMsg("hello there"),
		MaxTokens: 10,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, utf8.RuneCountInString(resp.Content), 10*4+len("..."))
}

func TestDispatch_MetricsFallBackToEstimatedTokens(t *testing.T) {
	ft := &fakeTransport{content: "hi"}
	d := newTestDispatcher(ft)

	_, err := d.Dispatch(context.Background(), &Request{Messages: userMsg("hello there")})
	require.NoError(t, err)

	h := d.Tracker().History()
	require.Len(t, h, 1)
	// The provider reported no usage; input falls back to the estimate.
	assert.Equal(t, 3, h[0].InputTokens)
}

func TestDispatch_SummarizesLongHistories(t *testing.T) {
	ft := &fakeTransport{content: "They talked about rice prices."}
	d := newTestDispatcher(ft)

	var msgs []provider.Message
	for i := 0; i < 12; i++ {
		role := provider.RoleUser
		if i%2 == 1 {
			role = provider.RoleAssistant
		}
		msgs = append(msgs, provider.Message{Role: role, Content: "turn number " + strings.Repeat("x", i)})
	}

	_, err := d.Dispatch(context.Background(), &Request{Messages: msgs})
	require.NoError(t, err)

	sent := ft.sent()
	require.Len(t, sent, 2)

	// First call is the summarization request.
	assert.Equal(t, "deepseek/deepseek-chat", sent[0].Model)
	assert.Equal(t, 256, sent[0].MaxTokens)
	assert.Contains(t, sent[0].Messages[0].Content, "Summarize this conversation")

	// Second call carries the compacted history: summary marker + 2 retained.
	require.Len(t, sent[1].Messages, 3)
	assert.Contains(t, sent[1].Messages[0].Content, "[Previous conversation summary:")
}

func TestDispatch_UsageSummary(t *testing.T) {
	ft := &fakeTransport{content: "hi", usage: provider.Usage{PromptTokens: 10, CompletionTokens: 5}}
	d := newTestDispatcher(ft)

	_, err := d.Dispatch(context.Background(), &Request{Messages: userMsg("hello there")})
	require.NoError(t, err)
	assert.Contains(t, d.UsageSummary(), "Requests: 1")
	assert.Equal(t, 10, d.Tracker().History()[0].InputTokens)
}
