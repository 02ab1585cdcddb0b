// Package dispatch orchestrates one chat request end to end: build routing
// context, route, optimize the prompt, send, truncate, record usage, update
// retry state.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/thaaaru/kadiya/internal/config"
	"github.com/thaaaru/kadiya/internal/limiter"
	"github.com/thaaaru/kadiya/internal/provider"
	"github.com/thaaaru/kadiya/internal/router"
	"github.com/thaaaru/kadiya/internal/tokenizer"
	"github.com/thaaaru/kadiya/internal/usage"
)

// Messages shorter than this skip prompt optimization entirely.
const optimizeMinChars = 100

// Optimizations saving fewer tokens than this are discarded.
const optimizeMinSavings = 5

// Events receives per-request notifications. May be nil (disabled).
// Implementations must not block; they only see aggregate numbers.
type Events interface {
	RoutingDecided(intent string, d router.Decision, effectiveMaxTokens int)
	UsageRecorded(m usage.Metrics)
}

// Request is a single inbound chat request.
type Request struct {
	Messages    []provider.Message
	Tools       []provider.Tool
	Model       string // override; empty routes normally
	MaxTokens   int    // caller ceiling; 0 means "no caller ceiling"
	Temperature float64
	SessionKey  string
}

// Result is a dispatched response plus the routing decision that produced it.
type Result struct {
	*provider.ChatResponse
	Intent             string
	Decision           router.Decision
	EffectiveMaxTokens int
}

// Dispatcher wires the routing and optimization components around a single
// transport call. All components are stateless; the tracker and the
// per-session retry state are the only mutable parts.
type Dispatcher struct {
	transport provider.Transport
	profile   *config.Profile

	router     *router.Router
	intents    *tokenizer.IntentDetector
	optimizer  *tokenizer.PromptOptimizer
	truncator  *tokenizer.ResponseTruncator
	summarizer *tokenizer.ConversationSummarizer
	tracker    *usage.Tracker
	events     Events

	mu       sync.Mutex
	retries  map[string]int
	sessions map[string]*sync.Mutex
}

// New creates a Dispatcher. events may be nil.
func New(transport provider.Transport, profile *config.Profile, tracker *usage.Tracker, events Events) *Dispatcher {
	if profile == nil {
		profile = config.DefaultProfile()
	}
	return &Dispatcher{
		transport: transport,
		profile:   profile,
		router:    router.New(profile.RouterTiers(), profile.IntentLimits()),
		intents:   tokenizer.NewIntentDetector(),
		optimizer: tokenizer.NewPromptOptimizer(profile.Optimization.Aggressive),
		truncator: tokenizer.NewResponseTruncator(),
		summarizer: tokenizer.NewSummarizer(
			profile.Conversation.RetainLastMessages,
			profile.Conversation.SummarizeModel,
		),
		tracker:  tracker,
		events:   events,
		retries:  make(map[string]int),
		sessions: make(map[string]*sync.Mutex),
	}
}

// Dispatch performs the full routed chat flow for one request. The session
// lock serializes requests per session key so retry escalation stays
// meaningful; distinct sessions run concurrently.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (*Result, error) {
	sessionKey := req.SessionKey
	if sessionKey == "" {
		sessionKey = "default"
	}
	lock := d.sessionLock(sessionKey)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	retryCount := d.retryCount(sessionKey)

	messages := d.maybeSummarize(ctx, req.Messages)

	userText := provider.LastUserMessage(messages)
	intent := d.intents.Detect(userText)

	rctx := router.NewContext(intent, userText, d.detectJSONNeed(messages, req.Tools), false, retryCount)

	var decision router.Decision
	if req.Model != "" {
		// Override still routes for tier/reason bookkeeping; the requested
		// ceiling is clamped, never raised.
		base := d.router.Route(rctx)
		maxTokens := req.MaxTokens
		if maxTokens <= 0 || maxTokens > d.profile.TokenLimits.MaxOutputTokens {
			maxTokens = d.profile.TokenLimits.MaxOutputTokens
		}
		decision = router.Decision{
			Tier:            base.Tier,
			Model:           req.Model,
			MaxOutputTokens: maxTokens,
			Reason:          router.ReasonModelOverride,
		}
	} else {
		decision = d.router.Route(rctx)
	}

	effectiveMax := decision.MaxOutputTokens
	if req.MaxTokens > 0 && req.MaxTokens < effectiveMax {
		effectiveMax = req.MaxTokens
	}
	if d.profile.TokenLimits.MaxOutputTokens < effectiveMax {
		effectiveMax = d.profile.TokenLimits.MaxOutputTokens
	}

	optimized := d.optimizeMessages(messages)

	log.Printf("routing: intent=%s tier=%s model=%s max_tokens=%d reason=%s",
		intent, decision.Tier, decision.Model, effectiveMax, decision.Reason)
	if d.events != nil {
		d.events.RoutingDecided(intent, decision, effectiveMax)
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = d.profile.Agent.Temperature
	}

	resp, err := d.transport.Chat(ctx, &provider.ChatRequest{
		Messages:    optimized,
		Tools:       req.Tools,
		Model:       decision.Model,
		MaxTokens:   effectiveMax,
		Temperature: temperature,
	})
	if err != nil {
		// No retry here — the caller decides. The next request for this
		// session escalates per the retry rule.
		d.setRetryCount(sessionKey, retryCount+1)
		if limiter.ForModel(decision.Model).DetectLimit(err.Error()) {
			log.Printf("dispatch: %s throttled; next request for session escalates", decision.Model)
		}
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	d.setRetryCount(sessionKey, 0)

	latencyMS := int(time.Since(start).Milliseconds())

	inputTokens := resp.Usage.PromptTokens
	if inputTokens == 0 {
		inputTokens = rctx.InputTokens
	}
	metrics := usage.NewMetrics(decision.Model, decision.Tier, inputTokens, resp.Usage.CompletionTokens, latencyMS)
	d.tracker.Record(metrics)
	if d.events != nil {
		d.events.UsageRecorded(metrics)
	}

	if utf8.RuneCountInString(resp.Content) > effectiveMax*4 {
		resp.Content = d.truncator.Truncate(resp.Content, effectiveMax, tokenizer.StrategySmart)
	}

	return &Result{
		ChatResponse:       resp,
		Intent:             intent,
		Decision:           decision,
		EffectiveMaxTokens: effectiveMax,
	}, nil
}

// Tracker exposes the usage tracker for summary surfaces (API, Telegram).
func (d *Dispatcher) Tracker() *usage.Tracker { return d.tracker }

// UsageSummary returns the formatted usage line.
func (d *Dispatcher) UsageSummary() string { return d.tracker.FormatSummary() }

// maybeSummarize compresses a long history through the transport before
// routing. Best-effort: on any failure the original history is used.
func (d *Dispatcher) maybeSummarize(ctx context.Context, messages []provider.Message) []provider.Message {
	threshold := d.profile.Conversation.SummarizeAfterTurns
	if threshold <= 0 || !d.summarizer.ShouldSummarize(messages, threshold) {
		return messages
	}

	_, transcript := d.summarizer.PrepareForSummary(messages)
	if transcript == "" {
		return messages
	}

	resp, err := d.transport.Chat(ctx, &provider.ChatRequest{
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: d.summarizer.SummaryPrompt(transcript)},
		},
		Model:       d.summarizer.Model(),
		MaxTokens:   256,
		Temperature: d.profile.Agent.Temperature,
	})
	if err != nil || resp.Content == "" {
		log.Printf("dispatch: summarize failed, keeping full history: %v", err)
		return messages
	}

	log.Printf("dispatch: summarized history (%d messages retained)", d.profile.Conversation.RetainLastMessages)
	return d.summarizer.BuildSummarizedContext(resp.Content, messages)
}

// detectJSONNeed reports whether the request requires structured output:
// tools always do; otherwise a system prompt mentioning JSON does.
func (d *Dispatcher) detectJSONNeed(messages []provider.Message, tools []provider.Tool) bool {
	if len(tools) > 0 {
		return true
	}
	for _, m := range messages {
		if m.Role != provider.RoleSystem {
			continue
		}
		lower := strings.ToLower(m.Content)
		if strings.Contains(lower, "json") || strings.Contains(lower, "structured") {
			return true
		}
	}
	return false
}

// optimizeMessages compresses user messages only, and only keeps an
// optimization that actually saves tokens. System prompts pass untouched.
func (d *Dispatcher) optimizeMessages(messages []provider.Message) []provider.Message {
	optimized := make([]provider.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == provider.RoleUser && utf8.RuneCountInString(m.Content) > optimizeMinChars {
			result := d.optimizer.Optimize(m.Content)
			if result.TokensSaved > optimizeMinSavings {
				optimized = append(optimized, provider.Message{Role: m.Role, Content: result.Text})
				continue
			}
		}
		optimized = append(optimized, m)
	}
	return optimized
}

func (d *Dispatcher) sessionLock(key string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	if l, ok := d.sessions[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	d.sessions[key] = l
	return l
}

func (d *Dispatcher) retryCount(key string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.retries[key]
}

func (d *Dispatcher) setRetryCount(key string, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.retries[key] = n
}
