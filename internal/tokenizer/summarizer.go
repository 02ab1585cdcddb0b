package tokenizer

import (
	"fmt"
	"strings"

	"github.com/thaaaru/kadiya/internal/provider"
)

// transcriptMsgLimit bounds each message's contribution to the summary
// transcript.
const transcriptMsgLimit = 500

const summaryPromptTemplate = `Summarize this conversation in 2-3 sentences.
Focus on: key facts, decisions made, user preferences.
Output only the summary, no preamble.

Conversation:
%s`

// ConversationSummarizer decides when a message history is long enough to
// compress and performs the mechanical split/reinjection. It never calls a
// model itself — generating the actual summary is the transport's job.
type ConversationSummarizer struct {
	retainLast int
	model      string
}

// NewSummarizer creates a summarizer that keeps the last retainLast
// non-system messages intact and targets the given model for summary
// generation.
func NewSummarizer(retainLast int, model string) *ConversationSummarizer {
	if retainLast < 1 {
		retainLast = 1
	}
	return &ConversationSummarizer{retainLast: retainLast, model: model}
}

// Model returns the model identifier to use for the summarization call.
func (s *ConversationSummarizer) Model() string { return s.model }

// ShouldSummarize reports whether the history has grown past threshold.
// Only user/assistant messages count; system messages are excluded.
func (s *ConversationSummarizer) ShouldSummarize(messages []provider.Message, threshold int) bool {
	count := 0
	for _, m := range messages {
		if m.Role == provider.RoleUser || m.Role == provider.RoleAssistant {
			count++
		}
	}
	return count > threshold
}

// PrepareForSummary partitions the non-system messages into the portion to
// summarize (all but the last retainLast) and returns that portion plus a
// flattened transcript of it: each message truncated to 500 characters and
// prefixed by its upper-cased role. Returns an empty split when there is
// nothing to summarize.
func (s *ConversationSummarizer) PrepareForSummary(messages []provider.Message) ([]provider.Message, string) {
	var conversation []provider.Message
	for _, m := range messages {
		if m.Role != provider.RoleSystem {
			conversation = append(conversation, m)
		}
	}
	if len(conversation) <= s.retainLast {
		return nil, ""
	}

	toSummarize := conversation[:len(conversation)-s.retainLast]

	var lines []string
	for _, m := range toSummarize {
		if m.Content == "" {
			continue
		}
		content := m.Content
		if r := []rune(content); len(r) > transcriptMsgLimit {
			content = string(r[:transcriptMsgLimit])
		}
		lines = append(lines, strings.ToUpper(m.Role)+": "+content)
	}

	return toSummarize, strings.Join(lines, "\n")
}

// SummaryPrompt wraps a transcript in the fixed summarization instruction.
func (s *ConversationSummarizer) SummaryPrompt(transcript string) string {
	return fmt.Sprintf(summaryPromptTemplate, transcript)
}

// BuildSummarizedContext rebuilds the message list as
// [system messages] + [summary marker message] + [retained tail],
// discarding the summarized middle.
func (s *ConversationSummarizer) BuildSummarizedContext(summary string, messages []provider.Message) []provider.Message {
	var systemMsgs, conversation []provider.Message
	for _, m := range messages {
		if m.Role == provider.RoleSystem {
			systemMsgs = append(systemMsgs, m)
		} else {
			conversation = append(conversation, m)
		}
	}

	retained := conversation
	if len(conversation) > s.retainLast {
		retained = conversation[len(conversation)-s.retainLast:]
	}

	rebuilt := make([]provider.Message, 0, len(systemMsgs)+1+len(retained))
	rebuilt = append(rebuilt, systemMsgs...)
	if summary != "" {
		rebuilt = append(rebuilt, provider.Message{
			Role:    provider.RoleUser,
			Content: "[Previous conversation summary: " + summary + "]",
		})
	}
	rebuilt = append(rebuilt, retained...)
	return rebuilt
}
