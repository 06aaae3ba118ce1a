// Package plan turns an assessment transcript into a structured plan
// document via the completion API, with a deterministic parse ->
// repair -> fallback pipeline so the rest of the system always has a
// schema-conforming document to work with.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/furtivegod/becomeyou/completion"
	"github.com/furtivegod/becomeyou/models"
)

// maxTranscriptChars bounds how much conversation is sent to the
// completion API. Older turns are dropped first.
const maxTranscriptChars = 24000

const synthesisDirective = `You are a behavioral assessment analyst. Using the conversation below,
produce the client's personalized 30-day plan as a single JSON object with exactly these keys:
"title", "summary", "core_patterns" (array of {"name","description","cost"}),
"root_cause", "protocol_30_day" (array of {"phase","days","focus","practices"}),
"quick_wins" (array of strings), "invitation".
Respond with the JSON object only. No prose before or after it.`

// Completer is the slice of the completion client the synthesizer needs.
type Completer interface {
	Complete(ctx context.Context, system string, msgs []completion.Message) (string, error)
}

type Synthesizer struct {
	completer Completer
	logger    *zap.Logger
}

func NewSynthesizer(completer Completer, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{completer: completer, logger: logger}
}

// Synthesize always returns a schema-conforming document. When the
// completion call fails or its output cannot be parsed even after
// bracket repair, the static fallback document is returned instead of
// an error: availability over fidelity.
func (s *Synthesizer) Synthesize(ctx context.Context, transcript []completion.Message) *models.PlanDocument {
	raw, err := s.completer.Complete(ctx, synthesisDirective, Truncate(transcript, maxTranscriptChars))
	if err != nil {
		s.logger.Error("plan synthesis completion call failed, using fallback document", zap.Error(err))
		return FallbackDocument()
	}

	doc, err := ParseDocument(raw)
	if err != nil {
		s.logger.Warn("plan synthesis output unparseable, using fallback document",
			zap.Error(err),
			zap.Int("raw_len", len(raw)),
		)
		return FallbackDocument()
	}
	return doc
}

// ParseDocument extracts a PlanDocument from raw completion output.
// It strips markdown code fences, takes the outermost {...} span, and
// on a parse failure attempts one bracket-balancing repair before
// giving up.
func ParseDocument(raw string) (*models.PlanDocument, error) {
	candidate := extractJSON(raw)
	if candidate == "" {
		return nil, fmt.Errorf("no JSON object found in completion output")
	}

	var doc models.PlanDocument
	if err := json.Unmarshal([]byte(candidate), &doc); err == nil {
		return &doc, nil
	}

	repaired := repairBrackets(candidate)
	if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse plan document after bracket repair: %w", err)
	}
	return &doc, nil
}

// extractJSON strips ```json fences and returns the outermost brace
// span, or "" if the text contains no opening brace.
func extractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(text, "}")
	if end > start {
		return text[start : end+1]
	}
	// Truncated output with no closing brace: keep the tail and let
	// repairBrackets close it.
	return text[start:]
}

// repairBrackets appends the closers for any unmatched { and [ in the
// candidate, innermost first. String contents are skipped so braces in
// values do not skew the count.
func repairBrackets(candidate string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(candidate); i++ {
		c := candidate[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}', ']':
			if !inString && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	repaired := candidate
	if inString {
		repaired += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			repaired += "}"
		} else {
			repaired += "]"
		}
	}
	return repaired
}

// Truncate drops the oldest messages until the transcript fits within
// maxChars. The most recent turns carry the most signal for synthesis.
func Truncate(transcript []completion.Message, maxChars int) []completion.Message {
	total := 0
	for _, m := range transcript {
		total += len(m.Content)
	}
	start := 0
	for start < len(transcript)-1 && total > maxChars {
		total -= len(transcript[start].Content)
		start++
	}
	return transcript[start:]
}
