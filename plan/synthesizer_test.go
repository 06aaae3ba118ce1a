package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/furtivegod/becomeyou/completion"
	"github.com/furtivegod/becomeyou/models"
)

type stubCompleter struct {
	reply string
	err   error
}

func (s *stubCompleter) Complete(_ context.Context, _ string, _ []completion.Message) (string, error) {
	return s.reply, s.err
}

const validPlanJSON = `{
	"title": "Test Plan",
	"summary": "A summary.",
	"core_patterns": [{"name": "Deferral", "description": "Puts things off.", "cost": "Lost mornings."}],
	"root_cause": "Decisions under depletion.",
	"protocol_30_day": [{"phase": "Notice", "days": "1-10", "focus": "Observation.", "practices": ["Log daily"]}],
	"quick_wins": ["Do one thing"],
	"invitation": "Reply to go further."
}`

func TestParseDocumentPlainJSON(t *testing.T) {
	doc, err := ParseDocument(validPlanJSON)
	require.NoError(t, err)
	require.Equal(t, "Test Plan", doc.Title)
	require.Len(t, doc.CorePatterns, 1)
	require.Equal(t, "Deferral", doc.CorePatterns[0].Name)
}

func TestParseDocumentStripsMarkdownFence(t *testing.T) {
	fenced := "```json\n" + validPlanJSON + "\n```"
	doc, err := ParseDocument(fenced)
	require.NoError(t, err)
	require.Equal(t, "Test Plan", doc.Title)
}

func TestParseDocumentIgnoresSurroundingProse(t *testing.T) {
	wrapped := "Here is your plan:\n" + validPlanJSON + "\nLet me know if you need anything else."
	doc, err := ParseDocument(wrapped)
	require.NoError(t, err)
	require.Equal(t, "Test Plan", doc.Title)
}

func TestParseDocumentRepairsTruncatedOutput(t *testing.T) {
	// Truncated mid-array: unbalanced braces and brackets.
	truncated := `{"title": "Cut Short", "summary": "S", "quick_wins": ["one", "two"`
	doc, err := ParseDocument(truncated)
	require.NoError(t, err)
	require.Equal(t, "Cut Short", doc.Title)
	require.Equal(t, []string{"one", "two"}, doc.QuickWins)
}

func TestParseDocumentRejectsGarbage(t *testing.T) {
	_, err := ParseDocument("I'm sorry, I cannot produce a plan right now.")
	require.Error(t, err)
}

func TestSynthesizeFallsBackOnGarbage(t *testing.T) {
	s := NewSynthesizer(&stubCompleter{reply: "{{{ not json ]"}, zap.NewNop())
	doc := s.Synthesize(context.Background(), nil)

	fallback := FallbackDocument()
	require.Equal(t, fallback.Title, doc.Title)
	requireSchemaPopulated(t, doc)
}

func TestSynthesizeFallsBackOnCompletionError(t *testing.T) {
	s := NewSynthesizer(&stubCompleter{err: errors.New("upstream down")}, zap.NewNop())
	doc := s.Synthesize(context.Background(), nil)
	requireSchemaPopulated(t, doc)
}

func TestSynthesizeReturnsParsedDocument(t *testing.T) {
	s := NewSynthesizer(&stubCompleter{reply: "```json\n" + validPlanJSON + "\n```"}, zap.NewNop())
	doc := s.Synthesize(context.Background(), nil)
	require.Equal(t, "Test Plan", doc.Title)
}

func TestTruncateDropsOldestFirst(t *testing.T) {
	transcript := []completion.Message{
		{Role: "user", Content: "aaaaaaaaaa"},
		{Role: "assistant", Content: "bbbbbbbbbb"},
		{Role: "user", Content: "cccccccccc"},
	}
	got := Truncate(transcript, 21)
	require.Len(t, got, 2)
	require.Equal(t, "bbbbbbbbbb", got[0].Content)

	// A transcript already within budget is untouched.
	require.Len(t, Truncate(transcript, 1000), 3)
}

// requireSchemaPopulated asserts every required top-level key carries
// content, the guarantee the synthesizer makes for fallback output.
func requireSchemaPopulated(t *testing.T, doc *models.PlanDocument) {
	t.Helper()
	require.NotEmpty(t, doc.Title)
	require.NotEmpty(t, doc.Summary)
	require.NotEmpty(t, doc.CorePatterns)
	require.NotEmpty(t, doc.RootCause)
	require.NotEmpty(t, doc.Protocol)
	require.NotEmpty(t, doc.QuickWins)
	require.NotEmpty(t, doc.Invitation)
}
