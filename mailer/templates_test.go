package mailer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/furtivegod/becomeyou/models"
)

func samplePlan() *models.PlanDocument {
	return &models.PlanDocument{
		Title:   "The Deferral Reset",
		Summary: "A month of noticing before fixing.",
		CorePatterns: []models.PlanPattern{
			{Name: "Deferred starts", Description: "Waiting for readiness that never arrives.", Cost: "Lost mornings."},
		},
		RootCause: "Decisions made under depletion.",
		Protocol: []models.ProtocolStep{
			{Phase: "Notice", Days: "1-10", Focus: "Observation only.", Practices: []string{"Log one instance daily"}},
			{Phase: "Interrupt", Days: "11-20", Focus: "One deliberate interruption per day.", Practices: []string{"Two-minute start"}},
		},
		QuickWins:  []string{"Start before coffee"},
		Invitation: "Reply if you want to map the next phase.",
	}
}

func TestMagicLinkMessage(t *testing.T) {
	msg, err := MagicLinkMessage("ada@example.com", "Ada", "https://app.example.com/assessment/S1?token=abc")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", msg.To)
	require.Contains(t, msg.HTML, "Hi Ada,")
	require.Contains(t, msg.HTML, "https://app.example.com/assessment/S1?token=abc")
}

func TestMagicLinkMessageWithoutName(t *testing.T) {
	msg, err := MagicLinkMessage("ada@example.com", "", "https://x")
	require.NoError(t, err)
	require.Contains(t, msg.HTML, "Hi,")
}

func TestReportReadyMessageIncludesPlanTitle(t *testing.T) {
	msg, err := ReportReadyMessage("ada@example.com", "Ada", "https://x/plan.pdf", samplePlan())
	require.NoError(t, err)
	require.Contains(t, msg.HTML, "The Deferral Reset")
	require.Contains(t, msg.HTML, "https://x/plan.pdf")
}

func TestReportReadyMessageWithoutPlan(t *testing.T) {
	msg, err := ReportReadyMessage("ada@example.com", "Ada", "https://x/plan.pdf", nil)
	require.NoError(t, err)
	require.Contains(t, msg.HTML, "plan is ready")
}

func TestDripMessageAllStagesWithPlan(t *testing.T) {
	doc := samplePlan()
	for emailType, subject := range dripSubjects {
		msg, err := DripMessage(emailType, "ada@example.com", "Ada", doc)
		require.NoError(t, err, "type %s", emailType)
		require.Equal(t, subject, msg.Subject)
		require.Contains(t, msg.HTML, "Hi Ada,")
	}
}

func TestDripMessageAllStagesWithoutPlan(t *testing.T) {
	for emailType := range dripSubjects {
		msg, err := DripMessage(emailType, "ada@example.com", "Ada", nil)
		require.NoError(t, err, "type %s", emailType)
		require.NotEmpty(t, msg.HTML)
	}
}

func TestDripMessagePersonalization(t *testing.T) {
	doc := samplePlan()

	msg, err := DripMessage(models.EmailTypePatternRecognition, "a@b.com", "Ada", doc)
	require.NoError(t, err)
	require.Contains(t, msg.HTML, "Deferred starts")

	msg, err = DripMessage(models.EmailTypeEvidence7Day, "a@b.com", "Ada", doc)
	require.NoError(t, err)
	require.Contains(t, msg.HTML, "Decisions made under depletion.")

	msg, err = DripMessage(models.EmailTypeIntegrationThreshold, "a@b.com", "Ada", doc)
	require.NoError(t, err)
	require.Contains(t, msg.HTML, "Interrupt")

	msg, err = DripMessage(models.EmailTypeCompoundEffect, "a@b.com", "Ada", doc)
	require.NoError(t, err)
	require.Contains(t, msg.HTML, "Start before coffee")

	msg, err = DripMessage(models.EmailTypeDirectInvitation, "a@b.com", "Ada", doc)
	require.NoError(t, err)
	require.Contains(t, msg.HTML, "Reply if you want to map the next phase.")
}

func TestDripMessageSparsePlanDoesNotError(t *testing.T) {
	// A degraded plan with empty slices must still render every stage.
	sparse := &models.PlanDocument{Title: "T"}
	for emailType := range dripSubjects {
		_, err := DripMessage(emailType, "a@b.com", "Ada", sparse)
		require.NoError(t, err, "type %s", emailType)
	}
}

func TestDripMessageUnknownType(t *testing.T) {
	_, err := DripMessage(models.EmailType("weekly_digest"), "a@b.com", "Ada", nil)
	require.Error(t, err)
}
