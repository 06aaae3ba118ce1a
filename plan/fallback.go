package plan

import "github.com/furtivegod/becomeyou/models"

// FallbackDocument returns the static, fully-populated plan used when
// synthesis output is irreparable. It conforms to the same schema as an
// AI-derived document so every downstream consumer (PDF rendering, drip
// personalization) works unchanged.
func FallbackDocument() *models.PlanDocument {
	return &models.PlanDocument{
		Title:   "Your 30-Day Behavioral Reset",
		Summary: "This plan distills your assessment into a focused month of small, repeatable shifts. It starts with noticing, moves to interrupting, and ends with replacing the patterns that cost you the most.",
		CorePatterns: []models.PlanPattern{
			{
				Name:        "Deferred starts",
				Description: "Important work gets pushed behind low-stakes busywork until the day runs out.",
				Cost:        "Chronic time pressure and a backlog of half-started commitments.",
			},
			{
				Name:        "All-or-nothing resets",
				Description: "A single missed day is treated as proof the system failed, so the whole routine gets abandoned.",
				Cost:        "Progress resets to zero several times a month.",
			},
			{
				Name:        "Invisible overcommitment",
				Description: "New obligations are accepted by default, without checking them against existing ones.",
				Cost:        "Reliability erodes exactly where it matters most.",
			},
		},
		RootCause: "Decisions are being made in the moment, under depletion, instead of once, in advance. The patterns above are all downstream of missing pre-commitment.",
		Protocol: []models.ProtocolStep{
			{
				Phase:     "Notice",
				Days:      "1-10",
				Focus:     "Build an accurate picture of when and where the patterns fire.",
				Practices: []string{"End each day with a two-line log of one deferred start", "Name the pattern out loud when you catch it mid-fire"},
			},
			{
				Phase:     "Interrupt",
				Days:      "11-20",
				Focus:     "Insert a deliberate pause between trigger and habit.",
				Practices: []string{"Begin the day's hardest task before opening any inbox", "When a miss happens, resume the next scheduled slot instead of restarting the plan"},
			},
			{
				Phase:     "Replace",
				Days:      "21-30",
				Focus:     "Make the new defaults cheap enough to survive a bad week.",
				Practices: []string{"Pre-commit tomorrow's first task in writing the night before", "Decline one new obligation per week by default"},
			},
		},
		QuickWins: []string{
			"Put tomorrow's single most important task in your calendar tonight.",
			"Shrink one stalled commitment to a ten-minute version and do it today.",
			"Tell one person which pattern you are working on this month.",
		},
		Invitation: "If you work through the 30 days and want to go further, reply to any of our emails and we'll map the next phase together.",
	}
}
