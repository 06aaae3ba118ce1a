package models

import "time"

// PlanOutput is the stored result of report synthesis for a session.
// The most recent row per session is the source of truth for both
// PDF rendering and drip-email personalization.
type PlanOutput struct {
	ID        string       `json:"id"`
	SessionID string       `json:"session_id"`
	Document  PlanDocument `json:"document"`
	CreatedAt time.Time    `json:"created_at"`
}

// PlanDocument is the fixed schema the synthesizer guarantees,
// whether the content is AI-derived or the static fallback.
type PlanDocument struct {
	Title        string         `json:"title"`
	Summary      string         `json:"summary"`
	CorePatterns []PlanPattern  `json:"core_patterns"`
	RootCause    string         `json:"root_cause"`
	Protocol     []ProtocolStep `json:"protocol_30_day"`
	QuickWins    []string       `json:"quick_wins"`
	Invitation   string         `json:"invitation"`
}

// PlanPattern names one recurring behavioral pattern surfaced by the
// assessment along with what it costs the person day to day.
type PlanPattern struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        string `json:"cost"`
}

// ProtocolStep is one phase of the 30-day protocol.
type ProtocolStep struct {
	Phase     string   `json:"phase"`
	Days      string   `json:"days"`
	Focus     string   `json:"focus"`
	Practices []string `json:"practices"`
}
