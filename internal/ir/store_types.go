package ir

// NOTE: These are store-layer types, not part of the canonical IR.
// A Run's identity is its token, not its content: two recordings of the
// same scenario are distinct runs with equal digests.

// Run is the metadata row of one recorded simulation.
type Run struct {
	ID            string    `json:"id"` // run token (UUIDv7)
	Name          string    `json:"name"`
	Scenario      *Scenario `json:"scenario"`
	AlphaHz       float64   `json:"alpha_hz"`
	BetaHz        float64   `json:"beta_hz"`
	ObserverHz    float64   `json:"observer_hz"`
	Ticks         int64     `json:"ticks"`
	Digest        string    `json:"digest"` // run digest over canonical step maps
	EngineVersion string    `json:"engine_version"`
	IRVersion     string    `json:"ir_version"`
	CreatedAt     string    `json:"created_at"` // RFC 3339 UTC, recording time only
}

// Step is one persisted trace step of a run.
type Step struct {
	RunID    string  `json:"run_id"`
	Tick     int64   `json:"tick"`
	Time     float64 `json:"time"`
	PhaseAB  float64 `json:"phase_ab"`
	PhaseAO  float64 `json:"phase_ao"`
	PhaseBO  float64 `json:"phase_bo"`
	Sync     bool    `json:"sync"`
	Executed string  `json:"executed"` // canonical JSON array of op records
}
