package ir

// Version constants for the scenario IR and the engine.
const (
	// IRVersion is the scenario IR schema version.
	IRVersion = "1"

	// EngineVersion is the triphase engine version.
	EngineVersion = "0.1.0"
)
