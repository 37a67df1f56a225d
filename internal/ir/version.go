package ir

// Version constants for the compiled spec schema and engine.
const (
	// IRVersion is the form spec schema version.
	IRVersion = "1"

	// EngineVersion is the formrules engine version.
	EngineVersion = "0.1.0"
)
