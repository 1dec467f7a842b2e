package testutil

// FixedIDGenerator returns the same session ID every time.
//
// This enables deterministic test execution and golden snapshot comparison.
// Unlike session.FixedGenerator which returns IDs in sequence, this
// generator never runs out.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed session ID generator.
// If id is empty, Generate returns "test-session-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed session ID.
//
// Implements session.IDGenerator interface.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
