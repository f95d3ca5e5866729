package testutil

// ConstantGenerator generates the same run token every time.
//
// This enables deterministic test execution and golden trace comparison.
// The same scenario recorded with the same ConstantGenerator produces
// byte-identical run rows addressable by a known ID.
//
// Unlike store.FixedGenerator, which returns tokens in sequence and
// panics when exhausted, this generator always returns the same token.
// This is useful for tests that record a single run and read it back.
//
// Thread-safety: ConstantGenerator is stateless and safe for concurrent use.
type ConstantGenerator struct {
	token string
}

// NewConstantGenerator creates a new constant run-token generator.
//
// If token is empty, Generate() returns "test-run-default".
func NewConstantGenerator(token string) *ConstantGenerator {
	if token == "" {
		token = "test-run-default"
	}
	return &ConstantGenerator{token: token}
}

// Generate returns the fixed run token.
//
// Implements store.TokenGenerator.
func (g *ConstantGenerator) Generate() string {
	return g.token
}
