// Package store provides SQLite-backed durable storage for triphase
// run traces.
//
// The store keeps an append-only record of completed simulations:
//   - Runs: one row per recorded simulation (token, scenario, clock
//     rates, run digest)
//   - Steps: the per-tick trace of each run (time, phase vector, sync
//     flag, executed ops)
//
// # Determinism contract
//
// A run's identity is its token (UUIDv7), never its content:
// re-recording the same scenario yields a new run with an equal digest.
// Scenario and executed-op columns hold canonical JSON, so TEXT
// equality is document equality. Replay rebuilds the machine from the
// stored scenario, re-executes the recorded tick count, and compares
// the fresh trace field by field against the stored steps.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity (steps cascade
//     with their run)
//
// Digests are computed via functions in internal/ir/hash.go using
// canonical JSON and SHA-256 with domain separation.
package store
