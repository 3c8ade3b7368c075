// Package store is the SQLite session journal.
//
// A session records one run of the stirring engine:
//   - Sessions: the config (as YAML) and frame placement the engine was built with
//   - Inputs: zone signals, ingredient arrivals and per-tick stirrer positions
//   - Outputs: the events the engine published, in bus order
//
// The journal is diagnostic. It is read back by replay tooling to re-run a
// session through a fresh engine, never to restore a live engine's state.
//
// # Ordering
//
// All ordering uses seq INTEGER, never timestamps. Queries end in
// ORDER BY seq ASC so reads are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
