// Package engine is the composition root of the stirring core.
//
// An Engine owns stir-zone membership, the angular integrator state, the
// checkpoint sequencer and the ingredient gate, and publishes their outcomes
// on an event.Bus.
//
// ARCHITECTURE:
//
// Single-Threaded, Frame-Stepped:
// The host calls Tick once per frame from one goroutine. Nothing in the
// engine blocks, performs I/O or takes a lock.
//
// Tick Order:
//  1. Pending zone and ingredient signals, in the order they were delivered
//  2. Clamp the stirrer into the stir zone (written back to the Stirrer)
//  3. Sample the bearing and accumulate the rotation
//  4. Evaluate the pending checkpoint
//
// Signals delivered between ticks (EnterStirZone, ExitStirZone,
// IngredientEntered) are queued FIFO and applied at the start of the next
// Tick, before integration. This keeps a tick's outcome independent of when,
// within the frame, the host's trigger callbacks ran.
//
// Zone exit only pauses sampling. The accumulators are kept, and re-entering
// takes a fresh baseline so the motion made outside is never credited.
//
// Inert Engines:
// A nil frame source or stirrer, or an invalid config, makes the engine
// inert. The problem is logged once by New; afterwards Tick does nothing,
// signals are dropped and Err reports the cause wrapped in ErrInert.
package engine
