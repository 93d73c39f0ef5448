// Package sprint is the phase orchestrator of a design sprint.
//
// An Orchestrator owns everything a sprint produces: the current phase,
// its transcript, the ideas collected while sketching, the prototype
// specification, staged test images and the checkpoint summary. It also
// owns the single active AI chat session and replaces it whenever the
// phase changes.
//
// Network calls run outside the orchestrator's lock, so a phase switch can
// happen while a reply is pending. Every call captures the phase epoch it
// started under; results that come back after the epoch moved on are
// discarded with ErrPhaseChanged and never reach the new phase's state.
//
// Callers observe state through Snapshot and Subscribe. Snapshots are deep
// copies and may be held freely.
package sprint
