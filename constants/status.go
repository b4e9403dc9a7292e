package constants

// SaveState is the canonical per-item save status inside a review session.
type SaveState string

// Stable values (these exact strings are mirrored to the local cache).
const (
	SaveStateUnsaved SaveState = "UNSAVED" // editable, not yet persisted
	SaveStateSaving  SaveState = "SAVING"  // save request in flight
	SaveStateSaved   SaveState = "SAVED"   // terminal: persisted, edits rejected
	SaveStateErrored SaveState = "ERRORED" // save failed, fields stay editable for retry
)

// Terminal reports whether no further save-state transition is allowed.
func (s SaveState) Terminal() bool {
	return s == SaveStateSaved
}

// CanTransitionTo enforces the per-item state machine:
// UNSAVED -> SAVING -> {SAVED, ERRORED}, ERRORED -> SAVING (retry).
func (s SaveState) CanTransitionTo(next SaveState) bool {
	switch s {
	case SaveStateUnsaved, SaveStateErrored:
		return next == SaveStateSaving
	case SaveStateSaving:
		return next == SaveStateSaved || next == SaveStateErrored
	default:
		return false
	}
}
