package store

// SyncState describes how the current cart was obtained. It is not
// persisted; a restarted store always begins in StateLoading.
type SyncState string

const (
	// StateLoading means the initial fetch has not completed yet.
	StateLoading SyncState = "LOADING"

	// StateAuthoritative means the cart reflects the last successful
	// remote read or write.
	StateAuthoritative SyncState = "AUTHORITATIVE"

	// StateDegraded means the store is operating from the local cache
	// after a remote failure or missing credential.
	StateDegraded SyncState = "DEGRADED"
)

// String representation (for logging)
func (s SyncState) String() string {
	return string(s)
}
