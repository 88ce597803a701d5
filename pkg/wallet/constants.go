package wallet

import "time"

// Poll cadences for the two remote resources. A cache instance re-polls only
// when at least this much time has passed since its last attempt; an
// invalidation signal bypasses the gate entirely.
const (
	BalancePollInterval      = 15 * time.Second
	TransactionsPollInterval = 20 * time.Second
)

// snapshotStaleAfter is a freshness hint for consumers that want to badge an
// old snapshot. It is intentionally not consulted by the poll gate, which
// uses only the configured interval.
const snapshotStaleAfter = 30 * time.Second

const (
	triggerInitial    = "initial"
	triggerPoll       = "poll"
	triggerInvalidate = "invalidate"
	triggerManual     = "manual"

	fetchStatusOK      = "ok"
	fetchStatusError   = "error"
	fetchStatusDropped = "dropped"
)
