package aggregate

import "time"

// SyncNotification is sent when a sync job had to abort its write phase.
type SyncNotification struct {
	Target string
	Date   time.Time
	Err    error
}
