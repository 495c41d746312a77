package domain

import "time"

// LivenessWindow is how long a silent participant stays considered online.
const LivenessWindow = 30 * time.Second

// Presence is the liveness record of one (group, user) pair.
// Online is advisory: true liveness is derived from LastSeen age.
type Presence struct {
	ID        string
	GroupName string
	UserName  string
	Language  string
	LastSeen  time.Time
	Online    bool
}

// Stale reports whether the record is older than the liveness window.
func (p Presence) Stale(now time.Time) bool {
	return now.Sub(p.LastSeen) > LivenessWindow
}
