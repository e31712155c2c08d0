package push

import "time"

// DefaultVerifyInterval is the minimum time between two verification
// passes triggered through TryVerifySubscriptions.
const DefaultVerifyInterval = 24 * time.Hour

// verificationDue reports whether a verification pass is due. A zero
// lastVerified means the subscriptions have never been verified.
func verificationDue(lastVerified, now time.Time, interval time.Duration) bool {
	if lastVerified.IsZero() {
		return true
	}
	return now.Sub(lastVerified) >= interval
}
