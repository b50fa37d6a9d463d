package clientdata

import "time"

// TTL constants for cached data.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLDailyQuota keeps a per-day request counter a little past midnight UTC
	// so a late request never re-creates yesterday's key.
	TTLDailyQuota = 26 * time.Hour
)
