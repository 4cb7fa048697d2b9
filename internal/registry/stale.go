package registry

import (
	"os"
	"strings"
	"time"
)

// StaleThreshold is the default age past which a registry is considered
// stale.
const StaleThreshold = 7 * 24 * time.Hour

// StaleCheck reads the ISO-8601 UTC timestamp in lastSyncPath (the
// registry's .eden-last-sync marker) and reports whether it is older than
// threshold. A negative "time since last sync" (clock skew, or a marker
// stamped in the future) is clamped to zero rather than reported stale.
func StaleCheck(lastSyncPath string, now time.Time, threshold time.Duration) (stale bool, since time.Duration, err error) {
	raw, readErr := os.ReadFile(lastSyncPath)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return true, 0, nil
		}
		return false, 0, readErr
	}

	stamp, parseErr := time.Parse(time.RFC3339, strings.TrimSpace(string(raw)))
	if parseErr != nil {
		return true, 0, nil
	}

	since = now.Sub(stamp)
	if since < 0 {
		since = 0
	}
	return since > threshold, since, nil
}
