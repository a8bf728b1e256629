// internal/workers/triage/update-incident-status/config.go
package updateincidentstatus

import "time"

type Config struct {
	Timeout time.Duration
}
