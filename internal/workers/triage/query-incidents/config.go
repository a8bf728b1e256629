// internal/workers/triage/query-incidents/config.go
package queryincidents

import "time"

type Config struct {
	Timeout time.Duration
}
