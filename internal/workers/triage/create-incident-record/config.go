// internal/workers/triage/create-incident-record/config.go
package createincidentrecord

import "time"

type Config struct {
	Timeout time.Duration
}
