// internal/workers/triage/classify-incident/config.go
package classifyincident

import "time"

type Config struct {
	Timeout time.Duration
}
