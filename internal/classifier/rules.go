// internal/classifier/rules.go
package classifier

// DefaultRules is the reference category table. Order matters: on equal
// scores the earlier category wins.
var DefaultRules = []CategoryRule{
	{Category: CategoryDatabase, Keywords: []string{"database", "db", "sql", "postgres", "mysql", "mongod", "mongodb"}},
	{Category: CategoryNetwork, Keywords: []string{"network", "latency", "dns", "timeout", "connection", "packet", "bandwidth"}},
	{Category: CategoryAuthentication, Keywords: []string{"auth", "login", "signin", "token", "oauth", "permission", "unauthorized"}},
	{Category: CategoryPayments, Keywords: []string{"payment", "checkout", "card", "stripe", "paypal", "transaction"}},
	{Category: CategoryAPI, Keywords: []string{"api", "endpoint", "response", "500", "502", "503", "gateway"}},
	{Category: CategoryUI, Keywords: []string{"ui", "frontend", "css", "javascript", "react", "angular", "visual"}},
	{Category: CategoryStorage, Keywords: []string{"disk", "storage", "s3", "bucket", "file", "filesystem"}},
}

// DefaultServiceBoosts are the substring triggers applied to serviceAffected.
var DefaultServiceBoosts = []ServiceBoost{
	{Contains: "payment", Category: CategoryPayments},
	{Contains: "api", Category: CategoryAPI},
}

var (
	criticalSeverities = []string{"critical", "4", "urgent"}
	highSeverities     = []string{"high", "3"}

	// "data loss" and "data-loss" can never equal a single token because the
	// tokenizer splits on spaces and hyphens. They are kept as listed.
	highPriorityWords = []string{"outage", "down", "failed", "data loss", "data-loss", "panic", "urgent", "critical"}

	escalationTags = []string{"urgent", "panic"}

	mediumPriorityWords = []string{"timeout", "latency", "error", "500", "502", "503", "slow", "degraded"}
)

const (
	frequencyContinuous   = "continuous"
	frequencyIntermittent = "intermittent"
)
