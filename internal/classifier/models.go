// internal/classifier/models.go
package classifier

// IncidentInput is the structured view of an incident report. Every field is
// optional; an empty string means the field was absent.
type IncidentInput struct {
	Title             string `json:"title,omitempty"`
	Description       string `json:"description,omitempty"`
	Severity          string `json:"severity,omitempty"`
	Metadata          string `json:"metadata,omitempty"`
	WebsiteType       string `json:"websiteType,omitempty"`
	IncidentFrequency string `json:"incidentFrequency,omitempty"`
	ServiceAffected   string `json:"serviceAffected,omitempty"`
	RootCauseCategory string `json:"rootCauseCategory,omitempty"`
	Tags              string `json:"tags,omitempty"`
}

// ClassificationResult is what Classify derives from an IncidentInput.
type ClassificationResult struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Severity string `json:"severity"`
}

// Categories
const (
	CategoryDatabase       = "Database"
	CategoryNetwork        = "Network"
	CategoryAuthentication = "Authentication"
	CategoryPayments       = "Payments"
	CategoryAPI            = "API"
	CategoryUI             = "UI"
	CategoryStorage        = "Storage"
	CategoryGeneral        = "General"
)

// Priority tiers, P0 is the most urgent.
const (
	PriorityP0 = "P0"
	PriorityP1 = "P1"
	PriorityP2 = "P2"
)

const DefaultSeverity = "medium"

// CategoryRule maps a category to the keywords that vote for it.
type CategoryRule struct {
	Category string   `mapstructure:"category" json:"category"`
	Keywords []string `mapstructure:"keywords" json:"keywords"`
}

// ServiceBoost adds one point to Category when the lower-cased
// serviceAffected field contains Contains.
type ServiceBoost struct {
	Contains string `mapstructure:"contains" json:"contains"`
	Category string `mapstructure:"category" json:"category"`
}
