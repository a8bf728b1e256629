// internal/analysis/report.go
package analysis

import (
	"fmt"
	"strings"

	"incident-triage/internal/models"
)

type Options struct {
	MinSupport    float64
	MinConfidence float64
	MinLift       float64
	TopN          int
}

func (o Options) withDefaults() Options {
	if o.MinSupport <= 0 {
		o.MinSupport = DefaultMinSupport
	}
	if o.MinConfidence <= 0 {
		o.MinConfidence = DefaultMinConfidence
	}
	if o.MinLift <= 0 {
		o.MinLift = DefaultMinLift
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	return o
}

// Report is the outcome of one association analysis run.
type Report struct {
	Incidents   int                       `json:"incidents"`
	Statistics  map[string]map[string]int `json:"statistics"`
	Options     Options                   `json:"options"`
	Itemsets    []Itemset                 `json:"itemsets"`
	Rules       []Rule                    `json:"rules"`
	Conclusions []string                  `json:"conclusions"`
}

// Analyze counts incidents per field and mines association rules between
// their categorical attributes.
func Analyze(incidents []models.Incident, opts Options) *Report {
	opts = opts.withDefaults()

	itemsets := FrequentItemsets(Transactions(incidents), opts.MinSupport)
	rules := Rules(itemsets, opts.MinConfidence, opts.MinLift)

	report := &Report{
		Incidents:   len(incidents),
		Statistics:  Statistics(incidents),
		Options:     opts,
		Itemsets:    itemsets,
		Rules:       rules,
		Conclusions: make([]string, 0, opts.TopN),
	}
	if report.Itemsets == nil {
		report.Itemsets = []Itemset{}
	}
	if report.Rules == nil {
		report.Rules = []Rule{}
	}
	for i, r := range rules {
		if i == opts.TopN {
			break
		}
		report.Conclusions = append(report.Conclusions, Conclusion(r))
	}
	return report
}

// Statistics counts incidents by severity, category, status and website type.
func Statistics(incidents []models.Incident) map[string]map[string]int {
	stats := map[string]map[string]int{
		"severity":    {},
		"category":    {},
		"status":      {},
		"websiteType": {},
	}
	for _, inc := range incidents {
		count(stats["severity"], inc.Severity)
		count(stats["category"], inc.Category)
		count(stats["status"], inc.Status)
		count(stats["websiteType"], inc.WebsiteType)
	}
	return stats
}

func count(m map[string]int, v string) {
	if v != "" {
		m[v]++
	}
}

// Conclusion renders a rule as one readable sentence.
func Conclusion(r Rule) string {
	return fmt.Sprintf("When incidents have [%s], %.1f%% also have [%s] (support %.1f%%, lift %.2fx)",
		strings.Join(r.Antecedents, ", "),
		r.Confidence*100,
		strings.Join(r.Consequents, ", "),
		r.Support*100,
		r.Lift,
	)
}
