// internal/analysis/apriori.go
package analysis

import (
	"sort"
	"strings"

	"incident-triage/internal/models"
)

const (
	DefaultMinSupport    = 0.05
	DefaultMinConfidence = 0.6
	DefaultMinLift       = 1.2
	DefaultTopN          = 5
)

// Itemset is a set of items that co-occur in at least MinSupport of the
// transactions. Items are sorted.
type Itemset struct {
	Items   []string `json:"items"`
	Support float64  `json:"support"`
}

// Rule reads "incidents with Antecedents also tend to have Consequents".
type Rule struct {
	Antecedents []string `json:"antecedents"`
	Consequents []string `json:"consequents"`
	Support     float64  `json:"support"`
	Confidence  float64  `json:"confidence"`
	Lift        float64  `json:"lift"`
}

// Transactions turns each incident into a set of "Field:value" items. Empty
// fields contribute nothing and tags are split on commas.
func Transactions(incidents []models.Incident) [][]string {
	out := make([][]string, 0, len(incidents))
	for _, inc := range incidents {
		seen := make(map[string]bool)
		var tx []string
		add := func(field, value string) {
			value = strings.TrimSpace(value)
			if value == "" {
				return
			}
			item := field + ":" + value
			if !seen[item] {
				seen[item] = true
				tx = append(tx, item)
			}
		}

		add("Severity", inc.Severity)
		add("Category", inc.Category)
		add("Priority", inc.Priority)
		add("Status", inc.Status)
		add("WebsiteType", inc.WebsiteType)
		add("Frequency", inc.IncidentFrequency)
		add("Service", inc.ServiceAffected)
		add("RootCause", inc.RootCauseCategory)
		if inc.Tags != "" {
			for _, tag := range strings.Split(inc.Tags, ",") {
				add("Tag", tag)
			}
		}

		sort.Strings(tx)
		out = append(out, tx)
	}
	return out
}

// FrequentItemsets runs the level-wise apriori search. Candidates of size k
// are joined from frequent (k-1)-itemsets sharing a prefix and pruned when
// any (k-1)-subset is infrequent.
func FrequentItemsets(transactions [][]string, minSupport float64) []Itemset {
	n := len(transactions)
	if n == 0 {
		return nil
	}
	sets := make([]map[string]bool, n)
	for i, tx := range transactions {
		sets[i] = make(map[string]bool, len(tx))
		for _, item := range tx {
			sets[i][item] = true
		}
	}

	support := func(items []string) float64 {
		count := 0
		for _, s := range sets {
			all := true
			for _, item := range items {
				if !s[item] {
					all = false
					break
				}
			}
			if all {
				count++
			}
		}
		return float64(count) / float64(n)
	}

	counts := make(map[string]int)
	for _, tx := range transactions {
		for _, item := range tx {
			counts[item]++
		}
	}
	var level [][]string
	var result []Itemset
	for item, c := range counts {
		if s := float64(c) / float64(n); s >= minSupport {
			level = append(level, []string{item})
			result = append(result, Itemset{Items: []string{item}, Support: s})
		}
	}
	sortItemLists(level)

	for len(level) > 1 {
		frequent := make(map[string]bool, len(level))
		for _, items := range level {
			frequent[key(items)] = true
		}

		var next [][]string
		for i := 0; i < len(level); i++ {
			for j := i + 1; j < len(level); j++ {
				a, b := level[i], level[j]
				k := len(a)
				if key(a[:k-1]) != key(b[:k-1]) {
					break
				}
				cand := append(append([]string{}, a...), b[k-1])
				if !allSubsetsFrequent(cand, frequent) {
					continue
				}
				if s := support(cand); s >= minSupport {
					next = append(next, cand)
					result = append(result, Itemset{Items: cand, Support: s})
				}
			}
		}
		sortItemLists(next)
		level = next
	}

	sort.SliceStable(result, func(i, j int) bool {
		if len(result[i].Items) != len(result[j].Items) {
			return len(result[i].Items) < len(result[j].Items)
		}
		if result[i].Support != result[j].Support {
			return result[i].Support > result[j].Support
		}
		return key(result[i].Items) < key(result[j].Items)
	})
	return result
}

// Rules derives association rules from every itemset with two or more
// items. confidence = support(A∪C) / support(A) and lift = confidence /
// support(C). Rules are ordered by confidence, then lift.
func Rules(itemsets []Itemset, minConfidence, minLift float64) []Rule {
	supports := make(map[string]float64, len(itemsets))
	for _, is := range itemsets {
		supports[key(is.Items)] = is.Support
	}

	var rules []Rule
	for _, is := range itemsets {
		k := len(is.Items)
		if k < 2 {
			continue
		}
		// each bitmask below 2^k-1 picks a proper, non-empty antecedent
		for mask := 1; mask < (1<<k)-1; mask++ {
			var ante, cons []string
			for i, item := range is.Items {
				if mask&(1<<i) != 0 {
					ante = append(ante, item)
				} else {
					cons = append(cons, item)
				}
			}
			anteSupport, ok1 := supports[key(ante)]
			consSupport, ok2 := supports[key(cons)]
			if !ok1 || !ok2 || anteSupport == 0 || consSupport == 0 {
				continue
			}
			confidence := is.Support / anteSupport
			lift := confidence / consSupport
			if confidence < minConfidence || lift < minLift {
				continue
			}
			rules = append(rules, Rule{
				Antecedents: ante,
				Consequents: cons,
				Support:     is.Support,
				Confidence:  confidence,
				Lift:        lift,
			})
		}
	}

	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Lift != b.Lift {
			return a.Lift > b.Lift
		}
		if ka, kb := key(a.Antecedents), key(b.Antecedents); ka != kb {
			return ka < kb
		}
		return key(a.Consequents) < key(b.Consequents)
	})
	return rules
}

func allSubsetsFrequent(cand []string, frequent map[string]bool) bool {
	for skip := range cand {
		sub := make([]string, 0, len(cand)-1)
		sub = append(sub, cand[:skip]...)
		sub = append(sub, cand[skip+1:]...)
		if !frequent[key(sub)] {
			return false
		}
	}
	return true
}

func sortItemLists(lists [][]string) {
	sort.Slice(lists, func(i, j int) bool { return key(lists[i]) < key(lists[j]) })
}

// key joins sorted items with a separator that cannot appear in an item.
func key(items []string) string {
	return strings.Join(items, "\x00")
}
