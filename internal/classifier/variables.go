// internal/classifier/variables.go
package classifier

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FromVariables builds an IncidentInput from loosely typed job variables.
// Values of the wrong type are treated as absent. severity additionally
// accepts numbers, since "3" and "4" are part of its vocabulary.
func FromVariables(vars map[string]interface{}) IncidentInput {
	if vars == nil {
		return IncidentInput{}
	}
	return IncidentInput{
		Title:             stringVar(vars, "title"),
		Description:       stringVar(vars, "description"),
		Severity:          severityVar(vars["severity"]),
		Metadata:          metadataVar(vars["metadata"]),
		WebsiteType:       stringVar(vars, "websiteType"),
		IncidentFrequency: stringVar(vars, "incidentFrequency"),
		ServiceAffected:   stringVar(vars, "serviceAffected"),
		RootCauseCategory: stringVar(vars, "rootCauseCategory"),
		Tags:              stringVar(vars, "tags"),
	}
}

func stringVar(vars map[string]interface{}, key string) string {
	s, _ := vars[key].(string)
	return s
}

func severityVar(v interface{}) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return formatNumber(n)
	case int:
		return formatNumber(float64(n))
	case int64:
		return formatNumber(float64(n))
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return formatNumber(f)
		}
	}
	return ""
}

// formatNumber renders a number the way a JSON producer prints it: plain
// digits for magnitudes in [1e-6, 1e21) and exponent form ("1e+21",
// "1.5e-7") outside it. Zero and non-finite values count as absent.
func formatNumber(f float64) string {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go pads the exponent to two digits
		s = strings.Replace(s, "e-0", "e-", 1)
		return strings.Replace(s, "e+0", "e+", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// metadataVar keeps strings verbatim and stores any other JSON value in its
// encoded form. Metadata never influences classification.
func metadataVar(v interface{}) string {
	switch m := v.(type) {
	case nil:
		return ""
	case string:
		return m
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
