package types

import "strings"

// RiskLevel is the coarse risk estimate reported by the semantic oracle.
// The zero value means no estimate was produced.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ParseRiskLevel normalizes s (case and surrounding whitespace) and reports
// whether it names a known level.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	level := RiskLevel(strings.ToUpper(strings.TrimSpace(s)))
	if level.IsValid() {
		return level, true
	}
	return "", false
}

// IsValid reports whether r is one of LOW, MEDIUM or HIGH.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (r RiskLevel) String() string {
	return string(r)
}
