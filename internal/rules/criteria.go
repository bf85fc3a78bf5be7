package rules

import "github.com/pankaj-dahiya-devops/policy-catalog/internal/models"

// Criteria selects policies by classification. Every field is optional: an
// empty field matches every policy on that dimension. Set-valued fields match
// when they share at least one value with the policy's attribute, and
// Severity matches policies at least as severe.
type Criteria struct {
	Vendors    []string        `yaml:"vendors,omitempty" json:"vendors,omitempty"`
	Services   []string        `yaml:"services,omitempty" json:"services,omitempty"`
	Frameworks []string        `yaml:"frameworks,omitempty" json:"frameworks,omitempty"`
	Topics     []string        `yaml:"topics,omitempty" json:"topics,omitempty"`
	Severity   models.Severity `yaml:"severity,omitempty" json:"severity,omitempty"`
}

// IsEmpty reports whether c matches every policy.
func (c Criteria) IsEmpty() bool {
	return len(c.Vendors) == 0 &&
		len(c.Services) == 0 &&
		len(c.Frameworks) == 0 &&
		len(c.Topics) == 0 &&
		c.Severity == ""
}

// Matches reports whether m satisfies every set field of c.
func (c Criteria) Matches(m Metadata) bool {
	if len(c.Vendors) > 0 && !intersects(c.Vendors, m.Vendors) {
		return false
	}
	if len(c.Services) > 0 && !intersects(c.Services, m.Services) {
		return false
	}
	if len(c.Frameworks) > 0 && !intersects(c.Frameworks, m.Frameworks) {
		return false
	}
	if len(c.Topics) > 0 && !intersects(c.Topics, m.Topics) {
		return false
	}
	if c.Severity != "" && !m.Severity.AtLeast(c.Severity) {
		return false
	}
	return true
}

func intersects(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}
