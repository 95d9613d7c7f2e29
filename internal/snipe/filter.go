package snipe

import "strings"

// PowerChoice mirrors the two power checkboxes of a hunting request.
// Selecting neither means the requester ruled out every seat.
type PowerChoice struct {
	WithPower    bool `json:"with_power"`
	WithoutPower bool `json:"without_power"`
}

// Filter restricts hunting candidates by power preference and by area
// prefixes matched against seat names.
type Filter struct {
	Power PowerChoice `json:"power"`
	Areas []string    `json:"areas,omitempty"`
}

// Empty reports whether the filter can never match (no power choice).
func (f Filter) Empty() bool {
	return !f.Power.WithPower && !f.Power.WithoutPower
}

// Match applies the filter to one seat. "No power" matches both false and
// unknown: a seat without the power marker may simply be unscraped.
func (f Filter) Match(name *string, power *bool) bool {
	if f.Empty() {
		return false
	}

	if !(f.Power.WithPower && f.Power.WithoutPower) {
		switch {
		case f.Power.WithPower:
			if power == nil || !*power {
				return false
			}
		case f.Power.WithoutPower:
			if power != nil && *power {
				return false
			}
		}
	}

	if len(f.Areas) == 0 {
		return true
	}
	if name == nil {
		return false
	}
	for _, prefix := range f.Areas {
		if strings.HasPrefix(*name, prefix) {
			return true
		}
	}
	return false
}
