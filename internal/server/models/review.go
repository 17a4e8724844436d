package models

import (
	"fmt"
	"sort"
	"strings"
)

// Outcome is the staff verdict on a pending application.
type Outcome int

const (
	OutcomeUnspecified Outcome = iota
	OutcomeApprove
	OutcomeReject
)

// Status maps the outcome onto the terminal application status.
func (o Outcome) Status() (Status, bool) {
	switch o {
	case OutcomeApprove:
		return StatusApproved, true
	case OutcomeReject:
		return StatusRejected, true
	}
	return "", false
}

func (o Outcome) String() string {
	switch o {
	case OutcomeApprove:
		return "approve"
	case OutcomeReject:
		return "reject"
	}
	return "unspecified"
}

// Capability is a bit set of staff permissions.
type Capability uint8

const (
	// CapManageMembership allows deciding on applications.
	CapManageMembership Capability = 1 << iota
	// CapViewApplications allows reading the review queue.
	CapViewApplications
)

// Has reports whether every bit of want is present.
func (c Capability) Has(want Capability) bool {
	return want != 0 && c&want == want
}

// Reviewer is the acting staff member as established by the caller's boundary.
type Reviewer struct {
	ID           string
	Capabilities Capability
}

var capabilityNames = map[string]Capability{
	"manage_membership": CapManageMembership,
	"view_applications": CapViewApplications,
}

// ParseCapabilities maps capability names to a bit set. Unknown names are
// reported in the error.
func ParseCapabilities(names []string) (Capability, error) {
	var c Capability
	for _, n := range names {
		bit, ok := capabilityNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("unknown capability %q", n)
		}
		c |= bit
	}
	return c, nil
}

// Names returns the capability names present in c, sorted.
func (c Capability) Names() []string {
	out := make([]string, 0, len(capabilityNames))
	for name, bit := range capabilityNames {
		if c.Has(bit) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
