package negotiate

import (
	"fmt"
	"path"
)

// Pin forces models matching Pattern (a path.Match glob) onto Version.
type Pin struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Version string `yaml:"version" json:"version"`
}

// Policy chooses the API version for a model.
type Policy struct {
	Primary   string `yaml:"primary" json:"primary"`
	Alternate string `yaml:"alternate" json:"alternate"`
	Pins      []Pin  `yaml:"pins" json:"pins"`
}

// Selection is the version used for one attempt.
type Selection struct {
	Version string

	// Pinned is set when a Pin matched; pinned selections never fall back.
	Pinned bool

	// Fallback is set on the retry against the alternate version.
	Fallback bool
}

// Select returns the version for model: the first matching pin, else the
// primary version.
func (p Policy) Select(model string) Selection {
	for _, pin := range p.Pins {
		if ok, _ := path.Match(pin.Pattern, model); ok {
			return Selection{Version: pin.Version, Pinned: true}
		}
	}
	return Selection{Version: p.Primary}
}

// Validate checks that the policy can be applied. Primary is required
// even with pins, since any model the pins miss is sent on it.
func (p Policy) Validate() error {
	if p.Primary == "" {
		return fmt.Errorf("primary version is required")
	}
	return p.ValidateOverride()
}

// ValidateOverride checks a policy that will be merged onto a vendor
// default with Merge, where Primary may be left empty.
func (p Policy) ValidateOverride() error {
	for i, pin := range p.Pins {
		if pin.Version == "" {
			return fmt.Errorf("pins[%d]: version is required", i)
		}
		if _, err := path.Match(pin.Pattern, ""); err != nil {
			return fmt.Errorf("pins[%d]: bad pattern %q: %w", i, pin.Pattern, err)
		}
	}
	return nil
}

// Merge applies override to p. An override with a Primary replaces p
// entirely; otherwise its Alternate and Pins, when set, replace p's.
func (p Policy) Merge(override Policy) Policy {
	if override.Primary != "" {
		return override
	}
	if override.Alternate != "" {
		p.Alternate = override.Alternate
	}
	if len(override.Pins) > 0 {
		p.Pins = override.Pins
	}
	return p
}

// canFallBack reports whether sel may be retried on the alternate version.
func (p Policy) canFallBack(sel Selection) bool {
	return !sel.Pinned && !sel.Fallback && p.Alternate != "" && p.Alternate != sel.Version
}
