/*
# Module: amount/preset.go
Preset and custom amount selection for a donation card.

## Linked Modules
- [amount/normalize](./normalize.go) - Normalization used to read the selection

## Tags
payments, amount, presets

## Exports
Preset, Custom, Selection, NewSelection, ErrUnknownPreset

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "amount/preset.go" ;
    code:description "Preset and custom amount selection for a donation card" ;
    code:linksTo [
        code:name "amount/normalize" ;
        code:path "./normalize.go" ;
        code:relationship "Normalization used to read the selection"
    ] ;
    code:exports :Preset, :Custom, :Selection, :NewSelection, :ErrUnknownPreset ;
    code:tags "payments", "amount", "presets" .
<!-- End LinkedDoc RDF -->
*/
package amount

import (
	"errors"
	"fmt"
)

// ErrUnknownPreset is returned when a preset outside the configured set is chosen
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is one of the configured canonical amounts, or Custom
type Preset string

// Custom selects the free-text amount
const Custom Preset = "custom"

// Selection tracks which preset (or custom mode) a card has selected.
// Exactly one mode is active at a time; the custom text is kept while a preset is active.
type Selection struct {
	presets []Preset
	current Preset
	custom  string
}

// NewSelection creates a selection over presets with initial selected.
// Every preset must already be a normalized amount.
func NewSelection(presets []string, initial string, custom string) (Selection, error) {
	s := Selection{custom: custom}
	for _, p := range presets {
		if Normalize(p, "") != p {
			return Selection{}, fmt.Errorf("preset %q is not a normalized amount", p)
		}
		s.presets = append(s.presets, Preset(p))
	}
	if err := s.Choose(Preset(initial)); err != nil {
		return Selection{}, err
	}
	return s, nil
}

// Choose switches to preset p
func (s *Selection) Choose(p Preset) error {
	if p == Custom {
		s.current = p
		return nil
	}
	for _, known := range s.presets {
		if known == p {
			s.current = p
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPreset, p)
}

// SetCustom replaces the free-text amount. It does not change the selected mode.
func (s *Selection) SetCustom(raw string) {
	s.custom = raw
}

// Preset returns the selected preset
func (s Selection) Preset() Preset {
	return s.current
}

// CustomText returns the raw custom text as typed
func (s Selection) CustomText() string {
	return s.custom
}

// Presets returns the configured presets in order
func (s Selection) Presets() []Preset {
	out := make([]Preset, len(s.presets))
	copy(out, s.presets)
	return out
}

// Display returns the amount to render. Custom text goes through the fail-soft
// Normalize, so a bad entry shows fallback instead of an error.
func (s Selection) Display(fallback string) string {
	if s.current == Custom {
		return Normalize(s.custom, fallback)
	}
	return string(s.current)
}

// Submission returns the amount to submit; invalid custom text yields Zero
func (s Selection) Submission() Amount {
	if s.current == Custom {
		return Resolve(s.custom)
	}
	a, err := Parse(string(s.current))
	if err != nil {
		return Zero
	}
	return a
}
