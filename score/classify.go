/*
# Module: score/classify.go
Neynar reputation score classification into label and summary copy.

## Linked Modules
(None - pure lookup table)

## Tags
business-logic, reputation, neynar

## Exports
Descriptor, Tier, Classify

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "score/classify.go" ;
    code:description "Neynar reputation score classification into label and summary copy" ;
    code:exports :Descriptor, :Tier, :Classify ;
    code:tags "business-logic", "reputation", "neynar" .
<!-- End LinkedDoc RDF -->
*/
package score

// Tier is the short machine name of a score band
type Tier string

const (
	TierNone     Tier = "none"
	TierLow      Tier = "low"
	TierEmerging Tier = "emerging"
	TierGrowing  Tier = "growing"
	TierHigh     Tier = "high"
	TierElite    Tier = "elite"
)

// Descriptor is the label and summary shown next to a score
type Descriptor struct {
	Tier    Tier   `json:"tier"`
	Label   string `json:"label"`
	Summary string `json:"summary"`
}

type band struct {
	min        float64
	descriptor Descriptor
}

// Highest first; lower bounds are inclusive.
var bands = []band{
	{0.85, Descriptor{TierElite, "Signal: Elite", "You look like a top-tier account. Strong, consistent interactions with the network."}},
	{0.70, Descriptor{TierHigh, "Signal: High", "You are a trusted, high-quality participant in the Farcaster graph."}},
	{0.55, Descriptor{TierGrowing, "Signal: Growing", "Solid signal. Keep engaging with good accounts to push into the top tier."}},
	{0.30, Descriptor{TierEmerging, "Signal: Emerging", "You are early in your reputation journey. Thoughtful casts and connections will lift this."}},
}

var (
	noSignal = Descriptor{TierNone, "No signal yet", "Start engaging with good accounts to build your score."}
	low      = Descriptor{TierLow, "Signal: Low", "Likely a newer or low-activity account. Activity with reputable users will improve this over time."}
)

// Classify maps a score in [0,1] to its descriptor; nil means the user has no score
func Classify(score *float64) Descriptor {
	if score == nil {
		return noSignal
	}
	for _, b := range bands {
		if *score >= b.min {
			return b.descriptor
		}
	}
	return low
}
