package identify

import (
	"context"
)

// Tier names the source a product identity was resolved from, ordered by
// cost: title matching is free, description inference is one text-model
// call, image inference is a vision-model call.
type Tier string

const (
	TierTitle       Tier = "title"
	TierDescription Tier = "description"
	TierImage       Tier = "image"
)

// ProductIdentity is the canonical product a listing resolves to.
type ProductIdentity struct {
	CanonicalName string
	Category      string
	Tier          Tier
	Attributes    map[string]string // e.g. brand, model, storage
}

func (p ProductIdentity) Attribute(key string) string {
	if p.Attributes == nil {
		return ""
	}
	return p.Attributes[key]
}

// ResolutionState tags where the escalation currently stands.
type ResolutionState int

const (
	// Unresolved means the tiers tried so far produced no confident match.
	Unresolved ResolutionState = iota
	// Resolved carries a confident identity; no further tiers run.
	Resolved
	// Failed means every applicable tier was exhausted.
	Failed
)

// Resolution is the tagged result threaded through the escalation steps.
// TiersTried records every tier attempted, in order, including failed ones.
type Resolution struct {
	State      ResolutionState
	Identity   ProductIdentity
	TiersTried []Tier
}

// TextInferrer is the text-inference collaborator contract.
type TextInferrer interface {
	InferIdentity(ctx context.Context, title, description string) (*ProductIdentity, error)
}

// VisionInferrer is the vision-inference collaborator contract.
type VisionInferrer interface {
	InferIdentityFromImage(ctx context.Context, imageURL, title string) (*ProductIdentity, error)
}
