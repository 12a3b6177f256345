package identify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rosesandhello/facescrape/app/listing"
)

// Identifier resolves a parsed listing into a canonical product identity by
// escalating through three tiers: deterministic title matching, then the
// text-inference collaborator over (title, description), then the
// vision-inference collaborator over the primary image. Escalation is
// strictly monotonic within one call; a tier that resolves is never
// second-guessed by a more expensive one. Collaborator errors count as tier
// failure and fall through, never up.
type Identifier struct {
	text   TextInferrer
	vision VisionInferrer
}

func NewIdentifier(text TextInferrer, vision VisionInferrer) *Identifier {
	return &Identifier{text: text, vision: vision}
}

// Run returns the resolution for one listing. State == Failed means the
// listing is unidentifiable and drops out of the pipeline.
func (i *Identifier) Run(ctx context.Context, parsed *listing.ParsedListing) Resolution {
	res := Resolution{State: Unresolved}

	res = i.resolveTitle(res, parsed)
	if res.State == Resolved {
		return res
	}

	res = i.resolveDescription(ctx, res, parsed)
	if res.State == Resolved {
		return res
	}

	res = i.resolveImage(ctx, res, parsed)
	if res.State == Resolved {
		return res
	}

	res.State = Failed
	return res
}

// resolveTitle attempts deterministic extraction from the normalized title.
// Confident means both a brand and a model-like token are present; either
// alone is ambiguous enough to warrant the next tier.
func (i *Identifier) resolveTitle(res Resolution, parsed *listing.ParsedListing) Resolution {
	res.TiersTried = append(res.TiersTried, TierTitle)

	title := parsed.NormalizedTitle
	brand := listing.MatchBrand(title)
	model := listing.MatchModel(title)

	if brand == "" || model == "" {
		return res
	}

	attrs := map[string]string{"brand": brand, "model": model}
	if storage := listing.MatchStorage(title); storage != "" {
		attrs["storage"] = storage
	}

	res.State = Resolved
	res.Identity = ProductIdentity{
		CanonicalName: canonicalName(brand, model),
		Category:      categoryFor(model),
		Tier:          TierTitle,
		Attributes:    attrs,
	}
	return res
}

func (i *Identifier) resolveDescription(ctx context.Context, res Resolution, parsed *listing.ParsedListing) Resolution {
	if i.text == nil || parsed.Description == "" {
		return res
	}
	res.TiersTried = append(res.TiersTried, TierDescription)

	identity, err := i.text.InferIdentity(ctx, parsed.Title, parsed.Description)
	if err != nil {
		slog.Warn("Text inference failed, falling through", "listing", parsed.Key(), "error", err)
		return res
	}
	if identity == nil || !wellFormed(identity) {
		return res
	}

	identity.Tier = TierDescription
	res.State = Resolved
	res.Identity = *identity
	return res
}

func (i *Identifier) resolveImage(ctx context.Context, res Resolution, parsed *listing.ParsedListing) Resolution {
	if i.vision == nil || len(parsed.ImageURLs) == 0 {
		return res
	}
	res.TiersTried = append(res.TiersTried, TierImage)

	identity, err := i.vision.InferIdentityFromImage(ctx, parsed.ImageURLs[0], parsed.Title)
	if err != nil {
		slog.Warn("Vision inference failed, falling through", "listing", parsed.Key(), "error", err)
		return res
	}
	if identity == nil || !wellFormed(identity) {
		return res
	}

	identity.Tier = TierImage
	res.State = Resolved
	res.Identity = *identity
	return res
}

// wellFormed guards against inference responses that technically parsed but
// name nothing searchable.
func wellFormed(identity *ProductIdentity) bool {
	name := strings.TrimSpace(identity.CanonicalName)
	if name == "" {
		return false
	}
	return strings.ToLower(name) != "unknown"
}

func canonicalName(brand, model string) string {
	if strings.Contains(model, brand) {
		return model
	}
	return brand + " " + model
}

// categoryFor buckets a model token into a coarse search category. Falls
// back to "general" for anything unrecognized.
func categoryFor(model string) string {
	switch {
	case strings.HasPrefix(model, "rtx"), strings.HasPrefix(model, "gtx"), strings.HasPrefix(model, "rx"):
		return "gpu"
	case strings.HasPrefix(model, "i3"), strings.HasPrefix(model, "i5"),
		strings.HasPrefix(model, "i7"), strings.HasPrefix(model, "i9"),
		strings.HasPrefix(model, "ryzen"):
		return "cpu"
	case strings.HasPrefix(model, "iphone"), strings.HasPrefix(model, "galaxy"):
		return "phone"
	case strings.HasPrefix(model, "ipad"):
		return "tablet"
	case strings.HasPrefix(model, "switch"), strings.HasPrefix(model, "ps4"),
		strings.HasPrefix(model, "ps5"), strings.HasPrefix(model, "xbox"):
		return "console"
	case strings.Contains(model, "silver"), strings.Contains(model, "gold"):
		return "bullion"
	}
	return "general"
}
