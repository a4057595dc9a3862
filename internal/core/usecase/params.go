package usecase

import "github.com/docsage/docsage/internal/core/domain"

const (
	minTopK = 1
	maxTopK = 30

	defaultTopK       = 5
	defaultCitations  = 3
	defaultStrictness = 0.5

	minCitations = 0
	maxCitations = 10
)

// NormalizeParams clamps user-supplied knobs into their valid ranges and
// fills defaults. It never rejects: out-of-range values are corrected.
func NormalizeParams(p domain.QueryParams) domain.QueryParams {
	out := p

	if out.TopK == 0 {
		out.TopK = defaultTopK
	}
	out.TopK = clampInt(out.TopK, minTopK, maxTopK)

	// Zero is indistinguishable from an absent field on the wire, so zero
	// takes the default; a negative value requests no citations at all.
	switch {
	case out.MaxCitations == 0:
		out.MaxCitations = defaultCitations
	case out.MaxCitations < 0:
		out.MaxCitations = minCitations
	}
	out.MaxCitations = clampInt(out.MaxCitations, minCitations, maxCitations)

	out.Threshold = clampFloat(out.Threshold, 0, 1)

	if out.Strictness == 0 {
		out.Strictness = defaultStrictness
	}
	out.Strictness = clampFloat(out.Strictness, 0, 1)

	switch out.Format {
	case domain.FormatPlain, domain.FormatMarkdown, domain.FormatHTML:
	default:
		out.Format = domain.FormatPlain
	}

	switch out.Length {
	case domain.LengthAuto, domain.LengthShort, domain.LengthMedium, domain.LengthLong, domain.LengthXL:
	default:
		out.Length = domain.LengthAuto
	}

	if out.Mode == "" {
		out.Mode = domain.ModeAuto
	}

	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
