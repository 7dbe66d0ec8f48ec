package usecase

import (
	"strings"

	"lucid/internal/domain"
)

// Keyword families for depth classification. This is best-effort text
// matching, not semantic analysis: a reply mentioning none of these terms is
// simply tagged surface.
var (
	identityTerms = []string{"identity", "yourself", "who you are", "your behavior", "you believe"}
	patternTerms  = []string{"pattern", "compare", "comparison", "standard", "always", "never"}
	rootTerms     = []string{"root", "fundamental", "core", "underneath", "beneath"}
)

// ClassifyDepth tags assistant reply text with a conceptual depth.
func ClassifyDepth(text string) domain.Depth {
	lowered := strings.ToLower(text)

	switch {
	case containsAny(lowered, identityTerms):
		return domain.DepthIdentity
	case containsAny(lowered, patternTerms):
		return domain.DepthPattern
	case containsAny(lowered, rootTerms):
		return domain.DepthRoot
	default:
		return domain.DepthSurface
	}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
