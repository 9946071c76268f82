package analysis

import (
	"strings"

	"github.com/jonathan/jobprep/internal/types"
)

// Backfill replaces empty or "unknown" classifications in a with the hints.
func Backfill(a *types.Analysis, hints types.Hints) {
	a.RoleLevel = orHint(a.RoleLevel, hints.Seniority)
	a.RoleType = orHint(a.RoleType, hints.RoleType)
	a.Domain = orHint(a.Domain, hints.Domain)
	a.Focus = orHint(a.Focus, hints.Focus)
	a.Signals = MergeSignals(a.Signals, hints.Tags)
}

func orHint(value, hint string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, types.Unknown) {
		if hint == "" {
			return types.Unknown
		}
		return hint
	}
	return value
}

// MergeSignals appends tags to signals, dropping blanks and case-insensitive
// duplicates while keeping first-seen order, capped at MaxTags.
func MergeSignals(signals, tags []string) []string {
	merged := make([]string, 0, MaxTags)
	seen := make(map[string]struct{}, len(signals)+len(tags))

	for _, list := range [][]string{signals, tags} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			key := strings.ToLower(s)
			if s == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			if len(merged) == MaxTags {
				return merged
			}
			seen[key] = struct{}{}
			merged = append(merged, s)
		}
	}
	return merged
}
