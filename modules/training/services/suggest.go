package services

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxSuggestDistance is the largest edit distance still offered as a "did you mean" hint.
const maxSuggestDistance = 3

// suggest returns the found name closest to want, or "" when nothing is close.
func suggest(want string, found []string) string {
	best, bestDist := "", -1
	consider := func(name string, dist int) {
		if bestDist < 0 || dist < bestDist {
			best, bestDist = name, dist
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(want, found)
	sort.Sort(ranks)
	if len(ranks) > 0 {
		consider(ranks[0].Target, ranks[0].Distance)
	}
	for _, f := range found {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(want), strings.ToLower(f)); d <= maxSuggestDistance {
			consider(f, d)
		}
	}
	return best
}

// describeMissing lists missing names, each with a hint when a found name is close.
func describeMissing(missing, found []string) string {
	parts := make([]string, len(missing))
	for i, m := range missing {
		parts[i] = m
		if hint := suggest(m, found); hint != "" {
			parts[i] += " (did you mean " + strconv.Quote(hint) + "?)"
		}
	}
	return strings.Join(parts, ", ")
}
