// Package match ranks candidate names against a free-text query.
//
// Scores are normalized to 0-100. The matcher is stateless and operates on a
// caller-supplied snapshot of candidates, never on a live store.
package match

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Default ranking parameters: at most 5 candidates, strictly above a score of 60.
const (
	DefaultLimit    = 5
	DefaultMinScore = 60
)

// Result is a single ranked candidate. Index is the candidate's position in
// the input slice, which also breaks score ties (stable order).
type Result struct {
	Target string
	Score  int
	Index  int
}

// Score computes a normalized 0-100 similarity between query and candidate.
//
// Identical strings (after case and whitespace folding) score 100. A query that
// is a clean substring of a candidate scores highly (90) but below an exact
// match. Word order is forgiven via a token-sort comparison.
func Score(query, candidate string) int {
	q := normalize(query)
	c := normalize(candidate)
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return 100
	}

	best := ratio(q, c)
	if s := partialRatio(q, c); s > best {
		best = s
	}
	if s := ratio(sortTokens(q), sortTokens(c)); s > best {
		best = s
	}
	return best
}

// Rank scores every candidate against query and returns at most limit results
// whose score is strictly greater than minScore, ordered by descending score.
// Candidates with equal scores keep their input order.
func Rank(query string, candidates []string, limit, minScore int) []Result {
	ranks := make([]Result, 0, len(candidates))
	for i, candidate := range candidates {
		score := Score(query, candidate)
		if score > minScore {
			ranks = append(ranks, Result{Target: candidate, Score: score, Index: i})
		}
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Score > ranks[j].Score
	})

	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// ratio is the full-string Levenshtein similarity scaled to 0-100.
func ratio(a, b string) int {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	if dist >= longest {
		return 0
	}
	return (100 * (longest - dist)) / longest
}

// partialRatio slides a window the size of the shorter string over the longer
// one and takes the best Levenshtein similarity, scaled down to cap at 90 so
// substring containment ranks high without beating an exact match.
func partialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	best := 0
	for start := 0; start+len(short) <= len(long); start++ {
		window := string(long[start : start+len(short)])
		dist := fuzzy.LevenshteinDistance(string(short), window)
		sim := 0
		if dist < len(short) {
			sim = (100 * (len(short) - dist)) / len(short)
		}
		if sim > best {
			best = sim
		}
	}
	return (best * 90) / 100
}
