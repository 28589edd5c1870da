package common

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultCutoff is the minimum similarity a candidate needs to be considered
// close, matching difflib's get_close_matches default.
const DefaultCutoff = 0.6

// Match is a ranked candidate.
type Match struct {
	Candidate string
	Score     float64
}

// Ranker orders candidates by similarity to a word. Implementations must be
// deterministic and keep the original candidate order among equal scores.
type Ranker interface {
	Rank(word string, candidates []string) []Match
}

// DifflibRanker ranks with the SequenceMatcher ratio.
type DifflibRanker struct {
	Cutoff float64
}

// NewRanker returns the default ranker.
func NewRanker() DifflibRanker {
	return DifflibRanker{Cutoff: DefaultCutoff}
}

// Rank returns every candidate scoring at least the cutoff, best first.
func (r DifflibRanker) Rank(word string, candidates []string) []Match {
	cutoff := r.Cutoff
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	w := strings.Split(word, "")
	var out []Match
	for _, c := range candidates {
		m := difflib.NewMatcher(strings.Split(c, ""), w)
		if m.RealQuickRatio() < cutoff || m.QuickRatio() < cutoff {
			continue
		}
		if s := m.Ratio(); s >= cutoff {
			out = append(out, Match{Candidate: c, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Closest returns the best candidate, or false when none is close enough.
func Closest(r Ranker, word string, candidates []string) (string, bool) {
	ms := r.Rank(word, candidates)
	if len(ms) == 0 {
		return "", false
	}
	return ms[0].Candidate, true
}

// Tied reports whether the two best matches share the same score.
func Tied(ms []Match) bool {
	return len(ms) > 1 && ms[0].Score == ms[1].Score
}
