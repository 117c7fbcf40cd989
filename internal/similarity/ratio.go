// Package similarity scores how closely a declared evidence name matches a file name.
//
// Scores use the Ratcliff/Obershelp "gestalt" ratio: find the longest common block,
// recurse into the unmatched text on either side, and report 2*M/T where M is the
// number of matched characters and T the combined length. Comparison is
// case-insensitive and operates on runes. Results are deterministic: when several
// blocks share the maximum length the one starting earliest in the declared name
// wins, then the one earliest in the candidate.
package similarity

import (
	"path/filepath"
	"strings"
)

// DefaultThreshold is the minimum ratio for a fuzzy candidate to be accepted
const DefaultThreshold = 0.8

// Match is the best-scoring candidate for a declared name
type Match struct {
	Candidate string  // Candidate as given (usually a file name)
	Score     float64 // Ratio in [0,1]
	Index     int     // Position of the candidate in the input slice
}

// Ratio returns the case-insensitive similarity of a and b in [0,1]
func Ratio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchedRunes(ra, rb)) / float64(total)
}

// BestMatch scores every candidate against name and returns the highest scoring one.
// Candidates are compared by base name with the extension removed. Ties keep the
// earliest candidate, so callers wanting reproducible picks pass a sorted slice.
// Returns false when candidates is empty.
func BestMatch(name string, candidates []string) (Match, bool) {
	if len(candidates) == 0 {
		return Match{}, false
	}

	best := Match{Index: -1, Score: -1}
	for i, c := range candidates {
		score := Ratio(name, Stem(c))
		if score > best.Score {
			best = Match{Candidate: c, Score: score, Index: i}
		}
	}
	return best, true
}

// Stem returns the base name of path without its extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type span struct {
	alo, ahi, blo, bhi int
}

// matchedRunes sums the sizes of all matching blocks found by recursive
// longest-block search.
func matchedRunes(a, b []rune) int {
	index := make(map[rune][]int)
	for j, r := range b {
		index[r] = append(index[r], j)
	}

	matched := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestBlock(a, index, s)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return matched
}

// longestBlock finds the longest common run of a[alo:ahi] and b[blo:bhi].
// index maps each rune of b to its ascending positions.
func longestBlock(a []rune, index map[rune][]int, s span) (besti, bestj, bestk int) {
	besti, bestj = s.alo, s.blo
	lengths := make(map[int]int)
	for i := s.alo; i < s.ahi; i++ {
		next := make(map[int]int)
		for _, j := range index[a[i]] {
			if j < s.blo {
				continue
			}
			if j >= s.bhi {
				break
			}
			k := lengths[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		lengths = next
	}
	return besti, bestj, bestk
}
