package stt

import "strings"

// heuristicThresholdChars is the per-string length above which
// ResolveOverlap switches from the exact matcher to the windowed
// heuristic, matching original_source/stt.rs's cleanup_overlap_fast.
const heuristicThresholdChars = 10000

// smallProductThreshold keeps the exact matcher on the simple O(n*m)
// path for small inputs, same cutoff as
// original_source/stt.rs:longest_common_word_substring.
const smallProductThreshold = 1000

// heuristicMinMatch is the minimum run length the heuristic variant
// requires before it counts a match, per spec.md 4.A.
const heuristicMinMatch = 3

// ResolveOverlap finds the longest shared word run straddling the
// boundary between previous and current and returns both strings
// rewritten so the run appears exactly once, kept at the start of the
// returned current. ok is false when there is no non-trivial overlap
// (or both strings tokenize to empty), in which case newPrevious and
// newCurrent are unspecified and must not be used.
//
// ResolveOverlap never mutates its inputs and is pure: equal inputs
// always produce equal outputs.
func ResolveOverlap(previous, current string) (newPrevious, newCurrent string, ok bool) {
	if previous == "" || current == "" {
		return "", "", false
	}

	prevWords := tokenizeOriginal(previous)
	curWords := tokenizeOriginal(current)
	prevNorm := normalizeTokens(prevWords)
	curNorm := normalizeTokens(curWords)

	if len(prevNorm) < 2 || len(curNorm) < 2 {
		return "", "", false
	}

	var i, j, length int
	var found bool
	if len(previous) > heuristicThresholdChars || len(current) > heuristicThresholdChars {
		i, j, length, found = matchHeuristic(prevNorm, curNorm)
	} else {
		i, j, length, found = matchExact(prevNorm, curNorm)
	}
	if !found || length < 1 {
		return "", "", false
	}

	newPrev := strings.Join(prevWords[:i], " ")
	newCur := strings.Join(curWords[j:], " ")
	if newPrev == "" && newCur == "" {
		return "", "", false
	}
	return newPrev, newCur, true
}

// matchExact finds the longest common run of normalized tokens between
// prev and cur, ties broken by smallest i then smallest j. For small
// inputs it is the direct O(n*m) scan; for larger ones it builds a
// token -> positions index over cur first, same algorithmic shape as
// original_source/stt.rs's find_common_substring_simple/optimized.
func matchExact(prev, cur []string) (i, j, length int, found bool) {
	if len(prev)*len(cur) < smallProductThreshold {
		return matchExactSimple(prev, cur)
	}
	return matchExactIndexed(prev, cur)
}

func matchExactSimple(prev, cur []string) (besti, bestj, maxLen int, found bool) {
	for i := range prev {
		for j := range cur {
			l := runLength(prev, cur, i, j)
			if l > maxLen {
				maxLen = l
				besti, bestj = i, j
				found = true
			}
		}
	}
	return besti, bestj, maxLen, found
}

func matchExactIndexed(prev, cur []string) (besti, bestj, maxLen int, found bool) {
	positions := make(map[string][]int, len(cur))
	for j, w := range cur {
		positions[w] = append(positions[w], j)
	}

	for i, w := range prev {
		for _, j := range positions[w] {
			l := runLength(prev, cur, i, j)
			if l > maxLen {
				maxLen = l
				besti, bestj = i, j
				found = true
			}
		}
	}
	return besti, bestj, maxLen, found
}

// matchHeuristic restricts the search to the last W tokens of prev and
// the first W tokens of cur, requiring a run of at least
// heuristicMinMatch to count, per spec.md's heuristic variant.
func matchHeuristic(prev, cur []string) (besti, bestj, maxLen int, found bool) {
	window := len(prev) / 5
	if window > 50 {
		window = 50
	}
	prevStart := len(prev) - window
	if prevStart < 0 {
		prevStart = 0
	}
	curEnd := window
	if curEnd > len(cur) {
		curEnd = len(cur)
	}

	for i := prevStart; i < len(prev); i++ {
		for j := 0; j < curEnd; j++ {
			l := runLength(prev, cur, i, j)
			if l > maxLen && l >= heuristicMinMatch {
				maxLen = l
				besti, bestj = i, j
				found = true
			}
		}
	}
	return besti, bestj, maxLen, found
}

func runLength(prev, cur []string, i, j int) int {
	l := 0
	for i+l < len(prev) && j+l < len(cur) && prev[i+l] == cur[j+l] {
		l++
	}
	return l
}

// tokenizeOriginal splits on whitespace, preserving original casing and
// punctuation; these are the tokens re-joined into the output strings.
func tokenizeOriginal(s string) []string {
	return strings.Fields(s)
}

// normalizeTokens strips ASCII punctuation, folds to lowercase, and
// drops tokens that become empty, matching original_source/stt.rs's
// preprocess_words.
func normalizeTokens(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		var b strings.Builder
		for _, r := range w {
			if isASCIIPunct(r) {
				continue
			}
			b.WriteRune(r)
		}
		norm := strings.ToLower(b.String())
		if norm != "" {
			out = append(out, norm)
		}
	}
	return out
}

func isASCIIPunct(r rune) bool {
	return (r >= '!' && r <= '/') ||
		(r >= ':' && r <= '@') ||
		(r >= '[' && r <= '`') ||
		(r >= '{' && r <= '~')
}
