package stt

import "testing"

func TestResolveOverlap_BasicOverlap(t *testing.T) {
	prev := "the quick brown fox jumps"
	cur := "brown fox jumps over the lazy dog"

	newPrev, newCur, ok := ResolveOverlap(prev, cur)
	if !ok {
		t.Fatalf("expected overlap to be found")
	}
	if newPrev != "the quick" {
		t.Errorf("newPrev = %q, want %q", newPrev, "the quick")
	}
	if newCur != "brown fox jumps over the lazy dog" {
		t.Errorf("newCur = %q, want %q", newCur, "brown fox jumps over the lazy dog")
	}
}

func TestResolveOverlap_NoOverlap(t *testing.T) {
	prev := "completely different words here"
	cur := "nothing shared at all today"

	_, _, ok := ResolveOverlap(prev, cur)
	if ok {
		t.Fatalf("expected no overlap to be found")
	}
}

func TestResolveOverlap_CaseAndPunctuationInsensitive(t *testing.T) {
	prev := "Hello, world! How are you"
	cur := "how are you doing today"

	newPrev, newCur, ok := ResolveOverlap(prev, cur)
	if !ok {
		t.Fatalf("expected overlap to be found across case/punctuation")
	}
	if newPrev != "Hello, world!" {
		t.Errorf("newPrev = %q, want %q", newPrev, "Hello, world!")
	}
	if newCur != "how are you doing today" {
		t.Errorf("newCur = %q, want %q", newCur, "how are you doing today")
	}
}

func TestResolveOverlap_EmptyInputs(t *testing.T) {
	if _, _, ok := ResolveOverlap("", "anything"); ok {
		t.Errorf("empty previous should never overlap")
	}
	if _, _, ok := ResolveOverlap("anything", ""); ok {
		t.Errorf("empty current should never overlap")
	}
}

func TestResolveOverlap_Pure(t *testing.T) {
	prev := "one two three four five"
	cur := "four five six seven eight"

	newPrev1, newCur1, ok1 := ResolveOverlap(prev, cur)
	newPrev2, newCur2, ok2 := ResolveOverlap(prev, cur)

	if ok1 != ok2 || newPrev1 != newPrev2 || newCur1 != newCur2 {
		t.Fatalf("ResolveOverlap is not pure: (%q,%q,%v) != (%q,%q,%v)",
			newPrev1, newCur1, ok1, newPrev2, newCur2, ok2)
	}
}

func TestResolveOverlap_TieBreakSmallestIndices(t *testing.T) {
	// "a b" appears at prev[0:2] and prev[3:5]; the match should use the
	// earliest (smallest i) occurrence and the earliest j in cur.
	prev := "a b x a b"
	cur := "a b y z"

	newPrev, newCur, ok := ResolveOverlap(prev, cur)
	if !ok {
		t.Fatalf("expected overlap to be found")
	}
	if newPrev != "" {
		t.Errorf("newPrev = %q, want empty (match starts at i=0)", newPrev)
	}
	if newCur != "a b y z" {
		t.Errorf("newCur = %q, want %q", newCur, "a b y z")
	}
}

func TestResolveOverlap_TooShortToMatter(t *testing.T) {
	// Single shared word is not enough (requires at least 2 tokens in
	// each normalized input already, and overlap runs must be genuine).
	prev := "hello"
	cur := "world"
	if _, _, ok := ResolveOverlap(prev, cur); ok {
		t.Errorf("single-word inputs should not be treated as overlapping")
	}
}

func TestMatchHeuristic_RequiresMinimumRun(t *testing.T) {
	prev := make([]string, 0, 300)
	for i := 0; i < 300; i++ {
		prev = append(prev, "word")
	}
	prev = append(prev, "alpha", "beta", "gamma")
	cur := []string{"alpha", "beta", "gamma", "delta"}

	i, j, length, found := matchHeuristic(prev, cur)
	if !found {
		t.Fatalf("expected heuristic match to be found")
	}
	if length < heuristicMinMatch {
		t.Errorf("match length %d below heuristic minimum %d", length, heuristicMinMatch)
	}
	if prev[i] != "alpha" || cur[j] != "alpha" {
		t.Errorf("unexpected match position i=%d j=%d", i, j)
	}
}
