package score

import "testing"

func TestBoundaryScorePerfectMatch(t *testing.T) {
	b := []bool{true, true, false, true, false, true, true}
	got := BoundaryScore(b, b)
	if got.Precision != 1 || got.Recall != 1 || got.F1 != 1 {
		t.Fatalf("perfect match should score 1/1/1, got %+v", got)
	}
}

func TestBoundaryScoreNoOverlap(t *testing.T) {
	hyp := []bool{true, true, false, false, false, true, true}
	gold := []bool{true, true, true, true, true, true, true}
	got := BoundaryScore(hyp, gold)
	if got.Precision != 0 {
		t.Fatalf("Precision = %v, want 0", got.Precision)
	}
}

func TestTokenScorePartialMatch(t *testing.T) {
	hyp := [][2]int{{0, 2}, {2, 5}}
	gold := [][2]int{{0, 2}, {2, 3}, {3, 5}}
	got := TokenScore(hyp, gold)
	if got.Precision != 0.5 {
		t.Fatalf("Precision = %v, want 0.5", got.Precision)
	}
	want := float64(1) / float64(3)
	if got.Recall != want {
		t.Fatalf("Recall = %v, want %v", got.Recall, want)
	}
}

func TestLexiconScoreCountsTypesNotTokens(t *testing.T) {
	hyp := []string{"the", "the", "cat"}
	gold := []string{"the", "cat", "dog"}
	got := LexiconScore(hyp, gold)
	want := float64(2) / float64(3)
	if got.Recall != want {
		t.Fatalf("Recall = %v, want %v", got.Recall, want)
	}
	if got.Precision != 1 {
		t.Fatalf("Precision = %v, want 1", got.Precision)
	}
}

func TestTwoAFCScoreCountsCorrectPredictions(t *testing.T) {
	freq := map[string]float64{"the": 10, "xq": 0.1, "cat": 5, "zzq": 0.2}
	predict := func(w string) float64 { return freq[w] }
	pairs := [][2]string{{"the", "xq"}, {"zzq", "cat"}}
	got := TwoAFCScore(pairs, predict)
	if got.Total != 2 || got.Correct != 1 {
		t.Fatalf("got %+v, want 1/2 correct", got)
	}
	if got.Accuracy() != 0.5 {
		t.Fatalf("Accuracy = %v, want 0.5", got.Accuracy())
	}
}
