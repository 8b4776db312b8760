package renderer

import (
	"testing"
)

func TestLISEmpty(t *testing.T) {
	if got := longestIncreasingSubsequence(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
	if got := longestIncreasingSubsequence([]int{-1, -1}); len(got) != 0 {
		t.Errorf("expected sentinels ignored, got %v", got)
	}
}

func TestLISAlreadyIncreasing(t *testing.T) {
	got := longestIncreasingSubsequence([]int{1, 3, 5, 7})
	want := []int{0, 1, 2, 3}
	assertInts(t, want, got)
}

func TestLISDecreasing(t *testing.T) {
	got := longestIncreasingSubsequence([]int{4, 3, 2, 1})
	if len(got) != 1 {
		t.Fatalf("expected length 1, got %v", got)
	}
}

func TestLISMixed(t *testing.T) {
	// Values 2,5,1,6,3,7: longest increasing run is 2,5,6,7 -> indices 0,1,3,5.
	got := longestIncreasingSubsequence([]int{2, 5, 1, 6, 3, 7})
	want := []int{0, 1, 3, 5}
	assertInts(t, want, got)
}

func TestLISIgnoresSentinels(t *testing.T) {
	// -1 positions denote freshly mounted nodes and never join the sequence.
	got := longestIncreasingSubsequence([]int{1, -1, 2, -1, 0})
	want := []int{0, 2}
	assertInts(t, want, got)
}

func TestLISKeyedMiddleScenario(t *testing.T) {
	// The [a,b,c] -> [b,c,a,e] middle region: b and c stay, a moves, e is new.
	got := longestIncreasingSubsequence([]int{1, 2, 0, -1})
	want := []int{0, 1}
	assertInts(t, want, got)
}

func BenchmarkLIS(b *testing.B) {
	nums := make([]int, 1024)
	for i := range nums {
		// Deterministic shuffle-like pattern with sentinel gaps.
		nums[i] = (i * 37) % len(nums)
		if i%7 == 0 {
			nums[i] = -1
		}
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		longestIncreasingSubsequence(nums)
	}
}

func assertInts(t *testing.T, want, got []int) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
