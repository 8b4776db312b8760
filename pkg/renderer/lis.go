package renderer

// longestIncreasingSubsequence returns the indices forming the longest
// strictly increasing subsequence of nums, ignoring -1 entries (the
// sentinel for a position with no counterpart in the previous list).
// Indices come back in increasing order.
//
// Patience-sorting variant with predecessor backtracking: O(n log n)
// selection, O(n) reconstruction.
func longestIncreasingSubsequence(nums []int) []int {
	// prev[i] is the index preceding i in the best subsequence ending at i.
	prev := make([]int, len(nums))
	// tails[k] is the index of the smallest known tail of an increasing
	// subsequence of length k+1.
	var tails []int

	for i, v := range nums {
		if v == -1 {
			continue
		}
		if len(tails) == 0 || nums[tails[len(tails)-1]] < v {
			prev[i] = -1
			if len(tails) > 0 {
				prev[i] = tails[len(tails)-1]
			}
			tails = append(tails, i)
			continue
		}
		// Smallest tail >= v gets replaced by v.
		lo, hi := 0, len(tails)-1
		for lo < hi {
			mid := (lo + hi) / 2
			if nums[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if nums[tails[lo]] > v {
			prev[i] = -1
			if lo > 0 {
				prev[i] = tails[lo-1]
			}
			tails[lo] = i
		}
	}

	out := make([]int, len(tails))
	k := len(tails)
	if k == 0 {
		return out
	}
	idx := tails[k-1]
	for k > 0 {
		k--
		out[k] = idx
		idx = prev[idx]
	}
	return out
}
