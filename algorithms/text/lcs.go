package text

// MatchedPair is one element of a longest common subsequence, as indexes into
// the two input sequences
type MatchedPair struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// LCS computes the longest common subsequence of two token sequences with the
// classic O(n*m) table and backtracks it to the matched index pairs, in order.
//
// Ties during backtracking skip the left token first, which keeps the result
// deterministic for repeated words.
func LCS(left, right []string) []MatchedPair {
	n, m := len(left), len(right)
	if n == 0 || m == 0 {
		return []MatchedPair{}
	}

	// dp[i][j] = LCS length of left[:i] and right[:j]
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if left[i-1] == right[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	pairs := make([]MatchedPair, dp[n][m])
	k := len(pairs) - 1
	i, j := n, m
	for i > 0 && j > 0 {
		switch {
		case left[i-1] == right[j-1]:
			pairs[k] = MatchedPair{Left: i - 1, Right: j - 1}
			k--
			i--
			j--
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}

	return pairs
}
