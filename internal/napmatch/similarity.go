package napmatch

// Similarity returns 1 - levenshtein(a,b)/max(len(a),len(b)) measured in runes.
// An empty side always scores 0, including the empty/empty pair.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// Levenshtein returns the edit distance between a and b in runes.
// It is O(len(a)*len(b)); callers must keep inputs short.
func Levenshtein(a, b string) int {
	return levenshtein([]rune(a), []rune(b))
}

func levenshtein(a, b []rune) int {
	d := distanceTable(a, b)
	return d[len(a)][len(b)]
}

// distanceTable builds the full DP table. Diff walks it back, so rows are kept.
func distanceTable(a, b []rune) [][]int {
	d := make([][]int, len(a)+1)
	for i := range d {
		d[i] = make([]int, len(b)+1)
		d[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		d[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d[i][j] = min(
				d[i-1][j]+1,
				d[i][j-1]+1,
				d[i-1][j-1]+cost,
			)
		}
	}
	return d
}
