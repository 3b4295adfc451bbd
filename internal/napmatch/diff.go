package napmatch

// DiffOp labels a diff segment.
type DiffOp string

// Diff operations, from the expected value's point of view.
const (
	DiffEqual  DiffOp = "equal"
	DiffDelete DiffOp = "delete" // present in expected, missing in detected
	DiffInsert DiffOp = "insert" // present in detected only
)

// DiffSegment is a run of runes sharing one operation.
type DiffSegment struct {
	Op   DiffOp `json:"op"`
	Text string `json:"text"`
}

// Diff aligns the normalized expected and detected values along a minimal edit path
// and returns the segments for highlighting. A substitution is emitted as delete+insert.
func Diff(expected, detected string, normalize Normalizer) []DiffSegment {
	if normalize == nil {
		normalize = NormalizeName
	}
	a := []rune(normalize(expected))
	b := []rune(normalize(detected))
	d := distanceTable(a, b)

	type step struct {
		op DiffOp
		r  rune
	}
	var rev []step
	i, j := len(a), len(b)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && a[i-1] == b[j-1] && d[i][j] == d[i-1][j-1]:
			rev = append(rev, step{DiffEqual, a[i-1]})
			i--
			j--
		case i > 0 && j > 0 && d[i][j] == d[i-1][j-1]+1:
			rev = append(rev, step{DiffInsert, b[j-1]}, step{DiffDelete, a[i-1]})
			i--
			j--
		case i > 0 && d[i][j] == d[i-1][j]+1:
			rev = append(rev, step{DiffDelete, a[i-1]})
			i--
		default:
			rev = append(rev, step{DiffInsert, b[j-1]})
			j--
		}
	}

	var segments []DiffSegment
	for k := len(rev) - 1; k >= 0; k-- {
		s := rev[k]
		if n := len(segments); n > 0 && segments[n-1].Op == s.op {
			segments[n-1].Text += string(s.r)
			continue
		}
		segments = append(segments, DiffSegment{Op: s.op, Text: string(s.r)})
	}
	return segments
}
