package textmatch

// Ratio returns a similarity score in [0,1] for two strings: twice the total
// length of their longest matching blocks divided by the combined length.
// Identical strings score 1.0, disjoint strings 0.0. Comparison is per rune.
func Ratio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	matched := matchingLength(ra, rb)
	return 2.0 * float64(matched) / float64(len(ra)+len(rb))
}

// matchingLength sums the lengths of the longest matching blocks, found by
// recursively splitting around the longest common substring.
func matchingLength(a, b []rune) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingLength(a[:ai], b[:bi])
	total += matchingLength(a[ai+size:], b[bi+size:])
	return total
}

func longestMatch(a, b []rune) (ai, bi, size int) {
	// lengths[j] holds the common-suffix length ending at a[i-1], b[j-1]
	// from the previous row.
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return ai, bi, size
}
