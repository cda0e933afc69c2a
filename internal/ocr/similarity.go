package ocr

import (
	"strings"
	"unicode"
)

// TextSimilarity scores recognized text against ground truth in [0, 1].
// Whitespace is ignored and case matters, since upper and lower case
// glyphs are distinct labels. The score blends subsequence, character
// overlap and trigram containment so partially correct readings still
// rank above wrong ones.
func TextSimilarity(detected, truth string) float64 {
	d := []rune(normalizeText(detected))
	tr := []rune(normalizeText(truth))

	if len(tr) == 0 {
		if len(d) == 0 {
			return 1.0
		}
		return 0.0
	}
	if string(d) == string(tr) {
		return 1.0
	}

	// 1. LCS - best for partial matches
	lcsScore := float64(longestCommonSubsequence(d, tr)) / float64(max(len(d), len(tr)))

	// 2. Character overlap - fraction of truth characters present
	charOverlap := characterOverlap(d, tr)

	// 3. Trigram containment
	substringScore := lcsScore
	if len(tr) >= 3 {
		matches, total := 0, 0
		ds := string(d)
		for i := 0; i+3 <= len(tr); i++ {
			total++
			if strings.Contains(ds, string(tr[i:i+3])) {
				matches++
			}
		}
		substringScore = float64(matches) / float64(total)
	}

	return 0.5*lcsScore + 0.3*charOverlap + 0.2*substringScore
}

// Accuracy returns the fraction of positions where detected and truth
// agree, over the longer of the two (whitespace ignored).
func Accuracy(detected, truth string) float64 {
	d := []rune(normalizeText(detected))
	tr := []rune(normalizeText(truth))
	n := max(len(d), len(tr))
	if n == 0 {
		return 1.0
	}
	hits := 0
	for i := 0; i < min(len(d), len(tr)); i++ {
		if d[i] == tr[i] {
			hits++
		}
	}
	return float64(hits) / float64(n)
}

// normalizeText drops whitespace and control characters.
func normalizeText(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// longestCommonSubsequence calculates LCS length.
func longestCommonSubsequence(a, b []rune) int {
	m, n := len(a), len(b)
	if m == 0 || n == 0 {
		return 0
	}

	// Two rows suffice.
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// characterOverlap returns the fraction of truth characters found in
// detected, counting multiplicity.
func characterOverlap(detected, truth []rune) float64 {
	if len(truth) == 0 {
		return 0.0
	}

	detectedChars := make(map[rune]int)
	for _, r := range detected {
		detectedChars[r]++
	}

	matched := 0
	for _, r := range truth {
		if detectedChars[r] > 0 {
			matched++
			detectedChars[r]--
		}
	}

	return float64(matched) / float64(len(truth))
}
