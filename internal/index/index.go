// Package index computes bibliometric impact indices from citation counts.
//
// Every function is pure: inputs are never modified, and degenerate inputs
// (no publications, no citations) yield 0 instead of an error.
package index

import (
	"math"
	"sort"
)

// I10Threshold is the citation count a publication needs to count toward i10.
const I10Threshold = 10

// SortedDesc returns a copy of counts sorted in descending order.
func SortedDesc(counts []int) []int {
	cp := append([]int(nil), counts...)
	sort.Sort(sort.Reverse(sort.IntSlice(cp)))
	return cp
}

// HIndex returns the largest h such that h publications have at least h
// citations each.
func HIndex(counts []int) int {
	return hFromSorted(SortedDesc(counts))
}

func hFromSorted(sorted []int) int {
	h := 0
	for i, c := range sorted {
		if c < i+1 {
			break
		}
		h = i + 1
	}
	return h
}

// GIndex returns the largest g such that the top g publications have at
// least g² citations combined.
func GIndex(counts []int) int {
	g, running := 0, 0
	for _, c := range SortedDesc(counts) {
		running += c
		if running < (g+1)*(g+1) {
			break
		}
		g++
	}
	return g
}

// I10Index counts publications with at least ten citations.
func I10Index(counts []int) int {
	n := 0
	for _, c := range counts {
		if c >= I10Threshold {
			n++
		}
	}
	return n
}

// EIndex returns sqrt(sum of the top h counts - h²).
//
// For h equal to HIndex(counts) the radicand is never negative. A larger h
// is capped at len(counts) and a negative radicand is clamped to 0.
func EIndex(counts []int, h int) float64 {
	if h <= 0 {
		return 0
	}
	sorted := SortedDesc(counts)
	if h > len(sorted) {
		h = len(sorted)
	}
	top := 0
	for _, c := range sorted[:h] {
		top += c
	}
	excess := float64(top) - float64(h)*float64(h)
	if excess <= 0 {
		return 0
	}
	return math.Sqrt(excess)
}

// MIndex divides h by the academic age currentYear - earliestYear.
// A non-positive academic age yields 0.
func MIndex(h, earliestYear, currentYear int) float64 {
	age := currentYear - earliestYear
	if age <= 0 {
		return 0
	}
	return float64(h) / float64(age)
}

// MockHIndex returns (totalCitations² / totalPapers)^(1/3).
func MockHIndex(totalCitations, totalPapers int) float64 {
	if totalPapers <= 0 {
		return 0
	}
	c := float64(totalCitations)
	return math.Cbrt(c * c / float64(totalPapers))
}

// Entropy returns the Shannon entropy -Σ p·ln(p) of the distribution
// values/sum(values). Zero values contribute nothing.
func Entropy(values []int) float64 {
	total := 0
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return 0
	}
	s := 0.0
	for _, v := range values {
		if v <= 0 {
			continue
		}
		p := float64(v) / float64(total)
		s -= p * math.Log(p)
	}
	return s
}

// SIndex is the entropy-weighted impact 0.25·sqrt(C)·exp(S/S0), where S is
// the citation entropy over publications and S0 = ln(number of papers).
func SIndex(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total <= 0 {
		return 0
	}
	ratio := 0.0
	// ln(1) is 0; a single paper has zero entropy anyway.
	if len(counts) > 1 {
		ratio = Entropy(counts) / math.Log(float64(len(counts)))
	}
	return 0.25 * math.Sqrt(float64(total)) * math.Exp(ratio)
}

// YearStat holds the citation summary of one publication year.
type YearStat struct {
	Year      int `json:"year"`
	Papers    int `json:"papers"`
	Citations int `json:"citations"`
	HIndex    int `json:"h_index"`
}

// YearlyStats computes the h-index and citation total of each year in
// byYear, ordered by ascending year.
func YearlyStats(byYear map[int][]int) []YearStat {
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	stats := make([]YearStat, 0, len(years))
	for _, y := range years {
		counts := byYear[y]
		total := 0
		for _, c := range counts {
			total += c
		}
		stats = append(stats, YearStat{
			Year:      y,
			Papers:    len(counts),
			Citations: total,
			HIndex:    HIndex(counts),
		})
	}
	return stats
}

// TIndex is 4·avgH·exp(entropy/ln(10·N)) over N yearly stats, where avgH is
// the mean yearly h-index and entropy is taken over yearly citation totals.
func TIndex(years []YearStat) float64 {
	n := len(years)
	if n == 0 {
		return 0
	}
	totals := make([]int, n)
	sumH := 0
	for i, y := range years {
		totals[i] = y.Citations
		sumH += y.HIndex
	}
	avgH := float64(sumH) / float64(n)
	consistency := math.Exp(Entropy(totals) / math.Log(10*float64(n)))
	return 4 * avgH * consistency
}
