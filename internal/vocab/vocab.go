// Package vocab builds the frozen term→dimension vocabulary and IDF table
// for a corpus. The two-phase protocol (accumulate with Builder, freeze with
// Build) is what keeps incremental upserts from ever introducing new
// dimensions: encoders only see the immutable Vocabulary value.
package vocab

import (
	"math"
	"sort"
)

// Vocabulary is the frozen mapping from admitted term to dimension index in
// [0, Dimension), plus IDF weights for every term observed at build time
// (including terms outside the admitted set, which never affect embeddings).
// It must not be mutated after Build.
type Vocabulary struct {
	Terms map[string]int     `json:"terms"`
	IDF   map[string]float64 `json:"idf"`
}

// Dimension returns the embedding length: the number of admitted terms.
func (v *Vocabulary) Dimension() int {
	if v == nil {
		return 0
	}
	return len(v.Terms)
}

// DimensionOf returns the dimension index for term and whether it is admitted.
func (v *Vocabulary) DimensionOf(term string) (int, bool) {
	dim, ok := v.Terms[term]
	return dim, ok
}

// IDFOf returns the IDF weight for term, 0 for terms never observed.
func (v *Vocabulary) IDFOf(term string) float64 {
	return v.IDF[term]
}

// Builder accumulates corpus-wide term counts during a full rebuild.
// Admission and IDF both use global term frequency (one multiset across the
// corpus), not per-document frequency.
type Builder struct {
	counts       map[string]int
	dimensionCap int
	minTermCount int
}

// NewBuilder returns a Builder admitting at most dimensionCap terms, each
// required to occur at least minTermCount times corpus-wide.
func NewBuilder(dimensionCap, minTermCount int) *Builder {
	if minTermCount < 1 {
		minTermCount = 1
	}
	return &Builder{
		counts:       make(map[string]int),
		dimensionCap: dimensionCap,
		minTermCount: minTermCount,
	}
}

// Add accumulates one document's token sequence into the global counts.
func (b *Builder) Add(tokens []string) {
	for _, tok := range tokens {
		b.counts[tok]++
	}
}

// Build freezes the vocabulary. Terms below the minimum count are discarded;
// the survivors are sorted by descending global frequency (ties broken by
// ascending term, so rebuilds on an unchanged corpus are identical) and the
// top dimensionCap get dimensions 0..D-1 in that order. IDF is computed for
// every observed term as ln(1 + documentCount/(1+globalCount)).
func (b *Builder) Build(documentCount int) *Vocabulary {
	type termCount struct {
		term  string
		count int
	}
	admitted := make([]termCount, 0, len(b.counts))
	for term, count := range b.counts {
		if count >= b.minTermCount {
			admitted = append(admitted, termCount{term, count})
		}
	}
	sort.Slice(admitted, func(i, j int) bool {
		if admitted[i].count != admitted[j].count {
			return admitted[i].count > admitted[j].count
		}
		return admitted[i].term < admitted[j].term
	})
	if b.dimensionCap > 0 && len(admitted) > b.dimensionCap {
		admitted = admitted[:b.dimensionCap]
	}

	v := &Vocabulary{
		Terms: make(map[string]int, len(admitted)),
		IDF:   make(map[string]float64, len(b.counts)),
	}
	for dim, tc := range admitted {
		v.Terms[tc.term] = dim
	}
	n := float64(documentCount)
	for term, count := range b.counts {
		v.IDF[term] = math.Log(1 + n/(1+float64(count)))
	}
	return v
}
