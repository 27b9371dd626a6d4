package vocab

import (
	"math"
	"reflect"
	"testing"
)

func TestBuildMinTermCount(t *testing.T) {
	b := NewBuilder(10, 2)
	b.Add([]string{"fox", "fox", "rare"})
	v := b.Build(1)
	if _, ok := v.DimensionOf("fox"); !ok {
		t.Error("fox should be admitted")
	}
	if _, ok := v.DimensionOf("rare"); ok {
		t.Error("rare occurs once, should be discarded")
	}
	// Discarded terms still carry IDF entries.
	if v.IDFOf("rare") == 0 {
		t.Error("rare should retain an IDF entry")
	}
}

func TestBuildDimensionCapAndOrdering(t *testing.T) {
	b := NewBuilder(2, 1)
	b.Add([]string{"high", "high", "high", "mid", "mid", "low"})
	v := b.Build(3)
	if v.Dimension() != 2 {
		t.Fatalf("Dimension = %d, want 2", v.Dimension())
	}
	if dim, _ := v.DimensionOf("high"); dim != 0 {
		t.Errorf("high dimension = %d, want 0", dim)
	}
	if dim, _ := v.DimensionOf("mid"); dim != 1 {
		t.Errorf("mid dimension = %d, want 1", dim)
	}
	if _, ok := v.DimensionOf("low"); ok {
		t.Error("low should fall outside the cap")
	}
}

func TestBuildTieBreakDeterministic(t *testing.T) {
	build := func() *Vocabulary {
		b := NewBuilder(3, 1)
		b.Add([]string{"zeta", "alpha", "mike"})
		return b.Build(1)
	}
	first := build()
	for i := 0; i < 5; i++ {
		if got := build(); !reflect.DeepEqual(got.Terms, first.Terms) {
			t.Fatalf("run %d differs: %v vs %v", i, got.Terms, first.Terms)
		}
	}
	// Equal counts sort by ascending term.
	if dim, _ := first.DimensionOf("alpha"); dim != 0 {
		t.Errorf("alpha dimension = %d, want 0", dim)
	}
	if dim, _ := first.DimensionOf("zeta"); dim != 2 {
		t.Errorf("zeta dimension = %d, want 2", dim)
	}
}

func TestIDFFormula(t *testing.T) {
	b := NewBuilder(10, 1)
	b.Add([]string{"fox", "fox", "fox"})
	v := b.Build(9)
	want := math.Log(1 + 9.0/(1+3.0))
	if got := v.IDFOf("fox"); math.Abs(got-want) > 1e-12 {
		t.Errorf("IDF = %v, want %v", got, want)
	}
	if got := v.IDFOf("unseen"); got != 0 {
		t.Errorf("IDF of unseen term = %v, want 0", got)
	}
}

func TestNilVocabularyDimension(t *testing.T) {
	var v *Vocabulary
	if v.Dimension() != 0 {
		t.Error("nil vocabulary should have dimension 0")
	}
}
