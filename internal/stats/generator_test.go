package stats

import (
	"fmt"
	"testing"
)

func TestGeneratorIsDeterministic(t *testing.T) {
	first := New("John Smith").Skills()
	second := New("John Smith").Skills()
	if first != second {
		t.Fatalf("same seed produced different skills: %+v vs %+v", first, second)
	}
}

func TestGeneratorStaysInRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		gen := New(fmt.Sprintf("seed-%d", i))
		for j := 0; j < 20; j++ {
			stat := gen.Stat()
			if stat < 60 || stat > 98 {
				t.Fatalf("stat %d out of range for seed-%d", stat, i)
			}
		}
	}
}

func TestGeneratorVariesAcrossSeeds(t *testing.T) {
	base := New("seed-0").Skills()
	for i := 1; i < 20; i++ {
		if New(fmt.Sprintf("seed-%d", i)).Skills() != base {
			return
		}
	}
	t.Fatal("twenty distinct seeds produced identical skill sets")
}

func TestFloat64Bounds(t *testing.T) {
	gen := New("bounds")
	for i := 0; i < 1000; i++ {
		v := gen.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("draw %d out of [0,1): %f", i, v)
		}
	}
}
