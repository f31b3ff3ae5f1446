package search

import (
	"fmt"
	"testing"

	"github.com/searchlab/querytuner/internal/space"
	"github.com/searchlab/querytuner/pkg/config"
)

func TestGridEnumeratesFullProduct(t *testing.T) {
	domain := space.New([]config.ParameterSpec{
		{Name: "a", Type: config.ParamCategorical, Choices: []string{"x", "y", "z"}},
		{Name: "b", Type: config.ParamInteger, Bounds: []float64{1, 4}},
		{Name: "c", Type: config.ParamCategorical, Choices: []string{"on", "off"}},
	})
	g := NewGrid(domain, 4)

	// cardinalities 3 * 4 * 2
	if g.Total() != 24 {
		t.Fatalf("expected 24 candidates, got %d", g.Total())
	}

	seen := make(map[string]bool)
	count := 0
	for g.HasNext() {
		c, err := g.Next()
		if err != nil {
			t.Fatalf("unexpected error at candidate %d: %v", count, err)
		}
		key := fmt.Sprintf("%v|%v|%v", c["a"], c["b"], c["c"])
		if seen[key] {
			t.Fatalf("duplicate candidate: %s", key)
		}
		seen[key] = true
		count++
	}

	if count != 24 {
		t.Errorf("expected exactly 24 candidates, got %d", count)
	}
	if len(seen) != 24 {
		t.Errorf("expected 24 distinct candidates, got %d", len(seen))
	}
}

func TestGridLexicographicOrder(t *testing.T) {
	domain := space.New([]config.ParameterSpec{
		{Name: "first", Type: config.ParamCategorical, Choices: []string{"a", "b"}},
		{Name: "second", Type: config.ParamCategorical, Choices: []string{"1", "2"}},
	})
	g := NewGrid(domain, 0)

	// first parameter varies slowest, nested-loop order
	want := [][2]string{{"a", "1"}, {"a", "2"}, {"b", "1"}, {"b", "2"}}
	for i, w := range want {
		c, err := g.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c["first"] != w[0] || c["second"] != w[1] {
			t.Errorf("candidate %d: got (%v, %v), want (%s, %s)", i, c["first"], c["second"], w[0], w[1])
		}
	}
	if g.HasNext() {
		t.Error("expected grid to be exhausted")
	}
}

func TestGridExhaustion(t *testing.T) {
	domain := space.New([]config.ParameterSpec{
		{Name: "a", Type: config.ParamCategorical, Choices: []string{"x"}},
	})
	g := NewGrid(domain, 0)

	if _, err := g.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := g.Next()
	if err == nil {
		t.Fatal("expected error on exhausted grid")
	}
	if _, ok := err.(*StateError); !ok {
		t.Errorf("expected *StateError, got %T", err)
	}
}

func TestGridObserveIsNoOp(t *testing.T) {
	domain := space.New([]config.ParameterSpec{
		{Name: "a", Type: config.ParamCategorical, Choices: []string{"x", "y"}},
	})
	g := NewGrid(domain, 0)

	c, _ := g.Next()
	if err := g.Observe(c, 0.5); err != nil {
		t.Errorf("expected Observe no-op, got %v", err)
	}
	if _, ok := g.Recommend(); ok {
		t.Error("grid should make no recommendation")
	}
}

func TestGridDeterministic(t *testing.T) {
	params := []config.ParameterSpec{
		{Name: "k1", Type: config.ParamContinuous, Bounds: []float64{0, 1}},
		{Name: "mode", Type: config.ParamCategorical, Choices: []string{"or", "and"}},
	}

	g1 := NewGrid(space.New(params), 3)
	g2 := NewGrid(space.New(params), 3)
	for g1.HasNext() {
		c1, _ := g1.Next()
		c2, _ := g2.Next()
		if fmt.Sprint(c1) != fmt.Sprint(c2) {
			t.Fatalf("grid enumeration diverged: %v vs %v", c1, c2)
		}
	}
}
