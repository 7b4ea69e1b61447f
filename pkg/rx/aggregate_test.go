package rx

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestReduce(t *testing.T) {
	got, err := Reduce(Just("a", "b", "c"), "", func(acc, v string) string {
		return acc + v
	}).Blocking().First(context.Background())
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if got != "abc" {
		t.Errorf("reduced = %q, want abc", got)
	}
}

func TestReduceEmptyEmitsSeed(t *testing.T) {
	got, err := Reduce(Empty[int](), 42, func(a, v int) int { return a + v }).
		Blocking().First(context.Background())
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if got != 42 {
		t.Errorf("reduced = %d, want seed 42", got)
	}
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()

	t.Run("Count", func(t *testing.T) {
		n, err := Just(1, 2, 3).Count().Blocking().First(ctx)
		if err != nil || n != 3 {
			t.Errorf("count = %d, err = %v, want 3", n, err)
		}
	})

	t.Run("Sum", func(t *testing.T) {
		s, err := Sum(Just(1.5, 2.5)).Blocking().First(ctx)
		if err != nil || s != 4.0 {
			t.Errorf("sum = %v, err = %v, want 4", s, err)
		}
	})

	t.Run("SumEmpty", func(t *testing.T) {
		s, err := Sum(Empty[int]()).Blocking().First(ctx)
		if err != nil || s != 0 {
			t.Errorf("sum = %d, err = %v, want 0", s, err)
		}
	})

	t.Run("MinBy", func(t *testing.T) {
		less := func(a, b string) bool { return strings.Compare(a, b) < 0 }
		v, err := Just("pear", "apple", "fig").MinBy(less).Blocking().First(ctx)
		if err != nil || v != "apple" {
			t.Errorf("min = %q, err = %v, want apple", v, err)
		}
	})

	t.Run("MaxBy", func(t *testing.T) {
		less := func(a, b int) bool { return a < b }
		v, err := Just(3, 9, 1).MaxBy(less).Blocking().First(ctx)
		if err != nil || v != 9 {
			t.Errorf("max = %d, err = %v, want 9", v, err)
		}
	})

	t.Run("MinByEmpty", func(t *testing.T) {
		_, err := Empty[int]().MinBy(func(a, b int) bool { return a < b }).Blocking().First(ctx)
		if !errors.Is(err, ErrEmpty) {
			t.Errorf("err = %v, want ErrEmpty", err)
		}
	})
}

func TestPredicates(t *testing.T) {
	ctx := context.Background()
	even := func(v int) bool { return v%2 == 0 }

	tests := []struct {
		name string
		src  Observable[bool]
		want bool
	}{
		{"AllTrue", Just(2, 4, 6).All(even), true},
		{"AllFalse", Just(2, 3).All(even), false},
		{"AllVacuous", Empty[int]().All(even), true},
		{"AnyTrue", Just(1, 2).Any(even), true},
		{"AnyFalse", Just(1, 3).Any(even), false},
		{"AnyEmpty", Empty[int]().Any(even), false},
		{"ContainsHit", Contains(Just(1, 2, 3), 2), true},
		{"ContainsMiss", Contains(Just(1, 3), 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.src.Blocking().First(ctx)
			if err != nil {
				t.Fatalf("First: %v", err)
			}
			if got != tt.want {
				t.Errorf("result = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToSlice(t *testing.T) {
	got, err := ToSlice(Just(1, 2, 3)).Blocking().First(context.Background())
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("slice = %v, want [1 2 3]", got)
	}
}

func TestAllShortCircuits(t *testing.T) {
	// The infinite source must be cancelled at the first counterexample.
	src := Just(2, 4, 5).StartWith(0).Filter(func(int) bool { return true })
	got, err := Concat(src, Never[int]()).All(func(v int) bool { return v%2 == 0 }).
		Blocking().First(context.Background())
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if got {
		t.Error("expected false for sequence containing an odd element")
	}
}
