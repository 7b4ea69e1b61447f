package rx

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"
	"time"
)

func TestMap(t *testing.T) {
	got, err := Map(Range(1, 3), func(v int) string {
		return fmt.Sprintf("#%d", v)
	}).Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"#1", "#2", "#3"}) {
		t.Errorf("values = %v", got)
	}
}

func TestMapForwardsError(t *testing.T) {
	boom := errors.New("boom")
	src := Concat(Just(1), Throw[int](boom))
	got, err := Map(src, func(v int) int { return v * 10 }).Blocking().Slice(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !reflect.DeepEqual(got, []int{10}) {
		t.Errorf("values before error = %v, want [10]", got)
	}
}

func TestFlatMap(t *testing.T) {
	src := FlatMap(Just(1, 2, 3), func(v int) Observable[int] {
		return Just(v*10, v*10+1)
	})
	got, err := src.Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	// Inner observables run concurrently: order is not guaranteed.
	sort.Ints(got)
	want := []int{10, 11, 20, 21, 30, 31}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("values = %v, want %v", got, want)
	}
}

func TestFlatMapInnerError(t *testing.T) {
	boom := errors.New("boom")
	src := FlatMap(Just(1, 2), func(v int) Observable[int] {
		if v == 2 {
			return Throw[int](boom)
		}
		return Just(v)
	})
	_, err := src.Blocking().Slice(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestConcatMapPreservesOrder(t *testing.T) {
	src := ConcatMap(Just(1, 2, 3), func(v int) Observable[string] {
		return Just(fmt.Sprintf("%da", v), fmt.Sprintf("%db", v))
	})
	got, err := src.Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	want := []string{"1a", "1b", "2a", "2b", "3a", "3b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("values = %v, want %v", got, want)
	}
}

func TestSwitchMapMirrorsLatest(t *testing.T) {
	// Earlier inner observables wait before emitting, so by the time the
	// delay elapses they have been cancelled by the later outer element.
	src := SwitchMap(Just(1, 2, 3), func(v int) Observable[string] {
		if v < 3 {
			return Map(Timer(80*time.Millisecond), func(int64) string {
				return fmt.Sprintf("stale-%d", v)
			})
		}
		return Just("c1", "c2")
	})
	got, err := src.Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Errorf("values = %v, want [c1 c2]", got)
	}
}

func TestScan(t *testing.T) {
	got, err := Scan(Just(1, 2, 3, 4), 0, func(a, v int) int {
		return a + v
	}).Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 3, 6, 10}) {
		t.Errorf("values = %v, want running sums", got)
	}
}

func TestStartWith(t *testing.T) {
	got, err := Just(3, 4).StartWith(1, 2).Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 2, 3, 4}) {
		t.Errorf("values = %v, want [1 2 3 4]", got)
	}
}

func TestBuffer(t *testing.T) {
	tests := []struct {
		name string
		src  Observable[int]
		size int
		want [][]int
	}{
		{"Exact", Just(1, 2, 3, 4), 2, [][]int{{1, 2}, {3, 4}}},
		{"Remainder", Just(1, 2, 3), 2, [][]int{{1, 2}, {3}}},
		{"Oversized", Just(1, 2), 5, [][]int{{1, 2}}},
		{"Empty", Empty[int](), 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Buffer(tt.src, tt.size).Blocking().Slice(context.Background())
			if err != nil {
				t.Fatalf("Slice: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buffers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBufferInvalidSize(t *testing.T) {
	_, err := Buffer(Just(1), 0).Blocking().Slice(context.Background())
	if err == nil {
		t.Fatal("expected error for size 0")
	}
}

func TestBufferComposesWithToSlice(t *testing.T) {
	// Stacking slice-typed operators instantiates Observable[[]T] and
	// Observable[[][]T] from the same source type.
	got, err := ToSlice(Buffer(Just(1, 2, 3, 4), 2)).Blocking().First(context.Background())
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	want := [][]int{{1, 2}, {3, 4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buffers = %v, want %v", got, want)
	}
}

func TestPairwise(t *testing.T) {
	got, err := Pairwise(Just(1, 2, 3)).Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	want := []Pair[int]{{1, 2}, {2, 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pairs = %v, want %v", got, want)
	}
}

func TestGroupBy(t *testing.T) {
	src := GroupBy(Just(1, 2, 3, 4, 5), func(v int) string {
		if v%2 == 0 {
			return "even"
		}
		return "odd"
	})
	got, err := src.Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	want := []Grouped[string, int]{
		{Key: "odd", Values: []int{1, 3, 5}},
		{Key: "even", Values: []int{2, 4}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("groups = %v, want %v", got, want)
	}
}

func TestMaterializeDematerialize(t *testing.T) {
	boom := errors.New("boom")
	src := Concat(Just(1, 2), Throw[int](boom))

	notes, err := Materialize(src).Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("materialized sequence should complete, got %v", err)
	}
	kinds := make([]NotificationKind, 0, len(notes))
	for _, n := range notes {
		kinds = append(kinds, n.Kind)
	}
	if !reflect.DeepEqual(kinds, []NotificationKind{KindNext, KindNext, KindError}) {
		t.Errorf("kinds = %v", kinds)
	}

	// Round-trip restores the original grammar.
	got, err := Dematerialize(From(notes)).Blocking().Slice(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("values = %v, want [1 2]", got)
	}
}
