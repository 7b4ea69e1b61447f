package rx

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestFilterOperators(t *testing.T) {
	even := func(v int) bool { return v%2 == 0 }

	tests := []struct {
		name string
		src  Observable[int]
		want []int
	}{
		{"Filter", Just(1, 2, 3, 4).Filter(even), []int{2, 4}},
		{"Take", Just(1, 2, 3, 4).Take(2), []int{1, 2}},
		{"TakeZero", Just(1, 2).Take(0), nil},
		{"TakeMoreThanAvailable", Just(1, 2).Take(5), []int{1, 2}},
		{"TakeWhile", Just(1, 2, 3, 1).TakeWhile(func(v int) bool { return v < 3 }), []int{1, 2}},
		{"Skip", Just(1, 2, 3, 4).Skip(2), []int{3, 4}},
		{"SkipAll", Just(1, 2).Skip(5), nil},
		{"SkipWhile", Just(1, 2, 3, 1).SkipWhile(func(v int) bool { return v < 3 }), []int{3, 1}},
		{"Distinct", Distinct(Just(1, 2, 1, 3, 2)), []int{1, 2, 3}},
		{"DistinctUntilChanged", DistinctUntilChanged(Just(1, 1, 2, 2, 1)), []int{1, 2, 1}},
		{"ElementAt", Just(10, 20, 30).ElementAt(1), []int{20}},
		{"IgnoreElements", Just(1, 2, 3).IgnoreElements(), nil},
		{"First", Just(7, 8).First(), []int{7}},
		{"Last", Just(7, 8).Last(), []int{8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.src.Blocking().Slice(context.Background())
			if err != nil {
				t.Fatalf("Slice: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("values = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTakeStopsSource(t *testing.T) {
	// An infinite source bounded by Take must terminate.
	got, err := Interval(time.Millisecond).Take(2).Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if !reflect.DeepEqual(got, []int64{0, 1}) {
		t.Errorf("values = %v, want [0 1]", got)
	}
}

func TestElementAtOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		index int
	}{
		{"PastEnd", 5},
		{"Negative", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Just(1, 2).ElementAt(tt.index).Blocking().Slice(context.Background())
			if !errors.Is(err, ErrIndexOutOfRange) {
				t.Errorf("err = %v, want ErrIndexOutOfRange", err)
			}
		})
	}
}

func TestFirstEmpty(t *testing.T) {
	_, err := Empty[int]().First().Blocking().Slice(context.Background())
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
}

func TestLastEmpty(t *testing.T) {
	_, err := Empty[int]().Last().Blocking().Slice(context.Background())
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
}

func TestDistinctUntilChangedFunc(t *testing.T) {
	type point struct{ x, y int }
	src := Just(point{1, 1}, point{1, 2}, point{2, 2})
	got, err := DistinctUntilChangedFunc(src, func(a, b point) bool {
		return a.x == b.x
	}).Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	want := []point{{1, 1}, {2, 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("values = %v, want %v", got, want)
	}
}

func TestTakeUntil(t *testing.T) {
	src := TakeUntil(Interval(5*time.Millisecond), Timer(60*time.Millisecond))
	got, err := src.Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if len(got) == 0 {
		t.Error("expected at least one element before the notifier fired")
	}
}

func TestTakeUntilImmediateNotifier(t *testing.T) {
	// A notifier that completes without emitting still ends the stream.
	src := TakeUntil(Never[int](), Empty[string]())
	rec := make(chan struct{})
	sub := src.SubscribeFunc(context.Background(), nil, nil, func() { close(rec) })

	select {
	case <-rec:
	case <-time.After(time.Second):
		t.Fatal("stream did not complete")
	}
	<-sub.Done()
	if sub.Err() != nil {
		t.Errorf("Err() = %v, want nil", sub.Err())
	}
}
