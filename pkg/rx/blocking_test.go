package rx

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestBlockingFirst(t *testing.T) {
	v, err := Just(1, 2, 3).Blocking().First(context.Background())
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if v != 1 {
		t.Errorf("First = %d, want 1", v)
	}
}

func TestBlockingFirstEmpty(t *testing.T) {
	_, err := Empty[int]().Blocking().First(context.Background())
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
}

func TestBlockingLast(t *testing.T) {
	v, err := Just(1, 2, 3).Blocking().Last(context.Background())
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if v != 3 {
		t.Errorf("Last = %d, want 3", v)
	}
}

func TestBlockingForEach(t *testing.T) {
	var got []int
	err := Range(0, 4).Blocking().ForEach(context.Background(), func(v int) {
		got = append(got, v)
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if !reflect.DeepEqual(got, []int{0, 1, 2, 3}) {
		t.Errorf("values = %v, want [0 1 2 3]", got)
	}
}

func TestBlockingForEachError(t *testing.T) {
	boom := errors.New("boom")
	var got []int
	err := Concat(Just(1), Throw[int](boom)).Blocking().
		ForEach(context.Background(), func(v int) { got = append(got, v) })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("values = %v, want [1]", got)
	}
}

func TestBlockingIter(t *testing.T) {
	ch, errf := Just(1, 2, 3).Blocking().Iter(context.Background())
	var got []int
	for v := range ch {
		got = append(got, v)
	}
	if err := errf(); err != nil {
		t.Fatalf("Iter: %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("values = %v, want [1 2 3]", got)
	}
}

func TestBlockingIterError(t *testing.T) {
	boom := errors.New("boom")
	ch, errf := Concat(Just(1), Throw[int](boom)).Blocking().Iter(context.Background())
	var got []int
	for v := range ch {
		got = append(got, v)
	}
	if err := errf(); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("values = %v, want [1]", got)
	}
}

func TestBlockingCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	_, err := Never[int]().Blocking().Slice(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
