package rx

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestFromAndJust(t *testing.T) {
	tests := []struct {
		name string
		src  Observable[int]
		want []int
	}{
		{"Just", Just(1, 2, 3), []int{1, 2, 3}},
		{"JustEmpty", Just[int](), nil},
		{"From", From([]int{4, 5}), []int{4, 5}},
		{"Range", Range(10, 3), []int{10, 11, 12}},
		{"RangeEmpty", Range(0, 0), nil},
		{"Empty", Empty[int](), nil},
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

func TestThrow(t *testing.T) {
	boom := errors.New("boom")
	got, err := Throw[int](boom).Blocking().Slice(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if len(got) != 0 {
		t.Errorf("values = %v, want none", got)
	}
}

func TestDefer(t *testing.T) {
	calls := 0
	src := Defer(func() Observable[int] {
		calls++
		return Just(calls)
	})

	// Each subscription gets a fresh observable from the factory.
	for want := 1; want <= 2; want++ {
		got, err := src.Blocking().Slice(context.Background())
		if err != nil {
			t.Fatalf("Slice: %v", err)
		}
		if !reflect.DeepEqual(got, []int{want}) {
			t.Errorf("subscription %d: values = %v, want [%d]", want, got, want)
		}
	}
	if calls != 2 {
		t.Errorf("factory calls = %d, want 2", calls)
	}
}

func TestFromChannel(t *testing.T) {
	ch := make(chan string, 3)
	ch <- "a"
	ch <- "b"
	close(ch)

	got, err := FromChannel(ch).Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("values = %v, want [a b]", got)
	}
}

func TestInterval(t *testing.T) {
	got, err := Interval(10 * time.Millisecond).Take(3).Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if !reflect.DeepEqual(got, []int64{0, 1, 2}) {
		t.Errorf("values = %v, want [0 1 2]", got)
	}
}

func TestTimer(t *testing.T) {
	start := time.Now()
	got, err := Timer(30 * time.Millisecond).Blocking().Slice(context.Background())
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if !reflect.DeepEqual(got, []int64{0}) {
		t.Errorf("values = %v, want [0]", got)
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Errorf("fired after %v, want >= 30ms", elapsed)
	}
}

func TestNeverStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := Never[int]().SubscribeFunc(ctx, nil, nil, nil)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop after cancel")
	}
	if !errors.Is(sub.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", sub.Err())
	}
}

func TestSubscriptionCancel(t *testing.T) {
	sub := Interval(5 * time.Millisecond).SubscribeFunc(context.Background(), nil, nil, nil)
	if sub.ID() == "" {
		t.Error("subscription ID should not be empty")
	}

	sub.Cancel()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop after Cancel")
	}
}
