package stream

import (
	"context"
	"io"
	"slices"
	"strings"
	"testing"
	"time"
)

func isNonZero(n int) bool {
	return n != 0
}

func TestStream(t *testing.T) {
	data := []int{0, 2, 4, 0, 8}
	ctx := context.Background()
	result := Collect(ctx, Filter(ctx, isNonZero, Slice(ctx, data)))
	if !slices.Equal([]int{2, 4, 8}, result) {
		t.Errorf("Expected [2, 4, 8], got %v", result)
	}
}

func TestTransform(t *testing.T) {
	ctx := context.Background()
	double := func(n int) int { return n * 2 }
	result := Collect(ctx, Transform(ctx, double, Slice(ctx, []int{1, 2, 3})))
	if !slices.Equal([]int{2, 4, 6}, result) {
		t.Errorf("Expected [2, 4, 6], got %v", result)
	}
}

func TestCollect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	never := make(chan int)
	if got := Collect(ctx, never); len(got) != 0 {
		t.Errorf("Expected nothing, got %v", got)
	}
}

func TestRingBuffer(t *testing.T) {
	rb := NewRingBuffer[int](3)
	if evicted := rb.Add(1, 2); evicted != 0 {
		t.Errorf("evicted %d, want 0", evicted)
	}
	if got := rb.Get(); !slices.Equal([]int{1, 2}, got) {
		t.Errorf("Expected [1, 2], got %v", got)
	}
	if evicted := rb.Add(3, 4, 5); evicted != 2 {
		t.Errorf("evicted %d, want 2", evicted)
	}
	if got := rb.Get(); !slices.Equal([]int{3, 4, 5}, got) {
		t.Errorf("Expected [3, 4, 5], got %v", got)
	}
	if rb.Len() != 3 || rb.Cap() != 3 {
		t.Errorf("Len = %d, Cap = %d", rb.Len(), rb.Cap())
	}

	got := rb.Get()
	got[0] = 100
	if rb.Get()[0] != 3 {
		t.Error("Get returned the internal buffer")
	}
}

func TestMeteredReader(t *testing.T) {
	input := "{\"timestamp\":0}\n{\"timestamp\":1}\n{\"timestamp\":2}\n"
	mr := NewMeteredReader(strings.NewReader(input), "positions", time.Hour)
	data, err := io.ReadAll(mr)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != input {
		t.Errorf("read %q", data)
	}
	if mr.Lines() != 3 {
		t.Errorf("Lines = %d, want 3", mr.Lines())
	}
	if mr.Bytes() != int64(len(input)) {
		t.Errorf("Bytes = %d, want %d", mr.Bytes(), len(input))
	}
	if err := mr.Close(); err != nil {
		t.Fatal(err)
	}
	// Close is idempotent.
	if err := mr.Close(); err != nil {
		t.Fatal(err)
	}
}
