package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunLimiterAcquireRelease(t *testing.T) {
	l := NewRunLimiter(2, 50*time.Millisecond)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if got := l.Active(); got != 2 {
		t.Errorf("Active = %d, want 2", got)
	}

	if err := l.Acquire(ctx); !errors.Is(err, ErrRunInFlight) {
		t.Fatalf("third acquire: error = %v, want ErrRunInFlight", err)
	}

	l.Release()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}

	l.Release()
	l.Release()
	if got := l.Active(); got != 0 {
		t.Errorf("Active = %d, want 0", got)
	}
}

func TestRunLimiterContextCancellation(t *testing.T) {
	l := NewRunLimiter(1, time.Minute)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestRunLimiterWaitForDrain(t *testing.T) {
	l := NewRunLimiter(1, time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done <- l.WaitForDrain(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	l.Release()

	if err := <-done; err != nil {
		t.Fatalf("WaitForDrain: %v", err)
	}
}
