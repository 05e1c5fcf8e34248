package service

import (
	"context"
	"testing"
	"time"
)

func TestRunLockKey(t *testing.T) {
	day := time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)
	if got := RunLockKey(42, day); got != "betenlace:run:42:2024-05-14" {
		t.Fatalf("key = %q", got)
	}
}

func TestNoopLocker(t *testing.T) {
	release, err := NoopLocker{}.Acquire(context.Background(), 1, runDay)
	if err != nil {
		t.Fatal(err)
	}
	release()
	// 无锁实现可重复获取
	if _, err := (NoopLocker{}).Acquire(context.Background(), 1, runDay); err != nil {
		t.Fatal(err)
	}
}
