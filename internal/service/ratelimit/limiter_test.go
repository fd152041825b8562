package ratelimit

import (
	"testing"
	"time"
)

func TestAllowConsumesBurstThenBlocks(t *testing.T) {
	now := time.Unix(0, 0)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("client", 3, 1) {
			t.Fatalf("request %d blocked inside burst", i)
		}
	}
	if l.Allow("client", 3, 1) {
		t.Fatal("request allowed past capacity")
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	now := time.Unix(0, 0)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		l.Allow("client", 3, 1)
	}
	if l.Allow("client", 3, 1) {
		t.Fatal("bucket should be empty")
	}

	now = now.Add(1500 * time.Millisecond)
	if !l.Allow("client", 3, 1) {
		t.Fatal("refilled token not granted")
	}
	if l.Allow("client", 3, 1) {
		t.Fatal("only one token should have refilled")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	now := time.Unix(0, 0)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		l.Allow("a", 3, 1)
	}
	if l.Allow("a", 3, 1) {
		t.Fatal("a should be exhausted")
	}
	if !l.Allow("b", 3, 1) {
		t.Fatal("b should start with a full bucket")
	}
}
