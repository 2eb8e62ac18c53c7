package domain

import (
	"math"
	"testing"
	"time"
)

func TestDecayMonotonicNonIncreasing(t *testing.T) {
	const score = 10.0
	prev := Decay(score, 0)
	for hours := 1; hours <= 30*24; hours++ {
		got := Decay(score, time.Duration(hours)*time.Hour)
		if got > prev {
			t.Fatalf("Decay increased at %dh: %v > %v", hours, got, prev)
		}
		if got < 0 {
			t.Fatalf("Decay went negative at %dh: %v", hours, got)
		}
		prev = got
	}
}

func TestDecayZeroAndNegativeElapsed(t *testing.T) {
	if got := Decay(4.2, 0); got != 4.2 {
		t.Fatalf("Decay(4.2, 0) = %v, want 4.2", got)
	}
	if got := Decay(4.2, -time.Hour); got != 4.2 {
		t.Fatalf("Decay(4.2, -1h) = %v, want 4.2", got)
	}
}

func TestDecayHalfLife(t *testing.T) {
	if got := Decay(10, DecayHalfLife); math.Abs(got-5) > 1e-9 {
		t.Fatalf("Decay(10, half-life) = %v, want 5", got)
	}
	if got := Decay(10, 2*DecayHalfLife); math.Abs(got-2.5) > 1e-9 {
		t.Fatalf("Decay(10, 2 half-lives) = %v, want 2.5", got)
	}
}

func TestFoldDecaysBeforeAdding(t *testing.T) {
	lastUpdated := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := lastUpdated.Add(DecayHalfLife)
	got := Fold(10, lastUpdated, IntentSignal{Strength: 0.8}, now)
	if math.Abs(got-5.8) > 1e-9 {
		t.Fatalf("Fold = %v, want 5.8", got)
	}
}
