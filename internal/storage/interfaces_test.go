package storage

import (
	"fmt"
	"testing"
	"time"

	"token-launchpad/internal/domain"
)

func TestPrependLog_EvictsOldest(t *testing.T) {
	const capacity = 5
	var entries []domain.LogEntry
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i <= capacity; i++ {
		entries = PrependLog(entries, domain.NewLogEntry(base.Add(time.Duration(i)*time.Second), domain.LogInfo, fmt.Sprintf("entry-%d", i)), capacity)
	}

	if len(entries) != capacity {
		t.Fatalf("expected %d entries, got %d", capacity, len(entries))
	}
	if entries[0].Message != "entry-5" {
		t.Errorf("expected newest first, got %q", entries[0].Message)
	}
	for _, e := range entries {
		if e.Message == "entry-0" {
			t.Error("expected oldest entry to be evicted")
		}
	}
}

func TestPrependLog_DefaultCapacity(t *testing.T) {
	var entries []domain.LogEntry
	for i := 0; i < DefaultLogCapacity+10; i++ {
		entries = PrependLog(entries, domain.LogEntry{Message: "x"}, 0)
	}
	if len(entries) != DefaultLogCapacity {
		t.Errorf("expected %d entries, got %d", DefaultLogCapacity, len(entries))
	}
}

func TestPrependLog_DoesNotMutateInput(t *testing.T) {
	in := []domain.LogEntry{{Message: "a"}, {Message: "b"}}
	out := PrependLog(in, domain.LogEntry{Message: "c"}, 2)

	if len(in) != 2 || in[0].Message != "a" {
		t.Error("input slice was mutated")
	}
	if len(out) != 2 || out[0].Message != "c" || out[1].Message != "a" {
		t.Errorf("unexpected output: %+v", out)
	}
}
