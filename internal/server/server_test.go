package server

import (
	"bufio"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestRecordJobOrderingAndTruncation(t *testing.T) {
	s := New(":0", nil, zap.NewNop())
	for i := 0; i < maxRecentJobs+5; i++ {
		s.recordJob(JobRecord{Slot: i, Result: "OK"})
	}
	recent := s.RecentJobs()
	if len(recent) != maxRecentJobs {
		t.Fatalf("len(RecentJobs()) = %d, want %d", len(recent), maxRecentJobs)
	}
	if recent[0].Slot != maxRecentJobs+4 {
		t.Errorf("RecentJobs()[0].Slot = %d, want newest-first %d", recent[0].Slot, maxRecentJobs+4)
	}
	if s.TotalJobs() != int64(maxRecentJobs+5) {
		t.Errorf("TotalJobs() = %d, want %d", s.TotalJobs(), maxRecentJobs+5)
	}
}

func TestOnJobCompleteCallback(t *testing.T) {
	s := New(":0", nil, zap.NewNop())
	var gotSlot int
	var gotResult string
	called := false
	s.OnJobComplete(func(slot int, result string) {
		called = true
		gotSlot = slot
		gotResult = result
	})
	s.recordJob(JobRecord{Slot: 7, Result: "OK"})
	if !called {
		t.Fatal("OnJobComplete callback was not invoked")
	}
	if gotSlot != 7 || gotResult != "OK" {
		t.Errorf("callback got (%d, %q), want (7, \"OK\")", gotSlot, gotResult)
	}
}

func TestActiveConnectionsStartsZero(t *testing.T) {
	s := New(":0", nil, zap.NewNop())
	if s.ActiveConnections() != 0 {
		t.Errorf("ActiveConnections() = %d, want 0", s.ActiveConnections())
	}
}

func TestAtoiSafe(t *testing.T) {
	if got := atoiSafe("42"); got != 42 {
		t.Errorf("atoiSafe(42) = %d, want 42", got)
	}
	if got := atoiSafe("abc"); got != 0 {
		t.Errorf("atoiSafe(abc) = %d, want 0", got)
	}
	if got := atoiSafe(""); got != 0 {
		t.Errorf("atoiSafe(empty) = %d, want 0", got)
	}
}

func TestReadTrimmedLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("  hello  \nworld"))
	line, err := readTrimmedLine(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "hello" {
		t.Errorf("readTrimmedLine() = %q, want %q", line, "hello")
	}
}
