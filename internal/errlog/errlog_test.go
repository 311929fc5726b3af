package errlog

import (
	"strconv"
	"testing"
)

func TestRecordAndEntries(t *testing.T) {
	l := New()
	l.Record("dev1", "first")
	l.Record("dev1", "second")
	l.Record("dev2", "other device")

	entries := l.Entries("dev1")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "first" || entries[1].Message != "second" {
		t.Fatalf("expected oldest-first order, got %v", entries)
	}
	if len(l.Entries("dev2")) != 1 {
		t.Fatalf("expected logs isolated per device")
	}
}

func TestBoundEvictsOldest(t *testing.T) {
	l := New()
	for i := 0; i < MaxEntries+1; i++ {
		l.Record("dev1", "msg "+strconv.Itoa(i))
	}

	entries := l.Entries("dev1")
	if len(entries) != MaxEntries {
		t.Fatalf("expected %d entries, got %d", MaxEntries, len(entries))
	}
	if entries[0].Message != "msg 1" {
		t.Fatalf("expected oldest entry evicted, first is %q", entries[0].Message)
	}
	if entries[len(entries)-1].Message != "msg "+strconv.Itoa(MaxEntries) {
		t.Fatalf("expected newest entry retained, last is %q", entries[len(entries)-1].Message)
	}
}

func TestDrop(t *testing.T) {
	l := New()
	l.Record("dev1", "something")
	l.Drop("dev1")
	if len(l.Entries("dev1")) != 0 {
		t.Fatalf("expected empty log after Drop")
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	l := New()
	l.Record("dev1", "original")
	entries := l.Entries("dev1")
	entries[0].Message = "mutated"
	if l.Entries("dev1")[0].Message != "original" {
		t.Fatalf("expected internal state unaffected by caller mutation")
	}
}
