package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"rajvedanta/attendance/internal/model"
)

func record(id string, day time.Time, in, out *time.Time, status model.Status) model.AttendanceRecord {
	return model.AttendanceRecord{
		ID:           id,
		TeacherID:    jane.ID,
		Date:         day,
		CheckInTime:  in,
		CheckOutTime: out,
		Status:       status,
		CreatedAt:    day,
	}
}

func ts(day time.Time, hour, minute int) *time.Time {
	t := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return &t
}

func TestHistoryAnnotatesAndOrders(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	day1 := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	day3 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	store.records[storeKey(jane.ID, day1)] = record("rec-1", day1, ts(day1, 9, 0), ts(day1, 17, 30), model.StatusPresent)
	store.records[storeKey(jane.ID, day2)] = record("rec-2", day2, ts(day2, 8, 45), nil, model.StatusPresent)
	store.records[storeKey(jane.ID, day3)] = record("rec-3", day3, ts(day3, 9, 5), ts(day3, 9, 25), model.StatusPresent)

	teacher, entries, err := svc.History(context.Background(), jane.ID)
	if err != nil {
		t.Fatalf("history error: %v", err)
	}
	if teacher.Fullname != "Jane Doe" {
		t.Fatalf("expected Jane Doe, got %s", teacher.Fullname)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	// Newest day first.
	for i, want := range []string{"rec-3", "rec-2", "rec-1"} {
		if entries[i].Record.ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, entries[i].Record.ID)
		}
	}

	// 8h30m completed shift.
	last := entries[2]
	if last.DurationMinutes == nil || *last.DurationMinutes != 510 {
		t.Fatalf("expected 510 minutes, got %v", last.DurationMinutes)
	}
	if last.Duration == nil || *last.Duration != "8h 30m" {
		t.Fatalf("expected 8h 30m, got %v", last.Duration)
	}

	// Open record carries no derived duration.
	open := entries[1]
	if open.DurationMinutes != nil || open.Duration != nil {
		t.Fatalf("expected nil duration on open record")
	}

	// Short completed shift.
	short := entries[0]
	if short.DurationMinutes == nil || *short.DurationMinutes != 20 {
		t.Fatalf("expected 20 minutes, got %v", short.DurationMinutes)
	}
	if short.Duration == nil || *short.Duration != "0h 20m" {
		t.Fatalf("expected 0h 20m, got %v", short.Duration)
	}
}

func TestHistorySameDayOrdering(t *testing.T) {
	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	entries := []Entry{
		annotate(record("rec-a", day, ts(day, 8, 0), nil, model.StatusPresent)),
		annotate(record("rec-b", day, ts(day, 9, 0), nil, model.StatusPresent)),
	}

	store := newFakeStore()
	store.records["a"] = entries[0].Record
	store.records["b"] = entries[1].Record
	svc := newTestService(store)

	_, got, err := svc.History(context.Background(), jane.ID)
	if err != nil {
		t.Fatalf("history error: %v", err)
	}
	if got[0].Record.ID != "rec-b" || got[1].Record.ID != "rec-a" {
		t.Fatalf("expected later check-in first, got %s then %s", got[0].Record.ID, got[1].Record.ID)
	}
}

func TestHistoryEmptyAndUnknown(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, entries, err := svc.History(context.Background(), jane.ID)
	if err != nil {
		t.Fatalf("expected empty history, got error %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected zero entries, got %d", len(entries))
	}

	if _, _, err := svc.History(context.Background(), "no-such-teacher"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := svc.History(context.Background(), ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestReducers(t *testing.T) {
	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	entries := []Entry{
		annotate(record("rec-1", day, ts(day, 9, 0), ts(day, 10, 0), model.StatusPresent)),
		annotate(record("rec-2", day, ts(day, 9, 0), ts(day, 9, 30), model.StatusPresent)),
		annotate(record("rec-3", day, ts(day, 9, 0), nil, model.StatusPresent)),
		annotate(record("rec-4", day, nil, nil, model.StatusLeave)),
	}

	counts := CountByStatus(entries)
	if counts[model.StatusPresent] != 3 || counts[model.StatusLeave] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if total := TotalMinutes(entries); total != 90 {
		t.Fatalf("expected 90 total minutes, got %d", total)
	}
	if avg := AverageMinutes(entries); avg != 45 {
		t.Fatalf("expected average 45, got %f", avg)
	}
	if avg := AverageMinutes(nil); avg != 0 {
		t.Fatalf("expected zero average for empty history, got %f", avg)
	}
}
