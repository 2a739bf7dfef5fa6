package display

import (
	"testing"
	"time"
	"unicode/utf8"

	"rajvedanta/attendance/internal/ledger"
	"rajvedanta/attendance/internal/model"
)

func TestForScanCheckIn(t *testing.T) {
	payload := ForScan(ledger.ScanResult{
		Kind:    ledger.ScanCheckIn,
		Time:    time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
		Teacher: model.Teacher{Fullname: "Jane Doe"},
	})
	if payload.Line1 != "Jane Doe        " {
		t.Fatalf("unexpected line1: %q", payload.Line1)
	}
	if payload.Line2 != "IN 09:00        " {
		t.Fatalf("unexpected line2: %q", payload.Line2)
	}
}

func TestForScanCheckOut(t *testing.T) {
	checkIn := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	payload := ForScan(ledger.ScanResult{
		Kind:        ledger.ScanCheckOut,
		Time:        checkIn.Add(20 * time.Minute),
		CheckInTime: checkIn,
		Duration:    20 * time.Minute,
		Teacher:     model.Teacher{Fullname: "Jane Doe"},
	})
	if payload.Line2 != "OUT 09:20 20m   " {
		t.Fatalf("unexpected line2: %q", payload.Line2)
	}
}

func TestLongNamesTruncated(t *testing.T) {
	payload := ForScan(ledger.ScanResult{
		Kind:    ledger.ScanCheckIn,
		Time:    time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
		Teacher: model.Teacher{Fullname: "Dr. Alexandrina Konstantinopoulos"},
	})
	if len(payload.Line1) != Width {
		t.Fatalf("expected %d chars, got %d", Width, len(payload.Line1))
	}
	if payload.Line1 != "Dr. Alexandrina " {
		t.Fatalf("unexpected truncation: %q", payload.Line1)
	}
}

func TestAccentedNamesKeepWidth(t *testing.T) {
	payload := ForScan(ledger.ScanResult{
		Kind:    ledger.ScanCheckIn,
		Time:    time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
		Teacher: model.Teacher{Fullname: "Æleksàndra Müllère"},
	})
	if got := utf8.RuneCountInString(payload.Line1); got != Width {
		t.Fatalf("expected %d chars, got %d: %q", Width, got, payload.Line1)
	}
	if !utf8.ValidString(payload.Line1) {
		t.Fatalf("truncation produced invalid UTF-8: %q", payload.Line1)
	}
	if payload.Line1 != "Æleksàndra Müllè" {
		t.Fatalf("unexpected truncation: %q", payload.Line1)
	}

	short := ForScan(ledger.ScanResult{
		Kind:    ledger.ScanCheckIn,
		Time:    time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
		Teacher: model.Teacher{Fullname: "José Niño"},
	})
	if got := utf8.RuneCountInString(short.Line1); got != Width {
		t.Fatalf("padding must count runes, got %d chars: %q", got, short.Line1)
	}
}

func TestForErrorVariants(t *testing.T) {
	cases := []struct {
		err   error
		line1 string
	}{
		{&ledger.TooEarlyError{Remaining: 3}, "Too early       "},
		{ledger.ErrAlreadyComplete, "Already marked  "},
		{ledger.ErrNotFound, "Unknown badge   "},
		{ledger.ErrForbidden, "Badge disabled  "},
		{ledger.ErrValidation, "Scan failed     "},
		{ledger.ErrUnavailable, "Scan failed     "},
	}
	for _, tc := range cases {
		payload := ForError(tc.err)
		if payload.Line1 != tc.line1 {
			t.Fatalf("error %v: unexpected line1 %q", tc.err, payload.Line1)
		}
		if len(payload.Line1) != Width || len(payload.Line2) != Width {
			t.Fatalf("error %v: lines must be exactly %d chars", tc.err, Width)
		}
	}

	tooEarly := ForError(&ledger.TooEarlyError{Remaining: 3})
	if tooEarly.Line2 != "Wait 3 min      " {
		t.Fatalf("unexpected line2: %q", tooEarly.Line2)
	}
}
