// Package display renders scan outcomes for the two-line character LCD on
// the badge terminal. It is a presentation layer over ledger results and
// never feeds back into the state machine.
package display

import (
	"errors"
	"fmt"
	"strings"

	"rajvedanta/attendance/internal/ledger"
)

// Width is the character width of one LCD line. Lines are always padded or
// truncated to exactly this many characters.
const Width = 16

type Payload struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// ForScan renders a successful scan. Line 1 carries the teacher's name,
// line 2 the event and clock time (plus worked minutes on check-out).
func ForScan(result ledger.ScanResult) Payload {
	clock := result.Time.UTC().Format("15:04")
	if result.Kind == ledger.ScanCheckOut {
		return Payload{
			Line1: fit(result.Teacher.Fullname),
			Line2: fit(fmt.Sprintf("OUT %s %dm", clock, result.DurationMinutes())),
		}
	}
	return Payload{
		Line1: fit(result.Teacher.Fullname),
		Line2: fit("IN " + clock),
	}
}

// ForError renders a rejected scan.
func ForError(err error) Payload {
	var tooEarly *ledger.TooEarlyError
	switch {
	case errors.As(err, &tooEarly):
		return Payload{
			Line1: fit("Too early"),
			Line2: fit(fmt.Sprintf("Wait %d min", tooEarly.Remaining)),
		}
	case errors.Is(err, ledger.ErrAlreadyComplete):
		return Payload{Line1: fit("Already marked"), Line2: fit("See you tomorrow")}
	case errors.Is(err, ledger.ErrNotFound):
		return Payload{Line1: fit("Unknown badge"), Line2: fit("See the office")}
	case errors.Is(err, ledger.ErrForbidden):
		return Payload{Line1: fit("Badge disabled"), Line2: fit("See the office")}
	case errors.Is(err, ledger.ErrValidation):
		return Payload{Line1: fit("Scan failed"), Line2: fit("Invalid badge")}
	default:
		return Payload{Line1: fit("Scan failed"), Line2: fit("Try again later")}
	}
}

// fit sizes a line to exactly Width characters. Runes, not bytes; names
// with accented characters must not be cut mid-sequence.
func fit(s string) string {
	runes := []rune(s)
	if len(runes) > Width {
		return string(runes[:Width])
	}
	return s + strings.Repeat(" ", Width-len(runes))
}
