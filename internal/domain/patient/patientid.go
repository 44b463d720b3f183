package patient

import (
	"fmt"
	"math/rand"
	"strings"
)

// maxIDAttempts bounds the collision-retry loop in Service.uniquePatientID.
// After this many regenerations the last candidate is used as-is and the
// unique constraint decides.
const maxIDAttempts = 10

// NewPatientID builds a human-readable patient identifier from the name and
// birth year: the first four characters of the whitespace-stripped,
// uppercased name (right-padded with X for short names), the birth year, and
// a two-digit random suffix. rnd returns a value in [0, n).
func NewPatientID(name string, birthYear int, rnd func(n int) int) string {
	clean := strings.ToUpper(strings.Join(strings.Fields(name), ""))
	if len(clean) >= 4 {
		clean = clean[:4]
	} else {
		clean += strings.Repeat("X", 4-len(clean))
	}
	return fmt.Sprintf("%s%d%02d", clean, birthYear, rnd(100))
}

func defaultRand(n int) int {
	return rand.Intn(n)
}
