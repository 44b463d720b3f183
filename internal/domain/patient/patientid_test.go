package patient

import (
	"strings"
	"testing"
)

func fixedRand(v int) func(int) int {
	return func(int) int { return v }
}

func TestNewPatientID_Format(t *testing.T) {
	id := NewPatientID("John Smith", 1990, fixedRand(7))
	if id != "JOHN199007" {
		t.Errorf("unexpected id %q", id)
	}
}

func TestNewPatientID_ShortNamePadded(t *testing.T) {
	id := NewPatientID("Al", 2001, fixedRand(0))
	if !strings.HasPrefix(id, "ALXX") {
		t.Errorf("short name must be padded with X, got %q", id)
	}
	if id != "ALXX200100" {
		t.Errorf("unexpected id %q", id)
	}
}

func TestNewPatientID_StripsWhitespace(t *testing.T) {
	id := NewPatientID("  a b c d e ", 1985, fixedRand(99))
	if id != "ABCD198599" {
		t.Errorf("unexpected id %q", id)
	}
}

func TestNewPatientID_SuffixZeroPadded(t *testing.T) {
	id := NewPatientID("Mary", 1975, fixedRand(3))
	if !strings.HasSuffix(id, "03") {
		t.Errorf("suffix must be two digits, got %q", id)
	}
}
