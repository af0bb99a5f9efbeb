package admin

import (
	"testing"
	"time"
)

func TestParseTimeNullable(t *testing.T) {
	got, err := parseTimeNullable("  ")
	if err != nil || got != nil {
		t.Fatalf("blank input should be nil, got %v %v", got, err)
	}

	got, err = parseTimeNullable("2026-03-01T08:30:00+08:00")
	if err != nil || got == nil {
		t.Fatalf("rfc3339 parse failed: %v", err)
	}
	if !got.Equal(time.Date(2026, 3, 1, 0, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected rfc3339 time: %v", got)
	}

	got, err = parseTimeNullable("2026-03-01")
	if err != nil || got == nil || got.Day() != 1 || got.Month() != time.March {
		t.Fatalf("date parse failed: %v %v", got, err)
	}

	if _, err := parseTimeNullable("03/01/2026"); err == nil {
		t.Fatalf("unsupported layout should fail")
	}
}
