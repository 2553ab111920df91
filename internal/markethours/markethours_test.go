package markethours

import (
	"testing"
	"time"
)

func TestIsTradingDay(t *testing.T) {
	cases := []struct {
		date string
		want bool
	}{
		{"2026-08-28", true},  // Friday
		{"2026-08-29", false}, // Saturday
		{"2026-08-30", false}, // Sunday
		{"2026-08-31", true},  // Monday
		{"2026-11-26", false}, // Thanksgiving
		{"2026-07-03", false}, // Independence Day observed
		{"2025-12-25", false}, // Christmas
	}
	for _, tc := range cases {
		d, err := time.ParseInLocation("2006-01-02", tc.date, Eastern)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.date, err)
		}
		if got := IsTradingDay(d); got != tc.want {
			t.Errorf("IsTradingDay(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

func TestIsMarketOpen(t *testing.T) {
	mustTime := func(s string) time.Time {
		ts, err := time.ParseInLocation("2006-01-02 15:04", s, Eastern)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		return ts
	}

	if !IsMarketOpen(mustTime("2026-08-31 10:00")) {
		t.Error("expected open Monday mid-morning")
	}
	if IsMarketOpen(mustTime("2026-08-31 09:15")) {
		t.Error("expected closed before the bell")
	}
	if IsMarketOpen(mustTime("2026-08-31 16:00")) {
		t.Error("expected closed at 4 PM sharp")
	}
	if IsMarketOpen(mustTime("2026-08-29 12:00")) {
		t.Error("expected closed on Saturday")
	}
}

func TestNextOpenSkipsWeekend(t *testing.T) {
	// Friday after the close rolls to Monday.
	fri := time.Date(2026, time.August, 28, 17, 0, 0, 0, Eastern)
	next := NextOpen(fri)
	if next.Weekday() != time.Monday || next.Day() != 31 {
		t.Errorf("NextOpen(Fri evening) = %v, want Monday Aug 31", next)
	}
	if next.Hour() != OpenHour || next.Minute() != OpenMinute {
		t.Errorf("NextOpen time = %02d:%02d, want 09:30", next.Hour(), next.Minute())
	}
}
