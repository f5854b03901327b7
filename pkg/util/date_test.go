package util

import (
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	got, ok := ParseDay("2024-03-15")
	if !ok {
		t.Fatal("expected valid date to parse")
	}
	if got.Year() != 2024 || got.Month() != time.March || got.Day() != 15 {
		t.Fatalf("unexpected date: %v", got)
	}

	if _, ok := ParseDay(""); ok {
		t.Fatal("empty string must not parse")
	}
	if _, ok := ParseDay("15/03/2024"); ok {
		t.Fatal("wrong layout must not parse")
	}
}

func TestParseDayDefault(t *testing.T) {
	def := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ParseDayDefault("garbage", def); !got.Equal(def) {
		t.Fatalf("expected default, got %v", got)
	}
	if got := ParseDayDefault("2021-06-01", def); got.Equal(def) {
		t.Fatal("valid date must override default")
	}
}

func TestDayTruncates(t *testing.T) {
	in := time.Date(2024, 3, 15, 13, 45, 12, 999, time.UTC)
	got := Day(in)
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
		t.Fatalf("expected midnight, got %v", got)
	}
	if DayString(got) != "2024-03-15" {
		t.Fatalf("unexpected day string %q", DayString(got))
	}
}

func TestDaysAgo(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	got := DaysAgo(now, 30)
	if DayString(got) != "2024-02-14" {
		t.Fatalf("unexpected day %q", DayString(got))
	}
}
