package http

import (
	"time"

	xutil "MarketHeat/pkg/util"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

// ParseDay parses a calendar date in 2006-01-02 form. Returns (t, true) if it worked.
func ParseDay(s string) (time.Time, bool) { return xutil.ParseDay(s) }

// ParseDayDefault parses a calendar date or returns default if empty/invalid.
func ParseDayDefault(s string, def time.Time) time.Time { return xutil.ParseDayDefault(s, def) }
