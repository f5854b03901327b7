package engine

import (
	"fmt"
	"time"

	"MarketHeat/internal/domain/models"
)

// AlignedTable is the single date-indexed table the factor bank consumes.
// The calendar comes from the primary close series; every other series is
// mapped onto it, forward-filled up to its own staleness tolerance.
type AlignedTable struct {
	Dates []time.Time
	cols  map[models.SeriesName]Column
}

// Col returns the named column, or an all-missing column of calendar length
// when the series was never supplied. Callers never get a short slice.
func (t *AlignedTable) Col(name models.SeriesName) Column {
	if c, ok := t.cols[name]; ok {
		return c
	}
	return newColumn(len(t.Dates))
}

// Len returns the number of calendar rows.
func (t *AlignedTable) Len() int { return len(t.Dates) }

// Align merges independently dated series onto the primary calendar.
// It fails only on structural problems (no primary series, unordered dates);
// per-date gaps become missing cells, never errors.
func Align(series []models.Series) (*AlignedTable, error) {
	var primary *models.Series
	for i := range series {
		if series[i].Name == models.SeriesClose {
			primary = &series[i]
			break
		}
	}
	if primary == nil {
		return nil, fmt.Errorf("align: primary series %q not supplied", models.SeriesClose)
	}
	if err := checkOrdered(*primary); err != nil {
		return nil, err
	}

	dates := make([]time.Time, len(primary.Points))
	for i, p := range primary.Points {
		dates[i] = p.Date
	}

	t := &AlignedTable{Dates: dates, cols: make(map[models.SeriesName]Column, len(series))}
	for _, s := range series {
		if err := checkOrdered(s); err != nil {
			return nil, err
		}
		t.cols[s.Name] = alignOne(dates, s)
	}
	return t, nil
}

func checkOrdered(s models.Series) error {
	for i := 1; i < len(s.Points); i++ {
		if !s.Points[i-1].Date.Before(s.Points[i].Date) {
			return fmt.Errorf("align: series %q dates not strictly ascending at %s",
				s.Name, s.Points[i].Date.Format(models.DateLayout))
		}
	}
	return nil
}

// alignOne maps one series onto the calendar. A value reported on or before a
// calendar date is carried forward for at most MaxStaleness further trading
// days; beyond that the cell goes back to missing rather than staying stale.
func alignOne(dates []time.Time, s models.Series) Column {
	out := newColumn(len(dates))
	j := 0
	last := -1 // calendar index of the row the carried value was fresh at
	carried := 0.0
	haveCarried := false

	for i, d := range dates {
		for j < len(s.Points) && !s.Points[j].Date.After(d) {
			carried = s.Points[j].Value
			haveCarried = true
			last = i
			j++
		}
		if !haveCarried {
			continue
		}
		if i-last > s.MaxStaleness {
			continue
		}
		out[i] = carried
	}
	return out
}
