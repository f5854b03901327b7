package models

import "time"

// SeriesName identifies one raw market series consumed by the engine.
type SeriesName string

const (
	SeriesClose        SeriesName = "close"         // primary index close
	SeriesReturn       SeriesName = "ret"           // mean daily return across indices
	SeriesTurnoverLog  SeriesName = "turnover_log"  // mean log1p turnover amount
	SeriesTurnoverRate SeriesName = "turnover_rate" // primary index turnover rate
	SeriesAmplitude    SeriesName = "amplitude"     // mean daily amplitude, percent
	SeriesMarginLog    SeriesName = "margin_log"    // log1p margin-lending total
	SeriesSearchLog    SeriesName = "search_log"    // log1p sentiment search volume
	SeriesPETTM        SeriesName = "pe_ttm"        // rolling valuation ratio
)

// Point is one dated observation of a raw series.
type Point struct {
	Date  time.Time
	Value float64
}

// Series is an independently sourced (date -> value) sequence. Points are
// sorted ascending by date; dates are unique. MaxStaleness bounds how many
// trading days a value may be carried forward when the series reports less
// often than the primary calendar; 0 means no forward fill.
type Series struct {
	Name         SeriesName
	Points       []Point
	MaxStaleness int
}

// Observation is one aligned calendar row of raw inputs. Missing cells are nil.
type Observation struct {
	Date         time.Time
	Close        *float64
	Return       *float64
	TurnoverLog  *float64
	TurnoverRate *float64
	Amplitude    *float64
	MarginLog    *float64
	SearchLog    *float64
	PETTM        *float64
}
