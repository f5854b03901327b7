package models

import "time"

// FactorName identifies one sub-factor produced by the factor bank.
type FactorName string

const (
	FactorPriceAccel       FactorName = "price_accel"
	FactorMASpread         FactorName = "ma_spread"
	FactorUpRatio          FactorName = "up_ratio"
	FactorTurnoverHeat     FactorName = "turnover_heat"
	FactorTurnoverRateHeat FactorName = "turnover_rate_heat"
	FactorAmplitudeHeat    FactorName = "amplitude_heat"
	FactorMarginHeat       FactorName = "margin_heat"
	FactorSearchHeat       FactorName = "search_heat"
	FactorPEValuation      FactorName = "pe_valuation"
)

// AllFactors lists every factor the bank computes, in output column order.
var AllFactors = []FactorName{
	FactorPriceAccel,
	FactorMASpread,
	FactorUpRatio,
	FactorTurnoverHeat,
	FactorTurnoverRateHeat,
	FactorAmplitudeHeat,
	FactorMarginHeat,
	FactorSearchHeat,
	FactorPEValuation,
}

// ResultRow is one date of the derived output table. Raw inputs are retained
// alongside normalized factors and the synthesized index. A nil cell means the
// value could not be computed for that date; it is never zero-filled.
type ResultRow struct {
	Date       time.Time
	Raw        Observation
	Factors    map[FactorName]*float64 // normalized (robust z, clipped)
	CompositeZ *float64
	IndexRaw   *float64 // logistic-mapped, unsmoothed, 3 decimals
	Index      *float64 // published 0-100 value, 2 decimals
	Signal     *bool
	Tier       RiskTier
}

// TablePayload is the columnar JSON form of the result table served over HTTP.
// The serving layer republishes it verbatim; nil cells marshal as null.
type TablePayload struct {
	Dates      []string                  `json:"dates"`
	Raw        map[string][]*float64     `json:"raw"`
	Factors    map[FactorName][]*float64 `json:"factors"`
	Dimensions map[string][]*float64     `json:"dimensions"`
	CompositeZ []*float64                `json:"composite_z"`
	IndexRaw   []*float64                `json:"index_raw"`
	Index      []*float64                `json:"index"`
	Signal     []*bool                   `json:"signal"`
	Tier       []RiskTier                `json:"tier"`
}

// LatestRecord is the newest fully classified row, published to Kafka and
// cached for cheap polling.
type LatestRecord struct {
	Date   string   `json:"date"`
	Index  *float64 `json:"index"`
	Signal *bool    `json:"signal"`
	Tier   RiskTier `json:"tier"`
}

// DateLayout is the calendar key format used across storage and transport.
const DateLayout = "2006-01-02"

// PayloadFromRows rebuilds the columnar payload from stored rows. Dimension
// columns are derived at compute time only and stay empty here; the snapshot
// cache carries the full engine payload for the unfiltered table.
func PayloadFromRows(rows []ResultRow) TablePayload {
	p := TablePayload{
		Dates:      make([]string, len(rows)),
		Raw:        make(map[string][]*float64, 8),
		Factors:    make(map[FactorName][]*float64, len(AllFactors)),
		Dimensions: map[string][]*float64{},
		CompositeZ: make([]*float64, len(rows)),
		IndexRaw:   make([]*float64, len(rows)),
		Index:      make([]*float64, len(rows)),
		Signal:     make([]*bool, len(rows)),
		Tier:       make([]RiskTier, len(rows)),
	}

	rawCols := []string{
		string(SeriesClose), string(SeriesReturn), string(SeriesTurnoverLog),
		string(SeriesTurnoverRate), string(SeriesAmplitude), string(SeriesMarginLog),
		string(SeriesSearchLog), string(SeriesPETTM),
	}
	for _, name := range rawCols {
		p.Raw[name] = make([]*float64, len(rows))
	}
	for _, name := range AllFactors {
		p.Factors[name] = make([]*float64, len(rows))
	}

	for i, r := range rows {
		p.Dates[i] = r.Date.Format(DateLayout)
		p.Raw[string(SeriesClose)][i] = r.Raw.Close
		p.Raw[string(SeriesReturn)][i] = r.Raw.Return
		p.Raw[string(SeriesTurnoverLog)][i] = r.Raw.TurnoverLog
		p.Raw[string(SeriesTurnoverRate)][i] = r.Raw.TurnoverRate
		p.Raw[string(SeriesAmplitude)][i] = r.Raw.Amplitude
		p.Raw[string(SeriesMarginLog)][i] = r.Raw.MarginLog
		p.Raw[string(SeriesSearchLog)][i] = r.Raw.SearchLog
		p.Raw[string(SeriesPETTM)][i] = r.Raw.PETTM
		for _, name := range AllFactors {
			p.Factors[name][i] = r.Factors[name]
		}
		p.CompositeZ[i] = r.CompositeZ
		p.IndexRaw[i] = r.IndexRaw
		p.Index[i] = r.Index
		p.Signal[i] = r.Signal
		p.Tier[i] = r.Tier
	}
	return p
}

// LatestFromRow converts the newest stored row into the published record form.
func LatestFromRow(r ResultRow) LatestRecord {
	return LatestRecord{
		Date:   r.Date.Format(DateLayout),
		Index:  r.Index,
		Signal: r.Signal,
		Tier:   r.Tier,
	}
}
