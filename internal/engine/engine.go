package engine

import (
	"fmt"
	"time"

	"MarketHeat/internal/domain/models"
)

// Engine is the factor synthesis pipeline: aligned observations in, the full
// derived table out. It is a pure function of its inputs and Config; running
// it twice over the same data produces bit-identical output.
type Engine struct {
	cfg Config
}

// New validates the configuration and returns a ready engine. Configuration
// problems are the only fatal errors the pipeline knows.
func New(cfg Config) (*Engine, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the effective (normalized) configuration.
func (e *Engine) Config() Config { return e.cfg }

// Result is the computed output table in columnar form.
type Result struct {
	Dates      []time.Time
	Aligned    *AlignedTable
	Factors    map[models.FactorName]Column // normalized, clipped
	Dimensions map[Dimension]Column
	CompositeZ Column
	IndexRaw   Column // logistic output, 3 decimals
	Index      Column // smoothed published index, 2 decimals
	Signals    []*bool
	Tiers      []models.RiskTier
}

// Run executes the full pipeline over the supplied raw series. The output
// spans the primary calendar row for row; dates the pipeline cannot score
// carry missing cells instead of being dropped.
func (e *Engine) Run(series []models.Series) (*Result, error) {
	aligned, err := Align(series)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	raw := computeFactors(e.cfg, aligned)
	norm := normalizeFactors(e.cfg, raw)
	n := aligned.Len()

	composite := synthesize(e.cfg, norm, n)
	indexRaw := roundTo(mapIndex(e.cfg, composite), 3)
	index := roundTo(smooth(e.cfg.SmoothSpan, indexRaw), 2)
	signals, tiers := classify(e.cfg, index)

	return &Result{
		Dates:      aligned.Dates,
		Aligned:    aligned,
		Factors:    norm,
		Dimensions: dimensionScores(e.cfg, norm, n),
		CompositeZ: composite,
		IndexRaw:   indexRaw,
		Index:      index,
		Signals:    signals,
		Tiers:      tiers,
	}, nil
}

// Rows converts the columnar result into per-date rows for storage.
func (r *Result) Rows() []models.ResultRow {
	rows := make([]models.ResultRow, len(r.Dates))
	for i, d := range r.Dates {
		factors := make(map[models.FactorName]*float64, len(r.Factors))
		for name, col := range r.Factors {
			factors[name] = cell(col, i)
		}
		rows[i] = models.ResultRow{
			Date: d,
			Raw: models.Observation{
				Date:         d,
				Close:        cell(r.Aligned.Col(models.SeriesClose), i),
				Return:       cell(r.Aligned.Col(models.SeriesReturn), i),
				TurnoverLog:  cell(r.Aligned.Col(models.SeriesTurnoverLog), i),
				TurnoverRate: cell(r.Aligned.Col(models.SeriesTurnoverRate), i),
				Amplitude:    cell(r.Aligned.Col(models.SeriesAmplitude), i),
				MarginLog:    cell(r.Aligned.Col(models.SeriesMarginLog), i),
				SearchLog:    cell(r.Aligned.Col(models.SeriesSearchLog), i),
				PETTM:        cell(r.Aligned.Col(models.SeriesPETTM), i),
			},
			Factors:    factors,
			CompositeZ: cell(r.CompositeZ, i),
			IndexRaw:   cell(r.IndexRaw, i),
			Index:      cell(r.Index, i),
			Signal:     r.Signals[i],
			Tier:       r.Tiers[i],
		}
	}
	return rows
}

// Payload converts the result into the columnar JSON form served over HTTP.
func (r *Result) Payload() models.TablePayload {
	p := models.TablePayload{
		Dates:      make([]string, len(r.Dates)),
		Raw:        make(map[string][]*float64),
		Factors:    make(map[models.FactorName][]*float64, len(r.Factors)),
		Dimensions: make(map[string][]*float64, len(r.Dimensions)),
		CompositeZ: cells(r.CompositeZ),
		IndexRaw:   cells(r.IndexRaw),
		Index:      cells(r.Index),
		Signal:     r.Signals,
		Tier:       r.Tiers,
	}
	for i, d := range r.Dates {
		p.Dates[i] = d.Format(models.DateLayout)
	}
	for _, name := range []models.SeriesName{
		models.SeriesClose, models.SeriesReturn, models.SeriesTurnoverLog,
		models.SeriesTurnoverRate, models.SeriesAmplitude, models.SeriesMarginLog,
		models.SeriesSearchLog, models.SeriesPETTM,
	} {
		p.Raw[string(name)] = cells(r.Aligned.Col(name))
	}
	for name, col := range r.Factors {
		p.Factors[name] = cells(col)
	}
	for dim, col := range r.Dimensions {
		p.Dimensions[string(dim)] = cells(col)
	}
	return p
}

// Latest returns the newest classified record, or ok=false on an empty table.
func (r *Result) Latest() (models.LatestRecord, bool) {
	if len(r.Dates) == 0 {
		return models.LatestRecord{}, false
	}
	i := len(r.Dates) - 1
	return models.LatestRecord{
		Date:   r.Dates[i].Format(models.DateLayout),
		Index:  cell(r.Index, i),
		Signal: r.Signals[i],
		Tier:   r.Tiers[i],
	}, true
}

func cell(c Column, i int) *float64 {
	if i >= len(c) || missing(c[i]) {
		return nil
	}
	v := c[i]
	return &v
}

func cells(c Column) []*float64 {
	out := make([]*float64, len(c))
	for i := range c {
		out[i] = cell(c, i)
	}
	return out
}
