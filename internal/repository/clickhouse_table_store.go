package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"MarketHeat/internal/domain/models"
	pkgch "MarketHeat/pkg/clickhouse"
	applogger "MarketHeat/pkg/logger"
)

const (
	rawTable     = "marketheat.raw_observations"
	resultsTable = "marketheat.index_results"

	insertChunk = 500
)

var schemaStatements = []string{
	`CREATE DATABASE IF NOT EXISTS marketheat`,
	`CREATE TABLE IF NOT EXISTS ` + rawTable + ` (
        series      String,
        date        Date,
        value       Float64,
        inserted_at DateTime DEFAULT now()
    ) ENGINE = ReplacingMergeTree(inserted_at)
    ORDER BY (series, date)`,
	`CREATE TABLE IF NOT EXISTS ` + resultsTable + ` (
        date               Date,
        close              Nullable(Float64),
        ret                Nullable(Float64),
        turnover_log       Nullable(Float64),
        turnover_rate      Nullable(Float64),
        amplitude          Nullable(Float64),
        margin_log         Nullable(Float64),
        search_log         Nullable(Float64),
        pe_ttm             Nullable(Float64),
        price_accel        Nullable(Float64),
        ma_spread          Nullable(Float64),
        up_ratio           Nullable(Float64),
        turnover_heat      Nullable(Float64),
        turnover_rate_heat Nullable(Float64),
        amplitude_heat     Nullable(Float64),
        margin_heat        Nullable(Float64),
        search_heat        Nullable(Float64),
        pe_valuation       Nullable(Float64),
        composite_z        Nullable(Float64),
        index_raw          Nullable(Float64),
        index_value        Nullable(Float64),
        signal             Nullable(UInt8),
        tier               String
    ) ENGINE = MergeTree
    ORDER BY date`,
}

// resultColumns is the insert/select column order for the results table.
var resultColumns = []string{
	"date",
	"close", "ret", "turnover_log", "turnover_rate", "amplitude",
	"margin_log", "search_log", "pe_ttm",
	"price_accel", "ma_spread", "up_ratio",
	"turnover_heat", "turnover_rate_heat", "amplitude_heat",
	"margin_heat", "search_heat", "pe_valuation",
	"composite_z", "index_raw", "index_value", "signal", "tier",
}

// CHTableStore implements TableStore backed by ClickHouse.
type CHTableStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHTableStore(ch *pkgch.Client) *CHTableStore {
	return &CHTableStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHTableStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHTableStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, schemaStatements)
}

func (s *CHTableStore) StoreObservations(ctx context.Context, series []models.Series) error {
	start := time.Now()
	total := 0

	for _, sr := range series {
		for chunkStart := 0; chunkStart < len(sr.Points); chunkStart += insertChunk {
			end := chunkStart + insertChunk
			if end > len(sr.Points) {
				end = len(sr.Points)
			}
			chunk := sr.Points[chunkStart:end]

			values := make([]string, 0, len(chunk))
			args := make([]interface{}, 0, len(chunk)*3)
			for _, p := range chunk {
				values = append(values, "(?, ?, ?)")
				args = append(args, string(sr.Name), p.Date, p.Value)
			}

			q := fmt.Sprintf("INSERT INTO %s (series, date, value) VALUES %s",
				rawTable, strings.Join(values, ","))
			if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
				if s.l != nil {
					s.l.Error("clickhouse store_observations insert error",
						applogger.String("series", string(sr.Name)),
						applogger.Error(err),
					)
				}
				return fmt.Errorf("store observations %s: %w", sr.Name, err)
			}
			total += len(chunk)
		}
	}

	if s.l != nil {
		s.l.Info("clickhouse store_observations ok",
			applogger.Int("series", len(series)),
			applogger.Int("rows", total),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHTableStore) ReplaceResults(ctx context.Context, rows []models.ResultRow) error {
	start := time.Now()

	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE "+resultsTable); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse replace_results truncate error", applogger.Error(err))
		}
		return fmt.Errorf("truncate results: %w", err)
	}

	cols := strings.Join(resultColumns, ", ")
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(resultColumns)), ", ") + ")"

	for chunkStart := 0; chunkStart < len(rows); chunkStart += insertChunk {
		end := chunkStart + insertChunk
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[chunkStart:end]

		values := make([]string, 0, len(chunk))
		args := make([]interface{}, 0, len(chunk)*len(resultColumns))
		for _, r := range chunk {
			values = append(values, placeholder)
			args = append(args, resultArgs(r)...)
		}

		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", resultsTable, cols, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse replace_results insert error", applogger.Error(err))
			}
			return fmt.Errorf("insert results: %w", err)
		}
	}

	if s.l != nil {
		s.l.Info("clickhouse replace_results ok",
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHTableStore) QueryResults(ctx context.Context, from, to time.Time, limit int) ([]models.ResultRow, error) {
	start := time.Now()

	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	if !from.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, to)
	}
	cond := ""
	if len(where) > 0 {
		cond = "WHERE " + strings.Join(where, " AND ")
	}

	// newest rows win when a limit applies; output stays date-ascending
	q := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY date DESC",
		strings.Join(resultColumns, ", "), resultsTable, cond)
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse query_results query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	out := make([]models.ResultRow, 0, 1024)
	for rows.Next() {
		r, err := scanResultRow(rows)
		if err != nil {
			if s.l != nil {
				s.l.Error("clickhouse query_results scan error", applogger.Error(err))
			}
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse query_results rows error", applogger.Error(err))
		}
		return nil, fmt.Errorf("rows: %w", err)
	}

	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	if s.l != nil {
		s.l.Info("clickhouse query_results ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHTableStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHTableStore) Close() error {
	return nil // pool lifetime is owned by pkg/clickhouse.Client
}

func resultArgs(r models.ResultRow) []interface{} {
	var signal interface{}
	if r.Signal != nil {
		v := uint8(0)
		if *r.Signal {
			v = 1
		}
		signal = v
	}
	args := []interface{}{
		r.Date,
		nf(r.Raw.Close), nf(r.Raw.Return), nf(r.Raw.TurnoverLog), nf(r.Raw.TurnoverRate), nf(r.Raw.Amplitude),
		nf(r.Raw.MarginLog), nf(r.Raw.SearchLog), nf(r.Raw.PETTM),
	}
	for _, name := range models.AllFactors {
		args = append(args, nf(r.Factors[name]))
	}
	args = append(args, nf(r.CompositeZ), nf(r.IndexRaw), nf(r.Index), signal, string(r.Tier))
	return args
}

func scanResultRow(rows *sql.Rows) (models.ResultRow, error) {
	var (
		r       models.ResultRow
		date    time.Time
		raw     [8]sql.NullFloat64
		factors [9]sql.NullFloat64
		comp    sql.NullFloat64
		idxRaw  sql.NullFloat64
		idx     sql.NullFloat64
		signal  sql.NullInt64
		tier    string
	)

	dest := []interface{}{&date}
	for i := range raw {
		dest = append(dest, &raw[i])
	}
	for i := range factors {
		dest = append(dest, &factors[i])
	}
	dest = append(dest, &comp, &idxRaw, &idx, &signal, &tier)

	if err := rows.Scan(dest...); err != nil {
		return r, err
	}

	r.Date = date
	r.Raw = models.Observation{
		Date:         date,
		Close:        pf(raw[0]),
		Return:       pf(raw[1]),
		TurnoverLog:  pf(raw[2]),
		TurnoverRate: pf(raw[3]),
		Amplitude:    pf(raw[4]),
		MarginLog:    pf(raw[5]),
		SearchLog:    pf(raw[6]),
		PETTM:        pf(raw[7]),
	}
	r.Factors = make(map[models.FactorName]*float64, len(models.AllFactors))
	for i, name := range models.AllFactors {
		r.Factors[name] = pf(factors[i])
	}
	r.CompositeZ = pf(comp)
	r.IndexRaw = pf(idxRaw)
	r.Index = pf(idx)
	if signal.Valid {
		v := signal.Int64 != 0
		r.Signal = &v
	}
	r.Tier = models.RiskTier(tier)
	return r, nil
}

func nf(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func pf(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
