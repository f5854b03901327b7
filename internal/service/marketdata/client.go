package marketdata

import (
	"context"
	"fmt"
	"math"
	"sort"

	"MarketHeat/internal/domain/models"
	domrepo "MarketHeat/internal/domain/repository"
	"MarketHeat/internal/service/ratelimit"
	xhttp "MarketHeat/pkg/http"
	applogger "MarketHeat/pkg/logger"
	"MarketHeat/pkg/util"
)

// Option configures Source.
type Option func(*Source)

// Staleness bounds forward-fill for the slow-cadence series, in trading days.
type Staleness struct {
	Margin int
	Search int
	PE     int
}

// Source implements SeriesSource against a daily market-data provider API.
// The primary index is mandatory; every auxiliary series degrades to missing
// dates on failure instead of failing the whole fetch.
type Source struct {
	http    *xhttp.Client
	baseURL string
	primary string
	broad   string
	keyword string
	stale   Staleness
	rpm     float64
	limiter *ratelimit.Limiter
	l       *applogger.Logger
	metrics domrepo.Metrics
}

// New creates a market data source.
func New(baseURL string, opts ...Option) *Source {
	s := &Source{
		http:    xhttp.NewClient(),
		baseURL: baseURL,
		primary: "000001.SH",
		broad:   "000300.SH",
		keyword: "stock",
		stale:   Staleness{Margin: 10, Search: 7, PE: 5},
		rpm:     60,
		limiter: ratelimit.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithHTTPClient sets the shared HTTP client.
func WithHTTPClient(c *xhttp.Client) Option {
	return func(s *Source) { s.http = c }
}

// WithIndices sets the primary and broad index codes.
func WithIndices(primary, broad string) Option {
	return func(s *Source) {
		s.primary = primary
		s.broad = broad
	}
}

// WithSearchKeyword sets the sentiment search keyword.
func WithSearchKeyword(kw string) Option {
	return func(s *Source) { s.keyword = kw }
}

// WithStaleness sets per-series forward-fill bounds.
func WithStaleness(st Staleness) Option {
	return func(s *Source) { s.stale = st }
}

// WithRequestsPerMin caps outbound request rate.
func WithRequestsPerMin(rpm int) Option {
	return func(s *Source) {
		if rpm > 0 {
			s.rpm = float64(rpm)
		}
	}
}

// WithLogger injects a structured logger.
func WithLogger(l *applogger.Logger) Option {
	return func(s *Source) { s.l = l }
}

// WithMetrics injects the metrics recorder.
func WithMetrics(m domrepo.Metrics) Option {
	return func(s *Source) { s.metrics = m }
}

// provider payloads

type bar struct {
	Date         string  `json:"date"`
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Close        float64 `json:"close"`
	Amount       float64 `json:"amount"`
	TurnoverRate float64 `json:"turnover_rate"`
}

type marginRow struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

type searchRow struct {
	Date   string  `json:"date"`
	Volume float64 `json:"volume"`
}

type valuationRow struct {
	Date  string  `json:"date"`
	PETTM float64 `json:"pe_ttm"`
}

// FetchAll pulls every raw series the engine consumes. The primary index bars
// are mandatory; anything else that fails is logged, counted, and omitted.
func (s *Source) FetchAll(ctx context.Context) ([]models.Series, error) {
	primaryBars, err := s.fetchBars(ctx, s.primary)
	if err != nil {
		s.recordError(string(models.SeriesClose), err)
		return nil, fmt.Errorf("fetch primary bars %s: %w", s.primary, err)
	}
	if len(primaryBars) == 0 {
		return nil, fmt.Errorf("fetch primary bars %s: empty response", s.primary)
	}

	broadBars, err := s.fetchBars(ctx, s.broad)
	if err != nil {
		s.recordError("broad_bars", err)
		broadBars = nil
	}

	out := make([]models.Series, 0, 8)
	out = append(out, closeSeries(primaryBars))
	out = append(out, meanSeries(models.SeriesReturn, 0, dailyReturns(primaryBars), dailyReturns(broadBars)))
	out = append(out, meanSeries(models.SeriesTurnoverLog, 0, logTurnover(primaryBars), logTurnover(broadBars)))
	out = append(out, turnoverRateSeries(primaryBars))
	out = append(out, meanSeries(models.SeriesAmplitude, 0, amplitudes(primaryBars), amplitudes(broadBars)))

	if margin, err := s.fetchMargin(ctx); err != nil {
		s.recordError(string(models.SeriesMarginLog), err)
	} else {
		out = append(out, marginSeries(margin, s.stale.Margin))
	}

	if search, err := s.fetchSearch(ctx); err != nil {
		s.recordError(string(models.SeriesSearchLog), err)
	} else {
		out = append(out, searchSeries(search, s.stale.Search))
	}

	if valuation, err := s.fetchValuation(ctx); err != nil {
		s.recordError(string(models.SeriesPETTM), err)
	} else {
		out = append(out, valuationSeries(valuation, s.stale.PE))
	}

	if s.l != nil {
		s.l.Info("marketdata fetch ok",
			applogger.Int("series", len(out)),
			applogger.Int("primary_bars", len(primaryBars)),
		)
	}
	return out, nil
}

func (s *Source) fetchBars(ctx context.Context, index string) ([]bar, error) {
	var rows []bar
	err := s.get(ctx, "/api/v1/daily", map[string][]string{"index": {index}}, &rows)
	if err != nil {
		return nil, err
	}
	sortBars(rows)
	return rows, nil
}

func (s *Source) fetchMargin(ctx context.Context) ([]marginRow, error) {
	var rows []marginRow
	if err := s.get(ctx, "/api/v1/margin", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Source) fetchSearch(ctx context.Context) ([]searchRow, error) {
	var rows []searchRow
	params := map[string][]string{"keyword": {s.keyword}}
	if err := s.get(ctx, "/api/v1/search-index", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Source) fetchValuation(ctx context.Context) ([]valuationRow, error) {
	var rows []valuationRow
	params := map[string][]string{"index": {s.primary}}
	if err := s.get(ctx, "/api/v1/valuation", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Source) get(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	if err := s.limiter.Wait(ctx, "provider", s.rpm, s.rpm/60.0); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return s.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         s.baseURL + path,
		QueryParams: params,
	}, dest)
}

func (s *Source) recordError(series string, err error) {
	if s.metrics != nil {
		s.metrics.RecordFetchError(series)
	}
	if s.l != nil {
		s.l.Warn("marketdata fetch error",
			applogger.String("series", series),
			applogger.Error(err),
		)
	}
}

// series construction

func closeSeries(bars []bar) models.Series {
	s := models.Series{Name: models.SeriesClose}
	for _, b := range bars {
		if d, ok := util.ParseDay(b.Date); ok {
			s.Points = append(s.Points, models.Point{Date: d, Value: b.Close})
		}
	}
	return s
}

func turnoverRateSeries(bars []bar) models.Series {
	s := models.Series{Name: models.SeriesTurnoverRate}
	for _, b := range bars {
		if d, ok := util.ParseDay(b.Date); ok {
			s.Points = append(s.Points, models.Point{Date: d, Value: b.TurnoverRate})
		}
	}
	return s
}

// dailyReturns yields close-over-close returns keyed by date.
func dailyReturns(bars []bar) map[string]float64 {
	out := make(map[string]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			continue
		}
		out[bars[i].Date] = bars[i].Close/prev - 1
	}
	return out
}

// logTurnover yields log1p of the turnover amount keyed by date.
func logTurnover(bars []bar) map[string]float64 {
	out := make(map[string]float64, len(bars))
	for _, b := range bars {
		out[b.Date] = math.Log1p(b.Amount)
	}
	return out
}

// amplitudes yields (high-low)/prev_close in percent, keyed by date.
func amplitudes(bars []bar) map[string]float64 {
	out := make(map[string]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			continue
		}
		out[bars[i].Date] = (bars[i].High - bars[i].Low) / prev * 100
	}
	return out
}

// meanSeries averages per-index values over whichever indices report a date.
func meanSeries(name models.SeriesName, staleness int, maps ...map[string]float64) models.Series {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, m := range maps {
		for date, v := range m {
			sums[date] += v
			counts[date]++
		}
	}

	s := models.Series{Name: name, MaxStaleness: staleness}
	dates := make([]string, 0, len(sums))
	for date := range sums {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for _, date := range dates {
		if d, ok := util.ParseDay(date); ok {
			s.Points = append(s.Points, models.Point{Date: d, Value: sums[date] / float64(counts[date])})
		}
	}
	return s
}

func marginSeries(rows []marginRow, staleness int) models.Series {
	m := make(map[string]float64, len(rows))
	for _, r := range rows {
		m[r.Date] = math.Log1p(r.Total)
	}
	return meanSeries(models.SeriesMarginLog, staleness, m)
}

func searchSeries(rows []searchRow, staleness int) models.Series {
	m := make(map[string]float64, len(rows))
	for _, r := range rows {
		m[r.Date] = math.Log1p(r.Volume)
	}
	return meanSeries(models.SeriesSearchLog, staleness, m)
}

func valuationSeries(rows []valuationRow, staleness int) models.Series {
	m := make(map[string]float64, len(rows))
	for _, r := range rows {
		m[r.Date] = r.PETTM
	}
	return meanSeries(models.SeriesPETTM, staleness, m)
}

func sortBars(bars []bar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
}
