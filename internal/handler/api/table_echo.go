package api

import (
	"time"

	models "MarketHeat/internal/domain/models"
	domrepo "MarketHeat/internal/domain/repository"
	xhttp "MarketHeat/pkg/http"
	xlogger "MarketHeat/pkg/logger"
	"MarketHeat/pkg/util"

	"github.com/labstack/echo/v4"
)

// IndexEchoHandler serves the derived index table. It reads the snapshot
// cache or the store; it never triggers a recompute.
type IndexEchoHandler struct {
	logger *xlogger.Logger
	store  domrepo.TableStore
	cache  domrepo.SnapshotCache
}

func NewIndexEchoHandler(logger *xlogger.Logger, store domrepo.TableStore) *IndexEchoHandler {
	return &IndexEchoHandler{logger: logger, store: store}
}

// SetSnapshotCache wires the optional Redis snapshot.
func (h *IndexEchoHandler) SetSnapshotCache(c domrepo.SnapshotCache) { h.cache = c }

func (h *IndexEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/index")
	g.GET("/table", h.Table)
	g.GET("/latest", h.Latest)
	e.GET("/healthz", h.Health)
}

// Table serves the columnar result table. The unfiltered table comes from the
// snapshot cache when available; filtered requests always hit the store.
func (h *IndexEchoHandler) Table(c echo.Context) error {
	req := &models.TableRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	unfiltered := req.From == "" && req.To == "" && req.Limit == 0
	if unfiltered && h.cache != nil {
		if p, ok, err := h.cache.GetTable(c.Request().Context()); err == nil && ok {
			c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")
			return xhttp.SuccessResponse(c, p)
		}
	}

	from := util.ParseDayDefault(req.From, time.Time{})
	to := util.ParseDayDefault(req.To, time.Time{})
	rows, err := h.store.QueryResults(c.Request().Context(), from, to, req.Limit)
	if err != nil {
		h.logger.Error("table query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("table unavailable").WithError(err))
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")
	return xhttp.SuccessResponse(c, models.PayloadFromRows(rows))
}

// LatestResponse is the newest classified record plus an optional index trail.
type LatestResponse struct {
	Latest models.LatestRecord `json:"latest"`
	Trail  []TrailPoint        `json:"trail,omitempty"`
}

// TrailPoint is one historical index value for sparkline rendering.
type TrailPoint struct {
	Date  string   `json:"date"`
	Index *float64 `json:"index"`
}

// Latest serves the newest record; n > 1 appends the trailing n index values.
func (h *IndexEchoHandler) Latest(c echo.Context) error {
	req := &models.LatestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if req.N == 1 && h.cache != nil {
		if rec, ok, err := h.cache.GetLatest(c.Request().Context()); err == nil && ok {
			return xhttp.SuccessResponse(c, LatestResponse{Latest: rec})
		}
	}

	rows, err := h.store.QueryResults(c.Request().Context(), time.Time{}, time.Time{}, req.N)
	if err != nil {
		h.logger.Error("latest query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("latest unavailable").WithError(err))
	}
	if len(rows) == 0 {
		return xhttp.NotFoundResponse(c, "no computed records yet")
	}

	res := LatestResponse{Latest: models.LatestFromRow(rows[len(rows)-1])}
	if req.N > 1 {
		res.Trail = make([]TrailPoint, 0, len(rows))
		for _, r := range rows {
			res.Trail = append(res.Trail, TrailPoint{
				Date:  r.Date.Format(models.DateLayout),
				Index: r.Index,
			})
		}
	}
	return xhttp.SuccessResponse(c, res)
}

// Health reports store reachability.
func (h *IndexEchoHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("storage unreachable").WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
