package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	"PriceCast/internal/service/cache"
	"PriceCast/internal/service/ratelimit"
	"PriceCast/internal/services/series"
	"PriceCast/internal/usecase"
	xhttp "PriceCast/pkg/http"
	xlogger "PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

// records endpoint budget per client IP
const (
	recordsBurst     = 10
	recordsPerSecond = 2
)

// SessionHandler exposes the live session over HTTP.
type SessionHandler struct {
	logger      *xlogger.Logger
	session     *usecase.LiveSession
	store       domrepo.RecordStore // nil unless backend is clickhouse
	cache       cache.BytesCache
	snapshotTTL time.Duration
	limiter     *ratelimit.Limiter
}

func NewSessionHandler(
	logger *xlogger.Logger,
	session *usecase.LiveSession,
	store domrepo.RecordStore,
	c cache.BytesCache,
	snapshotTTL time.Duration,
) *SessionHandler {
	return &SessionHandler{
		logger:      logger,
		session:     session,
		store:       store,
		cache:       c,
		snapshotTTL: snapshotTTL,
		limiter:     ratelimit.New(),
	}
}

func (h *SessionHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/session", h.Session)
	g.GET("/snapshot", h.Snapshot)
	g.GET("/records", h.Records)
}

// Session returns the live session status.
func (h *SessionHandler) Session(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.session.Status())
}

// Snapshot returns accuracy statistics over everything recorded so
// far. Responses are cached briefly; the key includes the threshold.
func (h *SessionHandler) Snapshot(c echo.Context) error {
	req := &models.SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := cache.SnapshotKey(h.session.ID(), req.Threshold)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(key); err == nil && ok {
			var snap models.MetricsSnapshot
			if err := json.Unmarshal(b, &snap); err == nil {
				return xhttp.SuccessResponse(c, snap)
			}
		}
	}

	snap, err := h.session.Snapshot(req.Threshold)
	if err != nil {
		if errors.Is(err, series.ErrNoData) {
			// empty session is not an API error
			return xhttp.SuccessResponse(c, models.MetricsSnapshot{
				GeneratedAt:  time.Now(),
				ThresholdPct: req.Threshold,
			})
		}
		h.logger.Error("snapshot error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		if b, err := json.Marshal(snap); err == nil {
			_ = h.cache.SetBytes(key, b, h.snapshotTTL)
		}
	}
	return xhttp.SuccessResponse(c, snap)
}

// Records returns recent prediction records, from storage if the
// session routes there, otherwise from the in-memory tracker.
func (h *SessionHandler) Records(c echo.Context) error {
	if !h.limiter.Allow(c.RealIP(), recordsBurst, recordsPerSecond) {
		return xhttp.TooManyRequestsResponse(c)
	}

	req := &models.RecordsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	to := util.ParseTimeDefault(req.To, time.Now())
	from := util.ParseTimeDefault(req.From, to.Add(-24*time.Hour))

	if h.store != nil {
		recs, err := h.store.QueryRecent(c.Request().Context(), from, to, req.Limit)
		if err != nil {
			h.logger.Error("records query error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.ListResponse(c, recs, int64(len(recs)))
	}

	recs := filterByTime(h.session.Records(req.Limit), from, to)
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

func filterByTime(recs []models.PredictionRecord, from, to time.Time) []models.PredictionRecord {
	out := recs[:0]
	for _, r := range recs {
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}
