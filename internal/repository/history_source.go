package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	applogger "PriceCast/pkg/logger"
)

// CHHistorySource implements DataSource backed by a ClickHouse minute
// price table. It serves the historical series a session trains on
// when a real store is available instead of the synthetic walk.
type CHHistorySource struct {
	db     *sql.DB
	table  string
	symbol string
	l      *applogger.Logger
}

func NewCHHistorySource(db *sql.DB, table, symbol string) *CHHistorySource {
	return &CHHistorySource{db: db, table: table, symbol: symbol}
}

// SetLogger injects a structured logger.
func (s *CHHistorySource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHHistorySource) Fetch(ctx context.Context, days int) (models.RawSeries, error) {
	start := time.Now()
	from := time.Now().AddDate(0, 0, -days)
	const qtpl = `
        SELECT ts, price, volume
        FROM %s
        WHERE symbol = ? AND ts >= ?
        ORDER BY ts ASC
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, s.symbol, from)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history query error",
				applogger.String("table", s.table),
				applogger.String("symbol", s.symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer rows.Close()

	out := make(models.RawSeries, 0, 1024)
	var last time.Time
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Timestamp, &p.Price, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		if p.Price <= 0 || !p.Timestamp.After(last) {
			// the series contract requires positive prices and
			// strictly increasing timestamps
			continue
		}
		last = p.Timestamp
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no history for %s in last %d days", s.symbol, days)
	}
	if s.l != nil {
		s.l.Debug("history fetched",
			applogger.String("symbol", s.symbol),
			applogger.Int("points", len(out)),
			applogger.Duration("took", time.Since(start)),
		)
	}
	return out, nil
}

var _ domrepo.DataSource = (*CHHistorySource)(nil)
