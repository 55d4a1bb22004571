package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"PriceCast/internal/domain/models"
	"PriceCast/pkg/logger"
)

// WebSocketFeed pulls trade prices for one symbol from a Finnhub-style
// trade websocket. Read happens on a background goroutine; Next blocks
// until a point arrives. On read failure the feed reconnects and
// resubscribes transparently.
type WebSocketFeed struct {
	url            string
	apiKey         string
	symbol         string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	conn   *websocket.Conn
	points chan models.PricePoint
	done   chan struct{}
}

// NewWebSocketFeed creates a feed for symbol. Open must be called
// before Next.
func NewWebSocketFeed(url, apiKey, symbol string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) *WebSocketFeed {
	return &WebSocketFeed{
		url:            url,
		apiKey:         apiKey,
		symbol:         symbol,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
		points:         make(chan models.PricePoint, 1024),
		done:           make(chan struct{}),
	}
}

func (f *WebSocketFeed) Open(ctx context.Context) error {
	if err := f.connect(ctx); err != nil {
		return err
	}
	go f.pingLoop(ctx)
	go f.readLoop(ctx)
	return nil
}

// Next returns the next trade point, or ctx.Err when cancelled.
func (f *WebSocketFeed) Next(ctx context.Context) (models.PricePoint, error) {
	select {
	case p := <-f.points:
		return p, nil
	case <-ctx.Done():
		return models.PricePoint{}, ctx.Err()
	}
}

func (f *WebSocketFeed) Close() error {
	close(f.done)
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}

func (f *WebSocketFeed) connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", f.url, f.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	sub := map[string]string{"type": "subscribe", "symbol": f.symbol}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe %s: %w", f.symbol, err)
	}
	f.conn = conn
	f.log.Info("feed connected", logger.String("symbol", f.symbol))
	return nil
}

func (f *WebSocketFeed) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(f.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.done:
			return
		case <-ticker.C:
			if f.conn != nil {
				_ = f.conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

type wsTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsTrade `json:"data"`
}

func (f *WebSocketFeed) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.done:
			return
		default:
		}

		_, b, err := f.conn.ReadMessage()
		if err != nil {
			select {
			case <-f.done:
				return
			default:
			}
			f.log.Warn("feed read failed, reconnecting", logger.Error(err))
			f.reconnect(ctx)
			continue
		}

		var m wsMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
			// ignore non-trade frames
			continue
		}
		for _, d := range m.Data {
			if d.S != f.symbol {
				continue
			}
			p := models.PricePoint{Timestamp: time.UnixMilli(d.T), Price: d.P, Volume: d.V}
			select {
			case f.points <- p:
			default:
				// drop on backpressure, the loop only needs the latest minute
			}
		}
	}
}

func (f *WebSocketFeed) reconnect(ctx context.Context) {
	if f.conn != nil {
		_ = f.conn.Close()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.done:
			return
		case <-time.After(f.reconnectDelay):
		}
		if err := f.connect(ctx); err != nil {
			f.log.Error("feed reconnect failed", logger.Error(err))
			continue
		}
		return
	}
}
