package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/observability"
)

// StreamConfig configures the aggregate stream client.
type StreamConfig struct {
	// ReconnectDelay is initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// AggregateStream consumes live minute aggregates over WebSocket and
// delivers them as bars. It reconnects with exponential backoff and
// resubscribes to the tracked symbols after each reconnect.
type AggregateStream struct {
	endpoint string
	apiKey   string
	config   StreamConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	symbols   []string
	symbolsMu sync.RWMutex

	out  chan *domain.Bar
	done chan struct{}
	wg   sync.WaitGroup
}

// NewAggregateStream connects, authenticates and subscribes to minute
// aggregates for the given symbols.
func NewAggregateStream(ctx context.Context, endpoint, apiKey string, symbols []string, config *StreamConfig) (*AggregateStream, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	s := &AggregateStream{
		endpoint: endpoint,
		apiKey:   apiKey,
		config:   cfg,
		symbols:  append([]string(nil), symbols...),
		// Buffer absorbs bursts; the reader blocks rather than drop bars
		out:  make(chan *domain.Bar, 4096),
		done: make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	return s, nil
}

// Bars returns the channel live bars are delivered on. The channel is
// closed when the stream shuts down.
func (s *AggregateStream) Bars() <-chan *domain.Bar {
	return s.out
}

// connect dials, authenticates and subscribes.
func (s *AggregateStream) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(map[string]string{"action": "auth", "params": s.apiKey}); err != nil {
		conn.Close()
		return fmt.Errorf("write auth: %w", err)
	}

	s.symbolsMu.RLock()
	params := ""
	for i, sym := range s.symbols {
		if i > 0 {
			params += ","
		}
		params += "AM." + sym
	}
	s.symbolsMu.RUnlock()

	if params != "" {
		conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		if err := conn.WriteJSON(map[string]string{"action": "subscribe", "params": params}); err != nil {
			conn.Close()
			return fmt.Errorf("write subscribe: %w", err)
		}
	}

	s.conn = conn
	return nil
}

// aggregateMessage is one entry of a minute-aggregate event frame.
type aggregateMessage struct {
	Event  string  `json:"ev"`
	Symbol string  `json:"sym"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
	Start  int64   `json:"s"` // window start, ms
}

// readLoop reads frames until shutdown, reconnecting on errors.
func (s *AggregateStream) readLoop() {
	defer s.wg.Done()
	defer close(s.out)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn == nil {
			if !s.reconnect() {
				return
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			if !s.reconnect() {
				return
			}
			continue
		}

		var msgs []aggregateMessage
		if err := json.Unmarshal(data, &msgs); err != nil {
			// Status frames and heartbeats are not aggregate arrays
			continue
		}

		for _, m := range msgs {
			if m.Event != "AM" {
				continue
			}
			bar := &domain.Bar{
				Symbol:    m.Symbol,
				Timeframe: domain.Timeframe1Min,
				Time:      time.UnixMilli(m.Start).UTC(),
				Open:      m.Open,
				High:      m.High,
				Low:       m.Low,
				Close:     m.Close,
				Volume:    m.Volume,
			}
			select {
			case s.out <- bar:
			case <-s.done:
				return
			}
		}
	}
}

// reconnect re-establishes the connection with exponential backoff.
// Returns false when the stream has been closed.
func (s *AggregateStream) reconnect() bool {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	delay := s.config.ReconnectDelay
	for {
		select {
		case <-s.done:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := s.connect(ctx)
		cancel()
		if err == nil {
			observability.RecordStreamReconnect()
			return true
		}

		delay *= 2
		if delay > s.config.MaxReconnectDelay {
			delay = s.config.MaxReconnectDelay
		}
	}
}

// Close shuts the stream down and waits for the reader to exit.
func (s *AggregateStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}
