package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// HTTPConfig configures an HTTPSink.
type HTTPConfig struct {
	Endpoint  string
	Token     string
	BatchSize int
	Interval  time.Duration
	QueueSize int
}

func (c HTTPConfig) withDefaults() HTTPConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	return c
}

type batch struct {
	Events []Event `json:"events"`
}

// HTTPSink posts events in batches to a collector endpoint. Events sent
// while the queue is full are dropped.
type HTTPSink struct {
	cfg        HTTPConfig
	httpClient *http.Client
	logger     *slog.Logger
	queue      chan Event
	dropped    atomic.Int64
}

// NewHTTPSink creates an HTTPSink. Call Run to start delivery.
func NewHTTPSink(cfg HTTPConfig, logger *slog.Logger) *HTTPSink {
	cfg = cfg.withDefaults()
	return &HTTPSink{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With("component", "analytics"),
		queue:      make(chan Event, cfg.QueueSize),
	}
}

// Send implements Sink.
func (s *HTTPSink) Send(ev Event) {
	select {
	case s.queue <- ev:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded.
func (s *HTTPSink) Dropped() int64 { return s.dropped.Load() }

// Run delivers queued events until ctx is cancelled, then flushes what is
// left with a short deadline.
func (s *HTTPSink) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	pending := make([]Event, 0, s.cfg.BatchSize)
	flush := func(ctx context.Context) {
		if len(pending) == 0 {
			return
		}
		if err := s.post(ctx, pending); err != nil {
			s.logger.Warn("failed to deliver events", "count", len(pending), "error", err)
		}
		pending = pending[:0]
	}

	for {
		select {
		case <-ctx.Done():
		drain:
			for {
				select {
				case ev := <-s.queue:
					pending = append(pending, ev)
				default:
					break drain
				}
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			flush(shutdownCtx)
			cancel()
			return nil
		case ev := <-s.queue:
			pending = append(pending, ev)
			if len(pending) >= s.cfg.BatchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}

func (s *HTTPSink) post(ctx context.Context, events []Event) error {
	body, err := json.Marshal(batch{Events: events})
	if err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("collector error: %s", resp.Status)
	}
	return nil
}
