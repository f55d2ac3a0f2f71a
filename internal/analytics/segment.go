package analytics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	segment "github.com/segmentio/analytics-go/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// SegmentClient is a Sink backed by the Segment tracking API. Calls are
// queued and delivered in batches in the background; Close flushes the queue.
type SegmentClient struct {
	client segment.Client
}

var _ Sink = (*SegmentClient)(nil)

// SegmentOption configures the underlying Segment client.
type SegmentOption func(*segment.Config)

// WithEndpoint overrides the tracking API base URL.
func WithEndpoint(endpoint string) SegmentOption {
	return func(c *segment.Config) {
		if endpoint != "" {
			c.Endpoint = endpoint
		}
	}
}

// WithTransport overrides the HTTP transport used for delivery.
func WithTransport(rt http.RoundTripper) SegmentOption {
	return func(c *segment.Config) { c.Transport = rt }
}

// WithFlushInterval sets how often queued calls are sent.
func WithFlushInterval(d time.Duration) SegmentOption {
	return func(c *segment.Config) {
		if d > 0 {
			c.Interval = d
		}
	}
}

// WithLogger routes client logs and delivery failures to lg.
func WithLogger(lg *zap.Logger) SegmentOption {
	return func(c *segment.Config) {
		c.Logger = segmentLogger{lg: lg}
		c.Callback = deliveryCallback{lg: lg}
	}
}

// NewSegmentClient creates a client authenticated by writeKey. Delivery goes
// through an otelhttp transport unless WithTransport is given.
func NewSegmentClient(writeKey string, opts ...SegmentOption) (*SegmentClient, error) {
	cfg := segment.Config{
		Endpoint:  segment.DefaultEndpoint,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	WithLogger(zap.NewNop())(&cfg)
	for _, o := range opts {
		o(&cfg)
	}

	client, err := segment.NewWithConfig(writeKey, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create segment client")
	}
	return &SegmentClient{client: client}, nil
}

// Identify queues an identify call.
func (s *SegmentClient) Identify(_ context.Context, userID string, traits Props) error {
	if err := s.client.Enqueue(segment.Identify{
		UserId: userID,
		Traits: segment.Traits(traits.ToMap()),
	}); err != nil {
		return errors.Wrap(err, "enqueue identify")
	}
	return nil
}

// Track queues a track call.
func (s *SegmentClient) Track(_ context.Context, userID, event string, props Props) error {
	if err := s.client.Enqueue(segment.Track{
		UserId:     userID,
		Event:      event,
		Properties: segment.Properties(props.ToMap()),
	}); err != nil {
		return errors.Wrap(err, "enqueue track")
	}
	return nil
}

// Close flushes queued calls and stops the delivery loop.
func (s *SegmentClient) Close() error {
	return s.client.Close()
}

type segmentLogger struct {
	lg *zap.Logger
}

func (l segmentLogger) Logf(format string, args ...any) {
	l.lg.Debug(fmt.Sprintf(format, args...))
}

func (l segmentLogger) Errorf(format string, args ...any) {
	l.lg.Warn(fmt.Sprintf(format, args...))
}

type deliveryCallback struct {
	lg *zap.Logger
}

func (deliveryCallback) Success(segment.Message) {}

func (c deliveryCallback) Failure(m segment.Message, err error) {
	c.lg.Warn("Analytics delivery failed",
		zap.String("message_type", fmt.Sprintf("%T", m)),
		zap.Error(err),
	)
}
