// Package gateway is the service's only door to the message bus. It offers
// correlated request/reply with a per-call timeout, fire-and-forget publish,
// and handler registration for inbound subjects. Subjects map one-to-one to
// topics; replies come back on a per-instance reply topic and are routed by
// correlation id.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/skalarhq/orders-service/pkg/tracing"
)

const (
	headerCorrelationID = "correlation_id"
	headerReplyTo       = "reply_to"
)

// Handler processes one inbound message. For request subjects the returned
// payload is sent back to the requester; event handlers return nil. A non-nil
// error is logged, never replied.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

type Config struct {
	Brokers        []string
	Group          string
	ReplyPrefix    string
	RequestTimeout time.Duration
}

type Gateway struct {
	log        *slog.Logger
	cfg        Config
	replyTopic string
	writer     *kafka.Writer
	handlers   map[string]Handler
	pending    *pendingReplies
}

func New(log *slog.Logger, cfg Config) *Gateway {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	return &Gateway{
		log: log,
		cfg: cfg,
		// Per-instance topic so replies reach the instance that asked.
		replyTopic: fmt.Sprintf("%s.%s", cfg.ReplyPrefix, uuid.NewString()[:8]),
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		handlers: make(map[string]Handler),
		pending:  newPendingReplies(),
	}
}

// Handle registers the handler for a subject. Must be called before Run.
func (g *Gateway) Handle(subject string, h Handler) {
	g.handlers[subject] = h
}

// Request publishes to the subject topic and blocks for the correlated reply
// or the timeout, whichever comes first.
func (g *Gateway) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	id := uuid.NewString()
	ch := g.pending.add(id)
	defer g.pending.drop(id)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	headers := []kafka.Header{
		{Key: headerCorrelationID, Value: []byte(id)},
		{Key: headerReplyTo, Value: []byte(g.replyTopic)},
	}
	headers = tracing.InjectHeaders(ctx, headers)

	err := g.writer.WriteMessages(ctx, kafka.Message{
		Topic:   subject,
		Key:     []byte(id),
		Value:   payload,
		Headers: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", subject, err)
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("request %s: %w", subject, ctx.Err())
	case reply := <-ch:
		return reply, nil
	}
}

// Publish sends a fire-and-forget message on the subject topic.
func (g *Gateway) Publish(ctx context.Context, subject string, payload []byte) error {
	headers := tracing.InjectHeaders(ctx, nil)
	return g.writer.WriteMessages(ctx, kafka.Message{
		Topic:   subject,
		Value:   payload,
		Headers: headers,
	})
}

// Run consumes every registered subject plus the reply topic until ctx is
// cancelled. Each message is one independent unit of work.
func (g *Gateway) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for subject, h := range g.handlers {
		wg.Add(1)
		go func(subject string, h Handler) {
			defer wg.Done()
			g.consume(ctx, subject, h)
		}(subject, h)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		g.consumeReplies(ctx)
	}()
	wg.Wait()
	return nil
}

func (g *Gateway) Close() error {
	return g.writer.Close()
}

func (g *Gateway) consume(ctx context.Context, subject string, h Handler) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: g.cfg.Brokers,
		Topic:   subject,
		GroupID: g.cfg.Group,
	})
	defer reader.Close()

	g.log.Info("consuming subject", "subject", subject, "group", g.cfg.Group)
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			g.log.Error("fetch failed", "subject", subject, "err", err)
			continue
		}
		g.dispatch(ctx, subject, h, msg)
		_ = reader.CommitMessages(ctx, msg)
	}
}

func (g *Gateway) dispatch(ctx context.Context, subject string, h Handler, msg kafka.Message) {
	msgCtx := tracing.ExtractHeaders(ctx, msg.Headers)

	reply, err := h(msgCtx, msg.Value)
	if err != nil {
		g.log.Error("handler failed", "subject", subject, "err", err)
		return
	}

	replyTo := headerValue(msg.Headers, headerReplyTo)
	corr := headerValue(msg.Headers, headerCorrelationID)
	if reply == nil || replyTo == "" || corr == "" {
		return
	}

	err = g.writer.WriteMessages(ctx, kafka.Message{
		Topic:   replyTo,
		Key:     []byte(corr),
		Value:   reply,
		Headers: []kafka.Header{{Key: headerCorrelationID, Value: []byte(corr)}},
	})
	if err != nil {
		g.log.Error("reply failed", "subject", subject, "reply_to", replyTo, "err", err)
	}
}

func (g *Gateway) consumeReplies(ctx context.Context) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: g.cfg.Brokers,
		Topic:   g.replyTopic,
		GroupID: g.cfg.Group,
	})
	defer reader.Close()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			g.log.Error("reply fetch failed", "err", err)
			continue
		}
		corr := headerValue(msg.Headers, headerCorrelationID)
		if !g.pending.resolve(corr, msg.Value) {
			g.log.Warn("reply with no waiting request", "correlation_id", corr)
		}
		_ = reader.CommitMessages(ctx, msg)
	}
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
