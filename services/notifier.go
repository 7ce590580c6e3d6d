package services

import (
	"context"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	RedisInvalidateChannel = "naming:invalidate"
	NATSInvalidatePrefix   = "naming.invalidate."
)

// Notifier tells listeners of a join code that game state changed.
// Delivery is best-effort; clients re-poll on receipt.
type Notifier interface {
	Notify(code string)
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(string) {}

// MultiNotifier fans one signal out to several notifiers.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(code string) {
	for _, n := range m {
		n.Notify(code)
	}
}

// RedisNotifier publishes invalidations so every instance's hub sees them.
type RedisNotifier struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client, timeout: 2 * time.Second}
}

func (n *RedisNotifier) Notify(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	if err := n.client.Publish(ctx, RedisInvalidateChannel, NormalizeCode(code)).Err(); err != nil {
		log.WithError(err).WithField("code", code).Warn("failed to publish invalidation to redis")
	}
}

// RedisRelay forwards invalidations from Redis to a local notifier.
type RedisRelay struct {
	client *redis.Client
	local  Notifier
}

func NewRedisRelay(client *redis.Client, local Notifier) *RedisRelay {
	return &RedisRelay{client: client, local: local}
}

// Run blocks until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, RedisInvalidateChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	log.WithField("channel", RedisInvalidateChannel).Info("redis relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.local.Notify(msg.Payload)
		}
	}
}

type NATSNotifier struct {
	conn *nats.Conn
}

func NewNATSNotifier(conn *nats.Conn) *NATSNotifier {
	return &NATSNotifier{conn: conn}
}

func (n *NATSNotifier) Notify(code string) {
	if err := n.conn.Publish(NATSInvalidatePrefix+NormalizeCode(code), nil); err != nil {
		log.WithError(err).WithField("code", code).Warn("failed to publish invalidation to nats")
	}
}

// NATSRelay forwards invalidations from NATS to a local notifier.
type NATSRelay struct {
	conn  *nats.Conn
	local Notifier
}

func NewNATSRelay(conn *nats.Conn, local Notifier) *NATSRelay {
	return &NATSRelay{conn: conn, local: local}
}

// Start subscribes to every join code. Unsubscribe the returned
// subscription to stop.
func (r *NATSRelay) Start() (*nats.Subscription, error) {
	sub, err := r.conn.Subscribe(NATSInvalidatePrefix+"*", func(msg *nats.Msg) {
		code := strings.TrimPrefix(msg.Subject, NATSInvalidatePrefix)
		r.local.Notify(code)
	})
	if err != nil {
		return nil, err
	}
	log.WithField("subject", NATSInvalidatePrefix+"*").Info("nats relay subscribed")
	return sub, nil
}
