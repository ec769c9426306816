package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/sse"
)

// Channel carries entity-change messages between instances.
const Channel = "factoryd:entity_changed"

// Message is the wire form of one change signal.
type Message struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Action string `json:"action"`
}

// Notifier fans entity-change signals out to connected SSE clients and,
// when Redis is configured, to sibling instances over pub/sub. Transport
// is best-effort: a failed publish is logged, never surfaced to the
// business action that triggered it.
type Notifier struct {
	hub    *sse.Hub
	rdb    *redis.Client
	logger *zap.Logger
}

func New(hub *sse.Hub, rdb *redis.Client, logger *zap.Logger) *Notifier {
	return &Notifier{hub: hub, rdb: rdb, logger: logger}
}

// EntityChanged emits one change signal.
func (n *Notifier) EntityChanged(entityType, entityID, action string) {
	if n == nil {
		return
	}
	n.hub.PublishEntityChanged(entityType, entityID, action)
	if n.rdb == nil {
		return
	}
	payload, _ := json.Marshal(Message{Entity: entityType, ID: entityID, Action: action})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		n.logger.Warn("redis publish failed",
			zap.String("entity", entityType),
			zap.String("id", entityID),
			zap.Error(err))
	}
}

// Subscribe relays change signals published by sibling instances into
// the local SSE hub. Runs until ctx is cancelled.
func (n *Notifier) Subscribe(ctx context.Context) {
	if n.rdb == nil {
		return
	}
	sub := n.rdb.Subscribe(ctx, Channel)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var m Message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				n.logger.Warn("bad entity_changed payload", zap.Error(err))
				continue
			}
			n.hub.PublishEntityChanged(m.Entity, m.ID, m.Action)
		}
	}
}
