package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

// PriceBus fans live mid-price snapshots out over Redis Pub/Sub so other
// processes can consume the stream without holding their own venue
// websocket.
type PriceBus struct {
	rdb *redis.Client
}

// NewPriceBus creates a PriceBus backed by the given Client.
func NewPriceBus(c *Client) *PriceBus {
	return &PriceBus{rdb: c.Underlying()}
}

// MidsUpdate is one published snapshot of venue mid prices.
type MidsUpdate struct {
	Protocol domain.Protocol            `json:"protocol"`
	Mids     map[string]decimal.Decimal `json:"mids"`
}

func midsChannel(protocol domain.Protocol) string {
	return "mids:" + string(protocol)
}

// PublishMids broadcasts a mid-price snapshot for a protocol.
func (pb *PriceBus) PublishMids(ctx context.Context, protocol domain.Protocol, mids map[string]decimal.Decimal) error {
	payload, err := json.Marshal(MidsUpdate{Protocol: protocol, Mids: mids})
	if err != nil {
		return fmt.Errorf("redis: marshal mids: %w", err)
	}
	if err := pb.rdb.Publish(ctx, midsChannel(protocol), payload).Err(); err != nil {
		return fmt.Errorf("redis: publish mids %s: %w", protocol, err)
	}
	return nil
}

// SubscribeMids returns a read-only channel of mid-price snapshots for a
// protocol. The subscription is closed when the context is cancelled; the
// returned channel is closed at that point as well.
func (pb *PriceBus) SubscribeMids(ctx context.Context, protocol domain.Protocol) (<-chan MidsUpdate, error) {
	pubsub := pb.rdb.Subscribe(ctx, midsChannel(protocol))

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe mids %s: %w", protocol, err)
	}

	out := make(chan MidsUpdate, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var update MidsUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					continue
				}
				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
