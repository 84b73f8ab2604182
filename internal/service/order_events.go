package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/datamodels/order"
)

// OrderPlacedEventType 事件类型
const OrderPlacedEventType = "order.placed"

// MessagePublisher 消息发送方，mq.Publisher 为默认实现
type MessagePublisher interface {
	Publish(ctx context.Context, body []byte) error
}

// OrderPlacedEvent 下单成功事件，事务提交后发送
type OrderPlacedEvent struct {
	EventID   string          `json:"event_id"`
	Type      string          `json:"type"`
	OrderID   int64           `json:"order_id"`
	UserID    int64           `json:"user_id"`
	Items     []*order.Item   `json:"items"`
	Total     decimal.Decimal `json:"total"`
	RequestID string          `json:"request_id,omitempty"`
	PlacedAt  time.Time       `json:"placed_at"`
}

// NewOrderPlacedEvent 根据已提交的订单构造事件
func NewOrderPlacedEvent(o *order.Order, items []*order.Item, requestID string) *OrderPlacedEvent {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return &OrderPlacedEvent{
		EventID:   uuid.NewString(),
		Type:      OrderPlacedEventType,
		OrderID:   o.ID,
		UserID:    o.UserID,
		Items:     items,
		Total:     total,
		RequestID: requestID,
		PlacedAt:  o.CreatedAt.UTC(),
	}
}

// DecodeOrderPlaced 消费端解析事件
func DecodeOrderPlaced(body []byte) (*OrderPlacedEvent, error) {
	var ev OrderPlacedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("decode order event: %w", err)
	}
	if ev.Type != OrderPlacedEventType || ev.OrderID == 0 {
		return nil, fmt.Errorf("unexpected order event %q for order %d", ev.Type, ev.OrderID)
	}
	return &ev, nil
}

// OrderEvents 下单事件发送。订单已经提交，发送失败只记录日志和计数。
type OrderEvents struct {
	pub MessagePublisher
	log *zap.Logger
}

func NewOrderEvents(pub MessagePublisher, log *zap.Logger) *OrderEvents {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderEvents{pub: pub, log: log.Named("events")}
}

func (e *OrderEvents) OrderPlaced(ctx context.Context, ev *OrderPlacedEvent) {
	if e.pub == nil {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		e.log.Error("marshal order event", zap.Int64("order_id", ev.OrderID), zap.Error(err))
		return
	}
	if err := e.pub.Publish(ctx, body); err != nil {
		GetMonitor().RecordMQError()
		e.log.Warn("publish order event failed",
			zap.Int64("order_id", ev.OrderID),
			zap.String("event_id", ev.EventID),
			zap.Error(err))
		return
	}
	GetMonitor().RecordEventPublished()
}
