// Package events publishes order lifecycle notifications so that kitchen
// displays and other listeners can follow orders without polling.
package events

import (
	"context"
	"time"

	"tableorders/pkg/order"
)

// Type names a lifecycle change.
type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	OrderDeleted       Type = "order.deleted"
)

// Event is the JSON message sent to subscribers.
type Event struct {
	Type        Type         `json:"type"`
	OrderID     int          `json:"order_id"`
	TableNumber int          `json:"table_number,omitempty"`
	Status      order.Status `json:"status,omitempty"`
	RequestID   string       `json:"request_id,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
