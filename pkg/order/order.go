package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Status is the kitchen progress of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusPending, StatusPreparing, StatusReady, StatusDelivered}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusDelivered:
		return true
	}
	return false
}

// ParseStatus converts raw input into a Status, rejecting unknown values.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("invalid status %q", raw)}
	}
	return s, nil
}

// Item is a single line of an order.
type Item struct {
	DishName string  `json:"dish_name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order represents a customer order placed at a table.
type Order struct {
	ID           int     `json:"id"`
	CustomerName string  `json:"customer_name"`
	TableNumber  int     `json:"table_number"`
	Items        []Item  `json:"items"`
	Status       Status  `json:"status"`
	TotalAmount  float64 `json:"total_amount"`
}

// Clone returns a copy of o that shares no memory with it.
func (o Order) Clone() Order {
	if o.Items != nil {
		o.Items = copyItems(o.Items)
	}
	return o
}

// copyItems always returns a non-nil slice so empty orders encode as [].
func copyItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Create is the payload accepted when placing an order.
type Create struct {
	CustomerName string `json:"customer_name"`
	TableNumber  int    `json:"table_number"`
	Items        []Item `json:"items"`
}

// UnmarshalJSON decodes a Create payload and rejects it when customer_name,
// table_number or items is absent or null.
func (c *Create) UnmarshalJSON(data []byte) error {
	var raw struct {
		CustomerName *string `json:"customer_name"`
		TableNumber  *int    `json:"table_number"`
		Items        []Item  `json:"items"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch {
	case raw.CustomerName == nil:
		return &ValidationError{Field: "customer_name", Message: "field required"}
	case raw.TableNumber == nil:
		return &ValidationError{Field: "table_number", Message: "field required"}
	case raw.Items == nil:
		return &ValidationError{Field: "items", Message: "field required"}
	}
	*c = Create{CustomerName: *raw.CustomerName, TableNumber: *raw.TableNumber, Items: raw.Items}
	return nil
}

// Validate checks field constraints and reports the first offending field.
func (c Create) Validate() error {
	if c.TableNumber < 1 {
		return &ValidationError{Field: "table_number", Message: "must be greater than or equal to 1"}
	}
	for i, it := range c.Items {
		switch {
		case it.DishName == "":
			return &ValidationError{Field: fmt.Sprintf("items[%d].dish_name", i), Message: "must not be empty"}
		case it.Quantity <= 0:
			return &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be greater than 0"}
		case it.Price <= 0:
			return &ValidationError{Field: fmt.Sprintf("items[%d].price", i), Message: "must be greater than 0"}
		}
	}
	return nil
}

// NewOrder builds a pending order from a validated payload. The id is left
// for the repository to assign.
func NewOrder(c Create) Order {
	return Order{
		CustomerName: c.CustomerName,
		TableNumber:  c.TableNumber,
		Items:        copyItems(c.Items),
		Status:       StatusPending,
		TotalAmount:  CalculateTotal(c.Items),
	}
}

// StatusUpdate is the payload accepted when changing an order's status.
type StatusUpdate struct {
	Status Status `json:"status"`
}

// Validate rejects statuses outside the known set.
func (u StatusUpdate) Validate() error {
	_, err := ParseStatus(string(u.Status))
	return err
}

// ValidationError reports a field that failed its constraint.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrNotFound indicates the requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Repository defines behavior for storing orders.
type Repository interface {
	Create(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id int) (Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	UpdateStatus(ctx context.Context, id int, s Status) (Order, error)
	Delete(ctx context.Context, id int) error
}
