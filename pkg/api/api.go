// Package api binds the order repository to HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tableorders/pkg/events"
	"tableorders/pkg/logger"
	"tableorders/pkg/order"
	"tableorders/pkg/otel"
)

// Handler serves the order endpoints. It owns no state besides its
// collaborators; all orders live in the repository.
type Handler struct {
	repo   order.Repository
	log    *logger.Logger
	events events.Publisher
	tracer trace.Tracer
}

// New returns a Handler. A nil publisher disables events and a nil tracer
// disables spans.
func New(repo order.Repository, log *logger.Logger, pub events.Publisher, tracer trace.Tracer) *Handler {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{repo: repo, log: log, events: pub, tracer: tracer}
}

// Routes builds the router for every endpoint.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, h.traceMiddleware, h.logMiddleware)

	r.HandleFunc("/health", h.healthHandler).Methods(http.MethodGet)

	for _, base := range []string{"/orders", "/orders/"} {
		r.HandleFunc(base, h.createOrderHandler).Methods(http.MethodPost)
		r.HandleFunc(base, h.listOrdersHandler).Methods(http.MethodGet)
	}
	r.HandleFunc("/orders/{id}", h.getOrderHandler).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}/status", h.updateStatusHandler).Methods(http.MethodPatch)
	r.HandleFunc("/orders/{id}", h.deleteOrderHandler).Methods(http.MethodDelete)

	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	return r
}

// createOrderHandler places a new order.
// @Summary Create order
// @Accept json
// @Produce json
// @Param order body order.Create true "Order"
// @Success 201 {object} order.Order
// @Failure 400 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Router /orders [post]
func (h *Handler) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createOrderHandler")
	defer span.End()

	var req order.Create
	if err := decode(r, &req); err != nil {
		h.fail(ctx, w, span, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, span, err)
		return
	}

	o, err := h.repo.Create(ctx, order.NewOrder(req))
	if err != nil {
		h.fail(ctx, w, span, fmt.Errorf("create order: %w", err))
		return
	}
	span.SetAttributes(attribute.Int("order.id", o.ID))
	h.log.Info(ctx, "order created", "order_id", o.ID, "table_number", o.TableNumber, "total_amount", o.TotalAmount)
	h.publish(ctx, events.Event{Type: events.OrderCreated, OrderID: o.ID, TableNumber: o.TableNumber, Status: o.Status})

	writeJSON(w, http.StatusCreated, o)
}

// listOrdersHandler lists orders, optionally filtered.
// @Summary List orders
// @Produce json
// @Param status query string false "Filter by status" Enums(pending, preparing, ready, delivered)
// @Param table_number query int false "Filter by table number" minimum(1)
// @Param customer_name query string false "Case-insensitive substring of the customer name"
// @Success 200 {array} order.Order
// @Failure 422 {object} errorResponse
// @Router /orders [get]
func (h *Handler) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	f, err := parseFilter(r)
	if err != nil {
		h.fail(ctx, w, span, err)
		return
	}
	orders, err := h.repo.List(ctx, f)
	if err != nil {
		h.fail(ctx, w, span, fmt.Errorf("list orders: %w", err))
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	writeJSON(w, http.StatusOK, orders)
}

// getOrderHandler retrieves an order by ID.
// @Summary Get order
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404 {object} errorResponse
// @Router /orders/{id} [get]
func (h *Handler) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	id, err := orderID(r)
	if err != nil {
		h.fail(ctx, w, span, err)
		return
	}
	o, err := h.repo.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, span, notFound(id, err))
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// updateStatusHandler changes the status of an order.
// @Summary Update order status
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param update body order.StatusUpdate true "New status"
// @Success 200 {object} order.Order
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Router /orders/{id}/status [patch]
func (h *Handler) updateStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateStatusHandler")
	defer span.End()

	id, err := orderID(r)
	if err != nil {
		h.fail(ctx, w, span, err)
		return
	}
	var req order.StatusUpdate
	if err := decode(r, &req); err != nil {
		h.fail(ctx, w, span, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, span, err)
		return
	}

	o, err := h.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		h.fail(ctx, w, span, notFound(id, err))
		return
	}
	h.log.Info(ctx, "order status changed", "order_id", id, "status", o.Status)
	h.publish(ctx, events.Event{
		Type:        events.OrderStatusChanged,
		OrderID:     id,
		TableNumber: o.TableNumber,
		Status:      o.Status,
	})

	writeJSON(w, http.StatusOK, o)
}

// deleteOrderHandler removes an order.
// @Summary Delete order
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} detailResponse
// @Failure 404 {object} errorResponse
// @Router /orders/{id} [delete]
func (h *Handler) deleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deleteOrderHandler")
	defer span.End()

	id, err := orderID(r)
	if err != nil {
		h.fail(ctx, w, span, err)
		return
	}
	if err := h.repo.Delete(ctx, id); err != nil {
		h.fail(ctx, w, span, notFound(id, err))
		return
	}
	h.log.Info(ctx, "order deleted", "order_id", id)
	h.publish(ctx, events.Event{Type: events.OrderDeleted, OrderID: id})

	writeJSON(w, http.StatusOK, detailResponse{Detail: fmt.Sprintf("Order %d deleted successfully", id)})
}

// healthHandler reports liveness.
// @Summary Health check
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.List(r.Context(), order.Filter{})
	if err != nil {
		h.writeError(r.Context(), w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Orders: len(orders)})
}

func (h *Handler) publish(ctx context.Context, e events.Event) {
	e.RequestID = RequestID(ctx)
	e.Timestamp = time.Now().UTC()
	if err := h.events.Publish(ctx, e); err != nil {
		h.log.Warn(ctx, "publish order event", "type", e.Type, "order_id", e.OrderID, "error", err)
	}
}

// fail maps err onto a status code and records it on the span.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, span trace.Span, err error) {
	var verr *order.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeError(ctx, w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, order.ErrNotFound):
		h.writeError(ctx, w, http.StatusNotFound, err)
	case errors.Is(err, errMalformedBody):
		h.writeError(ctx, w, http.StatusBadRequest, err)
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.log.Error(ctx, "request failed", "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error(), RequestID: RequestID(ctx)}
	var verr *order.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if status == http.StatusInternalServerError {
		resp.Error = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}

var errMalformedBody = errors.New("invalid JSON body")

// decode reads a JSON body into v. Missing fields and values of the wrong
// type come back as validation errors; anything else is a malformed body.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if err == nil {
		return nil
	}
	var verr *order.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	var terr *json.UnmarshalTypeError
	if errors.As(err, &terr) && terr.Field != "" {
		return &order.ValidationError{Field: terr.Field, Message: fmt.Sprintf("must be of type %s", terr.Type)}
	}
	return fmt.Errorf("%w: %v", errMalformedBody, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func orderID(r *http.Request) (int, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &order.ValidationError{Field: "id", Message: fmt.Sprintf("%q is not an integer", raw)}
	}
	return id, nil
}

func notFound(id int, err error) error {
	if errors.Is(err, order.ErrNotFound) {
		return fmt.Errorf("order %d: %w", id, err)
	}
	return err
}

func parseFilter(r *http.Request) (order.Filter, error) {
	var f order.Filter
	q := r.URL.Query()
	if _, ok := q["status"]; ok {
		s, err := order.ParseStatus(q.Get("status"))
		if err != nil {
			return f, err
		}
		f.Status = &s
	}
	if _, ok := q["table_number"]; ok {
		n, err := strconv.Atoi(q.Get("table_number"))
		if err != nil || n < 1 {
			return f, &order.ValidationError{Field: "table_number", Message: "must be an integer greater than or equal to 1"}
		}
		f.TableNumber = &n
	}
	if _, ok := q["customer_name"]; ok {
		name := q.Get("customer_name")
		f.CustomerName = &name
	}
	return f, nil
}

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

type healthResponse struct {
	Status string `json:"status"`
	Orders int    `json:"orders"`
}
