package order

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCalculateTotal(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  float64
	}{
		{"empty", nil, 0},
		{"single", []Item{{DishName: "Soup", Quantity: 2, Price: 5.0}}, 10.0},
		{"mixed", []Item{{DishName: "A", Quantity: 2, Price: 9.5}, {DishName: "B", Quantity: 1, Price: 3.33}}, 22.33},
		{"float noise", []Item{{DishName: "A", Quantity: 3, Price: 0.1}}, 0.3},
		{"tie rounds down to even", []Item{{DishName: "A", Quantity: 1, Price: 0.125}}, 0.12},
		{"tie rounds up to even", []Item{{DishName: "A", Quantity: 1, Price: 0.375}}, 0.38},
		{"tie across lines", []Item{{DishName: "A", Quantity: 2, Price: 0.5}, {DishName: "B", Quantity: 1, Price: 0.005}}, 1.0},
		{"above tie", []Item{{DishName: "A", Quantity: 1, Price: 0.1251}}, 0.13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateTotal(tt.items); got != tt.want {
				t.Errorf("CalculateTotal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateValidate(t *testing.T) {
	valid := []Item{{DishName: "Pizza", Quantity: 1, Price: 9.99}}
	tests := []struct {
		name      string
		req       Create
		wantField string
	}{
		{"valid", Create{CustomerName: "Ana", TableNumber: 1, Items: valid}, ""},
		{"no items", Create{CustomerName: "Ana", TableNumber: 1}, ""},
		{"table zero", Create{CustomerName: "Ana", TableNumber: 0, Items: valid}, "table_number"},
		{"empty dish", Create{TableNumber: 1, Items: []Item{{Quantity: 1, Price: 1}}}, "items[0].dish_name"},
		{"zero quantity", Create{TableNumber: 1, Items: []Item{valid[0], {DishName: "x", Price: 1}}}, "items[1].quantity"},
		{"negative price", Create{TableNumber: 1, Items: []Item{{DishName: "x", Quantity: 1, Price: -2}}}, "items[0].price"},
		{"zero price", Create{TableNumber: 1, Items: []Item{{DishName: "x", Quantity: 1}}}, "items[0].price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		if got, err := ParseStatus(string(s)); err != nil || got != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}
	for _, raw := range []string{"", "PENDING", "cooking", "done"} {
		if _, err := ParseStatus(raw); err == nil {
			t.Errorf("ParseStatus(%q) accepted invalid status", raw)
		}
	}
	if err := (StatusUpdate{Status: "served"}).Validate(); err == nil {
		t.Error("StatusUpdate accepted invalid status")
	}
}

func TestNewOrder(t *testing.T) {
	items := []Item{{DishName: "Soup", Quantity: 2, Price: 5}}
	o := NewOrder(Create{CustomerName: "Ana", TableNumber: 3, Items: items})
	if o.ID != 0 || o.Status != StatusPending || o.TotalAmount != 10 {
		t.Fatalf("unexpected order: %+v", o)
	}
	items[0].Quantity = 9
	if o.Items[0].Quantity != 2 {
		t.Fatal("order shares items with the payload")
	}
}

func TestFilterApply(t *testing.T) {
	orders := []Order{
		{ID: 1, CustomerName: "John Smith", TableNumber: 1, Status: StatusPending},
		{ID: 2, CustomerName: "Jane", TableNumber: 2, Status: StatusReady},
		{ID: 3, CustomerName: "BIG JOHNNY", TableNumber: 2, Status: StatusPending},
	}
	ptr := func(s string) *string { return &s }
	status := func(s Status) *Status { return &s }
	table := func(n int) *int { return &n }

	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"no filter", Filter{}, []int{1, 2, 3}},
		{"name substring", Filter{CustomerName: ptr("john")}, []int{1, 3}},
		{"name trimmed", Filter{CustomerName: ptr("  JOHN ")}, []int{1, 3}},
		{"empty name matches all", Filter{CustomerName: ptr("")}, []int{1, 2, 3}},
		{"status", Filter{Status: status(StatusPending)}, []int{1, 3}},
		{"table", Filter{TableNumber: table(2)}, []int{2, 3}},
		{"combined", Filter{Status: status(StatusPending), TableNumber: table(2), CustomerName: ptr("big")}, []int{3}},
		{"no match", Filter{Status: status(StatusDelivered)}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(orders)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d orders, want %d", len(got), len(tt.want))
			}
			for i, o := range got {
				if o.ID != tt.want[i] {
					t.Errorf("position %d: id %d, want %d", i, o.ID, tt.want[i])
				}
			}
		})
	}
	if orders[0].ID != 1 || orders[1].ID != 2 || orders[2].ID != 3 {
		t.Fatal("Apply modified its input")
	}
}

func TestCreateUnmarshalRequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"complete", `{"customer_name":"Ana","table_number":1,"items":[]}`, ""},
		{"empty customer name", `{"customer_name":"","table_number":1,"items":[]}`, ""},
		{"missing customer name", `{"table_number":1,"items":[]}`, "customer_name"},
		{"null customer name", `{"customer_name":null,"table_number":1,"items":[]}`, "customer_name"},
		{"missing table", `{"customer_name":"Ana","items":[]}`, "table_number"},
		{"missing items", `{"customer_name":"Ana","table_number":1}`, "items"},
		{"null items", `{"customer_name":"Ana","table_number":1,"items":null}`, "items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Create
			err := json.Unmarshal([]byte(tt.body), &c)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if c.Items == nil {
					t.Fatal("items decoded as nil")
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}

	var c Create
	if err := json.Unmarshal([]byte(`{"customer_name":"Ana","table_number":1,"items":[],"notes":"x"}`), &c); err == nil {
		t.Fatal("unknown field accepted")
	}
}

func TestEmptyItemsEncodeAsArray(t *testing.T) {
	for name, o := range map[string]Order{
		"new from nil":   NewOrder(Create{CustomerName: "Ana", TableNumber: 1}),
		"new from empty": NewOrder(Create{CustomerName: "Ana", TableNumber: 1, Items: []Item{}}),
		"clone of empty": Order{Items: []Item{}}.Clone(),
	} {
		t.Run(name, func(t *testing.T) {
			b, err := json.Marshal(o)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if !strings.Contains(string(b), `"items":[]`) {
				t.Fatalf("expected empty items array, got %s", b)
			}
		})
	}
}
