package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/store"
	"github.com/stockwise/stockwise/internal/tools"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func seeded(t *testing.T) (*store.MemoryStore, models.User) {
	t.Helper()
	s := store.NewMemoryStore(store.WithClock(func() time.Time { return fixedNow }))
	if err := store.Seed(context.Background(), s, "dev@example.com", "k"); err != nil {
		t.Fatal(err)
	}
	u, err := s.UserByEmail(context.Background(), "dev@example.com")
	if err != nil {
		t.Fatal(err)
	}
	return s, *u
}

func mustRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r, err := tools.NewRegistry(tools.InventoryTools(func() time.Time { return fixedNow })...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestRegistry_DescribeOrder(t *testing.T) {
	r := mustRegistry(t)
	want := []string{"get_capabilities", "study_data", "get_user_profile", "get_last_order", "get_product_details"}
	got := r.Describe()
	if len(got) != len(want) {
		t.Fatalf("expected %d descriptors, got %d", len(want), len(got))
	}
	for i, d := range got {
		if d.Name != want[i] {
			t.Errorf("descriptor %d = %q, want %q", i, d.Name, want[i])
		}
	}

	specs := r.Specs()
	if specs[4].Parameters == nil || len(specs[4].Parameters.Required) != 1 {
		t.Errorf("get_product_details should require product_name, got %+v", specs[4].Parameters)
	}
	if specs[0].Parameters == nil || specs[0].Parameters.Type != "object" {
		t.Errorf("argument-free tools still need an object schema")
	}
}

func TestRegistry_RejectsDefects(t *testing.T) {
	noop := func(ctx context.Context, _ store.Reader, _ models.User) (any, error) { return "", nil }
	noopArgs := func(ctx context.Context, _ store.Reader, _ tools.Args) (any, error) { return "", nil }

	tests := []struct {
		name  string
		tools []tools.Tool
	}{
		{"empty", nil},
		{"blank name", []tools.Tool{{Descriptor: tools.Descriptor{Convention: tools.UserScoped}, User: noop}}},
		{"duplicate", []tools.Tool{tools.UserProfileTool(), tools.UserProfileTool()}},
		{"user-scoped without func", []tools.Tool{{Descriptor: tools.Descriptor{Name: "a", Convention: tools.UserScoped}}}},
		{"argument-scoped with user func", []tools.Tool{{Descriptor: tools.Descriptor{Name: "a", Convention: tools.ArgumentScoped}, User: noop}}},
		{"both funcs", []tools.Tool{{Descriptor: tools.Descriptor{Name: "a", Convention: tools.ArgumentScoped}, User: noop, Args: noopArgs}}},
		{"no convention", []tools.Tool{{Descriptor: tools.Descriptor{Name: "a"}, User: noop}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tools.NewRegistry(tt.tools...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	if _, ok := mustRegistry(t).Resolve("drop_tables"); ok {
		t.Error("unknown tool resolved")
	}
}

func TestProductDetails(t *testing.T) {
	s, u := seeded(t)
	tool, _ := mustRegistry(t).Resolve("get_product_details")
	ctx := context.Background()

	tests := []struct {
		name string
		args string
		want string
	}{
		{"found", `{"product_name":"Test Widget"}`, `"quantity_in_stock":120`},
		{"missing product", `{"product_name":"Super Widget"}`, "Sorry, I could not find a product named 'Super Widget'."},
		{"empty payload", ``, "Sorry, I could not find a product named ''."},
		{"malformed payload", `{"product_name":`, "Sorry, I could not find a product named ''."},
		{"wrong type", `{"product_name":42}`, "Sorry, I could not find a product named ''."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tool.Call(ctx, s, u, tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("got %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestStrictTool_MalformedArgs(t *testing.T) {
	strict := tools.Tool{
		Descriptor: tools.Descriptor{
			Name:       "strict",
			Params:     map[string]tools.Param{"id": {Type: "integer", Required: true}},
			Convention: tools.ArgumentScoped,
		},
		Args: func(ctx context.Context, _ store.Reader, a tools.Args) (any, error) { return a, nil },
	}
	r, err := tools.NewRegistry(strict)
	if err != nil {
		t.Fatal(err)
	}
	tool, _ := r.Resolve("strict")
	s, u := seeded(t)

	for _, payload := range []string{`not json`, `{"id":"x"}`, `{}`} {
		if _, err := tool.Call(context.Background(), s, u, payload); !errors.Is(err, tools.ErrBadArguments) {
			t.Errorf("payload %q: expected ErrBadArguments, got %v", payload, err)
		}
	}
	if out, err := tool.Call(context.Background(), s, u, `{"id":7}`); err != nil || out != `{"id":7}` {
		t.Errorf("valid payload: got %q, %v", out, err)
	}
}

func TestLastOrder(t *testing.T) {
	s, u := seeded(t)
	tool, _ := mustRegistry(t).Resolve("get_last_order")
	ctx := context.Background()

	got, err := tool.Call(ctx, s, u, "")
	if err != nil || got != "You have no past orders." {
		t.Fatalf("no orders: got %q, %v", got, err)
	}

	widget, _ := s.GetProductByName(ctx, "Test Widget")
	bracket, _ := s.GetProductByName(ctx, "Steel Bracket")
	order, err := s.CreateSale(ctx, &u.ID, models.SaleCreate{ItemsSold: []models.ItemSold{
		{ProductID: widget.ID, Quantity: 1},
		{ProductID: bracket.ID, Quantity: 2},
	}})
	if err != nil {
		t.Fatal(err)
	}

	got, err = tool.Call(ctx, s, u, `{"ignored":true}`)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(got), &out); err != nil {
		t.Fatalf("result is not JSON: %q", got)
	}
	if out["order_date"] != "2025-03-10" || out["total_items"] != float64(2) || out["order_id"] != float64(order.ID) {
		t.Errorf("unexpected last order: %v", out)
	}
}

func TestUserScopedTools(t *testing.T) {
	s, u := seeded(t)
	r := mustRegistry(t)
	ctx := context.Background()

	profile, _ := r.Resolve("get_user_profile")
	if got, _ := profile.Call(ctx, s, u, ""); !strings.Contains(got, `"email":"dev@example.com"`) {
		t.Errorf("profile: %q", got)
	}

	caps, _ := r.Resolve("get_capabilities")
	got, err := caps.Call(ctx, s, u, "")
	if err != nil {
		t.Fatal(err)
	}
	var menu []tools.Capability
	if err := json.Unmarshal([]byte(got), &menu); err != nil || len(menu) != 4 {
		t.Fatalf("capabilities: %q (%v)", got, err)
	}
	for i, c := range menu {
		if c.Option != i+1 {
			t.Errorf("menu option %d numbered %d", i, c.Option)
		}
		if _, ok := r.Resolve(c.ToolName); !ok {
			t.Errorf("menu references unregistered tool %q", c.ToolName)
		}
	}

	study, _ := r.Resolve("study_data")
	got, err = study.Call(ctx, s, u, "")
	if err != nil || !strings.Contains(got, `"low_stock_items":2`) {
		t.Errorf("study_data: %q, %v", got, err)
	}
}

func TestRender_Deterministic(t *testing.T) {
	v := map[string]int{"b": 2, "a": 1, "c": 3}
	first, _ := tools.Render(v)
	for i := 0; i < 20; i++ {
		if got, _ := tools.Render(v); got != first {
			t.Fatalf("render not deterministic: %q vs %q", got, first)
		}
	}
	if first != `{"a":1,"b":2,"c":3}` {
		t.Errorf("got %q", first)
	}
}
