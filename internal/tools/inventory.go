package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/store"
)

// Capability is one entry of the assistant's numbered menu
type Capability struct {
	Option      int    `json:"option"`
	Description string `json:"description"`
	ToolName    string `json:"tool_name"`
}

var capabilities = []Capability{
	{Option: 1, Description: "Get Your Profile Information", ToolName: "get_user_profile"},
	{Option: 2, Description: "Check Your Last Order", ToolName: "get_last_order"},
	{Option: 3, Description: "Find Product Information", ToolName: "get_product_details"},
	{Option: 4, Description: "Study Inventory Data (KPIs)", ToolName: "study_data"},
}

// InventoryTools returns the assistant's tool set in registration order
func InventoryTools(now func() time.Time) []Tool {
	return []Tool{
		CapabilitiesTool(),
		StudyDataTool(now),
		UserProfileTool(),
		LastOrderTool(),
		ProductDetailsTool(),
	}
}

// CapabilitiesTool presents the numbered menu
func CapabilitiesTool() Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "get_capabilities",
			Description: "Presents a numbered menu of all available actions to the user. Use this when the user greets you or asks for help.",
			Convention:  UserScoped,
		},
		User: func(ctx context.Context, _ store.Reader, _ models.User) (any, error) {
			return capabilities, nil
		},
	}
}

// StudyDataTool returns today's dashboard KPIs
func StudyDataTool(now func() time.Time) Tool {
	if now == nil {
		now = time.Now
	}
	return Tool{
		Descriptor: Descriptor{
			Name:        "study_data",
			Description: "Analyzes the inventory and returns key performance indicators (KPIs) like revenue today, orders today, pending orders and low stock item counts.",
			Convention:  UserScoped,
		},
		User: func(ctx context.Context, data store.Reader, _ models.User) (any, error) {
			k, err := data.DashboardKPIs(ctx, now())
			if err != nil {
				return nil, fmt.Errorf("study_data: %w", err)
			}
			return k, nil
		},
	}
}

type userProfile struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// UserProfileTool returns the caller's id and email
func UserProfileTool() Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "get_user_profile",
			Description: "Get the profile information of the current user, like their email.",
			Convention:  UserScoped,
		},
		User: func(ctx context.Context, _ store.Reader, caller models.User) (any, error) {
			return userProfile{ID: caller.ID, Email: caller.Email}, nil
		},
	}
}

type lastOrder struct {
	OrderID    int64  `json:"order_id"`
	OrderDate  string `json:"order_date"`
	TotalItems int    `json:"total_items"`
}

// LastOrderTool summarizes the caller's most recent order
func LastOrderTool() Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "get_last_order",
			Description: "Get the most recent order details for the current user.",
			Convention:  UserScoped,
		},
		User: func(ctx context.Context, data store.Reader, caller models.User) (any, error) {
			o, err := data.MostRecentOrderByUser(ctx, caller.ID)
			if errors.Is(err, store.ErrNotFound) {
				return "You have no past orders.", nil
			}
			if err != nil {
				return nil, fmt.Errorf("get_last_order: %w", err)
			}
			return lastOrder{
				OrderID:    o.ID,
				OrderDate:  o.OrderDate.Format("2006-01-02"),
				TotalItems: len(o.Items),
			}, nil
		},
	}
}

type productDetails struct {
	Name            string  `json:"name"`
	SKU             string  `json:"sku"`
	Category        string  `json:"category"`
	Price           float64 `json:"price"`
	QuantityInStock int     `json:"quantity_in_stock"`
	ReorderPoint    int     `json:"reorder_point"`
	Supplier        string  `json:"supplier"`
}

// ProductDetailsTool looks a product up by exact name
func ProductDetailsTool() Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "get_product_details",
			Description: "Get information about a specific product, such as its price and stock level.",
			Params: map[string]Param{
				"product_name": {
					Type:        "string",
					Description: "The name of the product to look up, e.g., 'Test Widget'",
					Required:    true,
				},
			},
			Convention: ArgumentScoped,
			Lenient:    true,
		},
		Args: func(ctx context.Context, data store.Reader, args Args) (any, error) {
			name := args.String("product_name")
			notFound := fmt.Sprintf("Sorry, I could not find a product named '%s'.", name)
			if name == "" {
				return notFound, nil
			}
			p, err := data.GetProductByName(ctx, name)
			if errors.Is(err, store.ErrNotFound) {
				return notFound, nil
			}
			if err != nil {
				return nil, fmt.Errorf("get_product_details: %w", err)
			}
			return productDetails{
				Name:            p.Name,
				SKU:             p.SKU,
				Category:        p.Category,
				Price:           p.Price,
				QuantityInStock: p.CurrentStock,
				ReorderPoint:    p.ReorderPoint,
				Supplier:        p.Supplier,
			}, nil
		},
	}
}
