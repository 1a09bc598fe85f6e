package model

import "time"

// Material is an inventory item that projects order from.  StockQuantity is
// never negative; it is only decremented by committed orders.
type Material struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	Unit           string `json:"unit"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	StockQuantity  int64  `json:"stock_quantity"`
	Category       string `json:"category"`
}

// MaterialOrder debits stock for a project.  UnitPriceCents and
// TotalCostCents are a snapshot of the price at order time and are never
// recomputed.
type MaterialOrder struct {
	ID             uint64    `json:"id"`
	ProjectID      uint64    `json:"project_id"`
	MaterialID     uint64    `json:"material_id"`
	MaterialName   string    `json:"material_name,omitempty"`
	Unit           string    `json:"unit,omitempty"`
	Quantity       int64     `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	TotalCostCents int64     `json:"total_cost_cents"`
	OrderedBy      uint64    `json:"ordered_by"`
	CreatedAt      time.Time `json:"created_at"`
}
