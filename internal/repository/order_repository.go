package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/buildtrack/internal/model"
)

// OrderRepo persists project_material_orders.  Orders are immutable once
// written.
type OrderRepo struct{ s *Store }

func NewOrderRepo(s *Store) *OrderRepo { return &OrderRepo{s: s} }

// CreateTx inserts an order inside tx.  The caller computes the cost
// snapshot; this method stores it verbatim.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.MaterialOrder) error {
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO project_material_orders (project_id, material_id, quantity, unit_price_cents, total_cost_cents, ordered_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ProjectID, o.MaterialID, o.Quantity, o.UnitPriceCents, o.TotalCostCents, o.OrderedBy, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.CreatedAt = now
	return nil
}

// ListByProject returns a project's orders joined with material names,
// oldest first.
func (r *OrderRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.MaterialOrder, error) {
	const q = `SELECT o.id, o.project_id, o.material_id, m.name, m.unit, o.quantity,
	                  o.unit_price_cents, o.total_cost_cents, o.ordered_by, o.created_at
	           FROM project_material_orders o
	           JOIN materials m ON m.id = o.material_id
	           WHERE o.project_id = ?
	           ORDER BY o.id`
	rows, err := r.s.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.MaterialOrder, 0)
	for rows.Next() {
		var o model.MaterialOrder
		if err := rows.Scan(&o.ID, &o.ProjectID, &o.MaterialID, &o.MaterialName, &o.Unit, &o.Quantity,
			&o.UnitPriceCents, &o.TotalCostCents, &o.OrderedBy, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
