package workflow

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/policy"
	"github.com/iliyamo/buildtrack/internal/queue"
	"github.com/iliyamo/buildtrack/internal/repository"
)

// OrderWorkflow debits material stock against a project.
type OrderWorkflow struct {
	d Deps
}

func NewOrderWorkflow(d Deps) *OrderWorkflow { return &OrderWorkflow{d: d} }

// OrderInput is the payload of Order.
type OrderInput struct {
	ProjectID  uint64
	MaterialID uint64
	Quantity   int64
}

// Order places a material order for a project.  Only the project's civil
// engineer may order.  The total is computed from the unit price read in
// the same transaction and stored with the order; later price changes do
// not affect it.  Stock never goes negative: a request larger than the
// remaining stock fails with ErrInsufficientStock and leaves no order row.
func (w *OrderWorkflow) Order(ctx context.Context, actor model.Actor, in OrderInput) (model.MaterialOrder, error) {
	if in.Quantity <= 0 {
		return model.MaterialOrder{}, fmt.Errorf("%w: quantity must be positive", repository.ErrBadRequest)
	}

	var o model.MaterialOrder
	err := w.d.Store.WithTx(ctx, func(tx *sql.Tx) error {
		p, err := w.d.Projects.GetTx(ctx, tx, in.ProjectID)
		if err != nil {
			return err
		}
		if !policy.IsCivilEngineer(actor, policy.FactsFor(p)) {
			return fmt.Errorf("%w: only the project's civil engineer may order materials", repository.ErrForbidden)
		}
		if err := w.d.requireAction(actor, policy.ActionOrderMaterial); err != nil {
			return err
		}

		m, err := w.d.Materials.GetForUpdateTx(ctx, tx, in.MaterialID)
		if err != nil {
			return err
		}
		if in.Quantity > m.StockQuantity {
			return fmt.Errorf("%w: requested %d %s, %d in stock", repository.ErrInsufficientStock, in.Quantity, m.Unit, m.StockQuantity)
		}

		o = model.MaterialOrder{
			ProjectID:      p.ID,
			MaterialID:     m.ID,
			MaterialName:   m.Name,
			Unit:           m.Unit,
			Quantity:       in.Quantity,
			UnitPriceCents: m.UnitPriceCents,
			TotalCostCents: in.Quantity * m.UnitPriceCents,
			OrderedBy:      actor.ID,
		}
		if err := w.d.Orders.CreateTx(ctx, tx, &o); err != nil {
			return err
		}
		return w.d.Materials.DecrementStockTx(ctx, tx, m.ID, in.Quantity)
	})
	if err != nil {
		return model.MaterialOrder{}, err
	}

	w.d.invalidateCatalog(ctx)
	log.Infoj(log.JSON{"msg": "material ordered", "order_id": o.ID, "project_id": o.ProjectID, "material_id": o.MaterialID, "quantity": o.Quantity, "total_cost_cents": o.TotalCostCents})
	w.d.publish(ctx, queue.ProjectEvent{
		Type:           queue.EventMaterialOrdered,
		ProjectID:      o.ProjectID,
		ActorID:        actor.ID,
		MaterialID:     o.MaterialID,
		Quantity:       o.Quantity,
		TotalCostCents: o.TotalCostCents,
	})
	return o, nil
}

// ListForProject returns the project's orders.  Callers authorize the
// project with the access guard first.
func (w *OrderWorkflow) ListForProject(ctx context.Context, projectID uint64) ([]model.MaterialOrder, error) {
	return w.d.Orders.ListByProject(ctx, projectID)
}
