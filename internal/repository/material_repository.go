package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/buildtrack/internal/model"
)

// MaterialRepo manages the material catalog and its stock counts.
type MaterialRepo struct{ s *Store }

func NewMaterialRepo(s *Store) *MaterialRepo { return &MaterialRepo{s: s} }

const materialColumns = "id, name, unit, unit_price_cents, stock_quantity, category"

func scanMaterial(row rowScanner) (model.Material, error) {
	var m model.Material
	err := row.Scan(&m.ID, &m.Name, &m.Unit, &m.UnitPriceCents, &m.StockQuantity, &m.Category)
	return m, err
}

// Create inserts a catalog entry.
func (r *MaterialRepo) Create(ctx context.Context, m *model.Material) error {
	res, err := r.s.db.ExecContext(ctx,
		`INSERT INTO materials (name, unit, unit_price_cents, stock_quantity, category) VALUES (?, ?, ?, ?, ?)`,
		m.Name, m.Unit, m.UnitPriceCents, m.StockQuantity, m.Category)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID returns ErrNotFound when the material does not exist.
func (r *MaterialRepo) GetByID(ctx context.Context, id uint64) (model.Material, error) {
	m, err := scanMaterial(r.s.db.QueryRowContext(ctx,
		"SELECT "+materialColumns+" FROM materials WHERE id = ?", id))
	return m, notFound(err, "material")
}

// GetForUpdateTx reads and locks a material row so that the stock and
// price seen by an order stay fixed until it commits.
func (r *MaterialRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Material, error) {
	m, err := scanMaterial(tx.QueryRowContext(ctx,
		r.s.forUpdate("SELECT "+materialColumns+" FROM materials WHERE id = ?"), id))
	return m, notFound(err, "material")
}

// DecrementStockTx takes qty units out of stock.  The WHERE clause
// re-checks the stock at write time; when it no longer covers qty nothing
// is updated and ErrInsufficientStock is returned.
func (r *MaterialRepo) DecrementStockTx(ctx context.Context, tx *sql.Tx, id uint64, qty int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE materials SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?`,
		qty, id, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: material %d", ErrInsufficientStock, id)
	}
	return nil
}

// ListAll returns the catalog ordered by category and name.
func (r *MaterialRepo) ListAll(ctx context.Context) ([]model.Material, error) {
	rows, err := r.s.db.QueryContext(ctx,
		"SELECT "+materialColumns+" FROM materials ORDER BY category, name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Material, 0)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
