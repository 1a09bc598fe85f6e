// Package dbtest opens throwaway SQLite databases with the real schema
// and seeds the fixtures that workflow and handler tests share.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/buildtrack/internal/database"
	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/repository"
)

var seq atomic.Uint64

// DB wraps a migrated in-memory database and its store.
type DB struct {
	t     testing.TB
	SQL   *sql.DB
	Store *repository.Store
}

// Open returns a fresh in-memory database.  It is closed when the test
// ends.
func Open(t testing.TB) *DB {
	t.Helper()
	db, err := database.Open(database.Options{Driver: database.DriverSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))
	return &DB{t: t, SQL: db, Store: repository.NewStore(db, database.DriverSQLite, sql.LevelDefault)}
}

// User inserts a user and returns the matching actor.
func (d *DB) User(role model.Role, sub model.SubRole) model.Actor {
	d.t.Helper()
	n := seq.Add(1)
	id, err := repository.NewUserRepo(d.Store).Create(context.Background(), model.User{
		Email:   fmt.Sprintf("user%d@example.com", n),
		Name:    fmt.Sprintf("User %d", n),
		Role:    role,
		SubRole: sub,
	})
	require.NoError(d.t, err)
	return model.Actor{ID: id, Role: role, SubRole: sub}
}

func (d *DB) Client() model.Actor   { return d.User(model.RoleClient, "") }
func (d *DB) Admin() model.Actor    { return d.User(model.RoleAdmin, "") }
func (d *DB) Engineer() model.Actor { return d.User(model.RoleWorker, model.SubRoleCivilEngineer) }

// Project creates a planning project owned by owner.
func (d *DB) Project(owner model.Actor) model.Project {
	d.t.Helper()
	p := model.Project{Name: "Site", Description: "test project", OwnerID: owner.ID}
	require.NoError(d.t, repository.NewProjectRepo(d.Store).Create(context.Background(), &p))
	return p
}

// StaffedProject creates a project and makes engineer its civil engineer
// the way an accepted request would: engineer set, status in_progress,
// assignment row inserted and engineer unavailable.
func (d *DB) StaffedProject(owner, engineer model.Actor) model.Project {
	d.t.Helper()
	p := d.Project(owner)
	ctx := context.Background()
	err := d.Store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := repository.NewProjectRepo(d.Store).AssignCivilEngineerTx(ctx, tx, p.ID, engineer.ID); err != nil {
			return err
		}
		a := model.Assignment{ProjectID: p.ID, WorkerID: engineer.ID, AssignedBy: owner.ID, Role: model.SubRoleCivilEngineer}
		if err := repository.NewAssignmentRepo(d.Store).CreateTx(ctx, tx, &a); err != nil {
			return err
		}
		return repository.NewUserRepo(d.Store).SetAvailabilityTx(ctx, tx, engineer.ID, false)
	})
	require.NoError(d.t, err)
	p, err = repository.NewProjectRepo(d.Store).GetByID(ctx, p.ID)
	require.NoError(d.t, err)
	return p
}

// Material adds a catalog entry.
func (d *DB) Material(name string, priceCents, stock int64) model.Material {
	d.t.Helper()
	m := model.Material{Name: name, Unit: "bag", UnitPriceCents: priceCents, StockQuantity: stock, Category: "general"}
	require.NoError(d.t, repository.NewMaterialRepo(d.Store).Create(context.Background(), &m))
	return m
}

// SetAvailable flips a user's availability outside any workflow.
func (d *DB) SetAvailable(id uint64, available bool) {
	d.t.Helper()
	_, err := d.SQL.Exec("UPDATE users SET is_available = ? WHERE id = ?", available, id)
	require.NoError(d.t, err)
}

// Stock reads a material's current stock.
func (d *DB) Stock(id uint64) int64 {
	d.t.Helper()
	m, err := repository.NewMaterialRepo(d.Store).GetByID(context.Background(), id)
	require.NoError(d.t, err)
	return m.StockQuantity
}

// Available reads a user's availability flag.
func (d *DB) Available(id uint64) bool {
	d.t.Helper()
	u, err := repository.NewUserRepo(d.Store).GetByID(context.Background(), id)
	require.NoError(d.t, err)
	return u.IsAvailable
}

// Count runs SELECT COUNT(*) FROM table WHERE where.
func (d *DB) Count(table, where string, args ...any) int {
	d.t.Helper()
	var n int
	require.NoError(d.t, d.SQL.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE "+where, args...).Scan(&n))
	return n
}
