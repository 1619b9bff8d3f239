package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/getpup/pupbase/core"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRegistry(t *testing.T) *core.Registry {
	t.Helper()
	reg := core.NewRegistry()
	if err := reg.Register(core.Model{Name: "widgets"}); err != nil {
		t.Fatalf("failed to register model: %v", err)
	}
	return reg
}

func TestTables_EnsureSchemaAndBind(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	reg := newTestRegistry(t)
	tables := NewTables(reg, "")

	if got := tables.TableName("widgets"); got != "model_widgets" {
		t.Fatalf("TableName = %q, want model_widgets", got)
	}

	if err := tables.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	bound := tables.Bind(db)
	if _, ok := bound.View("missing"); ok {
		t.Error("View(missing) ok = true, want false")
	}
	if _, ok := bound.RWView("missing"); ok {
		t.Error("RWView(missing) ok = true, want false")
	}

	view, ok := bound.View("widgets")
	if !ok {
		t.Fatal("View(widgets) ok = false, want true")
	}
	row, err := view.Get(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if row != nil {
		t.Errorf("Get(nonexistent) = %#v, want nil", row)
	}
}

func TestSQLiteRWView_SetGetAndUpd(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	reg := newTestRegistry(t)
	tables := NewTables(reg, "")
	if err := tables.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	bound := tables.Bind(db)

	rw, ok := bound.RWView("widgets")
	if !ok {
		t.Fatal("RWView(widgets) ok = false")
	}

	if err := rw.Set(ctx, []core.Row{{ID: "w1", Columns: map[string]any{"name": "sprocket", "qty": float64(3)}}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := rw.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.Columns["name"] != "sprocket" {
		t.Fatalf("Get(w1) = %#v, want name=sprocket", got)
	}

	if err := rw.Upd(ctx, []core.PartialUpdate{{ID: "w1", Set: map[string]any{"qty": float64(9)}}}); err != nil {
		t.Fatalf("Upd failed: %v", err)
	}
	got, err = rw.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Columns["qty"] != float64(9) {
		t.Errorf("qty after Upd = %v, want 9", got.Columns["qty"])
	}
	if got.Columns["name"] != "sprocket" {
		t.Errorf("name after Upd = %v, want sprocket (untouched)", got.Columns["name"])
	}
}

func TestSQLiteRWView_UpdNonexistentFails(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	reg := newTestRegistry(t)
	tables := NewTables(reg, "")
	if err := tables.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	rw, _ := tables.Bind(db).RWView("widgets")

	err := rw.Upd(ctx, []core.PartialUpdate{{ID: "ghost", Set: map[string]any{"qty": float64(1)}}})
	if err == nil {
		t.Error("Upd on nonexistent row: expected error, got nil")
	}
}

func TestSQLiteRWView_InsAndRm(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	reg := newTestRegistry(t)
	tables := NewTables(reg, "")
	if err := tables.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	rw, _ := tables.Bind(db).RWView("widgets")

	if err := rw.Ins(ctx, []core.Row{{ID: "w2", Columns: map[string]any{"name": "gizmo"}}}); err != nil {
		t.Fatalf("Ins failed: %v", err)
	}
	if err := rw.Ins(ctx, []core.Row{{Columns: map[string]any{"name": "anon"}}}); err != nil {
		t.Fatalf("Ins with generated id failed: %v", err)
	}

	if err := rw.Rm(ctx, []string{"w2"}); err != nil {
		t.Fatalf("Rm failed: %v", err)
	}
	got, err := rw.Get(ctx, "w2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Get(w2) after Rm = %#v, want nil", got)
	}

	// Removing an already-absent id is a no-op, not an error.
	if err := rw.Rm(ctx, []string{"w2"}); err != nil {
		t.Errorf("Rm on already-absent id failed: %v", err)
	}
}

func TestSQLiteRWView_InsAppliesColumnDefaults(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	reg := core.NewRegistry()
	if err := reg.Register(core.Model{
		Name: "widgets",
		Columns: []core.ColumnDef{
			{Name: "qty", Default: float64(1)},
			{Name: "name"},
		},
	}); err != nil {
		t.Fatalf("failed to register model: %v", err)
	}
	tables := NewTables(reg, "")
	if err := tables.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	rw, ok := tables.Bind(db).RWView("widgets")
	if !ok {
		t.Fatal("RWView(widgets) ok = false")
	}

	if err := rw.Ins(ctx, []core.Row{{ID: "w1", Columns: map[string]any{"name": "sprocket"}}}); err != nil {
		t.Fatalf("Ins failed: %v", err)
	}
	if err := rw.Ins(ctx, []core.Row{{ID: "w2", Columns: map[string]any{"name": "gizmo", "qty": float64(5)}}}); err != nil {
		t.Fatalf("Ins failed: %v", err)
	}

	got, err := rw.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Columns["qty"] != float64(1) {
		t.Errorf("w1 qty = %v, want default 1", got.Columns["qty"])
	}

	got, err = rw.Get(ctx, "w2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Columns["qty"] != float64(5) {
		t.Errorf("w2 qty = %v, want caller-supplied 5, not default", got.Columns["qty"])
	}
}

func TestSQLiteView_SearchOne(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	reg := newTestRegistry(t)
	tables := NewTables(reg, "")
	if err := tables.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	rw, _ := tables.Bind(db).RWView("widgets")

	rows := []core.Row{
		{ID: "w1", Columns: map[string]any{"name": "sprocket", "active": true}},
		{ID: "w2", Columns: map[string]any{"name": "gizmo", "active": false}},
	}
	if err := rw.Set(ctx, rows); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := rw.SearchOne(ctx, "name==gizmo")
	if err != nil {
		t.Fatalf("SearchOne failed: %v", err)
	}
	if got == nil || got.ID != "w2" {
		t.Fatalf("SearchOne(name==gizmo) = %#v, want w2", got)
	}

	got, err = rw.SearchOne(ctx, "active")
	if err != nil {
		t.Fatalf("SearchOne failed: %v", err)
	}
	if got == nil || got.ID != "w1" {
		t.Fatalf("SearchOne(active) = %#v, want w1", got)
	}

	got, err = rw.SearchOne(ctx, "name==nonexistent")
	if err != nil {
		t.Fatalf("SearchOne failed: %v", err)
	}
	if got != nil {
		t.Errorf("SearchOne(name==nonexistent) = %#v, want nil", got)
	}
}
