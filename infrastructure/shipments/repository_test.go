package shipments

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"qctracker/infrastructure/sqlite"
	"qctracker/infrastructure/store"
	"qctracker/models"
)

func newMemoryRepo(t *testing.T) (*Repository, *store.MemoryBackend) {
	t.Helper()
	mem := store.NewMemoryBackend()
	return NewRepository(store.New(mem)), mem
}

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "shipments-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func shipment(id, supplier string) models.Shipment {
	return models.Shipment{
		ID:           id,
		Supplier:     supplier,
		Items:        []string{"Widget"},
		ExpectedDate: "2026-10-20",
		Status:       models.StatusPending,
	}
}

func TestListAllEmptyWhenAbsent(t *testing.T) {
	repo, _ := newMemoryRepo(t)
	list, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", list)
	}
}

func TestListAllEmptyWhenCorrupt(t *testing.T) {
	ctx := context.Background()
	repo, mem := newMemoryRepo(t)
	_ = mem.SetRaw(ctx, CollectionKey, `{"id": "not a list"`)

	list, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("corrupt collection should not error, got %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty collection, got %d", len(list))
	}
}

func TestUpsertInsertsThenReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	repo, _ := newMemoryRepo(t)

	for _, s := range []models.Shipment{shipment("SHP001", "Acme"), shipment("SHP002", "Beta")} {
		if err := repo.Upsert(ctx, s); err != nil {
			t.Fatalf("upsert %s: %v", s.ID, err)
		}
	}
	updated := shipment("SHP001", "Acme Corp")
	updated.Items = []string{"Gizmo"}
	if err := repo.Upsert(ctx, updated); err != nil {
		t.Fatalf("replace: %v", err)
	}

	list, _ := repo.ListAll(ctx)
	if len(list) != 2 {
		t.Fatalf("expected 2 shipments, got %d", len(list))
	}
	if list[0].ID != "SHP001" || list[0].Supplier != "Acme Corp" || list[0].Items[0] != "Gizmo" {
		t.Fatalf("expected SHP001 replaced in place, got %+v", list[0])
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, mem := newMemoryRepo(t)
	s := shipment("SHP001", "Acme")

	if err := repo.Upsert(ctx, s); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	once, _, _ := mem.GetRaw(ctx, CollectionKey)
	if err := repo.Upsert(ctx, s); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	twice, _, _ := mem.GetRaw(ctx, CollectionKey)
	if once != twice {
		t.Fatalf("upsert not idempotent:\n once=%s\ntwice=%s", once, twice)
	}
}

func TestUpsertCollapsesDuplicates(t *testing.T) {
	ctx := context.Background()
	repo, mem := newMemoryRepo(t)
	_ = mem.SetRaw(ctx, CollectionKey, `[{"id":"SHP001","supplier":"old"},{"id":"SHP002"},{"id":"SHP001","supplier":"older"}]`)

	if err := repo.Upsert(ctx, shipment("SHP001", "new")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	list, _ := repo.ListAll(ctx)
	if len(list) != 2 || list[0].Supplier != "new" || list[1].ID != "SHP002" {
		t.Fatalf("expected duplicates collapsed, got %+v", list)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	repo, _ := newMemoryRepo(t)
	_ = repo.Upsert(ctx, shipment("SHP001", "Acme"))
	_ = repo.Upsert(ctx, shipment("SHP002", "Beta"))

	if err := repo.Remove(ctx, "SHP404"); err != nil {
		t.Fatalf("remove unknown: %v", err)
	}
	if err := repo.Remove(ctx, "SHP001"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "SHP001"); ok {
		t.Fatalf("expected SHP001 removed")
	}
	if _, ok, _ := repo.Get(ctx, "SHP002"); !ok {
		t.Fatalf("expected SHP002 kept")
	}
}

func TestRepositoryOverSQLite(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.New(sqlite.NewKVBackend(openTestDB(t))))

	s := shipment("SHP001", "Acme")
	s.Level1Data = &models.Level1QC{ReceivedBy: "Dana", QuantityReceived: 3}
	if err := repo.Upsert(ctx, s); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, ok, err := repo.Get(ctx, "SHP001")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Level1Data == nil || got.Level1Data.ReceivedBy != "Dana" {
		t.Fatalf("level 1 draft lost in round trip: %+v", got)
	}
}
