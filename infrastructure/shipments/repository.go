// Package shipments persists the shipment collection through the store
// adapter. The whole collection lives under one key; callers only see
// per-record operations so the layout can change without touching them.
package shipments

import (
	"context"
	"fmt"

	"qctracker/infrastructure/store"
	"qctracker/models"
)

// CollectionKey is the store key holding every shipment.
const CollectionKey = "shipments"

// Repository implements CRUD over the shipment collection.
type Repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

// ListAll returns every stored shipment in stored order. Absent or corrupt
// data reads as an empty collection; only backend failures are returned.
func (r *Repository) ListAll(ctx context.Context) ([]models.Shipment, error) {
	list, ok, err := store.Get[[]models.Shipment](ctx, r.store, CollectionKey)
	if err != nil {
		return []models.Shipment{}, err
	}
	if !ok || list == nil {
		return []models.Shipment{}, nil
	}
	return list, nil
}

// Get returns the shipment with id, if stored.
func (r *Repository) Get(ctx context.Context, id string) (models.Shipment, bool, error) {
	list, err := r.ListAll(ctx)
	if err != nil {
		return models.Shipment{}, false, err
	}
	for _, s := range list {
		if s.ID == id {
			return s, true, nil
		}
	}
	return models.Shipment{}, false, nil
}

// Revision identifies the stored collection as last written by anyone.
func (r *Repository) Revision(ctx context.Context) (string, error) {
	return r.store.Revision(ctx, CollectionKey)
}

// Upsert replaces the stored record with the same id, or appends a new one.
// Replacement is whole-record; nothing is merged.
func (r *Repository) Upsert(ctx context.Context, shipment models.Shipment) error {
	if shipment.ID == "" {
		return fmt.Errorf("upsert shipment: id is required")
	}
	list, err := r.ListAll(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == shipment.ID {
			if !replaced {
				list[i] = shipment
				replaced = true
				continue
			}
			// Drop any duplicate left by an older writer.
			list[i].ID = ""
		}
	}
	if !replaced {
		list = append(list, shipment)
	}
	return r.store.Set(ctx, CollectionKey, compact(list))
}

// Remove deletes the shipment with id. Removing an unknown id is a no-op.
func (r *Repository) Remove(ctx context.Context, id string) error {
	list, err := r.ListAll(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.Shipment, 0, len(list))
	for _, s := range list {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	return r.store.Set(ctx, CollectionKey, kept)
}

func compact(list []models.Shipment) []models.Shipment {
	out := list[:0]
	for _, s := range list {
		if s.ID != "" {
			out = append(out, s)
		}
	}
	return out
}
