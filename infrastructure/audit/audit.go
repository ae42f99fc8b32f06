package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"qctracker/infrastructure/sqlite"
	"qctracker/models"
)

// EntityShipment is the entity type recorded for shipment changes.
const EntityShipment = "shipment"

// Service writes audit records of QC operations.
type Service struct {
	db *sqlite.DB
}

func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// Record stores one shipment change in its own write transaction.
func (s *Service) Record(ctx context.Context, action, shipmentID string, before, after any) error {
	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return s.Write(ctx, tx, action, EntityShipment, shipmentID, before, after)
	})
}

// Write stores an audit record inside the caller transaction.
func (s *Service) Write(ctx context.Context, tx bun.Tx, action, entityType, entityID string, before, after any) error {
	beforeJSON, err := marshal(before)
	if err != nil {
		return fmt.Errorf("marshal before: %w", err)
	}
	afterJSON, err := marshal(after)
	if err != nil {
		return fmt.Errorf("marshal after: %w", err)
	}
	entry := &models.AuditLog{
		EventID:    uuid.NewString(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = tx.NewInsert().Model(entry).Exec(ctx)
	return err
}

// History returns the audit trail of one shipment, oldest first.
func (s *Service) History(ctx context.Context, shipmentID string) ([]models.AuditLog, error) {
	entries := make([]models.AuditLog, 0)
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&entries).
			Where("entity_type = ?", EntityShipment).
			Where("entity_id = ?", shipmentID).
			OrderExpr("id ASC").
			Scan(ctx)
	})
	return entries, err
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
