package models

import (
	"time"

	"github.com/uptrace/bun"
)

// QCStatus is the lifecycle position of a shipment in quality control.
type QCStatus string

const (
	StatusPending        QCStatus = "pending"
	StatusLevel1Complete QCStatus = "level1_complete"
	StatusLevel2Complete QCStatus = "level2_complete"
	StatusCompleted      QCStatus = "completed"
)

// Shipment is a tracked incoming delivery. It is stored as JSON under the
// "shipments" key, so the json tags are the storage format.
type Shipment struct {
	ID             string    `json:"id"`
	Supplier       string    `json:"supplier"`
	Items          []string  `json:"items"`
	ExpectedDate   string    `json:"expectedDate"`
	Status         QCStatus  `json:"status"`
	Level1Complete bool      `json:"level1Complete"`
	Level2Complete bool      `json:"level2Complete"`
	Level1Data     *Level1QC `json:"level1Data,omitempty"`
	Level2Data     *Level2QC `json:"level2Data,omitempty"`
}

// Clone returns a deep copy so callers can't mutate shared state.
func (s Shipment) Clone() Shipment {
	out := s
	out.Items = cloneStrings(s.Items)
	if s.Level1Data != nil {
		l1 := *s.Level1Data
		out.Level1Data = &l1
	}
	if s.Level2Data != nil {
		l2 := s.Level2Data.Clone()
		out.Level2Data = &l2
	}
	return out
}

// cloneStrings copies a list; an empty or nil list comes back as [] so it
// encodes as an array, never null.
func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Level1QC is the initial receipt inspection.
type Level1QC struct {
	ReceivedDate       string `json:"receivedDate"`
	ReceivedBy         string `json:"receivedBy"`
	OverallCondition   string `json:"overallCondition"`
	PackagingIntegrity string `json:"packagingIntegrity"`
	QuantityReceived   int    `json:"quantityReceived"`
	Damages            string `json:"damages"`
	Documentation      string `json:"documentation"`
	Notes              string `json:"notes,omitempty"`
}

// Level2QC is the detailed sample inspection.
type Level2QC struct {
	SampleSize   int      `json:"sampleSize"`
	ItemsChecked int      `json:"itemsChecked"`
	TotalItems   int      `json:"totalItems"`
	PassedItems  int      `json:"passedItems"`
	FailedItems  int      `json:"failedItems"`
	DefectTypes  []string `json:"defectTypes"`
	QualityNotes string   `json:"qualityNotes,omitempty"`
}

// Clone copies the record with its own defect list.
func (l Level2QC) Clone() Level2QC {
	l.DefectTypes = cloneStrings(l.DefectTypes)
	return l
}

// KVEntry is one raw key/value pair of the persistent store.
type KVEntry struct {
	bun.BaseModel `bun:"table:kv_entries,alias:kv"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// AuditLog captures immutable change history for QC operations.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	EventID    string    `bun:"event_id,notnull,unique"`
	Action     string    `bun:"action,notnull"`
	EntityType string    `bun:"entity_type,notnull"`
	EntityID   string    `bun:"entity_id,notnull"`
	BeforeJSON string    `bun:"before_json"`
	AfterJSON  string    `bun:"after_json"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
