// Package qc contains the pure quality-control rules for shipments: the
// status lifecycle, Level 1 and Level 2 submissions and drafts, and the
// derived figures shown on the dashboard.
//
// Every operation takes a shipment by value and returns a new one; nothing
// here touches storage.
package qc

import (
	"fmt"

	"qctracker/models"
)

// Action names the dashboard action available for a shipment.
type Action string

const (
	ActionLevel1 Action = "Level 1 QC"
	ActionLevel2 Action = "Level 2 QC"
	ActionView   Action = "View"
)

var statusOrder = map[models.QCStatus]int{
	models.StatusPending:        0,
	models.StatusLevel1Complete: 1,
	models.StatusLevel2Complete: 2,
	models.StatusCompleted:      3,
}

var statusLabels = map[models.QCStatus]string{
	models.StatusPending:        "Pending",
	models.StatusLevel1Complete: "Level 1 Complete",
	models.StatusLevel2Complete: "Level 2 Complete",
	models.StatusCompleted:      "Completed",
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s models.QCStatus) bool {
	_, ok := statusOrder[s]
	return ok
}

// StatusLabel returns the display label for a status.
func StatusLabel(s models.QCStatus) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// CanAdvance reports whether moving from one status to another keeps the
// lifecycle monotonic. Staying put is allowed.
func CanAdvance(from, to models.QCStatus) bool {
	f, okFrom := statusOrder[from]
	t, okTo := statusOrder[to]
	return okFrom && okTo && t >= f
}

// NextAction routes a shipment to the action the dashboard offers for it.
func NextAction(s models.Shipment) Action {
	switch s.Status {
	case models.StatusPending:
		return ActionLevel1
	case models.StatusLevel1Complete:
		return ActionLevel2
	default:
		return ActionView
	}
}

// TransitionError reports an operation refused because of the shipment's
// current status.
type TransitionError struct {
	ShipmentID string
	From       models.QCStatus
	Operation  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s shipment %s in status %s", e.Operation, e.ShipmentID, e.From)
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// CanRecordLevel1 evaluates whether Level 1 data may be submitted.
// Rules:
// - Status must be pending or level1_complete
func CanRecordLevel1(s models.Shipment) GuardResult {
	switch s.Status {
	case models.StatusPending, models.StatusLevel1Complete:
		return GuardResult{Allowed: true}
	}
	return GuardResult{Reason: fmt.Sprintf("level 1 inspection is closed (current status: %s)", s.Status)}
}

// CanRecordLevel2 evaluates whether Level 2 data may be submitted or drafted.
// Rules:
// - Level 1 must be complete, which implies Level 1 data exists
// - Status must be level1_complete or level2_complete
func CanRecordLevel2(s models.Shipment) GuardResult {
	if s.Level1Data == nil || !s.Level1Complete {
		return GuardResult{Reason: "level 1 inspection must be completed first"}
	}
	switch s.Status {
	case models.StatusLevel1Complete, models.StatusLevel2Complete:
		return GuardResult{Allowed: true}
	}
	return GuardResult{Reason: fmt.Sprintf("level 2 inspection is closed (current status: %s)", s.Status)}
}

// SubmitLevel1 validates data and completes Level 1. On a validation failure
// the shipment is returned unchanged along with the field errors.
func SubmitLevel1(s models.Shipment, data models.Level1QC) (models.Shipment, error) {
	if g := CanRecordLevel1(s); !g.Allowed {
		return s, &TransitionError{ShipmentID: s.ID, From: s.Status, Operation: "submit level 1 for"}
	}
	if verr := ValidateLevel1(data); verr != nil {
		return s, verr
	}
	out := s.Clone()
	out.Level1Data = &data
	out.Level1Complete = true
	out.Status = models.StatusLevel1Complete
	return out, nil
}

// CanDraftLevel1 evaluates whether a Level 1 draft may be saved.
// Rules:
// - Status must be pending; a completed Level 1 is only replaced by a validated submit
func CanDraftLevel1(s models.Shipment) GuardResult {
	if s.Status != models.StatusPending {
		return GuardResult{Reason: fmt.Sprintf("level 1 drafts are closed (current status: %s)", s.Status)}
	}
	return GuardResult{Allowed: true}
}

// SaveLevel1Draft stores Level 1 data without validating it or changing status.
func SaveLevel1Draft(s models.Shipment, data models.Level1QC) (models.Shipment, error) {
	if g := CanDraftLevel1(s); !g.Allowed {
		return s, &TransitionError{ShipmentID: s.ID, From: s.Status, Operation: "save level 1 draft for"}
	}
	out := s.Clone()
	out.Level1Data = &data
	return out, nil
}

// SubmitLevel2 validates data and completes Level 2.
func SubmitLevel2(s models.Shipment, data models.Level2QC) (models.Shipment, error) {
	if g := CanRecordLevel2(s); !g.Allowed {
		return s, &TransitionError{ShipmentID: s.ID, From: s.Status, Operation: "submit level 2 for"}
	}
	if verr := ValidateLevel2(data); verr != nil {
		return s, verr
	}
	out := s.Clone()
	data = data.Clone()
	out.Level2Data = &data
	out.Level2Complete = true
	out.Status = models.StatusLevel2Complete
	return out, nil
}

// SaveLevel2Draft stores Level 2 data without validating it or changing status.
func SaveLevel2Draft(s models.Shipment, data models.Level2QC) (models.Shipment, error) {
	if g := CanRecordLevel2(s); !g.Allowed {
		return s, &TransitionError{ShipmentID: s.ID, From: s.Status, Operation: "save level 2 draft for"}
	}
	out := s.Clone()
	data = data.Clone()
	out.Level2Data = &data
	return out, nil
}

// CheckInvariants reports the first structural inconsistency in a shipment.
func CheckInvariants(s models.Shipment) error {
	if !ValidStatus(s.Status) {
		return fmt.Errorf("shipment %s: unknown status %q", s.ID, s.Status)
	}
	if s.Level1Complete != (s.Status != models.StatusPending) {
		return fmt.Errorf("shipment %s: level1Complete=%v disagrees with status %s", s.ID, s.Level1Complete, s.Status)
	}
	wantL2 := s.Status == models.StatusLevel2Complete || s.Status == models.StatusCompleted
	if s.Level2Complete != wantL2 {
		return fmt.Errorf("shipment %s: level2Complete=%v disagrees with status %s", s.ID, s.Level2Complete, s.Status)
	}
	if s.Level2Data != nil && s.Level1Data == nil {
		return fmt.Errorf("shipment %s: level 2 data without level 1 data", s.ID)
	}
	return nil
}
