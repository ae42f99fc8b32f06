package shipments

import (
	"encoding/json"
	"time"

	"qctracker/core/qc"
	"qctracker/models"
)

// ShipmentView is a shipment with the values the dashboard derives from it.
type ShipmentView struct {
	models.Shipment
	StatusLabel string         `json:"statusLabel"`
	Action      qc.Action      `json:"action"`
	PassRate    string         `json:"passRate,omitempty"`
	FailRate    string         `json:"failRate,omitempty"`
	Band        qc.QualityBand `json:"qualityBand,omitempty"`
}

type ListResponse struct {
	Shipments []ShipmentView `json:"shipments"`
	Stats     qc.Stats       `json:"stats"`
}

type SessionResponse struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

// HistoryEntry is one recorded change; Before is absent for an add.
type HistoryEntry struct {
	EventID string          `json:"eventId"`
	Action  string          `json:"action"`
	At      time.Time       `json:"at"`
	Before  json.RawMessage `json:"before,omitempty"`
	After   json.RawMessage `json:"after,omitempty"`
}

type HistoryResponse struct {
	ShipmentID string         `json:"shipmentId"`
	Entries    []HistoryEntry `json:"entries"`
}

func newHistoryResponse(id string, logs []models.AuditLog) HistoryResponse {
	out := HistoryResponse{ShipmentID: id, Entries: make([]HistoryEntry, 0, len(logs))}
	for _, l := range logs {
		out.Entries = append(out.Entries, HistoryEntry{
			EventID: l.EventID,
			Action:  l.Action,
			At:      l.CreatedAt,
			Before:  rawJSON(l.BeforeJSON),
			After:   rawJSON(l.AfterJSON),
		})
	}
	return out
}

func rawJSON(s string) json.RawMessage {
	if s == "" || !json.Valid([]byte(s)) {
		return nil
	}
	return json.RawMessage(s)
}

type DashboardData struct {
	Stats     qc.Stats
	Shipments []ShipmentView
	Message   string
}

func newShipmentView(s models.Shipment) ShipmentView {
	v := ShipmentView{
		Shipment:    s,
		StatusLabel: qc.StatusLabel(s.Status),
		Action:      qc.NextAction(s),
	}
	if s.Level2Data != nil {
		rates := qc.ComputeRates(*s.Level2Data)
		v.PassRate = rates.PassRateText()
		v.FailRate = rates.FailRateText()
		v.Band = qc.Band(*s.Level2Data)
	}
	return v
}

func newShipmentViews(list []models.Shipment) []ShipmentView {
	out := make([]ShipmentView, 0, len(list))
	for _, s := range list {
		out = append(out, newShipmentView(s))
	}
	return out
}
