package qc

import (
	"testing"

	"qctracker/models"
)

func TestComputeRatesZeroChecked(t *testing.T) {
	r := ComputeRates(models.Level2QC{PassedItems: 3})
	if r.Pass != 0 || r.Fail != 0 {
		t.Fatalf("expected zero rates, got %+v", r)
	}
	if r.PassRateText() != "0.0" {
		t.Fatalf("expected 0.0, got %s", r.PassRateText())
	}
}

func TestComputeRatesBounds(t *testing.T) {
	for checked := 1; checked <= 120; checked++ {
		for passed := 0; passed <= checked; passed++ {
			for _, failed := range []int{0, checked - passed} {
				r := ComputeRates(models.Level2QC{ItemsChecked: checked, PassedItems: passed, FailedItems: failed})
				if r.Pass < 0 || r.Pass > 100 || r.Fail < 0 || r.Fail > 100 {
					t.Fatalf("rates out of range for %d/%d/%d: %+v", checked, passed, failed, r)
				}
				if r.Pass+r.Fail > 100+rateEpsilon {
					t.Fatalf("rates sum past 100 for %d/%d/%d: %+v", checked, passed, failed, r)
				}
			}
		}
	}
}

func TestComputeRatesRoundingCarry(t *testing.T) {
	r := ComputeRates(models.Level2QC{ItemsChecked: 16, PassedItems: 1, FailedItems: 15})
	if r.PassRateText() != "6.3" || r.FailRateText() != "93.7" {
		t.Fatalf("expected 6.3/93.7, got %s/%s", r.PassRateText(), r.FailRateText())
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		passed, checked int
		want            QualityBand
	}{
		{0, 0, BandNone},
		{19, 20, BandGood},
		{16, 20, BandFair},
		{15, 20, BandPoor},
	}
	for _, tt := range tests {
		got := Band(models.Level2QC{ItemsChecked: tt.checked, PassedItems: tt.passed})
		if got != tt.want {
			t.Errorf("Band(%d/%d) = %s, want %s", tt.passed, tt.checked, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	shipments := []models.Shipment{
		{ID: "A", Status: models.StatusPending},
		{ID: "B", Status: models.StatusLevel1Complete, Level1Data: &models.Level1QC{Damages: "Box torn"}},
		{ID: "C", Status: models.StatusLevel1Complete, Level1Data: &models.Level1QC{Damages: NoDamages}},
		{ID: "D", Status: models.StatusCompleted, Level1Data: &models.Level1QC{Damages: NoDamages}, Level2Data: &models.Level2QC{FailedItems: 1}},
	}
	got := Summarize(shipments)
	want := Stats{Total: 4, Pending: 1, Completed: 1, IssuesFound: 2}
	if got != want {
		t.Fatalf("Summarize = %+v, want %+v", got, want)
	}
}

func TestNewShipment(t *testing.T) {
	s, verr := NewShipment(NewShipmentInput{
		ID:           " SHP009 ",
		Supplier:     "Epsilon Traders",
		Items:        "Bolts, Nuts ,, Washers",
		ExpectedDate: "2026-11-01",
	})
	if verr != nil {
		t.Fatalf("unexpected errors: %v", verr)
	}
	if s.ID != "SHP009" || s.Status != models.StatusPending || s.Level1Complete || s.Level2Complete {
		t.Fatalf("unexpected shipment: %+v", s)
	}
	if len(s.Items) != 3 || s.Items[0] != "Bolts" || s.Items[1] != "Nuts" || s.Items[2] != "Washers" {
		t.Fatalf("unexpected items: %q", s.Items)
	}
}

func TestNewShipmentRequiresAllFields(t *testing.T) {
	_, verr := NewShipment(NewShipmentInput{Items: " , ", ExpectedDate: "tomorrow"})
	for field, msg := range map[string]string{
		"id":           "Required",
		"supplier":     "Required",
		"items":        "Required",
		"expectedDate": "Invalid",
	} {
		if verr[field] != msg {
			t.Errorf("errors[%s] = %q, want %q", field, verr[field], msg)
		}
	}
}
