package qcstate

import (
	"qctracker/core/qc"
	"qctracker/models"
)

// DemoShipments returns the fixture collection used to seed an empty store.
func DemoShipments() []models.Shipment {
	return []models.Shipment{
		{
			ID:           "SHP001",
			Supplier:     "Acme Corp",
			Items:        []string{"Widget A", "Widget B"},
			ExpectedDate: "2026-10-20",
			Status:       models.StatusPending,
		},
		{
			ID:           "SHP002",
			Supplier:     "Beta Supplies",
			Items:        []string{"Gadget X"},
			ExpectedDate: "2026-10-22",
			Status:       models.StatusPending,
		},
		{
			ID:             "SHP003",
			Supplier:       "Gamma Goods",
			Items:          []string{"Component Y", "Component Z"},
			ExpectedDate:   "2026-10-18",
			Status:         models.StatusLevel1Complete,
			Level1Complete: true,
			Level1Data: &models.Level1QC{
				ReceivedDate:       "2026-10-18",
				ReceivedBy:         "J. Smith",
				OverallCondition:   "Good",
				PackagingIntegrity: "Intact",
				QuantityReceived:   120,
				Damages:            qc.NoDamages,
				Documentation:      "Complete",
			},
		},
		{
			ID:             "SHP004",
			Supplier:       "Delta Distributors",
			Items:          []string{"Part 7", "Part 9"},
			ExpectedDate:   "2026-10-12",
			Status:         models.StatusLevel2Complete,
			Level1Complete: true,
			Level2Complete: true,
			Level1Data: &models.Level1QC{
				ReceivedDate:       "2026-10-12",
				ReceivedBy:         "A. Lee",
				OverallCondition:   "Average",
				PackagingIntegrity: "Torn",
				QuantityReceived:   300,
				Damages:            "Two outer cartons crushed",
				Documentation:      "Complete",
				Notes:              "Photos attached to delivery note",
			},
			Level2Data: &models.Level2QC{
				SampleSize:   20,
				ItemsChecked: 20,
				TotalItems:   300,
				PassedItems:  18,
				FailedItems:  2,
				DefectTypes:  []string{"Scratched"},
				QualityNotes: "Cosmetic only",
			},
		},
	}
}
