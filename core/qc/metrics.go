package qc

import (
	"fmt"
	"math"
	"strings"

	"qctracker/models"
)

// rateEpsilon absorbs float error when comparing rounded percentages.
const rateEpsilon = 1e-9

// Rates are the pass and fail percentages of a Level 2 sample.
type Rates struct {
	Pass float64
	Fail float64
}

// PassRateText formats the pass rate with one decimal place.
func (r Rates) PassRateText() string { return fmt.Sprintf("%.1f", r.Pass) }

// FailRateText formats the fail rate with one decimal place.
func (r Rates) FailRateText() string { return fmt.Sprintf("%.1f", r.Fail) }

// ComputeRates derives rates from a Level 2 record, rounded to one decimal
// place and kept within [0, 100]. Both are zero when nothing was checked.
// When passed+failed fits in the sample the rounded rates never sum past 100.
func ComputeRates(d models.Level2QC) Rates {
	if d.ItemsChecked <= 0 {
		return Rates{}
	}
	r := Rates{
		Pass: percent(d.PassedItems, d.ItemsChecked),
		Fail: percent(d.FailedItems, d.ItemsChecked),
	}
	if d.PassedItems+d.FailedItems <= d.ItemsChecked && r.Pass+r.Fail > 100+rateEpsilon {
		r.Fail = round1(100 - r.Pass)
	}
	return r
}

func percent(n, of int) float64 {
	return min(max(round1(float64(n)/float64(of)*100), 0), 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// QualityBand classifies a sample by pass rate.
type QualityBand string

const (
	BandNone QualityBand = "none"
	BandGood QualityBand = "good"
	BandFair QualityBand = "fair"
	BandPoor QualityBand = "poor"
)

// Band returns the quality band for a Level 2 record.
func Band(d models.Level2QC) QualityBand {
	if d.ItemsChecked <= 0 {
		return BandNone
	}
	pass := ComputeRates(d).Pass
	switch {
	case pass >= 95:
		return BandGood
	case pass >= 80:
		return BandFair
	default:
		return BandPoor
	}
}

// Stats are the dashboard counters.
type Stats struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Completed   int `json:"completed"`
	IssuesFound int `json:"issuesFound"`
}

// HasIssues reports whether either inspection found a problem.
func HasIssues(s models.Shipment) bool {
	if s.Level2Data != nil && s.Level2Data.FailedItems > 0 {
		return true
	}
	if s.Level1Data != nil {
		damages := strings.TrimSpace(s.Level1Data.Damages)
		return damages != "" && damages != NoDamages
	}
	return false
}

// Summarize computes dashboard counters for a collection.
func Summarize(shipments []models.Shipment) Stats {
	stats := Stats{Total: len(shipments)}
	for _, s := range shipments {
		switch s.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusCompleted:
			stats.Completed++
		}
		if HasIssues(s) {
			stats.IssuesFound++
		}
	}
	return stats
}
