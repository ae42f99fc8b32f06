package qc

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"qctracker/models"
)

const (
	msgRequired      = "Required"
	msgInvalid       = "Invalid"
	msgSelectDefect  = "Select at least one defect"
	msgAlreadyExists = "Already exists"

	// DateLayout is the calendar date format used for every stored date.
	DateLayout = "2006-01-02"

	// NoDamages is the damages value meaning nothing was damaged.
	NoDamages = "None"
)

var (
	ConditionOptions  = []string{"Good", "Damaged", "Average", "Poor"}
	PackagingOptions  = []string{"Intact", "Torn", "Wet", "Other"}
	SampleSizeOptions = []int{5, 10, 20, 100}
	DefectTypeOptions = []string{"Broken", "Scratched", "Missing Parts", "Wrong Item", "Other"}
)

// ValidationError maps a field name to the message shown next to it.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, v[field]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// orNil drops an empty error map so callers can compare against nil.
func (v ValidationError) orNil() ValidationError {
	if len(v) == 0 {
		return nil
	}
	return v
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validDate(s string) bool {
	_, err := time.Parse(DateLayout, strings.TrimSpace(s))
	return err == nil
}

// ValidateLevel1 checks that every field but notes is present and in range.
func ValidateLevel1(d models.Level1QC) ValidationError {
	errs := ValidationError{}
	switch {
	case blank(d.ReceivedDate):
		errs["receivedDate"] = msgRequired
	case !validDate(d.ReceivedDate):
		errs["receivedDate"] = msgInvalid
	}
	if blank(d.ReceivedBy) {
		errs["receivedBy"] = msgRequired
	}
	switch {
	case blank(d.OverallCondition):
		errs["overallCondition"] = msgRequired
	case !slices.Contains(ConditionOptions, d.OverallCondition):
		errs["overallCondition"] = msgInvalid
	}
	switch {
	case blank(d.PackagingIntegrity):
		errs["packagingIntegrity"] = msgRequired
	case !slices.Contains(PackagingOptions, d.PackagingIntegrity):
		errs["packagingIntegrity"] = msgInvalid
	}
	if d.QuantityReceived <= 0 {
		errs["quantityReceived"] = msgRequired
	}
	if blank(d.Damages) {
		errs["damages"] = msgRequired
	}
	if blank(d.Documentation) {
		errs["documentation"] = msgRequired
	}
	return errs.orNil()
}

// ValidateLevel2 checks sample counts and the defect rule. The passed and
// failed counts are not required to add up to itemsChecked.
func ValidateLevel2(d models.Level2QC) ValidationError {
	errs := ValidationError{}
	switch {
	case d.SampleSize <= 0:
		errs["sampleSize"] = msgRequired
	case !slices.Contains(SampleSizeOptions, d.SampleSize):
		errs["sampleSize"] = msgInvalid
	}
	if d.TotalItems <= 0 {
		errs["totalItems"] = msgRequired
	}
	switch {
	case d.ItemsChecked <= 0:
		errs["itemsChecked"] = msgRequired
	case d.TotalItems > 0 && d.ItemsChecked > d.TotalItems:
		errs["itemsChecked"] = msgInvalid
	}
	if d.PassedItems < 0 || d.PassedItems > d.ItemsChecked {
		errs["passedItems"] = msgInvalid
	}
	if d.FailedItems < 0 || d.FailedItems > d.ItemsChecked {
		errs["failedItems"] = msgInvalid
	}
	if d.FailedItems > 0 && len(d.DefectTypes) == 0 {
		errs["defectTypes"] = msgSelectDefect
	} else {
		for _, defect := range d.DefectTypes {
			if !slices.Contains(DefectTypeOptions, defect) {
				errs["defectTypes"] = msgInvalid
				break
			}
		}
	}
	return errs.orNil()
}

// NewShipmentInput is the manual entry form for a new shipment. Items is a
// comma separated list.
type NewShipmentInput struct {
	ID           string `json:"id"`
	Supplier     string `json:"supplier"`
	Items        string `json:"items"`
	ExpectedDate string `json:"expectedDate"`
}

// NewShipment validates the entry form and builds a pending shipment.
func NewShipment(in NewShipmentInput) (models.Shipment, ValidationError) {
	errs := ValidationError{}
	id := strings.TrimSpace(in.ID)
	supplier := strings.TrimSpace(in.Supplier)
	items := SplitItems(in.Items)

	if id == "" {
		errs["id"] = msgRequired
	}
	if supplier == "" {
		errs["supplier"] = msgRequired
	}
	if len(items) == 0 {
		errs["items"] = msgRequired
	}
	switch {
	case blank(in.ExpectedDate):
		errs["expectedDate"] = msgRequired
	case !validDate(in.ExpectedDate):
		errs["expectedDate"] = msgInvalid
	}
	if verr := errs.orNil(); verr != nil {
		return models.Shipment{}, verr
	}

	return models.Shipment{
		ID:           id,
		Supplier:     supplier,
		Items:        items,
		ExpectedDate: strings.TrimSpace(in.ExpectedDate),
		Status:       models.StatusPending,
	}, nil
}

// DuplicateID is the error returned when a new shipment reuses an id.
func DuplicateID() ValidationError {
	return ValidationError{"id": msgAlreadyExists}
}

// SplitItems splits a comma separated item list, trimming entries and
// dropping empty ones.
func SplitItems(raw string) []string {
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}
