package reports

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strconv"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"

	"qctracker/core/qc"
	"qctracker/models"
)

const labelWidth = 55.0

func renderInspectionReportPDF(s models.Shipment, printedAt time.Time) ([]byte, error) {
	if strings.TrimSpace(s.ID) == "" {
		return nil, fmt.Errorf("shipment id is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("QC Inspection Report "+s.ID, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, "QC Inspection Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Printed: "+printedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if barcodePNG, err := renderCode128PNG(s.ID, 900, 180); err == nil {
		opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		imageName := "shipment-barcode-" + s.ID
		pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(barcodePNG))
		pdf.ImageOptions(imageName, pdf.GetX(), pdf.GetY(), 90, 18, true, opt, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, s.ID, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	section(pdf, "Shipment")
	row(pdf, "Supplier", s.Supplier)
	row(pdf, "Items", strings.Join(s.Items, ", "))
	row(pdf, "Expected Date", s.ExpectedDate)
	row(pdf, "Status", qc.StatusLabel(s.Status))

	section(pdf, "Level 1 QC")
	if d := s.Level1Data; d != nil {
		row(pdf, "Received Date", d.ReceivedDate)
		row(pdf, "Received By", d.ReceivedBy)
		row(pdf, "Overall Condition", d.OverallCondition)
		row(pdf, "Packaging Integrity", d.PackagingIntegrity)
		row(pdf, "Quantity Received", strconv.Itoa(d.QuantityReceived))
		row(pdf, "Damages", d.Damages)
		row(pdf, "Documentation", d.Documentation)
		row(pdf, "Notes", d.Notes)
		if !s.Level1Complete {
			row(pdf, "State", "Draft")
		}
	} else {
		row(pdf, "State", "Not started")
	}

	section(pdf, "Level 2 QC")
	if d := s.Level2Data; d != nil {
		rates := qc.ComputeRates(*d)
		row(pdf, "Sample Size", strconv.Itoa(d.SampleSize))
		row(pdf, "Items Checked", fmt.Sprintf("%d of %d", d.ItemsChecked, d.TotalItems))
		row(pdf, "Passed / Failed", fmt.Sprintf("%d / %d", d.PassedItems, d.FailedItems))
		row(pdf, "Pass Rate", rates.PassRateText()+"%")
		row(pdf, "Fail Rate", rates.FailRateText()+"%")
		row(pdf, "Quality", strings.ToUpper(string(qc.Band(*d))))
		row(pdf, "Defect Types", strings.Join(d.DefectTypes, ", "))
		row(pdf, "Quality Notes", d.QualityNotes)
		if !s.Level2Complete {
			row(pdf, "State", "Draft")
		}
	} else {
		row(pdf, "State", "Not started")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(0, 8, title, "", 1, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func row(pdf *gofpdf.Fpdf, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = "-"
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelWidth, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 7, value, "", "L", false)
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(scaled.Bounds())
	draw.Draw(dst, dst.Bounds(), scaled, scaled.Bounds().Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
