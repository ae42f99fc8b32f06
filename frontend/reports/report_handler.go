package reports

import (
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"qctracker/frontend/shared/route"
	"qctracker/infrastructure/qcstate"
)

// InspectionReportQueryHandler renders the QC report of one shipment as PDF.
func InspectionReportQueryHandler(state *qcstate.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := state.Shipment(route.Param(r, "id"))
		if !ok {
			http.Error(w, "shipment not found", http.StatusNotFound)
			return
		}
		pdfBytes, err := renderInspectionReportPDF(s, time.Now())
		if err != nil {
			slog.Error("render inspection report failed", slog.String("shipment_id", s.ID), slog.Any("err", err))
			http.Error(w, "failed to render report", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", reportDisposition(s.ID))
		w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
		_, _ = w.Write(pdfBytes)
	}
}

// reportDisposition quotes or RFC 2231 encodes the id as needed; ids are free
// text entered on the dashboard.
func reportDisposition(id string) string {
	if v := mime.FormatMediaType("inline", map[string]string{"filename": "qc-report-" + id + ".pdf"}); v != "" {
		return v
	}
	return "inline"
}
