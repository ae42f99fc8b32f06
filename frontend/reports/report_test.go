package reports

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"qctracker/core/qc"
	"qctracker/infrastructure/qcstate"
	"qctracker/infrastructure/shipments"
	"qctracker/infrastructure/store"
	"qctracker/models"
)

func TestRenderInspectionReportPDF_GeneratesPDF(t *testing.T) {
	t.Parallel()

	for _, s := range qcstate.DemoShipments() {
		pdf, err := renderInspectionReportPDF(s, time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("%s: renderInspectionReportPDF returned error: %v", s.ID, err)
		}
		if !bytes.HasPrefix(pdf, []byte("%PDF")) {
			t.Fatalf("%s: expected pdf bytes", s.ID)
		}
	}
}

func TestRenderInspectionReportPDF_RequiresID(t *testing.T) {
	t.Parallel()

	if _, err := renderInspectionReportPDF(models.Shipment{}, time.Now()); err == nil {
		t.Fatalf("expected error for shipment without id")
	}
}

func TestRenderCode128PNG(t *testing.T) {
	t.Parallel()

	img, err := renderCode128PNG("SHP001", 900, 180)
	if err != nil {
		t.Fatalf("renderCode128PNG returned error: %v", err)
	}
	if !bytes.HasPrefix(img, []byte("\x89PNG")) {
		t.Fatalf("expected png bytes")
	}
}

func TestInspectionReportQueryHandler(t *testing.T) {
	st := store.New(store.NewMemoryBackend())
	state := qcstate.New(shipments.NewRepository(st), st,
		qcstate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := state.Load(context.Background()); err != nil {
		t.Fatalf("load state: %v", err)
	}
	r := chi.NewRouter()
	r.Get("/api/shipments/{id}/report.pdf", InspectionReportQueryHandler(state))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/shipments/SHP004/report.pdf", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type %q", rr.Header().Get("Content-Type"))
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/shipments/SHP404/report.pdf", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestInspectionReportQueryHandler_QuotesFilename(t *testing.T) {
	st := store.New(store.NewMemoryBackend())
	state := qcstate.New(shipments.NewRepository(st), st,
		qcstate.WithSeed(false),
		qcstate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := state.Load(context.Background()); err != nil {
		t.Fatalf("load state: %v", err)
	}
	r := chi.NewRouter()
	r.Get("/api/shipments/{id}/report.pdf", InspectionReportQueryHandler(state))

	for _, id := range []string{`SHP"9; x=1`, "SHPÄ01"} {
		if _, err := state.AddShipment(context.Background(), qc.NewShipmentInput{
			ID: id, Supplier: "Acme", Items: "Widget", ExpectedDate: "2026-10-30",
		}); err != nil {
			t.Fatalf("add %q: %v", id, err)
		}

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/shipments/"+url.PathEscape(id)+"/report.pdf", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%q: expected 200, got %d", id, rr.Code)
		}
		disposition, params, err := mime.ParseMediaType(rr.Header().Get("Content-Disposition"))
		if err != nil {
			t.Fatalf("%q: malformed Content-Disposition %q: %v", id, rr.Header().Get("Content-Disposition"), err)
		}
		if disposition != "inline" || params["filename"] != "qc-report-"+id+".pdf" {
			t.Fatalf("%q: unexpected disposition %q %v", id, disposition, params)
		}
	}
}
