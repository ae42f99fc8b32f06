package shipments

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"qctracker/core/qc"
	"qctracker/frontend/shared/route"
	"qctracker/infrastructure/qcstate"
	"qctracker/models"
)

const maxBodyBytes = 1 << 20

// DashboardPageQueryHandler renders the shipment dashboard.
func DashboardPageQueryHandler(state *qcstate.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := DashboardData{
			Stats:     state.Stats(),
			Shipments: newShipmentViews(state.Shipments()),
			Message:   state.Err(),
		}
		if msg := strings.TrimSpace(r.URL.Query().Get("error")); msg != "" {
			data.Message = msg
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := DashboardPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
			return
		}
	}
}

// SessionQueryHandler reports the loading flag and the session error.
func SessionQueryHandler(state *qcstate.State) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, SessionResponse{Loading: state.Loading(), Error: state.Err()})
	}
}

// ClearSessionErrorCommandHandler dismisses the session error.
func ClearSessionErrorCommandHandler(state *qcstate.State) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		state.ClearErr()
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListShipmentsQueryHandler returns every shipment with dashboard stats.
func ListShipmentsQueryHandler(state *qcstate.State) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, ListResponse{
			Shipments: newShipmentViews(state.Shipments()),
			Stats:     state.Stats(),
		})
	}
}

// GetShipmentQueryHandler returns one shipment.
func GetShipmentQueryHandler(state *qcstate.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := state.Shipment(route.Param(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "shipment not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, newShipmentView(s))
	}
}

// ShipmentHistoryQueryHandler returns the audit trail of one shipment.
func ShipmentHistoryQueryHandler(state *qcstate.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := route.Param(r, "id")
		logs, err := state.History(r.Context(), id)
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newHistoryResponse(id, logs))
	}
}

// CreateShipmentCommandHandler adds a pending shipment.
func CreateShipmentCommandHandler(state *qcstate.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in qc.NewShipmentInput
		if !decodeBody(w, r, &in) {
			return
		}
		s, err := state.AddShipment(r.Context(), in)
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newShipmentView(s))
	}
}

// Level1CommandHandler submits Level 1 data, or stores it as a draft.
func Level1CommandHandler(state *qcstate.State, draft bool) http.HandlerFunc {
	apply := state.SubmitLevel1
	if draft {
		apply = state.SaveLevel1Draft
	}
	return levelHandler(apply)
}

// Level2CommandHandler submits Level 2 data, or stores it as a draft.
func Level2CommandHandler(state *qcstate.State, draft bool) http.HandlerFunc {
	apply := state.SubmitLevel2
	if draft {
		apply = state.SaveLevel2Draft
	}
	return levelHandler(apply)
}

func levelHandler[T models.Level1QC | models.Level2QC](apply func(context.Context, string, T) (models.Shipment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data T
		if !decodeBody(w, r, &data) {
			return
		}
		s, err := apply(r.Context(), route.Param(r, "id"), data)
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newShipmentView(s))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body", nil)
		return false
	}
	return true
}

func writeStateError(w http.ResponseWriter, err error) {
	var verr qc.ValidationError
	var terr *qc.TransitionError
	switch {
	case errors.Is(err, qcstate.ErrNotFound):
		writeError(w, http.StatusNotFound, "shipment not found", nil)
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, "validation failed", verr)
	case errors.As(err, &terr):
		writeError(w, http.StatusConflict, terr.Error(), nil)
	default:
		slog.Error("shipment command failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Errors: fields})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}
