package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"qctracker/infrastructure/qcstate"
	"qctracker/infrastructure/store"
)

const (
	DigestHeader    = "X-Snapshot-Digest"
	maxSnapshotSize = 32 << 20
)

type restoreResponse struct {
	Restored  bool   `json:"restored"`
	Shipments int    `json:"shipments"`
	Error     string `json:"error,omitempty"`
}

// BackupQueryHandler streams a snapshot of the whole store as a download.
func BackupQueryHandler(state *qcstate.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := state.Backup(r.Context())
		if err != nil {
			http.Error(w, "failed to back up store", http.StatusInternalServerError)
			return
		}
		filename := fmt.Sprintf("qctracker-backup-%s.json", time.Now().UTC().Format("20060102-150405"))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Header().Set(DigestHeader, store.Digest(snapshot))
		_, _ = io.WriteString(w, snapshot)
	}
}

// RestoreCommandHandler applies the snapshot in the request body.
func RestoreCommandHandler(state *qcstate.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSnapshotSize))
		if err != nil {
			writeRestore(w, http.StatusBadRequest, restoreResponse{Error: "failed to read snapshot"})
			return
		}
		if err := state.Restore(r.Context(), string(body)); err != nil {
			var rerr *store.RestoreError
			if errors.As(err, &rerr) {
				writeRestore(w, http.StatusBadRequest, restoreResponse{Error: "invalid snapshot"})
				return
			}
			slog.Error("restore failed", slog.Any("err", err))
			writeRestore(w, http.StatusInternalServerError, restoreResponse{Error: "failed to restore backup"})
			return
		}
		writeRestore(w, http.StatusOK, restoreResponse{Restored: true, Shipments: len(state.Shipments())})
	}
}

func writeRestore(w http.ResponseWriter, status int, resp restoreResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
