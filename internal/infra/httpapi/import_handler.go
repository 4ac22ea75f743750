package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"school_backend/internal/domain/importer"
	"school_backend/internal/domain/queue"

	"github.com/sirupsen/logrus"
)

// PayloadStore persists an uploaded payload and returns its reference.
type PayloadStore interface {
	Save(ctx context.Context, r io.Reader) (string, error)
}

// ImportHandler accepts a CSV upload, stages it and enqueues the import job.
// The request returns immediately with an accepted acknowledgment; the
// operator's visibility into the outcome is the completion notification.
//
// Identity headers are trusted as-is: authentication and authorization live
// in the gateway in front of this service.
type ImportHandler struct {
	store    PayloadStore
	tasks    queue.TaskQueue
	maxBytes int64
	logger   *logrus.Logger
}

func NewImportHandler(store PayloadStore, tasks queue.TaskQueue, maxBytes int64, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{store: store, tasks: tasks, maxBytes: maxBytes, logger: logger}
}

// NewRouter mounts the import trigger endpoint.
func NewRouter(h *ImportHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/import", h.HandleImport)
	return mux
}

func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	initiator := importer.Initiator{
		UserID:   r.Header.Get("X-User-ID"),
		SchoolID: r.Header.Get("X-School-ID"),
		Email:    r.Header.Get("X-User-Email"),
	}
	if initiator.SchoolID == "" || initiator.Email == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing initiator identity"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart upload"})
		return
	}

	upload, _, err := r.FormFile("users")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "the users file is required"})
		return
	}
	defer upload.Close()

	payloadPath, err := h.store.Save(r.Context(), upload)
	if err != nil {
		h.logger.Errorf("Failed to stage import payload: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not store upload"})
		return
	}

	job := importer.Job{PayloadPath: payloadPath, Initiator: initiator}
	if err := h.tasks.EnqueueImportJob(r.Context(), job); err != nil {
		h.logger.Errorf("Failed to enqueue import job: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not enqueue import"})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"payload":   payloadPath,
		"school_id": initiator.SchoolID,
	}).Info("Import job accepted")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
