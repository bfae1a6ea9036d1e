package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"netclub/internal/service"
)

// RecordsHandler exposes usage record queries and batch cleanup.
type RecordsHandler struct {
	records *service.RecordService
}

// NewRecordsHandler builds the handler.
func NewRecordsHandler(records *service.RecordService) *RecordsHandler {
	return &RecordsHandler{records: records}
}

// List handles GET /api/usage-records with optional member_id,
// start_date, end_date and status filters.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := service.RecordFilter{}

	if raw := r.URL.Query().Get("member_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid member_id")
			return
		}
		filter.MemberID = id
	}

	from, to, err := dateRange(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	filter.StartDate = from
	filter.EndDate = to

	switch status := r.URL.Query().Get("status"); status {
	case "", "active", "completed":
		filter.Status = status
	default:
		writeError(w, http.StatusBadRequest, "status must be active or completed")
		return
	}

	records, err := h.records.List(r.Context(), filter)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

// Get handles GET /api/usage-records/{id}.
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, err)
		return
	}
	record, err := h.records.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// ListByMember handles GET /api/usage-records/member/{id}.
func (h *RecordsHandler) ListByMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, err)
		return
	}
	records, err := h.records.ListByMember(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

type batchDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// BatchDelete handles DELETE /api/usage-records/batch.
func (h *RecordsHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	deleted, err := h.records.BatchDelete(r.Context(), req.IDs)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted_count": deleted})
}
