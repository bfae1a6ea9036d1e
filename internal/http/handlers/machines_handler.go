package handlers

import (
	"encoding/json"
	"net/http"

	"netclub/internal/service"
)

// MachinesHandler exposes machine CRUD and the administrative state edit.
type MachinesHandler struct {
	machines *service.MachineService
}

// NewMachinesHandler builds the handler.
func NewMachinesHandler(machines *service.MachineService) *MachinesHandler {
	return &MachinesHandler{machines: machines}
}

// List handles GET /api/machines.
func (h *MachinesHandler) List(w http.ResponseWriter, r *http.Request) {
	machines, err := h.machines.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"machines": machines})
}

// Get handles GET /api/machines/{id}.
func (h *MachinesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, err)
		return
	}
	machine, err := h.machines.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, machine)
}

type createMachineRequest struct {
	MachineNumber string   `json:"machine_number"`
	HourlyRate    *float64 `json:"hourly_rate"`
}

// Create handles POST /api/machines.
func (h *MachinesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.HourlyRate == nil {
		writeError(w, http.StatusBadRequest, "hourly_rate is required")
		return
	}
	machine, err := h.machines.Create(r.Context(), service.CreateMachineInput{
		MachineNumber: req.MachineNumber,
		HourlyRate:    *req.HourlyRate,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, machine)
}

type updateMachineRequest struct {
	Status     *string  `json:"status"`
	MemberID   *int64   `json:"member_id"`
	HourlyRate *float64 `json:"hourly_rate"`
}

// Update handles PUT /api/machines/{id}.
func (h *MachinesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, err)
		return
	}
	var req updateMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	machine, err := h.machines.Update(r.Context(), id, service.UpdateMachineInput{
		Status:     req.Status,
		OccupantID: req.MemberID,
		HourlyRate: req.HourlyRate,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, machine)
}

type updateRatesRequest struct {
	IDs        []int64  `json:"ids"`
	HourlyRate *float64 `json:"hourly_rate"`
}

// UpdateRates handles PUT /api/machines/rates.
func (h *MachinesHandler) UpdateRates(w http.ResponseWriter, r *http.Request) {
	var req updateRatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.HourlyRate == nil {
		writeError(w, http.StatusBadRequest, "hourly_rate is required")
		return
	}
	updated, err := h.machines.SetRateBatch(r.Context(), req.IDs, *req.HourlyRate)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"updated_count": updated})
}

type updateTypeRateRequest struct {
	HourlyRate *float64 `json:"hourly_rate"`
}

// UpdateTypeRate handles PUT /api/machines/types/{type}/rate.
func (h *MachinesHandler) UpdateTypeRate(w http.ResponseWriter, r *http.Request) {
	var req updateTypeRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.HourlyRate == nil {
		writeError(w, http.StatusBadRequest, "hourly_rate is required")
		return
	}
	updated, err := h.machines.SetRateByType(r.Context(), r.PathValue("type"), *req.HourlyRate)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"updated_count": updated})
}

// Delete handles DELETE /api/machines/{id}.
func (h *MachinesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.machines.Delete(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
