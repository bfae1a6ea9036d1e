package handlers

import (
	"net/http"

	"netclub/internal/service"
)

// StatsHandler exposes income and usage aggregation.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler builds the handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// TotalIncome handles GET /api/income/total.
func (h *StatsHandler) TotalIncome(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	total, err := h.stats.TotalIncome(r.Context(), from, to)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"total_income": total})
}

// DailyIncome handles GET /api/income/daily.
func (h *StatsHandler) DailyIncome(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	days, err := h.stats.DailyIncome(r.Context(), from, to)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}

// MonthlyIncome handles GET /api/income/monthly.
func (h *StatsHandler) MonthlyIncome(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	months, err := h.stats.MonthlyIncome(r.Context(), from, to)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"months": months})
}

// MachineTypeIncome handles GET /api/income/machine-types.
func (h *StatsHandler) MachineTypeIncome(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	types, err := h.stats.MachineTypeIncome(r.Context(), from, to)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"machine_types": types})
}

// MachineUsage handles GET /api/stats/machines.
func (h *StatsHandler) MachineUsage(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	usage, err := h.stats.MachineUsage(r.Context(), from, to)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"machines": usage})
}

// MemberUsage handles GET /api/stats/members.
func (h *StatsHandler) MemberUsage(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	usage, err := h.stats.MemberUsage(r.Context(), from, to)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": usage})
}
