package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/furwell/vetclinic-scheduling/internal/clinic"
	"github.com/furwell/vetclinic-scheduling/internal/timeutil"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeClinicError maps the scheduling error taxonomy onto HTTP. Every
// kind keeps its own code so the UI can tell "slot taken" from "pet
// archived".
func writeClinicError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timeutil.ErrClockFormat):
		writeError(w, http.StatusBadRequest, "invalid_clock_format", err.Error())
	case errors.Is(err, clinic.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, clinic.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
	case errors.Is(err, clinic.ErrUnsupportedTransition):
		writeError(w, http.StatusBadRequest, "unsupported_transition", err.Error())

	case errors.Is(err, clinic.ErrPetNotFound):
		writeError(w, http.StatusNotFound, "pet_not_found", err.Error())
	case errors.Is(err, clinic.ErrVetNotFound):
		writeError(w, http.StatusNotFound, "vet_not_found", err.Error())
	case errors.Is(err, clinic.ErrOwnerNotFound):
		writeError(w, http.StatusNotFound, "owner_not_found", err.Error())
	case errors.Is(err, clinic.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, clinic.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())

	case errors.Is(err, clinic.ErrPetArchived):
		writeError(w, http.StatusConflict, "pet_archived", err.Error())
	case errors.Is(err, clinic.ErrVetUnavailable):
		writeError(w, http.StatusConflict, "vet_unavailable", err.Error())
	case errors.Is(err, clinic.ErrOutsideAvailability):
		writeError(w, http.StatusConflict, "outside_availability", err.Error())
	case errors.Is(err, clinic.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, clinic.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, clinic.ErrVetCalendarBusy):
		writeError(w, http.StatusConflict, "vet_calendar_busy", "vet calendar is being modified, please retry shortly")

	case errors.Is(err, clinic.ErrPaymentRequired):
		writeError(w, http.StatusPaymentRequired, "payment_required", err.Error())

	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
