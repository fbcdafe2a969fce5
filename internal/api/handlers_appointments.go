package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/furwell/vetclinic-scheduling/internal/clinic"
)

func createAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		petID, err := uuid.Parse(req.PetID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_pet_id", "pet_id must be a valid UUID")
			return
		}
		vetID, err := uuid.Parse(req.VetID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_vet_id", "vet_id must be a valid UUID")
			return
		}
		start, end, ok := parseWindow(w, req.Start, req.End)
		if !ok {
			return
		}

		appt, err := svc.Create(r.Context(), clinic.CreateAppointment{
			PetID:  petID,
			VetID:  vetID,
			Start:  start,
			End:    end,
			Reason: req.Reason,
		})
		if err != nil {
			writeClinicError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		start, end, ok := parseWindow(w, req.Start, req.End)
		if !ok {
			return
		}

		appt, err := svc.Reschedule(r.Context(), id, start, end)
		if err != nil {
			writeClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func transitionAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		target := clinic.AppointmentStatus(req.Status)
		if target == clinic.StatusCompleted && !isAdmin(r) {
			writeError(w, http.StatusForbidden, "admin_required", "completing an appointment requires the admin role")
			return
		}

		appt, err := svc.Transition(r.Context(), id, target)
		if err != nil {
			writeClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}
		appt, err := svc.Cancel(r.Context(), id)
		if err != nil {
			writeClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func restoreAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}
		appt, err := svc.Restore(r.Context(), id)
		if err != nil {
			writeClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func completeAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isAdmin(r) {
			writeError(w, http.StatusForbidden, "admin_required", "completing an appointment requires the admin role")
			return
		}
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}
		appt, err := svc.Complete(r.Context(), id)
		if err != nil {
			writeClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func recordPaymentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req RecordPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		status := clinic.PaymentStatus(req.Status)
		switch status {
		case clinic.PaymentPending, clinic.PaymentSuccess, clinic.PaymentFailed:
		default:
			writeError(w, http.StatusBadRequest, "invalid_payment_status", "status must be pending, success or failed")
			return
		}

		p, err := svc.RecordPayment(r.Context(), id, req.AmountCents, status)
		if err != nil {
			writeClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, PaymentResponse{
			ID:            p.ID,
			AppointmentID: p.AppointmentID,
			AmountCents:   p.AmountCents,
			Status:        string(p.Status),
		})
	}
}

func getAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}
		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			writeClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentDetailResponse(detail))
	}
}

func listAppointmentsHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, err := uuid.Parse(r.URL.Query().Get("pet_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_pet_id", "pet_id query param must be a valid UUID")
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		details, err := svc.ListByPet(r.Context(), petID, limit, offset)
		if err != nil {
			writeClinicError(w, err)
			return
		}

		out := make([]AppointmentDetailResponse, 0, len(details))
		for i := range details {
			out = append(out, toAppointmentDetailResponse(&details[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseWindow(w http.ResponseWriter, startRaw, endRaw string) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_start", "start must be RFC 3339")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_end", "end must be RFC 3339")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func isAdmin(r *http.Request) bool {
	return GetIdentity(r.Context()).Role == clinic.RoleAdmin
}
