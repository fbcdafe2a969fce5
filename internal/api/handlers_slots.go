package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/furwell/vetclinic-scheduling/internal/clinic"
	"github.com/furwell/vetclinic-scheduling/internal/timeutil"
)

func addSlotHandler(slots SlotService, resolver VetResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vetID, ok := vetIDForWrite(w, r, resolver)
		if !ok {
			return
		}

		var req AddSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		slot, err := slots.AddSlot(r.Context(), vetID, req.Weekday, req.Start, req.End)
		if err != nil {
			writeClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSlotResponse(slot))
	}
}

func updateSlotHandler(slots SlotService, resolver VetResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vetID, ok := vetIDForWrite(w, r, resolver)
		if !ok {
			return
		}
		slotID, ok := slotID(w, r)
		if !ok {
			return
		}

		var req UpdateSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		slot, err := slots.UpdateSlot(r.Context(), vetID, slotID, clinic.SlotUpdate{
			Weekday:    req.Weekday,
			StartClock: req.Start,
			EndClock:   req.End,
		})
		if err != nil {
			writeClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(slot))
	}
}

func deleteSlotHandler(slots SlotService, resolver VetResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vetID, ok := vetIDForWrite(w, r, resolver)
		if !ok {
			return
		}
		slotID, ok := slotID(w, r)
		if !ok {
			return
		}

		if err := slots.DeleteSlot(r.Context(), vetID, slotID); err != nil {
			writeClinicError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listSlotsHandler(slots SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vetID, err := uuid.Parse(chi.URLParam(r, "vetID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_vet_id", "vetID must be a valid UUID")
			return
		}
		weekday, err := strconv.Atoi(r.URL.Query().Get("weekday"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_weekday", "weekday query param must be an integer 0-6")
			return
		}

		out, err := slots.ListSlots(r.Context(), vetID, weekday)
		if err != nil {
			writeClinicError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(out))
		for i := range out {
			resp = append(resp, toSlotResponse(&out[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// vetIDForWrite parses the path vet ID and, for vet callers, checks it is
// their own record via the resolver chain. Admins may edit any vet's
// calendar.
func vetIDForWrite(w http.ResponseWriter, r *http.Request, resolver VetResolver) (uuid.UUID, bool) {
	vetID, err := uuid.Parse(chi.URLParam(r, "vetID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_vet_id", "vetID must be a valid UUID")
		return uuid.Nil, false
	}

	ident := GetIdentity(r.Context())
	if ident.Role == clinic.RoleAdmin {
		return vetID, true
	}

	vet, err := resolver.Resolve(r.Context(), ident.UserID, ident.Email)
	if err != nil {
		if errors.Is(err, clinic.ErrVetNotFound) {
			writeError(w, http.StatusForbidden, "not_a_vet", "caller has no vet record")
			return uuid.Nil, false
		}
		writeClinicError(w, err)
		return uuid.Nil, false
	}
	if vet.ID != vetID {
		writeError(w, http.StatusForbidden, "not_your_calendar", "vets may only edit their own availability")
		return uuid.Nil, false
	}
	return vetID, true
}

func slotID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_slot_id", "slotID must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func toSlotResponse(s *clinic.AvailabilitySlot) SlotResponse {
	return SlotResponse{
		ID:      s.ID,
		VetID:   s.VetID,
		Weekday: s.Weekday,
		Start:   timeutil.FormatClockTime(s.StartMinute),
		End:     timeutil.FormatClockTime(s.EndMinute),
	}
}
