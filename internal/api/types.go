package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/furwell/vetclinic-scheduling/internal/clinic"
)

type CreateAppointmentRequest struct {
	PetID  string  `json:"pet_id"`
	VetID  string  `json:"vet_id"`
	Start  string  `json:"start"` // RFC 3339
	End    string  `json:"end"`
	Reason *string `json:"reason,omitempty"`
}

type RescheduleRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type TransitionRequest struct {
	Status string `json:"status"`
}

type RecordPaymentRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
}

type AddSlotRequest struct {
	Weekday int    `json:"weekday"`
	Start   string `json:"start"` // HH:MM
	End     string `json:"end"`
}

type UpdateSlotRequest struct {
	Weekday *int    `json:"weekday,omitempty"`
	Start   *string `json:"start,omitempty"`
	End     *string `json:"end,omitempty"`
}

type AppointmentResponse struct {
	ID     uuid.UUID `json:"id"`
	PetID  uuid.UUID `json:"pet_id"`
	VetID  uuid.UUID `json:"vet_id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
	Reason *string   `json:"reason,omitempty"`
	Notes  *string   `json:"notes,omitempty"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	PetName   string `json:"pet_name,omitempty"`
	OwnerName string `json:"owner_name,omitempty"`
	VetName   string `json:"vet_name,omitempty"`
}

type SlotResponse struct {
	ID      uuid.UUID `json:"id"`
	VetID   uuid.UUID `json:"vet_id"`
	Weekday int       `json:"weekday"`
	Start   string    `json:"start"`
	End     string    `json:"end"`
}

type PaymentResponse struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	AmountCents   int64     `json:"amount_cents"`
	Status        string    `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *clinic.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:     a.ID,
		PetID:  a.PetID,
		VetID:  a.VetID,
		Start:  a.StartTime,
		End:    a.EndTime,
		Status: string(a.Status),
		Reason: a.Reason,
		Notes:  a.Notes,
	}
}

func toAppointmentDetailResponse(d *clinic.AppointmentDetail) AppointmentDetailResponse {
	resp := AppointmentDetailResponse{
		AppointmentResponse: toAppointmentResponse(&d.Appointment),
	}
	if d.Pet != nil {
		resp.PetName = d.Pet.Name
	}
	if d.Owner != nil {
		resp.OwnerName = d.Owner.Name
	}
	if d.Vet != nil {
		resp.VetName = d.Vet.Name
	}
	return resp
}
