package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanOwner(row pgx.Row) (*Owner, error) {
	var o Owner
	err := row.Scan(
		&o.ID,
		&o.Name,
		&o.Email,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}
	return &o, nil
}

func scanVet(row pgx.Row) (*Vet, error) {
	var v Vet
	var userID *uuid.UUID
	var specialty *string

	err := row.Scan(
		&v.ID,
		&userID,
		&v.Name,
		&v.Email,
		&specialty,
		&v.Active,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVetNotFound
		}
		return nil, err
	}

	v.UserID = userID
	v.Specialty = specialty
	return &v, nil
}

func scanPet(row pgx.Row) (*Pet, error) {
	var p Pet
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Species,
		&p.Archived,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanSlot(row pgx.Row) (*AvailabilitySlot, error) {
	var s AvailabilitySlot
	err := row.Scan(
		&s.ID,
		&s.VetID,
		&s.Weekday,
		&s.StartMinute,
		&s.EndMinute,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var reason, notes *string

	err := row.Scan(
		&a.ID,
		&a.PetID,
		&a.VetID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&reason,
		&notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Reason = reason
	a.Notes = notes
	return &a, nil
}

const appointmentColumns = `id, pet_id, vet_id, start_time, end_time, status, reason, notes, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetOwnerByID(ctx context.Context, id uuid.UUID) (*Owner, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM owners
		WHERE id = $1
	`, id)
	return scanOwner(row)
}

func (r *PgRepository) GetPetByID(ctx context.Context, id uuid.UUID) (*Pet, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, species, archived, created_at, updated_at
		FROM pets
		WHERE id = $1
	`, id)
	return scanPet(row)
}

func (r *PgRepository) GetVetByID(ctx context.Context, id uuid.UUID) (*Vet, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, email, specialty, active, created_at, updated_at
		FROM vets
		WHERE id = $1
	`, id)
	return scanVet(row)
}

func (r *PgRepository) GetVetByUserID(ctx context.Context, userID uuid.UUID) (*Vet, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, email, specialty, active, created_at, updated_at
		FROM vets
		WHERE user_id = $1
	`, userID)
	return scanVet(row)
}

func (r *PgRepository) GetVetByEmail(ctx context.Context, email string) (*Vet, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, email, specialty, active, created_at, updated_at
		FROM vets
		WHERE lower(email) = lower($1)
	`, email)
	return scanVet(row)
}

func (r *PgRepository) ListSlots(ctx context.Context, vetID uuid.UUID, weekday int) ([]AvailabilitySlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, vet_id, weekday, start_minute, end_minute, created_at, updated_at
		FROM availability_slots
		WHERE vet_id = $1 AND weekday = $2
		ORDER BY start_minute
	`, vetID, weekday)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilitySlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*AvailabilitySlot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, vet_id, weekday, start_minute, end_minute, created_at, updated_at
		FROM availability_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) InsertSlot(ctx context.Context, slot AvailabilitySlot) (*AvailabilitySlot, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_slots (id, vet_id, weekday, start_minute, end_minute, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, vet_id, weekday, start_minute, end_minute, created_at, updated_at
	`, slot.ID, slot.VetID, slot.Weekday, slot.StartMinute, slot.EndMinute)
	return scanSlot(row)
}

func (r *PgRepository) UpdateSlot(ctx context.Context, slot AvailabilitySlot) (*AvailabilitySlot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE availability_slots
		SET weekday = $2,
		    start_minute = $3,
		    end_minute = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, vet_id, weekday, start_minute, end_minute, created_at, updated_at
	`, slot.ID, slot.Weekday, slot.StartMinute, slot.EndMinute)
	return scanSlot(row)
}

func (r *PgRepository) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_slots WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) ListBooked(ctx context.Context, vetID uuid.UUID, exclude *uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE vet_id = $1
		  AND status = 'booked'
		  AND ($2::uuid IS NULL OR id <> $2)
	`, vetID, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &AppointmentDetail{Appointment: *appt}

	pet, err := r.GetPetByID(ctx, appt.PetID)
	if err != nil && !errors.Is(err, ErrPetNotFound) {
		return nil, err
	}
	detail.Pet = pet

	if pet != nil {
		owner, err := r.GetOwnerByID(ctx, pet.OwnerID)
		if err != nil && !errors.Is(err, ErrOwnerNotFound) {
			return nil, err
		}
		detail.Owner = owner
	}

	vet, err := r.GetVetByID(ctx, appt.VetID)
	if err != nil && !errors.Is(err, ErrVetNotFound) {
		return nil, err
	}
	detail.Vet = vet

	return detail, nil
}

func (r *PgRepository) ListAppointmentsByPet(ctx context.Context, petID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE pet_id = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3
	`, petID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]AppointmentDetail, 0, len(appts))
	for _, a := range appts {
		detail, err := r.GetAppointmentDetail(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, *detail)
	}
	return result, nil
}

func (r *PgRepository) InsertAppointment(ctx context.Context, appt Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, pet_id, vet_id, start_time, end_time, status, reason, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.PetID, appt.VetID, appt.StartTime, appt.EndTime, appt.Status, appt.Reason, appt.Notes)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentWindow(ctx context.Context, id uuid.UUID, start, end time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET start_time = $2,
		    end_time = $3,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'booked'
		RETURNING `+appointmentColumns+`
	`, id, start, end)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)
	return scanAppointment(row)
}

func (r *PgRepository) InsertPayment(ctx context.Context, p Payment) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO payments (id, appointment_id, amount_cents, status, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, appointment_id, amount_cents, status, created_at
	`, p.ID, p.AppointmentID, p.AmountCents, p.Status)

	var out Payment
	if err := row.Scan(&out.ID, &out.AppointmentID, &out.AmountCents, &out.Status, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return &out, nil
}

func (r *PgRepository) HasSuccessfulPayment(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payments
			WHERE appointment_id = $1 AND status = 'success'
		)
	`, appointmentID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
