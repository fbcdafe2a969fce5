package notify

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/furwell/vetclinic-scheduling/internal/clinic"
)

const (
	TypeBooked      = "notify:booked"
	TypeRescheduled = "notify:rescheduled"
	TypeCancelled   = "notify:cancelled"
)

func newTask(typ string, n clinic.Notification) (*asynq.Task, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal notification payload: %w", err)
	}
	return asynq.NewTask(typ, b), nil
}
