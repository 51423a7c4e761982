package deployments

import "time"

// CreateTaskInput schedules a deployment for a pending customer.
type CreateTaskInput struct {
	CustomerID    int64     `json:"customer_id"`
	UserID        int64     `json:"user_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Notes         string    `json:"notes"`
}

// ChecklistInput is a partial checklist update. Omitted steps keep
// their stored value.
type ChecklistInput struct {
	Step1 *bool   `json:"step_1,omitempty"`
	Step2 *bool   `json:"step_2,omitempty"`
	Step3 *bool   `json:"step_3,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// FailTaskInput carries the reason a deployment was abandoned.
type FailTaskInput struct {
	Reason string `json:"reason"`
}
