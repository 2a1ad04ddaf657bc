package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusOpen     TaskStatus = "open"
	TaskStatusAccepted TaskStatus = "accepted"
	TaskStatusDone     TaskStatus = "done"
)

// Task is a request for volunteer help at a location, requiring one skill.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	HelpMessage string     `json:"help_message"`
	FullAddress string     `json:"full_address"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	ZipCode     string     `json:"zip_code"`
	Skill       string     `json:"skill"`
	Status      TaskStatus `json:"status"`
	Assignee    string     `json:"assignee"`
	DeclinedBy  []string   `json:"declined_by"`
	CreatedAt   time.Time  `json:"created_at"`
}
