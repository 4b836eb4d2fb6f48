package types

import "time"

// ------------------------------
// Core Domain Entities
// ------------------------------

// Appointment is a calendar entry, identified per caller by ID.
type Appointment struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`   // HH:MM
	Color     string `json:"color"`
	Category  string `json:"category"`
	Completed bool   `json:"completed"`
	Date      string `json:"date"` // YYYY-MM-DD
}

// Category groups appointments. Name is unique within a caller's set.
type Category struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	TextColor string `json:"textColor"`
}

// Priority of a todo.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Subtask is an ordered checklist item inside a todo.
type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// TodoItem is a task with optional subtasks.
type TodoItem struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Tags        []string  `json:"tags"`
	Subtasks    []Subtask `json:"subtasks"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SubtasksDone reports whether the todo has subtasks and all are completed.
func (t TodoItem) SubtasksDone() bool {
	if len(t.Subtasks) == 0 {
		return false
	}
	for _, s := range t.Subtasks {
		if !s.Completed {
			return false
		}
	}
	return true
}

// Note is a free-form note.
type Note struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// User is the profile stored for one identity.
type User struct {
	Name      string    `json:"name"`
	Principal string    `json:"principal"`
	CreatedAt time.Time `json:"createdAt"`
}

// FocusRecord maps a calendar date (YYYY-MM-DD) to accumulated focus minutes.
type FocusRecord map[string]int64
