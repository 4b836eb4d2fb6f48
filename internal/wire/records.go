package wire

import (
	"encoding/json"
	"fmt"
)

// Calendar service records.

type Appointment struct {
	ID        Nat    `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Color     string `json:"color"`
	Category  string `json:"category"`
	Completed bool   `json:"completed"`
	Date      string `json:"date"`
}

type AppointmentInput struct {
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Color     string `json:"color"`
	Category  string `json:"category"`
	Date      string `json:"date"`
}

type Category struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	TextColor string `json:"textColor"`
}

// Todo service records.

type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type Todo struct {
	ID          Nat       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Variant   `json:"priority"`
	Tags        []string  `json:"tags"`
	Subtasks    []Subtask `json:"subtasks"`
	Completed   bool      `json:"completed"`
	CreatedAt   Int       `json:"createdAt"`
	UpdatedAt   Int       `json:"updatedAt"`
}

type TodoInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Variant   `json:"priority"`
	Tags        []string  `json:"tags"`
	Subtasks    []Subtask `json:"subtasks"`
}

// TodoUpdate is a partial update; absent fields are left unchanged.
type TodoUpdate struct {
	Title       Opt[string]    `json:"title"`
	Description Opt[string]    `json:"description"`
	Priority    Opt[Variant]   `json:"priority"`
	Tags        Opt[[]string]  `json:"tags"`
	Subtasks    Opt[[]Subtask] `json:"subtasks"`
	Completed   Opt[bool]      `json:"completed"`
}

type Note struct {
	ID          Nat      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CreatedAt   Int      `json:"createdAt"`
	UpdatedAt   Int      `json:"updatedAt"`
}

type NoteInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// NoteUpdate is a partial update; absent fields are left unchanged.
type NoteUpdate struct {
	Title       Opt[string]   `json:"title"`
	Description Opt[string]   `json:"description"`
	Tags        Opt[[]string] `json:"tags"`
}

// Login service records.

type User struct {
	Name      string `json:"name"`
	Principal string `json:"principal"`
	CreatedAt Int    `json:"createdAt"`
}

// Focus service records.

// FocusEntry is a (date, minutes) pair, encoded as a two-element tuple.
type FocusEntry struct {
	Date    string
	Minutes Nat
}

// MarshalJSON encodes the tuple [date, minutes].
func (e FocusEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Date, e.Minutes})
}

// UnmarshalJSON decodes the tuple [date, minutes].
func (e *FocusEntry) UnmarshalJSON(b []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(b, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return fmt.Errorf("focus entry: want 2 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &e.Date); err != nil {
		return fmt.Errorf("focus entry date: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &e.Minutes); err != nil {
		return fmt.Errorf("focus entry minutes: %w", err)
	}
	return nil
}
