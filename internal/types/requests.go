package types

// ------------------------------
// Request Types
// ------------------------------

// AppointmentRequest holds parameters for creating or replacing an appointment.
type AppointmentRequest struct {
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Color     string `json:"color,omitempty"`
	Category  string `json:"category"`
	Date      string `json:"date"`
}

// CreateTodoRequest holds parameters for a new todo.
type CreateTodoRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    Priority  `json:"priority,omitempty"` // empty means Medium
	Tags        []string  `json:"tags,omitempty"`
	Subtasks    []Subtask `json:"subtasks,omitempty"`
}

// UpdateTodoRequest is a partial update; nil fields are left unchanged.
type UpdateTodoRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
	Subtasks    *[]Subtask `json:"subtasks,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
}

// CreateNoteRequest holds parameters for a new note.
type CreateNoteRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// UpdateNoteRequest is a partial update; nil fields are left unchanged.
type UpdateNoteRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// LoginResult is the outcome of an interactive login.
type LoginResult struct {
	Success bool `json:"success"`
	// IsFirstTime is set when the identity has no profile yet; the caller
	// must run profile creation before profile-dependent screens.
	IsFirstTime bool  `json:"isFirstTime"`
	User        *User `json:"user,omitempty"`
	Err         error `json:"-"`
}
