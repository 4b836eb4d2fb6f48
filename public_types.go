package dochi

import (
	"github.com/ve11yn/dochi/internal/config"
	"github.com/ve11yn/dochi/internal/identity"
	"github.com/ve11yn/dochi/internal/remote"
	"github.com/ve11yn/dochi/internal/summary"
	"github.com/ve11yn/dochi/internal/types"
)

// Public type aliases so callers can import only the dochi package.
type (
	Config      = config.Config
	RetryPolicy = remote.RetryPolicy

	// Requests
	AppointmentRequest = types.AppointmentRequest
	CreateTodoRequest  = types.CreateTodoRequest
	UpdateTodoRequest  = types.UpdateTodoRequest
	CreateNoteRequest  = types.CreateNoteRequest
	UpdateNoteRequest  = types.UpdateNoteRequest

	// Domain entities
	Appointment = types.Appointment
	Category    = types.Category
	Priority    = types.Priority
	Subtask     = types.Subtask
	TodoItem    = types.TodoItem
	Note        = types.Note
	User        = types.User
	FocusRecord = types.FocusRecord

	// Results
	LoginResult = types.LoginResult
	ProfileData = summary.ProfileData
	Stats       = summary.Stats

	// Identity
	Credential     = identity.Credential
	IdentityChange = identity.Change
)

const (
	PriorityLow    = types.PriorityLow
	PriorityMedium = types.PriorityMedium
	PriorityHigh   = types.PriorityHigh
)

// LoadConfig reads the DOCHI_* environment and resolves defaults.
func LoadConfig() (*Config, error) { return config.New() }
