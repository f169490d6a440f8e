package task

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ptemanager/core"
)

// PTE exercise kinds
var Types = []string{
	// Speaking & Writing
	"Personal Introduction",
	"Read Aloud",
	"Repeat Sentence",
	"Describe Image",
	"Retell Lecture",
	"Answer Short Question",
	"Summarize Written Text",
	"Essay",

	// Reading
	"Multiple Choice, Choose Single Answer",
	"Multiple Choice, Choose Multiple Answers",
	"Re-order Paragraphs",
	"Reading Fill in the Blanks",
	"Reading & Writing Fill in the Blanks",

	// Listening
	"Summarize Spoken Text",
	"Multiple Choice, Choose Multiple Answers (Listening)",
	"Fill in the Blanks (Listening)",
	"Highlight Correct Summary",
	"Multiple Choice, Choose Single Answer (Listening)",
	"Select Missing Word",
	"Highlight Incorrect Words",
	"Write from Dictation",
}

func IsValidType(t string) bool {
	for _, typ := range Types {
		if typ == t {
			return true
		}
	}
	return false
}

type AssignmentKind string

const (
	KindBroadcast AssignmentKind = "broadcast"
	KindSpecific  AssignmentKind = "specific"
)

// Assignment tells which students a Task is visible to:
// every active student (Broadcast) or an explicit set (Specific).
type Assignment struct {
	Kind     AssignmentKind `json:"kind"`
	Students []string       `json:"students,omitempty"`
}

func Broadcast() Assignment {
	return Assignment{Kind: KindBroadcast}
}

// Specific returns an Assignment to the given students, deduplicated in input order.
func Specific(studentIDs ...string) Assignment {
	seen := make(map[string]bool, len(studentIDs))
	ids := make([]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return Assignment{Kind: KindSpecific, Students: ids}
}

func (a Assignment) IsBroadcast() bool {
	return a.Kind != KindSpecific
}

// Includes reports whether the student with userID can see the Task.
func (a Assignment) Includes(userID string) bool {
	if a.IsBroadcast() {
		return true
	}
	for _, id := range a.Students {
		if id == userID {
			return true
		}
	}
	return false
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	Quantity    int        `json:"quantity"`
	Deadline    *time.Time `json:"deadline"` // UTC
	Assignment  Assignment `json:"assignment"`
	CreatedBy   string     `json:"createdBy"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"` // UTC
	UpdatedAt   time.Time  `json:"updatedAt"` // UTC
}

// DeadlinePassed reports whether the Task has a deadline before `at`.
func (t Task) DeadlinePassed(at time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(at)
}

func (t Task) Summary() Summary {
	return Summary{ID: t.ID, Title: t.Title, Type: t.Type}
}

// Summary is the public subset of a Task embedded in other resources.
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

var errInvalidDeadline = errors.New("invalid deadline")

// Deadline accepts RFC 3339 timestamps and plain `YYYY-MM-DD` dates (read as midnight UTC).
type Deadline struct {
	Time *time.Time
}

func (d *Deadline) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || core.CleanString(*s) == "" {
		d.Time = nil
		return nil
	}
	str := core.CleanString(*s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, str); err == nil {
			t = t.UTC()
			d.Time = &t
			return nil
		}
	}
	return core.NewValidationError(
		errInvalidDeadline,
		core.FieldError{Field: "deadline", Error: "deadline must be an RFC 3339 timestamp or a YYYY-MM-DD date"},
	)
}

func (d Deadline) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time)
}

// Input is the data needed to create a Task or to fully replace a Task's mutable fields.
type Input struct {
	Title       string   `json:"title" validate:"required"`
	Type        string   `json:"type" validate:"required,tasktype"`
	Description string   `json:"description" validate:"required"`
	Quantity    int      `json:"quantity" validate:"gte=1"`
	Deadline    Deadline `json:"deadline"`
	AssignToAll bool     `json:"assignToAll"`
	AssignedTo  []string `json:"assignedTo" validate:"omitempty,dive,uuid"`
}

// HasRequired reports whether title, type and description were all provided.
func (in Input) HasRequired() bool {
	return core.CleanString(in.Title) != "" && core.CleanString(in.Type) != "" && core.CleanString(in.Description) != ""
}

func (in *Input) Clean() {
	in.Title = core.CleanString(in.Title)
	in.Type = core.CleanString(in.Type)
	in.Description = core.CleanString(in.Description)
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	for i, id := range in.AssignedTo {
		in.AssignedTo[i] = core.CleanString(id, true /* lower */)
	}
}

func (in *Input) Validate(validate *validator.Validate) error {
	in.Clean()
	return validate.Struct(in)
}

// Assignment resolves the requested visibility: all students unless specific ones are listed.
func (in Input) Assignment() Assignment {
	if in.AssignToAll || len(in.AssignedTo) == 0 {
		return Broadcast()
	}
	return Specific(in.AssignedTo...)
}

// QueryFilter applies AND operation on set fields.
type QueryFilter struct {
	IsActive  *bool
	VisibleTo string // student ID: Broadcast tasks or Specific ones listing them
}
