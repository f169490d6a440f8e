package submission

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/files"
	"github.com/trezcool/ptemanager/core/task"
	"github.com/trezcool/ptemanager/core/user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

const (
	lateNotes    = "Automatic rejection: Deadline passed"
	lateFeedback = "Your submission was automatically rejected because the deadline has passed."
)

type Feedback struct {
	Text       string    `json:"text"`
	ReviewedBy string    `json:"reviewedBy,omitempty"` // empty for system decisions
	ReviewedAt time.Time `json:"reviewedAt"`           // UTC
}

type Submission struct {
	ID          string             `json:"id"`
	TaskID      string             `json:"taskId"`
	StudentID   string             `json:"studentId"`
	Files       []files.Descriptor `json:"files"`
	Notes       string             `json:"notes"`
	Status      Status             `json:"status"`
	Feedback    *Feedback          `json:"feedback"`
	SubmittedAt time.Time          `json:"submittedAt"` // UTC
}

// Detail is a Submission with its Task and student summaries.
type Detail struct {
	Submission
	Task    *task.Summary `json:"task"`
	Student *user.Summary `json:"student"`
}

type NewSubmission struct {
	TaskID string             `json:"taskId"`
	Notes  string             `json:"notes"`
	Files  []files.Descriptor `json:"files"`
}

func (ns *NewSubmission) Clean() {
	ns.TaskID = core.CleanString(ns.TaskID, true /* lower */)
	ns.Notes = core.CleanString(ns.Notes)
	if ns.Files == nil {
		ns.Files = []files.Descriptor{}
	}
}

type Review struct {
	Status       Status `json:"status" validate:"required,oneof=approved rejected"`
	FeedbackText string `json:"feedbackText"`
}

func (r *Review) Validate(validate *validator.Validate) error {
	r.Status = Status(core.CleanString(string(r.Status), true /* lower */))
	r.FeedbackText = core.CleanString(r.FeedbackText)
	return validate.Struct(r)
}

// QueryFilter applies AND operation on set fields.
type QueryFilter struct {
	StudentID string
	Status    Status
}

// Page is one page of submissions, newest first.
type Page struct {
	Submissions      []Detail `json:"submissions"`
	CurrentPage      int      `json:"currentPage"`
	TotalPages       int      `json:"totalPages"`
	TotalSubmissions int      `json:"totalSubmissions"`
}
