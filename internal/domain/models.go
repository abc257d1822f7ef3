package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// OptionCount is the fixed number of answer options every question carries.
const OptionCount = 4

// Difficulty labels accepted for a question.
const (
	DifficultyEasy      = "Easy"
	DifficultyHard      = "Hard"
	DifficultyDifficult = "Difficult"
)

// DefaultMeetLink is used until an admin saves a support configuration.
const DefaultMeetLink = "https://meet.google.com/new"

// Question is an MCQ authored by the admin role. It is treated as immutable once any
// student has answered it; the only mutation is deletion.
type Question struct {
	ID               string   `json:"id" validate:"required"`
	Text             string   `json:"text" validate:"required"`
	Category         string   `json:"category"`
	Options          []string `json:"options" validate:"len=4,dive,required"`
	CorrectAnswer    int      `json:"correctAnswer" validate:"gte=0,lt=4"`
	Difficulty       string   `json:"difficulty" validate:"omitempty,oneof=Easy Hard Difficult"`
	Explanation      string   `json:"explanation"`
	TimeLimitMinutes int      `json:"timeLimitMinutes" validate:"gte=0"`
}

// Submission records one student's answer to one question. IsCorrect is computed when the
// submission is created and never recomputed.
type Submission struct {
	ID          string    `json:"id" validate:"required"`
	StudentID   string    `json:"studentId" validate:"required"`
	StudentName string    `json:"studentName"`
	QuestionID  string    `json:"questionId" validate:"required"`
	Answer      int       `json:"answer" validate:"gte=0"`
	IsCorrect   bool      `json:"isCorrect"`
	Timestamp   time.Time `json:"timestamp"`
	NoteID      string    `json:"noteId"`
}

// FileSubmission is an uploaded file with its content inlined as a base64 data URL. Append-only.
type FileSubmission struct {
	ID          string    `json:"id" validate:"required"`
	StudentID   string    `json:"studentId" validate:"required"`
	StudentName string    `json:"studentName"`
	FileName    string    `json:"fileName" validate:"required"`
	FileType    string    `json:"fileType"`
	FileData    string    `json:"fileData" validate:"required,datauri"`
	Timestamp   time.Time `json:"timestamp"`
}

// SupportConfig is the single per-device support record.
type SupportConfig struct {
	MeetLink string `json:"meetLink" validate:"required,url"`
}

// DefaultSupportConfig returns the configuration used before any has been saved.
func DefaultSupportConfig() SupportConfig {
	return SupportConfig{MeetLink: DefaultMeetLink}
}

// Snapshot is the unit of transfer to and from either backend. It is always replaced
// wholesale, never diffed.
type Snapshot struct {
	Questions   []Question       `json:"questions"`
	Submissions []Submission     `json:"submissions"`
	Files       []FileSubmission `json:"files"`
	LastUpdated time.Time        `json:"lastUpdated"`
}

// EmptySnapshot returns a snapshot whose collections encode as empty arrays.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Questions:   []Question{},
		Submissions: []Submission{},
		Files:       []FileSubmission{},
	}
}

// Clone returns a deep copy with non-nil collections.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Questions:   make([]Question, len(s.Questions)),
		Submissions: make([]Submission, len(s.Submissions)),
		Files:       make([]FileSubmission, len(s.Files)),
		LastUpdated: s.LastUpdated,
	}
	for i, q := range s.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	copy(out.Submissions, s.Submissions)
	copy(out.Files, s.Files)
	return out
}

// QuestionIDs lists question ids in snapshot order.
func (s Snapshot) QuestionIDs() []string {
	ids := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		ids = append(ids, q.ID)
	}
	return ids
}

// NewID issues an opaque unique identifier for a new entity.
func NewID() string {
	return uuid.NewString()
}

// NewSubmission builds a submission for question q, grading the answer at creation time.
func NewSubmission(q Question, studentID, studentName string, answer int, now time.Time) Submission {
	return Submission{
		ID:          NewID(),
		StudentID:   studentID,
		StudentName: studentName,
		QuestionID:  q.ID,
		Answer:      answer,
		IsCorrect:   answer == q.CorrectAnswer,
		Timestamp:   now,
		NoteID:      fmt.Sprintf("NOTE-%06d", 100000+rand.Intn(900000)),
	}
}
