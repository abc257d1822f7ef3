package app

import (
	"context"
	"fmt"
	"strings"

	"aptimaster-sync/internal/domain"
)

// MutationKind enumerates the single logical writes the coordinator understands.
type MutationKind int

const (
	MutationAddQuestion MutationKind = iota + 1
	MutationDeleteQuestion
	MutationAddSubmission
	MutationAddFile
)

func (k MutationKind) String() string {
	switch k {
	case MutationAddQuestion:
		return "addQuestion"
	case MutationDeleteQuestion:
		return "deleteQuestion"
	case MutationAddSubmission:
		return "addSubmission"
	case MutationAddFile:
		return "addFile"
	default:
		return fmt.Sprintf("mutation(%d)", int(k))
	}
}

// Mutation is one add/delete against the shared state. Build it with the constructors below.
type Mutation struct {
	Kind       MutationKind
	Question   domain.Question
	QuestionID string
	Submission domain.Submission
	File       domain.FileSubmission
}

func AddQuestion(q domain.Question) Mutation {
	return Mutation{Kind: MutationAddQuestion, Question: q}
}

// DeleteQuestion removes a question and cascades to its submissions.
func DeleteQuestion(id string) Mutation {
	return Mutation{Kind: MutationDeleteQuestion, QuestionID: id}
}

func AddSubmission(s domain.Submission) Mutation {
	return Mutation{Kind: MutationAddSubmission, Submission: s}
}

func AddFile(f domain.FileSubmission) Mutation {
	return Mutation{Kind: MutationAddFile, File: f}
}

// validate rejects mutations that would leave an entity other clients cannot decode.
func (m Mutation) validate() error {
	switch m.Kind {
	case MutationAddQuestion:
		return domain.ValidateQuestion(m.Question)
	case MutationDeleteQuestion:
		if strings.TrimSpace(m.QuestionID) == "" {
			return fmt.Errorf("%w: delete question: empty id", domain.ErrInvalidEntity)
		}
		return nil
	case MutationAddSubmission:
		return domain.ValidateSubmission(m.Submission)
	case MutationAddFile:
		return domain.ValidateFile(m.File)
	default:
		return fmt.Errorf("%w: unsupported %s", domain.ErrInvalidEntity, m.Kind)
	}
}

// forward issues the mutation against the local backend, which owns the state in LOCAL mode.
func (m Mutation) forward(ctx context.Context, backend LocalBackend) error {
	switch m.Kind {
	case MutationAddQuestion:
		return backend.AddQuestion(ctx, m.Question)
	case MutationDeleteQuestion:
		return backend.DeleteQuestion(ctx, m.QuestionID)
	case MutationAddSubmission:
		return backend.AddSubmission(ctx, m.Submission)
	case MutationAddFile:
		return backend.AddFile(ctx, m.File)
	default:
		return fmt.Errorf("unsupported %s", m.Kind)
	}
}

func (m Mutation) apply(snap *domain.Snapshot) {
	switch m.Kind {
	case MutationAddQuestion:
		snap.AddQuestion(m.Question)
	case MutationDeleteQuestion:
		snap.DeleteQuestion(m.QuestionID)
	case MutationAddSubmission:
		snap.PrependSubmission(m.Submission)
	case MutationAddFile:
		snap.PrependFile(m.File)
	}
}
