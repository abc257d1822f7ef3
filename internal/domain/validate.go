package domain

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateQuestion checks an authored question before it is stored.
func ValidateQuestion(q Question) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: question: %v", ErrInvalidEntity, err)
	}
	return nil
}

// ValidateSubmission checks a submission before it is stored.
func ValidateSubmission(s Submission) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: submission: %v", ErrInvalidEntity, err)
	}
	return nil
}

// ValidateFile checks a file submission before it is stored.
func ValidateFile(f FileSubmission) error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: file: %v", ErrInvalidEntity, err)
	}
	return nil
}

// ValidateConfig checks a support configuration before it is saved.
func ValidateConfig(c SupportConfig) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: config: %v", ErrInvalidEntity, err)
	}
	return nil
}

// DecodeSnapshot parses and schema-checks a snapshot payload. The three collections must be
// present as arrays and every element must carry its required fields; a mismatch fails the
// decode instead of silently truncating.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := validate.Var(snap.Questions, "required"); err != nil {
		return Snapshot{}, fmt.Errorf("%w: questions missing", ErrInvalidSnapshot)
	}
	if err := validate.Var(snap.Submissions, "required"); err != nil {
		return Snapshot{}, fmt.Errorf("%w: submissions missing", ErrInvalidSnapshot)
	}
	if err := validate.Var(snap.Files, "required"); err != nil {
		return Snapshot{}, fmt.Errorf("%w: files missing", ErrInvalidSnapshot)
	}
	for _, q := range snap.Questions {
		if q.ID == "" {
			return Snapshot{}, fmt.Errorf("%w: question without id", ErrInvalidSnapshot)
		}
	}
	for _, s := range snap.Submissions {
		if s.ID == "" || s.QuestionID == "" {
			return Snapshot{}, fmt.Errorf("%w: submission without id or questionId", ErrInvalidSnapshot)
		}
	}
	for _, f := range snap.Files {
		if f.ID == "" {
			return Snapshot{}, fmt.Errorf("%w: file without id", ErrInvalidSnapshot)
		}
	}
	return snap, nil
}

// EncodeSnapshot serializes a snapshot with empty collections encoded as arrays.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return json.Marshal(s.Clone())
}
