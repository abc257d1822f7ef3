package domain

import "time"

// Revision identifies one committed change on the local backend.
type Revision struct {
	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AddQuestion appends q. A question whose id is already present is ignored: questions
// are immutable once added and change only by deletion.
func (s *Snapshot) AddQuestion(q Question) {
	for _, existing := range s.Questions {
		if existing.ID == q.ID {
			return
		}
	}
	s.Questions = append(s.Questions, q)
}

// DeleteQuestion removes the question with id and every submission referencing it.
// Deleting an unknown id is a no-op.
func (s *Snapshot) DeleteQuestion(id string) {
	questions := make([]Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		if q.ID != id {
			questions = append(questions, q)
		}
	}
	submissions := make([]Submission, 0, len(s.Submissions))
	for _, sub := range s.Submissions {
		if sub.QuestionID != id {
			submissions = append(submissions, sub)
		}
	}
	s.Questions = questions
	s.Submissions = submissions
}

// PrependSubmission inserts sub at the front (newest first). A submission whose id is
// already present is ignored.
func (s *Snapshot) PrependSubmission(sub Submission) {
	for _, existing := range s.Submissions {
		if existing.ID == sub.ID {
			return
		}
	}
	s.Submissions = append([]Submission{sub}, s.Submissions...)
}

// PrependFile inserts f at the front (newest first). A file whose id is already present
// is ignored.
func (s *Snapshot) PrependFile(f FileSubmission) {
	for _, existing := range s.Files {
		if existing.ID == f.ID {
			return
		}
	}
	s.Files = append([]FileSubmission{f}, s.Files...)
}
