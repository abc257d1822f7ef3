package app_test

import (
	"context"
	"errors"
	"testing"

	"aptimaster-sync/internal/app"
	"aptimaster-sync/internal/domain"
	"aptimaster-sync/internal/infra/memory"
)

func TestBackendServiceCascadeDelete(t *testing.T) {
	ctx := context.Background()
	svc := app.NewBackendService(memory.NewStateRepository(), nil)

	if err := svc.AddQuestion(ctx, sampleQuestion("q1", "one")); err != nil {
		t.Fatalf("add question: %v", err)
	}
	if err := svc.AddQuestion(ctx, sampleQuestion("q2", "two")); err != nil {
		t.Fatalf("add question: %v", err)
	}
	for _, sub := range []domain.Submission{sampleSubmission("s1", "q1"), sampleSubmission("s2", "q2")} {
		if err := svc.AddSubmission(ctx, sub); err != nil {
			t.Fatalf("add submission: %v", err)
		}
	}
	if err := svc.DeleteQuestion(ctx, "q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteQuestion(ctx, "q1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	state, err := svc.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if ids := state.QuestionIDs(); len(ids) != 1 || ids[0] != "q2" {
		t.Fatalf("expected [q2], got %v", ids)
	}
	if len(state.Submissions) != 1 || state.Submissions[0].ID != "s2" {
		t.Fatalf("expected only s2 to survive, got %+v", state.Submissions)
	}
}

func TestBackendServiceRejectsInvalidEntities(t *testing.T) {
	ctx := context.Background()
	svc := app.NewBackendService(memory.NewStateRepository(), nil)

	bad := sampleQuestion("q1", "three options")
	bad.Options = bad.Options[:3]
	if err := svc.AddQuestion(ctx, bad); !errors.Is(err, domain.ErrInvalidEntity) {
		t.Fatalf("expected ErrInvalidEntity, got %v", err)
	}

	file := sampleFile("f1")
	file.FileData = "not a data url"
	if err := svc.AddFile(ctx, file); !errors.Is(err, domain.ErrInvalidEntity) {
		t.Fatalf("expected ErrInvalidEntity, got %v", err)
	}

	state, _ := svc.State(ctx)
	if len(state.Questions) != 0 || len(state.Files) != 0 {
		t.Fatalf("expected nothing stored, got %+v", state)
	}
}

func TestBackendServicePublishesRevisions(t *testing.T) {
	ctx := context.Background()
	feed := app.NewRevisionFeed()
	svc := app.NewBackendService(memory.NewStateRepository(), feed)

	ch, cancel := svc.Subscribe(ctx)
	defer cancel()
	<-ch

	if err := svc.AddFile(ctx, sampleFile("f1")); err != nil {
		t.Fatalf("add file: %v", err)
	}
	if rev := <-ch; rev.Revision != 1 {
		t.Fatalf("expected revision 1, got %d", rev.Revision)
	}
	state, _ := svc.State(ctx)
	if !state.LastUpdated.Equal(feed.Current().UpdatedAt) {
		t.Fatalf("expected lastUpdated to track the feed")
	}
}

func TestBackendServiceKeepsAnsweredQuestion(t *testing.T) {
	ctx := context.Background()
	svc := app.NewBackendService(memory.NewStateRepository(), nil)

	if err := svc.AddQuestion(ctx, sampleQuestion("q1", "original")); err != nil {
		t.Fatalf("add question: %v", err)
	}
	if err := svc.AddSubmission(ctx, sampleSubmission("s1", "q1")); err != nil {
		t.Fatalf("add submission: %v", err)
	}
	rewritten := sampleQuestion("q1", "rewritten")
	rewritten.CorrectAnswer = 3
	if err := svc.AddQuestion(ctx, rewritten); err != nil {
		t.Fatalf("re-add question: %v", err)
	}

	state, _ := svc.State(ctx)
	if len(state.Questions) != 1 {
		t.Fatalf("expected one question, got %d", len(state.Questions))
	}
	q := state.Questions[0]
	if q.Text != "original" || q.CorrectAnswer != 1 {
		t.Fatalf("expected the stored question to be kept, got %+v", q)
	}
	if !state.Submissions[0].IsCorrect || state.Submissions[0].Answer != q.CorrectAnswer {
		t.Fatalf("submission no longer matches its question: %+v", state.Submissions[0])
	}
}
