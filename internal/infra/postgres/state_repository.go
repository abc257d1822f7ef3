package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"aptimaster-sync/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"golang.org/x/sync/errgroup"
)

// StateRepository keeps the local backend's state in Postgres, one JSONB row per entity.
// Questions are listed oldest first; submissions and files newest first.
type StateRepository struct {
	pool *pgxpool.Pool
}

func NewStateRepository(pool *pgxpool.Pool) *StateRepository {
	return &StateRepository{pool: pool}
}

func (r *StateRepository) Load(ctx context.Context) (domain.Snapshot, error) {
	snap := domain.EmptySnapshot()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loadRows(gctx, r.pool, `SELECT data FROM questions ORDER BY seq ASC`, &snap.Questions)
	})
	g.Go(func() error {
		return loadRows(gctx, r.pool, `SELECT data FROM submissions ORDER BY seq DESC`, &snap.Submissions)
	})
	g.Go(func() error {
		return loadRows(gctx, r.pool, `SELECT data FROM files ORDER BY seq DESC`, &snap.Files)
	})
	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func (r *StateRepository) AddQuestion(ctx context.Context, q domain.Question) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO questions (id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO NOTHING`,
		q.ID, string(data))
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (r *StateRepository) DeleteQuestion(ctx context.Context, id string) error {
	err := r.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM submissions WHERE question_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func (r *StateRepository) AddSubmission(ctx context.Context, s domain.Submission) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO submissions (id, question_id, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (id) DO NOTHING`,
		s.ID, s.QuestionID, string(data))
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *StateRepository) AddFile(ctx context.Context, f domain.FileSubmission) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal file: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO files (id, data) VALUES ($1, $2::jsonb) ON CONFLICT (id) DO NOTHING`,
		f.ID, string(data))
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

func loadRows[T any](ctx context.Context, pool *pgxpool.Pool, query string, out *[]T) error {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("query state: %w", err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return fmt.Errorf("unmarshal state row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	*out = items
	return nil
}
