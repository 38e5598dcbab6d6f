package store

import (
	"context"
	"fmt"

	"github.com/roach88/portforge/internal/assemble"
	"github.com/roach88/portforge/internal/resolve"
)

// WriteTask stores or replaces one task's field map.
func (s *Store) WriteTask(ctx context.Context, id string, row resolve.TaskRow) error {
	if id == "" {
		return fmt.Errorf("task id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write task: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("clear task %q: %w", id, err)
	}
	for field, value := range row {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (task_id, field, value) VALUES (?, ?, ?)
		`, id, field, value)
		if err != nil {
			return fmt.Errorf("insert task %q field %q: %w", id, field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit task %q: %w", id, err)
	}
	return nil
}

// WriteCandidate appends one porting-source revision. Revisions are never
// overwritten; insertion order is the selection tie-break.
func (s *Store) WriteCandidate(ctx context.Context, c assemble.CodeCandidate) error {
	if c.Service == "" {
		return fmt.Errorf("candidate service is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO porting_code (service, source, updated, author) VALUES (?, ?, ?, ?)
	`, c.Service, c.Source, c.Updated, c.Author)
	if err != nil {
		return fmt.Errorf("insert porting code for %q: %w", c.Service, err)
	}
	return nil
}
