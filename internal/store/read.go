package store

import (
	"context"
	"fmt"

	"github.com/roach88/portforge/internal/assemble"
	"github.com/roach88/portforge/internal/resolve"
)

// Task is one stored task: its identifier and the raw field map.
type Task struct {
	ID  string
	Row resolve.TaskRow
}

// ReadTasks returns every stored task. Tasks are ordered by task_id with
// ORDER BY task_id COLLATE BINARY ASC so runs over the same database
// always process tasks in the same order.
//
// Returns an empty slice (not nil) when the database holds no tasks.
func (s *Store) ReadTasks(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, field, value
		FROM tasks
		ORDER BY task_id COLLATE BINARY ASC, field COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	index := map[string]int{}
	for rows.Next() {
		var id, field, value string
		if err := rows.Scan(&id, &field, &value); err != nil {
			return nil, fmt.Errorf("scan task field: %w", err)
		}
		i, seen := index[id]
		if !seen {
			i = len(tasks)
			index[id] = i
			tasks = append(tasks, Task{ID: id, Row: resolve.TaskRow{}})
		}
		tasks[i].Row[field] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// ReadTask returns one task by identifier. The bool is false when the task
// does not exist.
func (s *Store) ReadTask(ctx context.Context, id string) (Task, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT field, value
		FROM tasks
		WHERE task_id = ?
		ORDER BY field COLLATE BINARY ASC
	`, id)
	if err != nil {
		return Task{}, false, fmt.Errorf("query task %q: %w", id, err)
	}
	defer rows.Close()

	task := Task{ID: id, Row: resolve.TaskRow{}}
	found := false
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return Task{}, false, fmt.Errorf("scan task field: %w", err)
		}
		task.Row[field] = value
		found = true
	}

	if err := rows.Err(); err != nil {
		return Task{}, false, fmt.Errorf("iterate task %q: %w", id, err)
	}

	return task, found, nil
}

// ReadCandidates returns every stored porting-source revision grouped by
// service. Within a service, revisions keep insertion order (ORDER BY id
// ASC), which the selection tie-break depends on.
func (s *Store) ReadCandidates(ctx context.Context) (map[string][]assemble.CodeCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT service, source, updated, author
		FROM porting_code
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query porting code: %w", err)
	}
	defer rows.Close()

	out := map[string][]assemble.CodeCandidate{}
	for rows.Next() {
		var c assemble.CodeCandidate
		if err := rows.Scan(&c.Service, &c.Source, &c.Updated, &c.Author); err != nil {
			return nil, fmt.Errorf("scan porting code: %w", err)
		}
		out[c.Service] = append(out[c.Service], c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate porting code: %w", err)
	}

	return out, nil
}
