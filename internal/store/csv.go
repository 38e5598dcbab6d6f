package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/portforge/internal/assemble"
	"github.com/roach88/portforge/internal/registry"
	"github.com/roach88/portforge/internal/resolve"
)

// Column candidates for the code sheet, in preference order. Exported
// spreadsheets disagree on spelling, so matching is exact first, then
// substring.
var (
	serviceColumns = []string{"service_name", "service", "api", "services"}
	sourceColumns  = []string{"function_to_translate_json", "code", "porting_code", "port_code"}
	updatedColumns = []string{"date_updated", "last_updated", "updated_at", "modified_at", "date"}
	authorColumns  = []string{"responsible person", "responsible", "owner", "author", "updated_by"}

	taskIDColumns = []string{"sample_id", "sample id", "task_id", "id"}
)

// findHeader picks the first header matching any candidate: a pass of
// exact case-insensitive matches, then a pass of substring matches.
func findHeader(headers, candidates []string) (string, bool) {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, cand := range candidates {
		c := strings.ToLower(strings.TrimSpace(cand))
		for i, h := range norm {
			if h == c {
				return headers[i], true
			}
		}
	}
	for _, cand := range candidates {
		c := strings.ToLower(strings.TrimSpace(cand))
		for i, h := range norm {
			if strings.Contains(h, c) {
				return headers[i], true
			}
		}
	}
	return "", false
}

// readCSV parses r into a header row and field maps, one per data row.
// Short rows pad with empty strings; long rows drop the excess.
func readCSV(r io.Reader) ([]string, []map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

// ParseTasksCSV reads a task-sheet export. The task identifier comes from
// the first matching id column; rows without one get a positional row-N
// identifier so they survive the import.
func ParseTasksCSV(r io.Reader) ([]Task, error) {
	headers, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	idCol, _ := findHeader(headers, taskIDColumns)

	tasks := make([]Task, 0, len(rows))
	for i, raw := range rows {
		id := ""
		if idCol != "" {
			id = strings.TrimSpace(raw[idCol])
		}
		if id == "" {
			id = fmt.Sprintf("row-%d", i+2) // 1-based sheet row, after the header
		}

		row := resolve.TaskRow{}
		for field, value := range raw {
			if field == "" {
				continue
			}
			row[field] = value
		}
		tasks = append(tasks, Task{ID: id, Row: row})
	}
	return tasks, nil
}

// ParseCodeCSV reads a code-sheet export. Service tokens are normalized so
// sheet spellings match registry identifiers; rows without a service or
// source are skipped.
func ParseCodeCSV(r io.Reader) ([]assemble.CodeCandidate, error) {
	headers, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	svcCol, ok := findHeader(headers, serviceColumns)
	if !ok {
		return nil, fmt.Errorf("code sheet has no service column (tried %s)", strings.Join(serviceColumns, ", "))
	}
	srcCol, ok := findHeader(headers, sourceColumns)
	if !ok {
		return nil, fmt.Errorf("code sheet has no source column (tried %s)", strings.Join(sourceColumns, ", "))
	}
	updCol, _ := findHeader(headers, updatedColumns)
	authCol, _ := findHeader(headers, authorColumns)

	var out []assemble.CodeCandidate
	for _, raw := range rows {
		service := registry.NormalizeToken(raw[svcCol])
		source := raw[srcCol]
		if service == "" || strings.TrimSpace(source) == "" {
			continue
		}

		cand := assemble.CodeCandidate{Service: service, Source: source}
		if updCol != "" {
			cand.Updated = strings.TrimSpace(raw[updCol])
		}
		if authCol != "" {
			cand.Author = strings.TrimSpace(raw[authCol])
		}
		out = append(out, cand)
	}
	return out, nil
}

// GroupCandidates indexes candidates by service, preserving input order
// within each service.
func GroupCandidates(candidates []assemble.CodeCandidate) map[string][]assemble.CodeCandidate {
	out := map[string][]assemble.CodeCandidate{}
	for _, c := range candidates {
		out[c.Service] = append(out[c.Service], c)
	}
	return out
}

// ImportTasksCSV loads a task-sheet export into the tasks table and
// returns the number of tasks written.
func (s *Store) ImportTasksCSV(ctx context.Context, r io.Reader) (int, error) {
	tasks, err := ParseTasksCSV(r)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, task := range tasks {
		if err := s.WriteTask(ctx, task.ID, task.Row); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// ImportCodeCSV loads a code-sheet export into the porting_code table and
// returns the number of revisions written.
func (s *Store) ImportCodeCSV(ctx context.Context, r io.Reader) (int, error) {
	candidates, err := ParseCodeCSV(r)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, cand := range candidates {
		if err := s.WriteCandidate(ctx, cand); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
