package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/rafidev/contact-admin/internal/model"
	"github.com/rafidev/contact-admin/internal/remote"
)

const submissionColumns = `id, COALESCE(name, ''), email, COALESCE(subject, ''), message, status, created_at, updated_at`

// QuerySubmissions runs the filtered window query plus the matching count
// query, both built from the same clause so they cannot drift.
func (s *Store) QuerySubmissions(ctx context.Context, q remote.SubmissionQuery) (*remote.QueryResult, error) {
	where, args := buildFilterClause(q.Filter)

	limit := q.RangeEnd - q.RangeStart
	if limit < 0 {
		limit = 0
	}
	listArgs := append(append([]any(nil), args...), limit, q.RangeStart)
	query := `SELECT ` + submissionColumns + ` FROM contact_submissions ` + where +
		` ORDER BY created_at DESC, id DESC` +
		` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)

	rows, err := s.pool.Query(ctx, query, listArgs...)
	if err != nil {
		return nil, remote.Transport("query submissions", err)
	}
	defer rows.Close()

	var items []*model.Submission
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Email, &sub.Subject, &sub.Message,
			&sub.Status, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, remote.Transport("query submissions", err)
		}
		items = append(items, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, remote.Transport("query submissions", err)
	}

	var count int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM contact_submissions `+where, args...,
	).Scan(&count); err != nil {
		return nil, remote.Transport("count submissions", err)
	}

	return &remote.QueryResult{Rows: items, MatchedCount: count}, nil
}

// buildFilterClause translates a FilterSpec into a WHERE clause with
// numbered placeholders. Returns "" and no args for an empty filter.
func buildFilterClause(f model.FilterSpec) (string, []any) {
	var conditions []string
	var args []any

	next := func() string { return "$" + strconv.Itoa(len(args)) }

	if f.HasStatus() {
		args = append(args, f.Status)
		conditions = append(conditions, "status = "+next())
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		p := next()
		conditions = append(conditions,
			"(name ILIKE "+p+" OR email ILIKE "+p+" OR subject ILIKE "+p+")")
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		conditions = append(conditions, "created_at >= "+next())
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		conditions = append(conditions, "created_at <= "+next())
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// escapeLike neutralizes LIKE metacharacters in a search needle.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// FetchStatusTimes pulls the (status, created_at) projection for the
// aggregator.
func (s *Store) FetchStatusTimes(ctx context.Context) ([]remote.StatusTime, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, created_at FROM contact_submissions`)
	if err != nil {
		return nil, remote.Transport("fetch status times", err)
	}
	defer rows.Close()

	var out []remote.StatusTime
	for rows.Next() {
		var st remote.StatusTime
		if err := rows.Scan(&st.Status, &st.CreatedAt); err != nil {
			return nil, remote.Transport("fetch status times", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, remote.Transport("fetch status times", err)
	}
	return out, nil
}

// UpdateSubmission applies the patch and returns the updated row via
// RETURNING.
func (s *Store) UpdateSubmission(ctx context.Context, id string, patch remote.SubmissionPatch) (*model.Submission, error) {
	var sub model.Submission
	err := s.pool.QueryRow(ctx,
		`UPDATE contact_submissions SET status = $1, updated_at = $2 WHERE id = $3
		 RETURNING `+submissionColumns,
		patch.Status, patch.UpdatedAt, id,
	).Scan(&sub.ID, &sub.Name, &sub.Email, &sub.Subject, &sub.Message,
		&sub.Status, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update submission %s: %w", id, remote.ErrNotFound)
	}
	if err != nil {
		return nil, remote.Transport("update submission", err)
	}
	return &sub, nil
}

// DeleteSubmission removes the row; zero rows affected means the id was
// already gone.
func (s *Store) DeleteSubmission(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contact_submissions WHERE id = $1`, id)
	if err != nil {
		return remote.Transport("delete submission", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete submission %s: %w", id, remote.ErrNotFound)
	}
	return nil
}
