package hostedapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rafidev/contact-admin/internal/model"
	"github.com/rafidev/contact-admin/internal/remote"
)

// submissionsTable is the PostgREST resource holding contact submissions.
const submissionsTable = "contact_submissions"

// submissionOrder keeps pagination stable: created_at descending with id
// descending as the tiebreak.
const submissionOrder = "created_at.desc,id.desc"

// QuerySubmissions encodes the query descriptor as PostgREST parameters
// and a Range header, asking for an exact filtered count alongside the
// window.
func (c *Client) QuerySubmissions(ctx context.Context, q remote.SubmissionQuery) (*remote.QueryResult, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", submissionOrder)
	encodeFilter(params, q.Filter)

	req, err := c.newRestRequest(ctx, http.MethodGet, submissionsTable, params, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range-Unit", "items")
	// PostgREST ranges are inclusive; the descriptor's end is exclusive.
	req.Header.Set("Range", fmt.Sprintf("%d-%d", q.RangeStart, q.RangeEnd-1))
	req.Header.Set("Prefer", "count=exact")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, remote.Transport("query submissions", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent &&
		resp.StatusCode != http.StatusRequestedRangeNotSatisfiable {
		return nil, restError("query submissions", resp)
	}

	var rows []*model.Submission
	// A range past the end answers 416 with no usable body.
	if resp.StatusCode != http.StatusRequestedRangeNotSatisfiable {
		if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
			return nil, remote.Transport("query submissions", fmt.Errorf("decode rows: %w", err))
		}
	}

	count, err := parseContentRangeCount(resp.Header.Get("Content-Range"))
	if err != nil {
		return nil, remote.Transport("query submissions", err)
	}
	return &remote.QueryResult{Rows: rows, MatchedCount: count}, nil
}

// encodeFilter translates a FilterSpec into PostgREST operators.
func encodeFilter(params url.Values, f model.FilterSpec) {
	if f.HasStatus() {
		params.Set("status", "eq."+f.Status)
	}
	if f.Search != "" {
		needle := sanitizeNeedle(f.Search)
		pattern := "*" + needle + "*"
		params.Set("or", fmt.Sprintf("(name.ilike.%s,email.ilike.%s,subject.ilike.%s)",
			pattern, pattern, pattern))
	}
	if !f.From.IsZero() {
		params.Add("created_at", "gte."+f.From.UTC().Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		params.Add("created_at", "lte."+f.To.UTC().Format(time.RFC3339))
	}
}

// sanitizeNeedle strips the characters that delimit PostgREST's or=()
// syntax so a search term cannot break out of the expression.
func sanitizeNeedle(s string) string {
	return strings.NewReplacer(",", " ", "(", " ", ")", " ").Replace(s)
}

// parseContentRangeCount reads the total from a "start-end/total" or
// "*/total" Content-Range value.
func parseContentRangeCount(header string) (int, error) {
	_, total, ok := strings.Cut(header, "/")
	if !ok {
		return 0, fmt.Errorf("malformed Content-Range %q", header)
	}
	if total == "*" {
		return 0, fmt.Errorf("no exact count in Content-Range %q", header)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range %q", header)
	}
	return n, nil
}

// statusTimeRow mirrors the reduced projection select.
type statusTimeRow struct {
	Status    model.Status `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// FetchStatusTimes pulls only (status, created_at) for the aggregator.
func (c *Client) FetchStatusTimes(ctx context.Context) ([]remote.StatusTime, error) {
	params := url.Values{}
	params.Set("select", "status,created_at")

	req, err := c.newRestRequest(ctx, http.MethodGet, submissionsTable, params, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, remote.Transport("fetch status times", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, restError("fetch status times", resp)
	}

	var rows []statusTimeRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, remote.Transport("fetch status times", fmt.Errorf("decode rows: %w", err))
	}
	out := make([]remote.StatusTime, len(rows))
	for i, r := range rows {
		out[i] = remote.StatusTime{Status: r.Status, CreatedAt: r.CreatedAt}
	}
	return out, nil
}

// UpdateSubmission patches one row and asks for the representation back;
// an empty representation means the id matched nothing.
func (c *Client) UpdateSubmission(ctx context.Context, id string, patch remote.SubmissionPatch) (*model.Submission, error) {
	params := url.Values{}
	params.Set("id", "eq."+id)

	body, _ := json.Marshal(map[string]any{
		"status":     patch.Status,
		"updated_at": patch.UpdatedAt.UTC().Format(time.RFC3339),
	})
	req, err := c.newRestRequest(ctx, http.MethodPatch, submissionsTable, params, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, remote.Transport("update submission", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, restError("update submission", resp)
	}

	var rows []*model.Submission
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, remote.Transport("update submission", fmt.Errorf("decode rows: %w", err))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("update submission %s: %w", id, remote.ErrNotFound)
	}
	return rows[0], nil
}

// DeleteSubmission removes one row. The representation distinguishes a
// real delete from a no-match, which PostgREST otherwise reports
// identically.
func (c *Client) DeleteSubmission(ctx context.Context, id string) error {
	params := url.Values{}
	params.Set("id", "eq."+id)

	req, err := c.newRestRequest(ctx, http.MethodDelete, submissionsTable, params, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return remote.Transport("delete submission", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return restError("delete submission", resp)
	}

	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return remote.Transport("delete submission", fmt.Errorf("decode rows: %w", err))
	}
	if len(rows) == 0 {
		return fmt.Errorf("delete submission %s: %w", id, remote.ErrNotFound)
	}
	return nil
}

// newRestRequest builds a PostgREST request carrying the anon key and,
// when a session is cached, its bearer token.
func (c *Client) newRestRequest(ctx context.Context, method, table string, params url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + "/rest/v1/" + table
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, remote.Transport("build request", err)
	}
	req.Header.Set("apikey", c.apiKey)
	if tok := c.accessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// restError maps an unexpected PostgREST status onto the error taxonomy.
func restError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr errorResponse
	_ = json.Unmarshal(raw, &apiErr)

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w", op, remote.ErrRateLimited)
	}
	msg := apiErr.text()
	if msg == "" {
		msg = string(raw)
	}
	return remote.Transport(op, fmt.Errorf("status %d: %s", resp.StatusCode, msg))
}
