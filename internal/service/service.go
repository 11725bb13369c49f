// Package service holds one request module per backend or AI server feature area.
// Every call takes a context, unwraps the backend envelope and returns typed models.
package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/student-ai-platform/internal/apiclient"
	apperrors "github.com/student-ai-platform/internal/errors"
)

// Failure carries the user-facing text of a failed operation.
// The underlying categorized error stays reachable through Unwrap.
type Failure struct {
	Text string
	Err  error
}

func (f *Failure) Error() string {
	return f.Text
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(text string, err error) *Failure {
	return &Failure{Text: text, Err: err}
}

// Message returns the text to show a user for err
func Message(err error) string {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Text
	}
	var catErr *apperrors.CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Message
	}
	return err.Error()
}

// getData issues a GET and unwraps the envelope data into out
func getData(ctx context.Context, c *apiclient.Client, path string, query url.Values, out interface{}) error {
	var env apiclient.Envelope
	if err := c.Get(ctx, path, query, &env); err != nil {
		return err
	}
	return apiclient.DecodeData(&env, out)
}

// callData executes req and unwraps the envelope data into out
func callData(ctx context.Context, c *apiclient.Client, req apiclient.Request, out interface{}) error {
	var env apiclient.Envelope
	if err := c.Do(ctx, req, &env); err != nil {
		return err
	}
	return apiclient.DecodeData(&env, out)
}

// bodyText returns the first non-empty string field of the error body
func bodyText(err error, fields ...string) string {
	body := apiclient.ErrorBody(err)
	for _, f := range fields {
		if s, ok := body[f].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// aiErrorText prefers the FastAPI detail, then the server message, then fallback
func aiErrorText(err error, fallback string) string {
	if s := bodyText(err, "detail", "message"); s != "" {
		return s
	}
	return fallback
}

// pageQuery encodes limit and offset, skipping zero values
func pageQuery(q url.Values, limit, offset int) url.Values {
	if q == nil {
		q = url.Values{}
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	return q
}
