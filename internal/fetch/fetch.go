// Package fetch is the outbound HTTP collaborator. It retrieves the three
// raw per-term blobs the parsers consume; it does no parsing itself.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/coursewatch/coursewatch/internal/logger"
)

const (
	DefaultBaseURL = "https://swing.langara.bc.ca/prod"
	UserAgent      = "coursewatch/1.0 (github.com/coursewatch/coursewatch)"
	Timeout        = 60 * time.Second

	maxRetries = 3
)

// TermBlobs are the raw documents for one term.
type TermBlobs struct {
	Sections   []byte
	Catalogue  []byte
	Attributes []byte
}

type Client struct {
	http *http.Client
	base string
	log  *logger.Logger
}

func New(log *logger.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: Timeout},
		base: DefaultBaseURL,
		log:  log.With("component", "fetch"),
	}
}

// NewWithBase is used by tests to point the client at a local server.
func NewWithBase(base string, log *logger.Logger) *Client {
	c := New(log)
	c.base = base
	return c
}

// Term fetches the three blobs for (year, term). A term the registration
// system does not know yet returns (nil, nil); that is how callers detect
// the end of the historical range.
func (c *Client) Term(ctx context.Context, year, term int) (*TermBlobs, error) {
	termIn := fmt.Sprintf("%d%d", year, term)

	form := url.Values{}
	form.Set("term_in", termIn)
	form.Add("sel_subj", "dummy")
	form.Add("sel_subj", "%")
	form.Set("sel_crse", "")
	form.Set("sel_title", "")
	for _, field := range []string{"sel_day", "sel_ptrm", "sel_dept", "sel_schd", "sel_sess", "sel_instr", "sel_attr"} {
		form.Add(field, "dummy")
	}

	sections, err := c.post(ctx, "/hzgkfcls.P_GetCrse", form)
	if err != nil {
		return nil, fmt.Errorf("fetching sections for %s: %w", termIn, err)
	}
	// The search form answers every term, including ones that don't exist
	// yet; only real terms come back with the data table.
	if !strings.Contains(string(sections), "dataentrytable") {
		c.log.Info("no data for term", "term", termIn)
		return nil, nil
	}

	catalogue, err := c.get(ctx, "/hzgkcald.P_DisplayCatalog?term_in="+termIn)
	if err != nil {
		return nil, fmt.Errorf("fetching catalogue for %s: %w", termIn, err)
	}
	attributes, err := c.get(ctx, "/hzgkcald.P_DispCrseAttr?term_in="+termIn)
	if err != nil {
		return nil, fmt.Errorf("fetching attributes for %s: %w", termIn, err)
	}

	return &TermBlobs{Sections: sections, Catalogue: catalogue, Attributes: attributes}, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	})
}

func (c *Client) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	body := form.Encode()
	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
}

// do runs one request with exponential backoff on transient failures.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	var payload []byte

	operation := func() error {
		req, err := build()
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", UserAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("upstream status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
		}

		payload, err = io.ReadAll(resp.Body)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return payload, nil
}
