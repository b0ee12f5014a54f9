// Package prisonersearch implements secondary.PrisonerDirectory over the
// prisoner search HTTP API.
package prisonersearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/secondary"
)

// Client looks prisoners up by prisoner number.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client. timeout bounds every request; token, when set,
// is sent as a bearer credential.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type prisonerResponse struct {
	PrisonerNumber         string `json:"prisonerNumber"`
	PrisonID               string `json:"prisonId"`
	LegalStatus            string `json:"legalStatus"`
	ReleaseDate            string `json:"releaseDate"`
	LastMovementReasonCode string `json:"lastMovementReasonCode"`
}

// GetPrisoner fetches the person's sentence and location. A 404 is a
// schedule.NotFoundError; timeouts, transport failures and 5xx responses are
// schedule.TransientError.
func (c *Client) GetPrisoner(ctx context.Context, personID string) (*secondary.Prisoner, error) {
	op := "get prisoner " + personID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/prisoner/"+url.PathEscape(personID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build prisoner request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, schedule.TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, schedule.NotFoundError{Entity: schedule.EntityPrisoner, PersonID: personID}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, schedule.TransientError{Op: op, Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var body prisonerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, schedule.TransientError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	p := &secondary.Prisoner{
		PersonID:        personID,
		PrisonID:        body.PrisonID,
		SentenceType:    strings.ToUpper(body.LegalStatus),
		AdmissionReason: body.LastMovementReasonCode,
	}
	if body.ReleaseDate != "" {
		release, err := schedule.ParseDay(body.ReleaseDate)
		if err != nil {
			return nil, fmt.Errorf("%s: release date %q: %w", op, body.ReleaseDate, err)
		}
		p.ReleaseDate = &release
	}
	return p, nil
}

var _ secondary.PrisonerDirectory = (*Client)(nil)
