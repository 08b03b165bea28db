// Package samgov mirrors SAM.gov contract opportunities into the local
// database and scores them against the product catalog.
package samgov

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andretaki/simurgh/internal/config"
)

const (
	searchPageSize = 100
	maxSearchPages = 10
	maxAttempts    = 4
)

// Notice is one record from the opportunities search endpoint. The
// Description field is a URL; the text behind it is fetched separately.
type Notice struct {
	NoticeID           string `json:"noticeId"`
	SolicitationNumber string `json:"solicitationNumber"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	NAICSCode          string `json:"naicsCode"`
	ClassificationCode string `json:"classificationCode"`
	TypeOfSetAside     string `json:"typeOfSetAsideDescription"`
	PostedDate         string `json:"postedDate"`
	ResponseDeadline   string `json:"responseDeadLine"`
	UILink             string `json:"uiLink"`
}

type searchResponse struct {
	TotalRecords      int      `json:"totalRecords"`
	OpportunitiesData []Notice `json:"opportunitiesData"`
}

type descriptionResponse struct {
	Description string `json:"description"`
}

// SearchParams narrows an opportunities search. Exactly one of
// ClassificationCode, Keyword, or NAICS is usually set per call.
type SearchParams struct {
	ClassificationCode string
	Keyword            string
	NAICS              string
	PostedFrom         time.Time
	PostedTo           time.Time
}

// NoticeSource is the client surface the sync service depends on.
type NoticeSource interface {
	Search(ctx context.Context, params SearchParams) ([]Notice, error)
	FetchDescription(ctx context.Context, descURL string) (string, error)
}

type Client struct {
	cfg        config.SamConfig
	httpClient *http.Client
	limiter    *RateLimiter
}

func NewClient(cfg config.SamConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    NewRateLimiter(cfg.RequestDelay),
	}
}

// Search pages through the opportunities endpoint until the server runs out
// of records or the page cap is hit.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Notice, error) {
	var all []Notice
	for page := 0; page < maxSearchPages; page++ {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(searchPageSize))
		query.Set("offset", strconv.Itoa(page*searchPageSize))
		query.Set("postedFrom", params.PostedFrom.Format("01/02/2006"))
		query.Set("postedTo", params.PostedTo.Format("01/02/2006"))
		if params.ClassificationCode != "" {
			query.Set("ccode", params.ClassificationCode)
		}
		if params.Keyword != "" {
			query.Set("title", params.Keyword)
		}
		if params.NAICS != "" {
			query.Set("ncode", params.NAICS)
		}

		body, err := c.get(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/search?"+query.Encode())
		if err != nil {
			return nil, err
		}

		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode search response: %w", err)
		}

		all = append(all, resp.OpportunitiesData...)
		if len(resp.OpportunitiesData) < searchPageSize || len(all) >= resp.TotalRecords {
			break
		}
	}
	return all, nil
}

// FetchDescription retrieves the long-form description behind a notice's
// description URL. Reads are capped so a runaway body cannot exhaust memory.
func (c *Client) FetchDescription(ctx context.Context, descURL string) (string, error) {
	if strings.TrimSpace(descURL) == "" {
		return "", nil
	}
	body, err := c.get(ctx, descURL)
	if err != nil {
		return "", err
	}

	var resp descriptionResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Description != "" {
		return resp.Description, nil
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("missing SAM_API_KEY")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("api_key", c.cfg.APIKey)
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, c.cfg.DescriptionMax))
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < maxAttempts {
				backoff := time.Duration(500*(1<<(attempt-1))+rand.Intn(200)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("sam.gov status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("sam.gov api error: status=%d", resp.StatusCode)
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("sam.gov request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
