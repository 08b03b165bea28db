// Package mail polls a Microsoft 365 mailbox for RFQ attachments and feeds
// them into document ingestion.
package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/andretaki/simurgh/internal/config"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

type Message struct {
	ID             string
	Subject        string
	From           string
	ReceivedAt     *time.Time
	HasAttachments bool
}

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type GraphClient struct {
	httpClient *http.Client
	mailbox    string
}

// NewGraphClient authenticates with client credentials; the token source
// refreshes itself.
func NewGraphClient(cfg config.MailConfig) *GraphClient {
	oauthCfg := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	return &GraphClient{
		httpClient: oauthCfg.Client(context.Background()),
		mailbox:    cfg.Mailbox,
	}
}

type graphMessage struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    struct {
		EmailAddress struct {
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
	ReceivedDateTime string `json:"receivedDateTime"`
	HasAttachments   bool   `json:"hasAttachments"`
}

type graphAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

func (c *GraphClient) ListUnread(ctx context.Context, max int) ([]Message, error) {
	if max <= 0 {
		max = 25
	}

	query := url.Values{}
	query.Set("$filter", "isRead eq false")
	query.Set("$top", strconv.Itoa(max))
	query.Set("$select", "id,subject,from,receivedDateTime,hasAttachments")
	query.Set("$orderby", "receivedDateTime asc")

	endpoint := fmt.Sprintf("%s/users/%s/mailFolders/inbox/messages?%s",
		graphBaseURL, url.PathEscape(c.mailbox), query.Encode())

	var payload struct {
		Value []graphMessage `json:"value"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("list unread messages: %w", err)
	}

	messages := make([]Message, 0, len(payload.Value))
	for _, m := range payload.Value {
		msg := Message{
			ID:             m.ID,
			Subject:        m.Subject,
			From:           m.From.EmailAddress.Address,
			HasAttachments: m.HasAttachments,
		}
		if t, err := time.Parse(time.RFC3339, m.ReceivedDateTime); err == nil {
			msg.ReceivedAt = &t
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (c *GraphClient) Attachments(ctx context.Context, messageID string) ([]Attachment, error) {
	endpoint := fmt.Sprintf("%s/users/%s/messages/%s/attachments",
		graphBaseURL, url.PathEscape(c.mailbox), url.PathEscape(messageID))

	var payload struct {
		Value []graphAttachment `json:"value"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}

	var attachments []Attachment
	for _, a := range payload.Value {
		// Inline images and nested messages are not documents.
		if !strings.HasSuffix(a.ODataType, "fileAttachment") || a.ContentBytes == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(a.ContentBytes)
		if err != nil {
			continue
		}
		attachments = append(attachments, Attachment{
			Name:        a.Name,
			ContentType: a.ContentType,
			Data:        data,
		})
	}
	return attachments, nil
}

func (c *GraphClient) MarkRead(ctx context.Context, messageID string) error {
	endpoint := fmt.Sprintf("%s/users/%s/messages/%s",
		graphBaseURL, url.PathEscape(c.mailbox), url.PathEscape(messageID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint,
		strings.NewReader(`{"isRead": true}`))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("mark read failed (%d)", resp.StatusCode)
	}
	return nil
}

func (c *GraphClient) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("graph api error (%d): %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(dest)
}
