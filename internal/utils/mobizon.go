package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const mobizonAPIURL = "https://api.mobizon.kz/service/message/sendsmsmessage"

// MobizonClient sends SMS through Mobizon. In dry-run mode the message is
// only written to the log.
type MobizonClient struct {
	APIKey string
	Sender string
	DryRun bool
	APIURL string

	httpClient *http.Client
}

type mobizonResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
}

func NewMobizonClient(apiKey, sender string, dryRun bool) *MobizonClient {
	return &MobizonClient{
		APIKey:     apiKey,
		Sender:     sender,
		DryRun:     dryRun,
		APIURL:     mobizonAPIURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *MobizonClient) IsConfigured() bool {
	return c != nil && (c.DryRun || c.APIKey != "")
}

func (c *MobizonClient) SendSMS(ctx context.Context, to, text string) error {
	if !c.IsConfigured() {
		return fmt.Errorf("mobizon: api key not set")
	}
	if c.DryRun {
		log.Infof("[sms][mobizon][dry-run] to=%s sender=%q text=%q", to, c.Sender, text)
		return nil
	}

	form := url.Values{
		"apiKey":    {c.APIKey},
		"recipient": {strings.TrimPrefix(to, "+")},
		"text":      {text},
	}
	if c.Sender != "" {
		form.Set("from", c.Sender)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("mobizon: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mobizon: send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var result mobizonResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("mobizon: parse response (status %d): %w", resp.StatusCode, err)
	}
	if result.Code != 0 {
		return fmt.Errorf("mobizon: error code %d: %s", result.Code, result.Message)
	}
	log.Infof("[sms][mobizon] sent to=%s messageID=%s", to, result.Data.MessageID)
	return nil
}
