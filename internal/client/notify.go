package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// NotifyClient posts consolidation events to the external notification
// service (email/push dispatch lives there, not here). Every method is
// fail-soft: delivery problems are logged and swallowed, consolidation never
// depends on them.
type NotifyClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewNotifyClient(baseURL string) *NotifyClient {
	return &NotifyClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type mergeEvent struct {
	ParentReportID    string `json:"parentReportId"`
	DuplicateReportID string `json:"duplicateReportId"`
}

type reopenEvent struct {
	ReportID string `json:"reportId"`
}

func (c *NotifyClient) ReportMerged(ctx context.Context, parentID, duplicateID string) {
	if err := c.post(ctx, "/events/report-merged", mergeEvent{
		ParentReportID:    parentID,
		DuplicateReportID: duplicateID,
	}); err != nil {
		log.Printf("Warning: merge notification failed for %s -> %s: %v", duplicateID, parentID, err)
	}
}

func (c *NotifyClient) ReportReopened(ctx context.Context, reportID string) {
	if err := c.post(ctx, "/events/report-reopened", reopenEvent{ReportID: reportID}); err != nil {
		log.Printf("Warning: reopen notification failed for %s: %v", reportID, err)
	}
}

func (c *NotifyClient) post(ctx context.Context, endpoint string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notify service returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
