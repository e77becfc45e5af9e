package printer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PrintNodeClient submits raw print jobs to the PrintNode cloud API.
// The API key is passed per call because each restaurant stores its own.
type PrintNodeClient struct {
	baseURL string
	http    *http.Client
}

// NewPrintNodeClient creates a client against the given API base URL.
func NewPrintNodeClient(baseURL string) *PrintNodeClient {
	return &PrintNodeClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type printNodeJob struct {
	PrinterID   string `json:"printerId"`
	Title       string `json:"title"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
	Source      string `json:"source"`
}

// SubmitRaw sends an ESC/POS payload to a PrintNode printer and returns
// the job id. PrintNode authenticates with the API key as basic-auth user.
func (c *PrintNodeClient) SubmitRaw(ctx context.Context, apiKey, printerID, title string, raw []byte) (int64, error) {
	body, err := json.Marshal(printNodeJob{
		PrinterID:   printerID,
		Title:       title,
		ContentType: "raw_base64",
		Content:     base64.StdEncoding.EncodeToString(raw),
		Source:      "kiosk",
	})
	if err != nil {
		return 0, fmt.Errorf("marshal job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/printjobs", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(apiKey, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("printnode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("printnode returned status %d", resp.StatusCode)
	}

	var jobID int64
	if err := json.NewDecoder(resp.Body).Decode(&jobID); err != nil {
		return 0, fmt.Errorf("decode job id: %w", err)
	}
	return jobID, nil
}
