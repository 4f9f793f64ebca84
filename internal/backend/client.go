// Package backend is the HTTP client for the transcription service: job
// submission, status polling, audio resolution and best-effort edit saves.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vtstudio/transcript-studio/internal/transcript"
)

// Config holds the client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// DefaultConfig returns the configuration matching a local backend.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8001",
		Timeout: 30 * time.Second,
	}
}

// Client talks to the transcription backend.
type Client struct {
	config Config
	client *http.Client
}

// NewClient creates a backend client.
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// SubmitJob uploads the media file and returns the backend-assigned task id.
func (c *Client) SubmitJob(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open upload file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to read upload file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/upload", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload rejected: %s", readErrorBody(resp))
	}

	var submitted struct {
		TaskID string `json:"task_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if submitted.TaskID == "" {
		return "", fmt.Errorf("upload response carried no task id")
	}
	return submitted.TaskID, nil
}

// GetJobStatus queries the current status of a submitted job.
func (c *Client) GetJobStatus(ctx context.Context, taskID string) (JobStatus, error) {
	endpoint := c.config.BaseURL + "/tasks/" + url.PathEscape(taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("failed to build status request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return JobStatus{}, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return JobStatus{}, fmt.Errorf("status query rejected: %s", readErrorBody(resp))
	}

	var status JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return JobStatus{}, fmt.Errorf("failed to decode status response: %w", err)
	}
	if status.TaskID == "" {
		status.TaskID = taskID
	}
	return status, nil
}

// AudioURL resolves the playable URL of an audio artifact of the job,
// e.g. the separated-vocals track.
func (c *Client) AudioURL(taskID, filename string) string {
	return c.config.BaseURL + "/audio/" + url.PathEscape(taskID) + "/" + url.PathEscape(filename)
}

// DownloadAudio streams an audio artifact to w.
func (c *Client) DownloadAudio(ctx context.Context, audioURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build audio request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("audio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("audio fetch rejected: %s", readErrorBody(resp))
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to stream audio: %w", err)
	}
	return nil
}

// SaveEdits persists the corrected segments on the backend. Best effort:
// callers report failures to the user but do not retry automatically.
func (c *Client) SaveEdits(ctx context.Context, taskID string, segments []transcript.Segment) error {
	payload, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}

	endpoint := c.config.BaseURL + "/save/" + url.PathEscape(taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build save request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("save request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("save rejected: %s", readErrorBody(resp))
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
}

func readErrorBody(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return resp.Status
	}
	return fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
}
