package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rf2tools/rf2sync/pkg/core"
)

// Client handles communication with the session archive server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the archive server is reachable.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/healthcheck")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Upload sends an exported session file to the archive server as a
// multipart form.
func (c *Client) Upload(filePath string, meta core.UploadMetadata) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	name := filepath.Base(filePath)
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	// the form is streamed so large exports are never held in memory
	errCh := make(chan error, 1)
	go func() {
		err := writeForm(form, file, name, c.formFields(name, meta))
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
		errCh <- err
	}()

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/v1/sessions/add", pr)
	if err != nil {
		pr.CloseWithError(err)
		<-errCh
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		<-errCh
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if writeErr := <-errCh; writeErr != nil {
		return writeErr
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload returned status %d", resp.StatusCode)
	}
	return nil
}

type formField struct{ key, value string }

func (c *Client) formFields(name string, meta core.UploadMetadata) []formField {
	return []formField{
		{"secret", c.apiKey},
		{"filename", name},
		{"trackName", meta.TrackName},
		{"sessionType", meta.SessionType},
		{"driverName", meta.DriverName},
		{"vehicleName", meta.VehicleName},
		{"duration", strconv.FormatFloat(meta.Duration, 'f', 3, 64)},
		{"laps", strconv.Itoa(meta.Laps)},
		{"tag", meta.Tag},
	}
}

func writeForm(form *multipart.Writer, file io.Reader, name string, fields []formField) error {
	for _, f := range fields {
		if err := form.WriteField(f.key, f.value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", f.key, err)
		}
	}
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return nil
}

// Uploadable is an exporter whose last session file can be uploaded.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}

// UploadLatest uploads the last file exported by u, tagged with tag.
func (c *Client) UploadLatest(u Uploadable, tag string) error {
	path := u.GetExportedFilePath()
	if path == "" {
		return fmt.Errorf("no exported session to upload")
	}
	meta := u.GetExportMetadata()
	if tag != "" {
		meta.Tag = tag
	}
	return c.Upload(path, meta)
}
