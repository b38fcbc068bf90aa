// Package client is the HTTP boundary to a Pipeline 2 web service. It
// speaks the service's XML resources and hides request signing behind the
// configuration: with credentials every URL carries authid, time, nonce and
// an HMAC-SHA1 sign parameter, without them URLs go out plain.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/go-logr/logr"

	"github.com/pipelinekit/pipeline-client/pkg/config"
	"github.com/pipelinekit/pipeline-client/pkg/job"
	"github.com/pipelinekit/pipeline-client/pkg/script"
)

// Client defines the interface for Pipeline 2 web service operations
// This enables dependency injection and testing with mock implementations
type Client interface {
	// Alive fetches the service liveness descriptor
	Alive(ctx context.Context) (*Alive, error)

	// Scripts fetches all available script descriptions
	Scripts(ctx context.Context) ([]*script.Script, error)

	// Script fetches one script description by id
	Script(ctx context.Context, id string) (*script.Script, error)

	// CreateJob submits the job and feeds the service's response back
	// into it
	CreateJob(ctx context.Context, j *job.Job) error

	// Job refreshes the job from the service
	Job(ctx context.Context, j *job.Job) error

	// DeleteJob removes the job from the service
	DeleteJob(ctx context.Context, id string) error

	// Log fetches the job's execution log
	Log(ctx context.Context, id string) ([]byte, error)

	// Halt shuts the service down using its halt key
	Halt(ctx context.Context, key string) error
}

// Alive describes the service's liveness resource
type Alive struct {
	Authentication bool
	Mode           string
	Version        string
}

// WSClient implements Client over net/http
type WSClient struct {
	baseURL    string
	authID     string
	authSecret string
	httpClient *http.Client
	metrics    *Metrics
	log        logr.Logger

	// Injectable for deterministic signing tests
	now   func() time.Time
	nonce func() string
}

// NewClient creates a web service client from the configuration. metrics
// may be nil to disable instrumentation.
func NewClient(cfg *config.Config, metrics *Metrics, log logr.Logger) (*WSClient, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, &ClientError{
			Type:    "invalid_input",
			Message: "base URL is required",
		}
	}
	return &WSClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		authID:     cfg.AuthID,
		authSecret: cfg.AuthSecret,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		metrics:    metrics,
		log:        log,
		now:        time.Now,
		nonce:      newNonce,
	}, nil
}

// Alive fetches the service liveness descriptor.
func (c *WSClient) Alive(ctx context.Context) (*Alive, error) {
	body, err := c.get(ctx, "alive", "/alive")
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil || doc.Root() == nil {
		return nil, &ClientError{
			Type:    "parse_error",
			Message: "failed to parse alive response",
			Err:     err,
		}
	}
	root := doc.Root()
	return &Alive{
		Authentication: root.SelectAttrValue("authentication", "") == "true",
		Mode:           root.SelectAttrValue("mode", ""),
		Version:        root.SelectAttrValue("version", ""),
	}, nil
}

// Scripts fetches all available script descriptions.
func (c *WSClient) Scripts(ctx context.Context) ([]*script.Script, error) {
	body, err := c.get(ctx, "scripts", "/scripts")
	if err != nil {
		return nil, err
	}
	scripts, err := script.ParseScripts(body)
	if err != nil {
		return nil, &ClientError{
			Type:    "parse_error",
			Message: "failed to parse scripts response",
			Err:     err,
		}
	}
	return scripts, nil
}

// Script fetches one script description by id.
func (c *WSClient) Script(ctx context.Context, id string) (*script.Script, error) {
	if id == "" {
		return nil, &ClientError{
			Type:    "invalid_input",
			Message: "script id cannot be empty",
		}
	}
	body, err := c.get(ctx, "script", "/scripts/"+id)
	if err != nil {
		return nil, err
	}
	s, err := script.FromXML(body)
	if err != nil {
		return nil, &ClientError{
			Type:    "parse_error",
			Message: "failed to parse script response",
			Err:     err,
			Context: id,
		}
	}
	return s, nil
}

// CreateJob submits the job. Jobs with a non-empty context go out as
// multipart (request XML plus zipped context); jobs without one post the
// request XML directly. The service's job response is fed back into j.
func (c *WSClient) CreateJob(ctx context.Context, j *job.Job) error {
	requestXML, err := j.RequestXML()
	if err != nil {
		return &ClientError{
			Type:    "invalid_input",
			Message: "failed to serialize job request",
			Err:     err,
			Context: j.ID(),
		}
	}

	var payload io.Reader
	contentType := "application/xml"
	if !j.Context().Empty() {
		payload, contentType, err = c.multipartPayload(j, requestXML)
		if err != nil {
			return err
		}
	} else {
		payload = bytes.NewReader(requestXML)
	}

	status, body, err := c.do(ctx, "create_job", http.MethodPost, "/jobs", payload, contentType)
	if err != nil {
		return err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return c.statusError(status, body, j.ID())
	}
	if err := j.SetJobXML(body); err != nil {
		return &ClientError{
			Type:    "parse_error",
			Message: "failed to parse job creation response",
			Err:     err,
			Context: j.ID(),
		}
	}
	c.log.V(1).Info("created job", "job", j.ID(), "href", j.Href())
	return nil
}

// multipartPayload flushes the job context to a temp dir, zips it and wraps
// both parts into a multipart body.
func (c *WSClient) multipartPayload(j *job.Job, requestXML []byte) (io.Reader, string, error) {
	tmpDir, err := os.MkdirTemp("", "pipeline-submit-*")
	if err != nil {
		return nil, "", &ClientError{
			Type:    "invalid_input",
			Message: "failed to create temporary context directory",
			Err:     err,
		}
	}
	defer os.RemoveAll(tmpDir)

	if err := j.Context().Flush(tmpDir); err != nil {
		return nil, "", &ClientError{
			Type:    "invalid_input",
			Message: "failed to materialize job context",
			Err:     err,
			Context: j.ID(),
		}
	}
	zipPath, err := j.Context().Zip(tmpDir)
	if err != nil {
		return nil, "", &ClientError{
			Type:    "invalid_input",
			Message: "failed to zip job context",
			Err:     err,
			Context: j.ID(),
		}
	}
	defer os.Remove(zipPath)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("job-request", "jobRequest.xml")
	if err == nil {
		_, err = part.Write(requestXML)
	}
	if err == nil {
		var zipFile *os.File
		zipFile, err = os.Open(zipPath)
		if err == nil {
			var dataPart io.Writer
			dataPart, err = w.CreateFormFile("job-data", "jobData.zip")
			if err == nil {
				_, err = io.Copy(dataPart, zipFile)
			}
			zipFile.Close()
		}
	}
	if err == nil {
		err = w.Close()
	}
	if err != nil {
		return nil, "", &ClientError{
			Type:    "invalid_input",
			Message: "failed to build multipart job submission",
			Err:     err,
			Context: j.ID(),
		}
	}
	return &buf, w.FormDataContentType(), nil
}

// Job refreshes the job from the service.
func (c *WSClient) Job(ctx context.Context, j *job.Job) error {
	if j.ID() == "" {
		return &ClientError{
			Type:    "invalid_input",
			Message: "job id cannot be empty",
		}
	}
	body, err := c.get(ctx, "job", "/jobs/"+j.ID())
	if err != nil {
		return err
	}
	if err := j.SetJobXML(body); err != nil {
		return &ClientError{
			Type:    "parse_error",
			Message: "failed to parse job response",
			Err:     err,
			Context: j.ID(),
		}
	}
	return nil
}

// DeleteJob removes the job from the service.
func (c *WSClient) DeleteJob(ctx context.Context, id string) error {
	if id == "" {
		return &ClientError{
			Type:    "invalid_input",
			Message: "job id cannot be empty",
		}
	}
	status, body, err := c.do(ctx, "delete_job", http.MethodDelete, "/jobs/"+id, nil, "")
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return c.statusError(status, body, id)
	}
	return nil
}

// Log fetches the job's execution log as plain text.
func (c *WSClient) Log(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, &ClientError{
			Type:    "invalid_input",
			Message: "job id cannot be empty",
		}
	}
	return c.get(ctx, "log", "/jobs/"+id+"/log")
}

// Halt shuts the service down using the halt key it wrote at startup.
func (c *WSClient) Halt(ctx context.Context, key string) error {
	if key == "" {
		return &ClientError{
			Type:    "invalid_input",
			Message: "halt key cannot be empty",
		}
	}
	status, body, err := c.do(ctx, "halt", http.MethodGet, "/admin/halt/"+key, nil, "")
	if err != nil {
		return err
	}
	if status >= 300 {
		return c.statusError(status, body, "halt")
	}
	return nil
}

// get performs a GET expecting a 200 with a body.
func (c *WSClient) get(ctx context.Context, operation, path string) ([]byte, error) {
	status, body, err := c.do(ctx, operation, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.statusError(status, body, path)
	}
	return body, nil
}

// do performs one signed request and records its metrics.
func (c *WSClient) do(ctx context.Context, operation, method, path string, body io.Reader, contentType string) (int, []byte, error) {
	url := c.baseURL + path
	if c.authID != "" && c.authSecret != "" {
		url = signURL(url, c.authID, c.authSecret, c.now(), c.nonce())
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, &ClientError{
			Type:    "invalid_input",
			Message: "failed to build request",
			Err:     err,
			Context: path,
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		c.metrics.observe(operation, "connection_error", elapsed)
		return 0, nil, &ClientError{
			Type:    "connection_error",
			Message: "request failed",
			Err:     err,
			Context: path,
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.observe(operation, "connection_error", elapsed)
		return 0, nil, &ClientError{
			Type:    "connection_error",
			Message: "failed to read response body",
			Err:     err,
			Context: path,
		}
	}

	outcome := "success"
	if resp.StatusCode >= 400 {
		outcome = fmt.Sprintf("http_%d", resp.StatusCode)
	}
	c.metrics.observe(operation, outcome, elapsed)
	c.log.V(2).Info("request complete", "method", method, "path", path, "status", resp.StatusCode)
	return resp.StatusCode, data, nil
}

// statusError maps an unexpected HTTP status to a typed error.
func (c *WSClient) statusError(status int, body []byte, context string) error {
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = http.StatusText(status)
	}

	errType := "api_error"
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		errType = "authentication_error"
	case http.StatusNotFound:
		errType = "not_found"
	}
	return &ClientError{
		Type:    errType,
		Message: fmt.Sprintf("unexpected status %d: %s", status, message),
		Context: context,
	}
}
