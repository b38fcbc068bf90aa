package client

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelinekit/pipeline-client/pkg/config"
	"github.com/pipelinekit/pipeline-client/pkg/job"
	"github.com/pipelinekit/pipeline-client/pkg/script"
)

const scriptXML = `<script xmlns="http://www.daisy.org/ns/pipeline/data"
  id="dtbook-to-epub3" href="http://example.org/ws/scripts/dtbook-to-epub3">
  <nicename>DTBook to EPUB 3</nicename>
  <input name="source" sequence="true"/>
  <option name="assert-valid" required="false" type="boolean"/>
</script>`

const jobXML = `<job xmlns="http://www.daisy.org/ns/pipeline/data"
  id="job1" href="http://example.org/ws/jobs/job1" status="RUNNING"/>`

func newTestClient(t *testing.T, handler http.Handler) (*WSClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{BaseURL: server.URL, RequestTimeout: 5 * time.Second}
	c, err := NewClient(cfg, nil, logr.Discard())
	require.NoError(t, err)
	return c, server
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(&config.Config{}, nil, logr.Discard())
	assert.True(t, IsInvalidInputError(err))
}

func TestAlive(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alive", r.URL.Path)
		io.WriteString(w, `<alive xmlns="http://www.daisy.org/ns/pipeline/data"
			authentication="true" mode="remote" version="1.14.4"/>`)
	}))

	alive, err := c.Alive(context.Background())
	require.NoError(t, err)
	assert.True(t, alive.Authentication)
	assert.Equal(t, "remote", alive.Mode)
	assert.Equal(t, "1.14.4", alive.Version)
}

func TestScripts(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scripts", r.URL.Path)
		io.WriteString(w, `<scripts xmlns="http://www.daisy.org/ns/pipeline/data">`+scriptXML+`</scripts>`)
	}))

	scripts, err := c.Scripts(context.Background())
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, "dtbook-to-epub3", scripts[0].ID)
}

func TestScript(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scripts/dtbook-to-epub3", r.URL.Path)
		io.WriteString(w, scriptXML)
	}))

	s, err := c.Script(context.Background(), "dtbook-to-epub3")
	require.NoError(t, err)
	assert.Equal(t, "DTBook to EPUB 3", s.Nicename)
	require.NotNil(t, s.Argument("assert-valid", script.KindOption))
}

func TestCreateJob_PlainXML(t *testing.T) {
	var received []byte
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/xml", r.Header.Get("Content-Type"))
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, jobXML)
	}))

	s, err := script.FromXML([]byte(scriptXML))
	require.NoError(t, err)
	j := job.New("local-id", s, logr.Discard())
	j.Option("assert-valid").Set("true")

	require.NoError(t, c.CreateJob(context.Background(), j))

	assert.Contains(t, string(received), "jobRequest")
	assert.Contains(t, string(received), "assert-valid")

	// The service response is fed back into the job
	assert.Equal(t, job.StatusRunning, j.Status())
	assert.Equal(t, "http://example.org/ws/jobs/job1", j.Href())
}

func TestCreateJob_MultipartWithContext(t *testing.T) {
	var requestPart, zipEntry string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		reqFile, _, err := r.FormFile("job-request")
		require.NoError(t, err)
		data, _ := io.ReadAll(reqFile)
		requestPart = string(data)

		dataFile, header, err := r.FormFile("job-data")
		require.NoError(t, err)
		zipData, _ := io.ReadAll(dataFile)
		require.Equal(t, "jobData.zip", header.Filename)

		zr, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
		require.NoError(t, err)
		require.Len(t, zr.File, 1)
		zipEntry = zr.File[0].Name

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, jobXML)
	}))

	src := filepath.Join(t.TempDir(), "doc.xml")
	require.NoError(t, os.WriteFile(src, []byte("<dtbook/>"), 0644))

	s, err := script.FromXML([]byte(scriptXML))
	require.NoError(t, err)
	j := job.New("local-id", s, logr.Discard())
	require.NoError(t, j.Input("source").SetFile(src, ""))

	require.NoError(t, c.CreateJob(context.Background(), j))
	assert.Contains(t, requestPart, "jobRequest")
	assert.Equal(t, "doc.xml", zipEntry)
}

func TestJob_Refresh(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/job1", r.URL.Path)
		io.WriteString(w, jobXML)
	}))

	j, err := job.FromResponseXML([]byte(`<job xmlns="http://www.daisy.org/ns/pipeline/data"
		id="job1" status="IDLE"/>`), logr.Discard())
	require.NoError(t, err)
	require.Equal(t, job.StatusIdle, j.Status())

	require.NoError(t, c.Job(context.Background(), j))
	assert.Equal(t, job.StatusRunning, j.Status())
}

func TestDeleteJob(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/jobs/job1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	assert.NoError(t, c.DeleteJob(context.Background(), "job1"))
}

func TestLog(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/job1/log", r.URL.Path)
		io.WriteString(w, "log line 1\nlog line 2\n")
	}))

	data, err := c.Log(context.Background(), "job1")
	require.NoError(t, err)
	assert.Contains(t, string(data), "log line 2")
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
		name   string
	}{
		{http.StatusUnauthorized, IsAuthenticationError, "authentication"},
		{http.StatusForbidden, IsAuthenticationError, "forbidden"},
		{http.StatusNotFound, IsNotFoundError, "not found"},
		{http.StatusInternalServerError, IsAPIError, "server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			_, err := c.Alive(context.Background())
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type: %v", err)
		})
	}
}

func TestConnectionError(t *testing.T) {
	cfg := &config.Config{BaseURL: "http://127.0.0.1:1", RequestTimeout: time.Second}
	c, err := NewClient(cfg, nil, logr.Discard())
	require.NoError(t, err)

	_, err = c.Alive(context.Background())
	assert.True(t, IsConnectionError(err))
}

func TestSignedRequestCarriesAuthParams(t *testing.T) {
	var query map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		io.WriteString(w, `<alive xmlns="http://www.daisy.org/ns/pipeline/data" mode="local"/>`)
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{
		BaseURL:        server.URL,
		AuthID:         "clientid",
		AuthSecret:     "supersecret",
		RequestTimeout: 5 * time.Second,
	}
	c, err := NewClient(cfg, nil, logr.Discard())
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	c.nonce = func() string { return "123456789012345678901234567890" }

	_, err = c.Alive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"clientid"}, query["authid"])
	assert.Equal(t, []string{"2024-05-01T12:00:00Z"}, query["time"])
	assert.Equal(t, []string{"123456789012345678901234567890"}, query["nonce"])
	require.Len(t, query["sign"], 1)
	assert.NotEmpty(t, query["sign"][0])
}

func TestMetricsRecordRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<alive xmlns="http://www.daisy.org/ns/pipeline/data" mode="local"/>`)
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{BaseURL: server.URL, RequestTimeout: 5 * time.Second}
	c, err := NewClient(cfg, metrics, logr.Discard())
	require.NoError(t, err)

	_, err = c.Alive(context.Background())
	require.NoError(t, err)

	count := testutil.ToFloat64(metrics.requests.WithLabelValues("alive", "success"))
	assert.Equal(t, 1.0, count)
}
