package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelinekit/pipeline-client/pkg/job"
	"github.com/pipelinekit/pipeline-client/pkg/script"
)

func testScript() *script.Script {
	return &script.Script{
		ID:       "dtbook-to-epub3",
		Href:     "http://example.org/ws/scripts/dtbook-to-epub3",
		Nicename: "DTBook to EPUB 3",
		Arguments: []*script.ArgumentDefinition{
			{
				Name: "source", Kind: script.KindInput, Required: true,
				Sequence: true, Type: script.TypeAnyFileURI,
				MediaTypes: []string{"application/xml"},
			},
			{
				Name: "assert-valid", Kind: script.KindOption,
				Type: script.TypeBoolean,
			},
			{
				Name: "result", Kind: script.KindOutput,
				Type: script.TypeAnyDirURI, OutputType: script.OutputResult,
			},
		},
	}
}

func testJob(t *testing.T, id string) *job.Job {
	t.Helper()
	j := job.New(id, testScript(), logr.Discard())
	j.SetNicename("My conversion")
	j.Option("assert-valid").Set("true")
	return j
}

func newTestStore(t *testing.T) (*DiskStore, string) {
	t.Helper()
	base := t.TempDir()
	return NewDiskStore(base, nil, logr.Discard()), base
}

func TestSave_WritesJobDirectory(t *testing.T) {
	s, base := newTestStore(t)

	jobDir, err := s.Save(testJob(t, "job1"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "job1"), jobDir)

	for _, name := range []string{"job.xml", "script.xml", "meta.yaml"} {
		_, err := os.Stat(filepath.Join(jobDir, name))
		assert.NoError(t, err, "expected %s to be written", name)
	}
	info, err := os.Stat(filepath.Join(jobDir, "context"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSave_FlushesContext(t *testing.T) {
	s, _ := newTestStore(t)

	src := filepath.Join(t.TempDir(), "doc.xml")
	require.NoError(t, os.WriteFile(src, []byte("<dtbook/>"), 0644))

	j := testJob(t, "job1")
	require.NoError(t, j.Input("source").SetFile(src, ""))

	jobDir, err := s.Save(j)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(jobDir, "context", "doc.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<dtbook/>", string(data))
}

func TestSave_RejectsUnsafeIDs(t *testing.T) {
	s, _ := newTestStore(t)

	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		j := testJob(t, id)
		_, err := s.Save(j)
		assert.Error(t, err, "expected id %q to be rejected", id)
		assert.True(t, IsInvalidInputError(err))
	}
}

func TestSave_RequiresScript(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Save(job.New("job1", nil, logr.Discard()))
	assert.True(t, IsInvalidInputError(err))
}

func TestLoad_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	src := filepath.Join(t.TempDir(), "doc.xml")
	require.NoError(t, os.WriteFile(src, []byte("<dtbook/>"), 0644))

	j := testJob(t, "job1")
	require.NoError(t, j.Input("source").SetFile(src, ""))
	_, err := s.Save(j)
	require.NoError(t, err)

	loaded, err := s.Load("job1")
	require.NoError(t, err)

	assert.Equal(t, "job1", loaded.ID())
	assert.Equal(t, "My conversion", loaded.Nicename())
	require.NotNil(t, loaded.Script())
	assert.Equal(t, "dtbook-to-epub3", loaded.Script().ID)

	valid, ok := loaded.Option("assert-valid").First()
	require.True(t, ok)
	assert.Equal(t, "true", valid)
	source, ok := loaded.Input("source").First()
	require.True(t, ok)
	assert.Equal(t, "doc.xml", source)

	// Context entries resolve to the materialized files
	file, ok := loaded.Context().FileFor("doc.xml")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(s.JobDir("job1"), "context", "doc.xml"), file)
}

func TestLoad_LegacyRequestFileName(t *testing.T) {
	s, _ := newTestStore(t)

	j := testJob(t, "job1")
	jobDir, err := s.Save(j)
	require.NoError(t, err)
	require.NoError(t, os.Rename(
		filepath.Join(jobDir, "job.xml"),
		filepath.Join(jobDir, "jobRequest.xml")))

	loaded, err := s.Load("job1")
	require.NoError(t, err)
	valid, ok := loaded.Option("assert-valid").First()
	require.True(t, ok)
	assert.Equal(t, "true", valid)
}

func TestLoad_UnknownJob(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Load("nope")
	assert.True(t, IsNotFoundError(err))
}

func TestSave_PreservesCreationTime(t *testing.T) {
	s, _ := newTestStore(t)

	j := testJob(t, "job1")
	jobDir, err := s.Save(j)
	require.NoError(t, err)

	first, err := s.readMeta(jobDir)
	require.NoError(t, err)

	_, err = s.Save(j)
	require.NoError(t, err)

	second, err := s.readMeta(jobDir)
	require.NoError(t, err)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt),
		"expected CreatedAt to survive a re-save")
}

func TestDelete_RemovesJobAndTolerates(t *testing.T) {
	s, _ := newTestStore(t)

	jobDir, err := s.Save(testJob(t, "job1"))
	require.NoError(t, err)

	require.NoError(t, s.Delete("job1"))
	_, err = os.Stat(jobDir)
	assert.True(t, os.IsNotExist(err))

	// Deleting again, or deleting the unknown, is not an error
	assert.NoError(t, s.Delete("job1"))
	assert.NoError(t, s.Delete("never-existed"))
}

func TestListJobs(t *testing.T) {
	s, base := newTestStore(t)

	_, err := s.Save(testJob(t, "jobB"))
	require.NoError(t, err)
	_, err = s.Save(testJob(t, "jobA"))
	require.NoError(t, err)

	// Incomplete directories and stray files are skipped
	require.NoError(t, os.MkdirAll(filepath.Join(base, "not-a-job"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "stray.txt"), []byte("x"), 0644))

	ids, err := s.ListJobs()
	require.NoError(t, err)
	assert.Equal(t, []string{"jobA", "jobB"}, ids)
}

func TestListJobs_MissingBaseDir(t *testing.T) {
	s := NewDiskStore(filepath.Join(t.TempDir(), "nope"), nil, logr.Discard())
	ids, err := s.ListJobs()
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestGitVersioner_CommitsSaves(t *testing.T) {
	base := t.TempDir()
	v := NewGitVersioner("tester", "tester@example.org")

	require.NoError(t, v.Initialize(base))
	assert.True(t, v.IsRepository(base))
	// Initialize is idempotent
	require.NoError(t, v.Initialize(base))

	s := NewDiskStore(base, v, logr.Discard())
	_, err := s.Save(testJob(t, "job1"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(base, ".git"))
	assert.NoError(t, err)
}

func TestGitVersioner_CommitFailsOutsideRepository(t *testing.T) {
	v := NewGitVersioner("tester", "tester@example.org")
	err := v.CommitJob(t.TempDir(), "job1", "save")
	assert.True(t, IsVersioningError(err))
}
