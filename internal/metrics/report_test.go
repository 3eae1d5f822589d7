package metrics

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		records  []TimingRecord
		expected string
	}{
		{
			name:     "nil records",
			records:  nil,
			expected: `[]`,
		},
		{
			name:     "empty records",
			records:  []TimingRecord{},
			expected: `[]`,
		},
		{
			name: "finished record",
			records: []TimingRecord{
				{Key: NewStepKey("com.example", "app", "compile", "compile", "default-compile"), WorkerID: 1, Start: 12, End: int64Ptr(340)},
			},
			expected: `[{"groupId":"com.example","artifactId":"app","phase":"compile","goal":"compile","id":"default-compile","threadId":1,"start":12,"end":340}]`,
		},
		{
			name: "running record renders null end",
			records: []TimingRecord{
				{Key: NewStepKey("com.example", "app", "test", "test", "default-test"), WorkerID: 4, Start: 7},
			},
			expected: `[{"groupId":"com.example","artifactId":"app","phase":"test","goal":"test","id":"default-test","threadId":4,"start":7,"end":null}]`,
		},
		{
			name: "records keep input order",
			records: []TimingRecord{
				{Key: NewStepKey("g", "b", "p", "x", "1"), WorkerID: 2, Start: 5, End: int64Ptr(6)},
				{Key: NewStepKey("g", "a", "p", "x", "1"), WorkerID: 1, Start: 1, End: int64Ptr(2)},
			},
			expected: `[{"groupId":"g","artifactId":"b","phase":"p","goal":"x","id":"1","threadId":2,"start":5,"end":6},` +
				`{"groupId":"g","artifactId":"a","phase":"p","goal":"x","id":"1","threadId":1,"start":1,"end":2}]`,
		},
		{
			name: "empty identity fields are kept",
			records: []TimingRecord{
				{Key: NewStepKey("", "", "", "", ""), WorkerID: 0, Start: 0, End: int64Ptr(0)},
			},
			expected: `[{"groupId":"","artifactId":"","phase":"","goal":"","id":"","threadId":0,"start":0,"end":0}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.records)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestRender_RoundTrip(t *testing.T) {
	records := []TimingRecord{
		{Key: NewStepKey("com.example", "app", "compile", "compile", "default-compile"), WorkerID: 1, Start: 12, End: int64Ptr(340)},
		{Key: NewStepKey("com.example", "app", "test", "surefire", "default-test"), WorkerID: 2, Start: 341, End: int64Ptr(1200)},
		{Key: NewStepKey("com.example", "lib", "package", "jar", `quoted "id" <x>`), WorkerID: 3, Start: 20},
	}

	data, err := Render(records)
	require.NoError(t, err)

	var parsed []map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	require.Len(t, parsed, len(records))

	for i, r := range records {
		obj := parsed[i]
		assert.Len(t, obj, 8)
		assert.Equal(t, r.Key.GroupID, obj["groupId"])
		assert.Equal(t, r.Key.ArtifactID, obj["artifactId"])
		assert.Equal(t, r.Key.Phase, obj["phase"])
		assert.Equal(t, r.Key.Goal, obj["goal"])
		assert.Equal(t, r.Key.ExecutionID, obj["id"])
		assert.Equal(t, float64(r.WorkerID), obj["threadId"])
		assert.Equal(t, float64(r.Start), obj["start"])
		if r.End == nil {
			assert.Nil(t, obj["end"])
		} else {
			assert.Equal(t, float64(*r.End), obj["end"])
		}
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, nil))
	assert.Equal(t, "[]", buf.String())
}

func TestMetricStore_Persist(t *testing.T) {
	fs := afero.NewMemMapFs()
	ms := NewMetricStore(fs)
	ms.RecordStart(compileKey("app"), 1, 12)
	ms.RecordEnd(compileKey("app"), 340)

	path := "/work/target/reports/buildevents.json"
	require.NoError(t, ms.Persist(path))

	isDir, err := afero.IsDir(fs, "/work/target/reports")
	require.NoError(t, err)
	assert.True(t, isDir)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, `[{"groupId":"com.example","artifactId":"app","phase":"compile","goal":"compile","id":"default-compile","threadId":1,"start":12,"end":340}]`, string(data))
}

func TestMetricStore_PersistTruncates(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/out/buildevents.json"
	require.NoError(t, afero.WriteFile(fs, path, bytes.Repeat([]byte("x"), 4096), 0644))

	ms := NewMetricStore(fs)
	require.NoError(t, ms.Persist(path))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestMetricStore_PersistDirectoryBlockedByFile(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "target")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0644))

	ms := NewMetricStore(afero.NewOsFs())
	ms.RecordStart(compileKey("app"), 1, 1)

	err := ms.Persist(filepath.Join(blocker, "reports", "buildevents.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDirectoryCreation)
}

func TestMetricStore_PersistOpenFailure(t *testing.T) {
	root := t.TempDir()
	// A directory where the report file should go cannot be opened for writing.
	path := filepath.Join(root, "buildevents.json")
	require.NoError(t, os.Mkdir(path, 0755))

	ms := NewMetricStore(afero.NewOsFs())
	err := ms.Persist(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReportWrite)
}

func TestMetricStore_PersistReadOnlyFs(t *testing.T) {
	ms := NewMetricStore(afero.NewReadOnlyFs(afero.NewMemMapFs()))

	err := ms.Persist("/target/buildevents.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDirectoryCreation)
}
