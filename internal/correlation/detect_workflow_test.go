package correlation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectWorkflowGroupsDateSeriesAndSetsSourceFiles(t *testing.T) {
	now := time.Now()
	files := []WorkflowFile{
		{ID: "id1", Path: "/notes/2024-01-01-standup.md", ModTime: now.Add(-72 * time.Hour)},
		{ID: "id2", Path: "/notes/2024-01-08-standup.md", ModTime: now.Add(-48 * time.Hour)},
		{ID: "id3", Path: "/notes/2024-01-15-standup.md", ModTime: now.Add(-24 * time.Hour)},
	}
	patterns, err := DetectWorkflow(files, now)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.NotEmpty(t, patterns[0].SourceFiles, "workflow pattern must never have empty source_files")
	assert.ElementsMatch(t, []string{"id1", "id2", "id3"}, patterns[0].SourceFiles)
}

func TestDetectWorkflowIgnoresSmallGroups(t *testing.T) {
	now := time.Now()
	files := []WorkflowFile{
		{ID: "id1", Path: "/notes/2024-01-01-standup.md", ModTime: now},
		{ID: "id2", Path: "/notes/2024-01-08-standup.md", ModTime: now},
	}
	patterns, err := DetectWorkflow(files, now)
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestSeriesKeyStripsDateAndVersion(t *testing.T) {
	assert.Equal(t, seriesKey("/a/2024-01-01-report.md"), seriesKey("/a/2024-02-01-report.md"))
	assert.Equal(t, seriesKey("/a/report_v1.md"), seriesKey("/a/report_v2.md"))
}
