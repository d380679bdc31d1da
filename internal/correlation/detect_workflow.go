package correlation

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/excavator/excavator/internal/catalog"
)

const workflowMinGroupSize = 3

// datePrefix matches a leading YYYY-MM-DD (or YYYYMMDD) date stamp.
var datePrefix = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}|\d{8})[-_]`)

// versionSuffix matches a trailing vN / v1.2 / _v3 style version marker.
var versionSuffix = regexp.MustCompile(`[-_]v\d+(\.\d+)*$`)

// WorkflowPayload is the JSON payload stored on a workflow Pattern.
type WorkflowPayload struct {
	Series string `json:"series"`
	Count  int    `json:"count"`
}

// WorkflowFile is the minimal file metadata the workflow detector needs.
type WorkflowFile struct {
	ID      string
	Path    string
	ModTime time.Time
}

// DetectWorkflow groups files by a normalized "series" key derived from
// their path once date prefixes and version suffixes are stripped, then
// reports any series with workflowMinGroupSize or more members as a
// recurring workflow. source_files is always populated directly from the
// detected group before the pattern is returned -- never left empty, since
// an empty source_files defeats the entire point of a workflow pattern.
func DetectWorkflow(files []WorkflowFile, now time.Time) ([]catalog.Pattern, error) {
	series := make(map[string][]WorkflowFile)
	for _, f := range files {
		key := seriesKey(f.Path)
		series[key] = append(series[key], f)
	}

	var keys []string
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var patterns []catalog.Pattern
	for _, key := range keys {
		group := series[key]
		if len(group) < workflowMinGroupSize {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].ModTime.Before(group[j].ModTime) })

		sourceFiles := make([]string, len(group))
		for i, f := range group {
			sourceFiles[i] = f.ID
		}

		payload, err := json.Marshal(WorkflowPayload{Series: key, Count: len(group)})
		if err != nil {
			return nil, err
		}
		first := group[0].ModTime
		last := group[len(group)-1].ModTime
		patterns = append(patterns, catalog.Pattern{
			ID:          deterministicID("workflow", key),
			Type:        catalog.PatternWorkflow,
			Payload:     payload,
			Confidence:  Confidence(len(group), len(group), first, last, now),
			SourceFiles: sourceFiles,
		})
	}
	return patterns, nil
}

// seriesKey strips the date prefix and version suffix from a file name and
// lower-cases it, keeping its directory and extension, so
// "2024-03-01-standup-notes.md" and "2024-03-08-standup-notes.md" both
// normalize to "./standup-notes.md".
func seriesKey(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)
	base = datePrefix.ReplaceAllString(base, "")
	base = versionSuffix.ReplaceAllString(base, "")
	return dir + "/" + strings.ToLower(base) + ext
}
