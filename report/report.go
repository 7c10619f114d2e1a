package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"encoding/csv"
	"encoding/json"

	"github.com/gosuri/uitable"
	uuid "github.com/satori/go.uuid"
)

const (
	// ActionCreated indicates the remote resource was created
	ActionCreated = "created"

	// ActionUpdated indicates the remote resource was patched
	ActionUpdated = "updated"

	// ActionUnchanged indicates the remote resource already matched
	ActionUnchanged = "unchanged"

	// ActionSkipped indicates the item was not eligible for provisioning
	ActionSkipped = "skipped"

	// ActionFailed indicates processing the item raised an error
	ActionFailed = "failed"
)

// actions in summary order
var actions = []string{
	ActionCreated,
	ActionUpdated,
	ActionUnchanged,
	ActionSkipped,
	ActionFailed,
}

// Record is the outcome of provisioning a single item. Records are
// append-only, a record is never mutated after being added to a report.
type Record struct {
	Name          string `json:"name"`
	Slug          string `json:"slug,omitempty"`
	PipelineFile  string `json:"pipeline_file,omitempty"`
	Action        string `json:"action"`
	Reason        string `json:"reason,omitempty"`
	ChangedFields string `json:"changed_fields,omitempty"`
}

// NewRecord returns a record for the named item
func NewRecord(name, slug string) *Record {
	return &Record{Name: name, Slug: slug}
}

// Set records the terminal action and reason
func (r *Record) Set(action, reason string) {
	r.Action = action
	r.Reason = reason
}

// Skip marks the record as skipped
func (r *Record) Skip(reason string) {
	r.Set(ActionSkipped, reason)
}

// Fail marks the record as failed
func (r *Record) Fail(reason string) {
	r.Set(ActionFailed, reason)
}

// Report accumulates records in processing order and renders them as
// console output and as durable artifacts
type Report struct {
	RunID   string
	Started time.Time

	prefix  string
	records []*Record
}

// New returns an empty report, the prefix names the provisioning pass and
// is used for the artifact file names
func New(prefix string) *Report {
	return &Report{
		RunID:   uuid.NewV4().String(),
		Started: time.Now(),
		prefix:  prefix,
	}
}

// Append adds a record to the report
func (r *Report) Append(rec *Record) {
	r.records = append(r.records, rec)
}

// Records returns the accumulated records in processing order
func (r *Report) Records() []*Record {
	return r.records
}

// Counts folds the record list into per-action totals
func (r *Report) Counts() map[string]int {
	counts := make(map[string]int)
	for _, rec := range r.records {
		counts[rec.Action]++
	}
	return counts
}

// Failed returns the number of failed records
func (r *Report) Failed() int {
	return r.Counts()[ActionFailed]
}

// Table renders the records as a console table
func (r *Report) Table() string {
	table := uitable.New()
	table.MaxColWidth = 80
	table.AddRow("NAME", "SLUG", "ACTION", "REASON", "CHANGED")
	for _, rec := range r.records {
		table.AddRow(rec.Name, rec.Slug, rec.Action, rec.Reason, rec.ChangedFields)
	}
	return table.String()
}

// Summary renders one count line per action category
func (r *Report) Summary() string {
	counts := r.Counts()
	out := ""
	for _, action := range actions {
		out += fmt.Sprintf("%s: %d\n", action, counts[action])
	}
	return out
}

// WriteFiles serializes the full record list twice into the given
// directory: once as CSV rows and once as a JSON document. Both artifacts
// are derived from the same in-memory records.
func (r *Report) WriteFiles(dir string) (csvPath, jsonPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}

	stamp := fmt.Sprintf("%s-%s-%s",
		r.prefix,
		r.Started.Format("20060102-150405"),
		r.RunID[:8])

	csvPath = filepath.Join(dir, stamp+".csv")
	if err := r.writeCSV(csvPath); err != nil {
		return "", "", err
	}

	jsonPath = filepath.Join(dir, stamp+".json")
	if err := r.writeJSON(jsonPath); err != nil {
		return "", "", err
	}

	return csvPath, jsonPath, nil
}

func (r *Report) writeCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"name", "slug", "pipeline_file", "action", "reason", "changed_fields"}); err != nil {
		return err
	}
	for _, rec := range r.records {
		row := []string{rec.Name, rec.Slug, rec.PipelineFile, rec.Action, rec.Reason, rec.ChangedFields}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (r *Report) writeJSON(path string) error {
	records := r.records
	if records == nil {
		records = []*Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
