package report

import (
	"encoding/json"
	"io"

	"github.com/weiihann/setbench/harness"
)

// JSONLines writes one JSON object per case result.
type JSONLines struct {
	enc *json.Encoder
}

var _ harness.Sink = (*JSONLines)(nil)

func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

func (j *JSONLines) Report(res harness.CaseResult) error {
	return j.enc.Encode(res)
}

func (j *JSONLines) Done() error { return nil }

// Summary writes a trailing object carrying the executed case count.
func (j *JSONLines) Summary(executed int) error {
	return j.enc.Encode(struct {
		CasesRun int `json:"cases_run"`
	}{executed})
}
