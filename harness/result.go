// Package harness enumerates the benchmark matrix and runs each case
// through its workload, one case at a time.
package harness

// CaseResult holds the measurements of one executed case.
type CaseResult struct {
	Case Case `json:"-"`

	Size     int    `json:"size"`
	TypeName string `json:"type"`
	Family   string `json:"family"`
	Struct   string `json:"struct"`
	Test     string `json:"test"`
	Tracked  bool   `json:"tracked"`

	Rounds       int     `json:"rounds"`
	BestMops     float64 `json:"best_mops"`
	PeakBytes    int64   `json:"peak_bytes"`
	BytesPerElem float64 `json:"bytes_per_elem"`
	LeakBytes    int64   `json:"leak_bytes"`
	SideEffect   int     `json:"side_effect"`
	Fingerprint  uint64  `json:"fingerprint"`
}
