// Package schema has the models and constants shared by all parts of ticsgate.
package schema

// AnalysisResult is the outcome of one external analyzer invocation.
type AnalysisResult struct {
	Completed    bool     // The child process ran to exit, whatever its exit code
	StatusCode   int      // Exit code, or StatusNotStarted
	ExplorerURLs []string // Viewer deep links in emission order
	ErrorList    []string // Distinct [ERROR lines, first-seen order
	WarningList  []string // Distinct [WARNING lines, first-seen order
}

// Verdict is the canonical pass/fail outcome consumed by the reporting layer.
type Verdict struct {
	Passed       bool
	Message      string // Empty when passed
	ErrorList    []string
	WarningList  []string
	ExplorerURLs []string
	QualityGates []QualityGate
}

// FailedConditions returns the number of failing, non-skipped conditions across all quality gates.
func (v Verdict) FailedConditions() int {
	n := 0
	for _, qg := range v.QualityGates {
		n += qg.FailedConditions()
	}
	return n
}

// ChangedFile is one entry of a change-set.
type ChangedFile struct {
	Filename  string     `json:"filename"`
	Status    FileStatus `json:"status"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
	Changes   int        `json:"changes"`
}

// ChangeSet is the resolved change-set and the file-list artifact written for it.
type ChangeSet struct {
	Files []ChangedFile
	Path  string // Empty when no file list was written
}

// CliOption is a row of the static option table that drives command construction.
type CliOption struct {
	Name   string        // Logical name, also the config key
	Flag   string        // Empty for free-form options
	Modes  map[Mode]bool // Modes the option applies to
	Quoted bool          // Value is shell quoted
}

// AppliesTo reports whether the option is applicable to the mode.
func (o CliOption) AppliesTo(mode Mode) bool {
	return o.Modes[mode]
}

// GateFilter selects the quality gate to fetch from the viewer.
type GateFilter struct {
	Project    string
	Branch     string
	ClientData string // Client-data token of a client-mode run
	Date       int64  // As-of epoch seconds, zero for latest
}
