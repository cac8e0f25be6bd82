package schema

// Custom string types for type safety.
type (
	// Mode represents the TICS operating mode.
	Mode string

	// TrustStrategy represents the TLS certificate validation posture.
	TrustStrategy string

	// Platform represents the runner operating system family.
	Platform string

	// FileStatus represents the change status of a file in a change-set.
	FileStatus string

	// Severity represents the annotation level used on the platform.
	Severity string

	// BlockingState represents the blocking tier of a viewer item or annotation.
	BlockingState string

	// ReviewEvent represents the verdict attached to a pull request review.
	ReviewEvent string
)

// All modes supported.
const (
	ClientMode     Mode = "client" // default
	QServerMode    Mode = "qserver"
	DiagnosticMode Mode = "diagnostic"
)

// All trust strategies supported.
const (
	StrictTrust     TrustStrategy = "strict" // default
	SelfSignedTrust TrustStrategy = "self-signed"
	AllTrust        TrustStrategy = "all"
)

// All platforms supported.
const (
	LinuxPlatform   Platform = "linux"
	WindowsPlatform Platform = "windows"
)

// All file statuses reported by GitHub.
const (
	AddedStatus     FileStatus = "added"
	ModifiedStatus  FileStatus = "modified"
	RemovedStatus   FileStatus = "removed"
	RenamedStatus   FileStatus = "renamed"
	CopiedStatus    FileStatus = "copied"
	ChangedStatus   FileStatus = "changed"
	UnchangedStatus FileStatus = "unchanged"
)

// All annotation severities emitted.
const (
	WarningSeverity Severity = "warning"
	NoticeSeverity  Severity = "notice"
)

// All blocking states reported by the viewer.
const (
	BlockingYes   BlockingState = "yes"
	BlockingNo    BlockingState = "no"
	BlockingAfter BlockingState = "after"
)

// All review events supported.
const (
	ApproveEvent        ReviewEvent = "APPROVE"
	RequestChangesEvent ReviewEvent = "REQUEST_CHANGES"
)

// StatusNotStarted is the status code of an analysis whose process never ran to exit.
const StatusNotStarted = -1

// Verdict messages.
const (
	DiagnosticFailedMessage = "Diagnostic run has failed."
	IncompleteRunMessage    = "Failed to complete TICS analysis."
)

// AllModes lists all modes in a stable order.
var AllModes = []Mode{ClientMode, QServerMode, DiagnosticMode}

// DefaultRetryCodes are the HTTP status codes retried by the viewer client.
var DefaultRetryCodes = []int{419, 500, 501, 502, 503, 504}

// DefaultSecretsFilter lists the words whose following values are masked in all output.
var DefaultSecretsFilter = []string{"TICSAUTHTOKEN", "GITHUB_TOKEN", "Authentication token", "Authorization"}
