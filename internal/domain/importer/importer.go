package importer

// Row is one non-blank data line of an uploaded file. Fields maps header
// column names to the raw cell values; Line is the 1-based position of the
// line in the original file (the header is line 1, data starts at line 2).
type Row struct {
	Line   int
	Fields map[string]string
}

// ValidatedRecord is a row that passed every validation rule. TempSecret is
// the freshly generated plaintext credential; it is handed to the welcome
// notification and only its hash is ever persisted.
type ValidatedRecord struct {
	Line       int
	FirstName  string
	LastName   string
	Email      string
	RoleName   string
	TempSecret string
}

// RowError records why a single row was rejected. Data carries the original
// cell values so the operator can correlate the error with the source file.
type RowError struct {
	Line  int               `json:"line"`
	Data  map[string]string `json:"data"`
	Error string            `json:"error"`
}

// Report is the completion summary produced once per import job run.
// Errors are ordered by source line number.
type Report struct {
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	Errors       []RowError `json:"errors"`
}

// Initiator identifies who triggered an import and the school (tenant) the
// created users belong to.
type Initiator struct {
	UserID   string `json:"user_id"`
	SchoolID string `json:"school_id"`
	Email    string `json:"email"`
}

// Job is the unit of asynchronous execution: a reference to the uploaded
// payload plus the initiator's identity. It lives only on the task queue.
type Job struct {
	PayloadPath string    `json:"payload_path"`
	Initiator   Initiator `json:"initiator"`
}
