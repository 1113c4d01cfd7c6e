package constants

// JobStatus is the canonical status for rows in extract_jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning     JobStatus = "RUNNING"     // in progress
	JobStatusExtracted   JobStatus = "EXTRACTED"   // a backend produced usable fields
	JobStatusPlaceholder JobStatus = "PLACEHOLDER" // dev fallback returned fixed data
	JobStatusFailed      JobStatus = "FAILED"      // every backend failed or input rejected
)

// Backend names reported as ExtractionResult.Method and stored on extract_jobs.
const (
	BackendPlainText     = "pdf-plaintext"
	BackendContentStream = "pdf-contentstream"
	BackendPoppler       = "pdftotext"
	BackendPlaceholder   = "test-fallback"
)
