// Package models defines the data models used in the application.
package models

// FileType identifies the format of an uploaded tabular file.
type FileType string

// Possible values for FileType
const (
	FileTypeCSV   FileType = "CSV"
	FileTypeExcel FileType = "EXCEL"
)

// HeaderOption selects the header-detection strategy for an upload.
type HeaderOption string

// Possible values for HeaderOption
const (
	HeaderDefault HeaderOption = "DEFAULT"
	HeaderFind    HeaderOption = "FIND"
	HeaderExact   HeaderOption = "EXACT"
)

// JobType identifies the kind of work a job performs.
type JobType string

// JobTypeProductImport is the only task type this backend accepts.
const JobTypeProductImport JobType = "product_import"

// JobStatus represents the lifecycle state of an import job. This core
// only ever writes StatusCreated; transitions belong to the worker.
type JobStatus string

// Possible values for JobStatus
const (
	StatusCreated  JobStatus = "CREATED"
	StatusRunning  JobStatus = "RUNNING"
	StatusComplete JobStatus = "COMPLETE"
	StatusFailed   JobStatus = "FAILED"
)

// FieldMapping assigns uploaded columns to target product fields.
type FieldMapping map[string]string

// User is a registered shop owner. Rows are provisioned externally;
// this core reads them and increments JobCount inside the job-creation
// transaction. Optional attributes are pointers so that encode can emit
// only what is actually set.
type User struct {
	ID             string
	Domain         *string
	Subscription   *string
	OwnerName      *string
	Email          *string
	AccessToken    *string
	TimeZone       *string
	ShopName       *string
	Active         *bool
	JobCount       *int
	ActiveJobCount *int
}

// File is the metadata record for one uploaded spreadsheet. FieldDetails
// is written at most once, during job creation.
type File struct {
	ID             string
	Idle           *bool
	FileName       *string
	FileType       *FileType
	S3Key          *string
	ActualRowCount *int
	HeaderRow      *int
	FieldDetails   FieldMapping
}

// Job is an asynchronous import job. Identity (ID, UserID) is immutable
// once created; StartTime must be populated before the record is encoded.
type Job struct {
	ID            string
	UserID        string
	Type          JobType
	FileID        *string
	StartTime     *string // RFC3339
	Status        *JobStatus
	Options       map[string]string
	TotalProducts *int
	TotalSuccess  *int
	TotalFailed   *int
	CurrentBatch  *int
}

// JobResult is the outcome record produced by the worker for a job.
// Read-only from this core's perspective.
type JobResult struct {
	JobID    string
	Status   *string
	Errors   []string
	Warnings []string
	Product  *string // serialized product snapshot
}

// ColumnDetail describes one detected column of an uploaded file,
// including a bounded sample of its data values for UI preview.
type ColumnDetail struct {
	Name       string   `json:"name"`
	Index      int      `json:"index"`
	SampleData []string `json:"sampleData"`
	Field      *string  `json:"field"`
}

// FileDetails is returned to the caller after a successful upload.
type FileDetails struct {
	FileID         string         `json:"fileId"`
	FileName       string         `json:"fileName"`
	FileType       FileType       `json:"fileType"`
	ActualRowCount int            `json:"actualRowCount"`
	ColumnDetails  []ColumnDetail `json:"columnDetails"`
}

// Location is a shop inventory location fetched from the upstream
// locations API.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
