package models

// RecordKind is the discriminant stored with every item in the table.
// Decoding dispatches on it rather than on key-string prefixes.
type RecordKind string

// Possible values for RecordKind
const (
	KindUser   RecordKind = "user"
	KindFile   RecordKind = "file"
	KindJob    RecordKind = "job"
	KindResult RecordKind = "result"
)

// Record is the sealed union of entity kinds persisted in the table.
type Record interface {
	Kind() RecordKind
}

// Kind implements Record.
func (User) Kind() RecordKind { return KindUser }

// Kind implements Record.
func (File) Kind() RecordKind { return KindFile }

// Kind implements Record.
func (Job) Kind() RecordKind { return KindJob }

// Kind implements Record.
func (JobResult) Kind() RecordKind { return KindResult }
