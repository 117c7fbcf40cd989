// Package extract pulls status metadata out of evidence files.
//
// The Parse functions work on plain text and are deterministic. The File
// adapters read a document through the TextReader registered for its
// extension and never fail the caller: an unreadable file yields the error
// placeholders and carries the cause in Err for logging.
package extract

import "github.com/N0SH3LL/TDL-Kaizen/internal/models"

// Field is one extracted value. When the anchor text was absent Found is false
// and Value holds the placeholder for that field.
type Field struct {
	Value string
	Found bool
}

// String returns the value or its placeholder
func (f Field) String() string {
	return f.Value
}

func found(v string) Field {
	return Field{Value: v, Found: true}
}

func missing(placeholder string) Field {
	return Field{Value: placeholder}
}

var (
	notAvailable = missing(models.NotAvailable)
	notFound     = missing(models.StatusNotFound)
	errorStatus  = missing(models.StatusError)
)
