package student

import "maps"

const (
	FieldID     = "id"
	FieldName   = "name"
	FieldCourse = "course"
	FieldError  = "error"
)

const (
	// Unknown fills every non-id field of a fallback record.
	Unknown = "Unknown"

	ServiceUnavailable = "Service unavailable"
)

// Record maps a field name to its value.
type Record map[string]string

// New builds a student record.
func New(id, name, course string) Record {
	return Record{
		FieldID:     id,
		FieldName:   name,
		FieldCourse: course,
	}
}

// ID returns the record's id field, or "" when absent.
func (r Record) ID() string {
	return r[FieldID]
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	return maps.Clone(r)
}

// Fallback is the record substituted for a failed lookup of id.
func Fallback(id string) Record {
	return New(id, Unknown, Unknown)
}

// Unavailable is the single record substituted for a failed listing.
func Unavailable() Record {
	return Record{FieldError: ServiceUnavailable}
}
