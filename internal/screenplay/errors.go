package screenplay

import "errors"

var (
	ErrUnrecognizedFormat = errors.New("unrecognized screenplay format")
	ErrEmptyDocument      = errors.New("empty document")
)

// MalformedStructureError is permanent: the document was recognized but its
// structure cannot be split into scenes. Callers must not retry.
type MalformedStructureError struct {
	Reason string
}

func (e *MalformedStructureError) Error() string {
	return "malformed screenplay structure: " + e.Reason
}

func malformed(reason string) error {
	return &MalformedStructureError{Reason: reason}
}

func IsMalformed(err error) bool {
	var m *MalformedStructureError
	return errors.As(err, &m)
}
