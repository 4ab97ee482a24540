package bundle

import (
	"errors"
	"fmt"

	"github.com/chrissnell/basinview/internal/artifact"
)

// Status tells whether an optional artifact was found
type Status int

const (
	// NotApplicable marks artifacts that a selection never has, such as the overview's image
	NotApplicable Status = iota
	Present
	Unavailable
)

func (s Status) String() string {
	switch s {
	case Present:
		return "present"
	case Unavailable:
		return "unavailable"
	}
	return "not_applicable"
}

// MarshalText renders the status by name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name
func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range []Status{NotApplicable, Present, Unavailable} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown artifact status %q", text)
}

// Optional holds an artifact that may legitimately be missing.
// Data is set only when Status is Present.
type Optional struct {
	Status Status
	Data   []byte
	Reason string
}

// Available reports whether the artifact was found
func (o Optional) Available() bool {
	return o.Status == Present
}

// Err returns ErrArtifactUnavailable for a missing artifact and nil otherwise
func (o Optional) Err() error {
	if o.Status == Unavailable {
		return fmt.Errorf("%w: %s", artifact.ErrArtifactUnavailable, o.Reason)
	}
	return nil
}

func present(data []byte) Optional {
	return Optional{Status: Present, Data: data}
}

func unavailable(reason string) Optional {
	return Optional{Status: Unavailable, Reason: reason}
}

// IsUnavailable reports whether err marks a missing optional artifact
func IsUnavailable(err error) bool {
	return errors.Is(err, artifact.ErrArtifactUnavailable)
}
