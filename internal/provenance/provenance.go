// Package provenance maps the raw source tag an editing surface attaches to
// every notification onto the actor that caused it.
package provenance

import (
	"encoding/json"
	"fmt"
)

// Source is the raw tag carried by a mutation or selection notification.
type Source string

const (
	SourceUser   Source = "user"
	SourceAPI    Source = "api"
	SourceSilent Source = "silent"
)

// Actor is who caused a change.
type Actor int

const (
	// Internal is the zero value so an unset actor never reads as human.
	Internal Actor = iota
	Human
	Programmatic
)

func (a Actor) String() string {
	switch a {
	case Human:
		return "human"
	case Programmatic:
		return "programmatic"
	default:
		return "internal"
	}
}

// Tag returns the wire name of the actor, which is the source tag that
// resolves to it.
func (a Actor) Tag() Source {
	switch a {
	case Human:
		return SourceUser
	case Programmatic:
		return SourceAPI
	default:
		return SourceSilent
	}
}

// Resolve maps a raw tag to an actor. Unrecognised tags resolve to
// Internal, never Human, so an unexpected tag can not pass as a person.
func Resolve(tag Source) Actor {
	switch tag {
	case SourceUser:
		return Human
	case SourceAPI:
		return Programmatic
	default:
		return Internal
	}
}

// Known reports whether tag is one of the recognised sources.
func Known(tag Source) bool {
	switch tag {
	case SourceUser, SourceAPI, SourceSilent:
		return true
	}
	return false
}

// MarshalJSON writes the wire tag ("user", "api", "silent").
func (a Actor) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(a.Tag()))
}

// UnmarshalJSON reads a wire tag. Unknown tags are an error here: a stored
// log is expected to only ever contain tags this package wrote.
func (a *Actor) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	if !Known(Source(tag)) {
		return fmt.Errorf("unknown event source %q", tag)
	}
	*a = Resolve(Source(tag))
	return nil
}
