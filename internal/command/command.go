// Package command classifies console payloads into store commands.
package command

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind names a Command variant.
type Kind string

const (
	KindObjectInstanceLookup Kind = "object_instance_lookup"
	KindListObjects          Kind = "list_objects"
	KindListScenes           Kind = "list_scenes"
	KindUnrecognized         Kind = "unrecognized"
)

// Command is one of ObjectInstanceLookup, ListObjects, ListScenes or Unrecognized.
// The set is closed; dispatchers switch on the concrete type.
type Command interface {
	Kind() Kind
	command()
}

// ObjectInstanceLookup asks for every sighting of persistent object ID.
type ObjectInstanceLookup struct {
	ID int
}

// ListObjects asks for all persistent objects.
type ListObjects struct{}

// ListScenes asks for the scene list.
type ListScenes struct{}

// Unrecognized carries a payload that matched nothing.
type Unrecognized struct {
	Raw string
}

func (ObjectInstanceLookup) Kind() Kind { return KindObjectInstanceLookup }
func (ListObjects) Kind() Kind          { return KindListObjects }
func (ListScenes) Kind() Kind           { return KindListScenes }
func (Unrecognized) Kind() Kind         { return KindUnrecognized }

func (ObjectInstanceLookup) command() {}
func (ListObjects) command()          {}
func (ListScenes) command()           {}
func (Unrecognized) command()         {}

const (
	literalObjects = "objects"
	literalScenes  = "scenes"
)

// lookupPattern matches a single digit in parentheses anywhere in the payload.
var lookupPattern = regexp.MustCompile(`\(([0-9])\)`)

// Parse classifies a console payload.
//
// The lookup pattern wins over the literals, so "objects(3)" is a lookup.
// Surrounding whitespace is ignored; everything else is compared verbatim.
func Parse(payload string) Command {
	payload = strings.TrimSpace(payload)

	if m := lookupPattern.FindStringSubmatch(payload); m != nil {
		// A single digit always parses.
		id, _ := strconv.Atoi(m[1])
		return ObjectInstanceLookup{ID: id}
	}

	switch payload {
	case literalObjects:
		return ListObjects{}
	case literalScenes:
		return ListScenes{}
	default:
		return Unrecognized{Raw: payload}
	}
}
