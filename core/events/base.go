package events

import (
	"strings"
	"time"
)

// Kind is the dotted name of an input, prefixed with the namespace of the
// collaborator that produced it.
type Kind string

// Namespace returns the part of the kind before the first dot.
func (k Kind) Namespace() string {
	namespace, _, _ := strings.Cut(string(k), ".")
	return namespace
}

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and the creation time every input shares.
type Base struct {
	kind      Kind
	createdAt time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, createdAt: time.Now()}
}

func (b Base) Kind() Kind           { return b.kind }
func (b Base) Timestamp() time.Time { return b.createdAt }
