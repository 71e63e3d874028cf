// Package taxonomy gives gateway errors a runtime type identity and a single
// linear ancestry.
//
// Go has no class hierarchy, so each error kind is named by a Tag and the
// Taxonomy records exactly one parent per tag. Walking parents from a tag
// always terminates at Root, the universal ancestor. Handler resolution uses
// this chain and nothing else: an error that satisfies several interfaces
// still has one chain.
//
// Built-in chain:
//
//	error
//	├── runtime
//	│   ├── gateway
//	│   ├── status
//	│   └── panic
//	└── io
//	    └── socket
//	        ├── connect
//	        └── timeout
package taxonomy

import (
	"errors"
	"fmt"
)

// Tag identifies an error kind.
type Tag string

// Built-in tags.
const (
	Root    Tag = "error"
	Runtime Tag = "runtime"
	Gateway Tag = "gateway"
	Status  Tag = "status"
	Panic   Tag = "panic"
	IO      Tag = "io"
	Socket  Tag = "socket"
	Connect Tag = "connect"
	Timeout Tag = "timeout"
)

var (
	// ErrUnknownParent is returned by Define when the parent tag is not defined.
	ErrUnknownParent = errors.New("taxonomy: unknown parent tag")
	// ErrDuplicateTag is returned by Define when the tag already exists.
	ErrDuplicateTag = errors.New("taxonomy: tag already defined")
)

// Tagged is implemented by errors that know their own tag.
type Tagged interface {
	error
	Tag() Tag
}

// Classifier reports the tag of an error that does not implement Tagged.
type Classifier func(err error) (Tag, bool)

// Taxonomy holds the parent of every known tag plus the classifiers used for
// untagged errors. Define and AddClassifier are startup-only; once the
// gateway serves requests a Taxonomy is read concurrently without locks.
type Taxonomy struct {
	parent      map[Tag]Tag
	classifiers []Classifier
}

// New returns a Taxonomy that only knows Root.
func New() *Taxonomy {
	return &Taxonomy{parent: map[Tag]Tag{Root: ""}}
}

// Default returns a Taxonomy preloaded with the built-in chain and the
// network classifiers.
func Default() *Taxonomy {
	t := New()
	for _, d := range []struct{ tag, parent Tag }{
		{Runtime, Root},
		{Gateway, Runtime},
		{Status, Runtime},
		{Panic, Runtime},
		{IO, Root},
		{Socket, IO},
		{Connect, Socket},
		{Timeout, Socket},
	} {
		// built-in definitions are ordered parent-first and unique
		_ = t.Define(d.tag, d.parent)
	}
	t.AddClassifier(classifyNetwork)
	return t
}

// Define registers tag under parent.
func (t *Taxonomy) Define(tag, parent Tag) error {
	if _, ok := t.parent[tag]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTag, tag)
	}
	if _, ok := t.parent[parent]; !ok {
		return fmt.Errorf("%w: %q (for %q)", ErrUnknownParent, parent, tag)
	}
	t.parent[tag] = parent
	return nil
}

// Known reports whether tag has been defined.
func (t *Taxonomy) Known(tag Tag) bool {
	_, ok := t.parent[tag]
	return ok
}

// Parent returns the direct ancestor of tag. Root has none.
func (t *Taxonomy) Parent(tag Tag) (Tag, bool) {
	p, ok := t.parent[tag]
	if !ok {
		return Root, tag != Root
	}
	return p, p != ""
}

// Ancestry returns tag followed by each successive ancestor, ending at Root.
// Unknown tags are treated as direct children of Root.
func (t *Taxonomy) Ancestry(tag Tag) []Tag {
	chain := []Tag{tag}
	for cur := tag; ; {
		p, ok := t.Parent(cur)
		if !ok {
			return chain
		}
		chain = append(chain, p)
		cur = p
	}
}

// AddClassifier appends c to the classifiers consulted by TagOf.
func (t *Taxonomy) AddClassifier(c Classifier) {
	if c != nil {
		t.classifiers = append(t.classifiers, c)
	}
}

// TagOf returns the exact tag of err. The first Tagged error in the wrap
// chain reports its own tag, so a typed error outranks any cause it wraps;
// otherwise the classifiers run in registration order and the first hit
// wins. Anything left over (including nil) is Root.
func (t *Taxonomy) TagOf(err error) Tag {
	if err == nil {
		return Root
	}
	var tg Tagged
	if errors.As(err, &tg) {
		return tg.Tag()
	}
	for _, c := range t.classifiers {
		if tag, ok := c(err); ok {
			return tag
		}
	}
	return Root
}
