package topic

import (
	"strings"
)

// Standard MQTT wildcard definitions.
const (
	// Wildcard matches exactly one topic level.
	Wildcard = "+"

	// MultiWildcard matches the current level and all below it. It must be
	// the last level of a filter.
	MultiWildcard = "#"
)

// Builder constructs topic strings of the form {root}/{kind}/{id}.
type Builder struct {
	// root is the base namespace for all topics (e.g. "picar/v1").
	root string
}

// NewBuilder creates a Builder for the given root namespace. Surrounding
// slashes are trimmed.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.Trim(root, "/")}
}

// Root returns the namespace the builder was created with.
func (b *Builder) Root() string {
	return b.root
}

// Build returns {root}/{kind}/{id}.
func (b *Builder) Build(kind, id string) string {
	return b.root + "/" + kind + "/" + id
}

// BuildWildcard returns {root}/{kind}/+, matching every id.
func (b *Builder) BuildWildcard(kind string) string {
	return b.Build(kind, Wildcard)
}

// ParseID extracts the id from a topic built for kind. It reports false if
// the topic does not belong to kind.
func (b *Builder) ParseID(kind, topic string) (string, bool) {
	prefix := b.root + "/" + kind + "/"
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(topic, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
