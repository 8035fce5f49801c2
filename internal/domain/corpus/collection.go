// Package corpus defines the queryable-collection value types shared by the
// introspector and the search coordinator.
package corpus

// Priority tags a collection whose name suggests affinity with the requested
// search type. Priority affects scheduling order only, never filtering.
type Priority string

const (
	// PriorityNone marks an ordinary collection.
	PriorityNone Priority = "none"
	// PriorityName marks a collection favored for name searches.
	PriorityName Priority = "name"
	// PriorityPhone marks a collection favored for phone searches.
	PriorityPhone Priority = "phone"
	// PriorityIDCard marks a collection favored for idcard searches.
	PriorityIDCard Priority = "idcard"
)

// Collection is one queryable collection inside a corpus.
type Collection struct {
	corpusID string
	name     string
	priority Priority
}

// NewCollection creates a classified collection reference.
func NewCollection(corpusID, name string, priority Priority) Collection {
	return Collection{corpusID: corpusID, name: name, priority: priority}
}

// CorpusID returns the owning corpus id.
func (c Collection) CorpusID() string { return c.corpusID }

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// Priority returns the classification tag.
func (c Collection) Priority() Priority { return c.priority }

// IsPriority reports whether the collection was classified as priority for
// the current search type.
func (c Collection) IsPriority() bool { return c.priority != PriorityNone }

// Hit is one raw matching document returned by a corpus query, before
// conversion into a domain record.
type Hit struct {
	// Key is the store-internal primary key. It never leaves the core.
	Key string
	// Fields holds the raw field values as stored.
	Fields map[string]string
}
