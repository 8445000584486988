package topic

import (
	"strings"

	"github.com/autopeer-io/dispatch/internal/pkg/mqtt/paths"
)

// TopicBuilder constructs the MQTT topics of the dispatch layout.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "autopeer/v1").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: strings.TrimSuffix(root, "/")}
}

// Events returns the topic the remote service publishes room events on.
func (b *TopicBuilder) Events(room string) string {
	return b.build(room, paths.Events)
}

// EventsWildcard matches the event topics of every room.
func (b *TopicBuilder) EventsWildcard() string {
	return b.build(Wildcard, paths.Events)
}

// Roster returns the retained roster topic of a room.
func (b *TopicBuilder) Roster(room string) string {
	return b.build(room, paths.Roster)
}

// Status returns the retained connection status topic of a room.
func (b *TopicBuilder) Status(room string) string {
	return b.build(room, paths.Status)
}

// Room returns a filter matching every topic of a room.
func (b *TopicBuilder) Room(room string) string {
	return b.build(room, MultiWildcard)
}

// build joins {root}/dispatch/{room}/{suffix}. Room ids cannot contain
// separators or wildcards, so those are replaced.
func (b *TopicBuilder) build(room, suffix string) string {
	if room != Wildcard && room != MultiWildcard {
		room = sanitize(room)
	}
	return b.root + "/" + paths.Dispatch + "/" + room + "/" + suffix
}

var replacer = strings.NewReplacer("/", "_", "+", "_", "#", "_")

func sanitize(segment string) string {
	return replacer.Replace(segment)
}
