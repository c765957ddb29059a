package projector

import (
	"regexp"
	"strings"
)

// Log entries come in three shapes: the one-off creation marker written when a
// ticket is opened ("<free text> cho <name> - <subject>"), an authored entry
// prefixed with the writer's 24-hex object id ("<id>: <text>"), and plain
// text. The patterns are conventions, not a schema, so parsing is total: an
// entry that matches neither degrades to a plain entry instead of failing.

type entryKind int

const (
	entryPlain entryKind = iota
	entryCreationMarker
	entryAuthored
)

type parsedEntry struct {
	kind entryKind

	// Text is the entry body with any author prefix stripped.
	Text string

	// AuthorID is set only for entryAuthored.
	AuthorID string

	// CounterpartyName and Subject are set only for entryCreationMarker.
	CounterpartyName string
	Subject          string
}

var (
	creationMarkerPattern = regexp.MustCompile(`^(.+?)\scho\s+(.+?)\s+-\s+(.+)$`)
	authorPrefixPattern   = regexp.MustCompile(`^([0-9a-fA-F]{24}):\s?(.*)$`)
)

// parseEntry classifies a single raw entry. allowMarker is true only for the
// first non-empty entry of a log; the creation marker is written exactly once
// and a later coincidental match must stay a plain entry.
func parseEntry(raw string, allowMarker bool) parsedEntry {
	trimmed := strings.TrimSpace(raw)

	if m := authorPrefixPattern.FindStringSubmatch(trimmed); m != nil {
		return parsedEntry{
			kind:     entryAuthored,
			AuthorID: m[1],
			Text:     strings.TrimSpace(m[2]),
		}
	}

	if allowMarker {
		if m := creationMarkerPattern.FindStringSubmatch(trimmed); m != nil {
			return parsedEntry{
				kind:             entryCreationMarker,
				Text:             trimmed,
				CounterpartyName: strings.TrimSpace(m[2]),
				Subject:          strings.TrimSpace(m[3]),
			}
		}
	}

	return parsedEntry{kind: entryPlain, Text: trimmed}
}
