package playlist

import "strings"

// ListMarker is the query parameter that carries a playlist id in a share URL.
const ListMarker = "list="

// ParseID extracts a playlist id from free-form user input.
//
// If the input contains ListMarker, the id is the text following the marker up to
// the next '&' or '#'. Otherwise the whole trimmed input is taken as the id.
// Returns false for empty input, an empty marker value, or a bare value that
// contains whitespace.
func ParseID(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}

	if i := strings.Index(input, ListMarker); i >= 0 {
		id := input[i+len(ListMarker):]
		if end := strings.IndexAny(id, "&#"); end >= 0 {
			id = id[:end]
		}
		if id == "" {
			return "", false
		}
		return id, true
	}

	// Assume it's already a playlist id
	if strings.ContainsAny(input, " \t\r\n") {
		return "", false
	}
	return input, true
}
