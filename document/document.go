// Package document is the boundary to the rich-text rendering layer. The
// feed treats message bodies as opaque blobs; the single capability it
// needs from this layer is emptiness detection, used to suppress empty
// renders.
package document

import (
	"encoding/json"
	"strings"
)

type delta struct {
	Ops []struct {
		Insert interface{} `json:"insert"`
	} `json:"ops"`
}

// IsEmpty reports whether a serialized document renders to nothing: a
// blank blob, a delta with no ops, or one whose inserts are all
// whitespace. Non-string inserts (embeds such as images) count as
// content. Malformed blobs are treated as non-empty and left to the
// renderer.
func IsEmpty(body string) bool {
	if strings.TrimSpace(body) == "" {
		return true
	}

	var d delta
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return false
	}

	for _, op := range d.Ops {
		switch v := op.Insert.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return false
			}
		default:
			if v != nil {
				return false
			}
		}
	}
	return true
}
