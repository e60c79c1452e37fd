package transport

import (
	"strings"

	"github.com/google/uuid"
)

// newID generates a prefixed unique id for envelopes and connections.
func newID(prefix string) string {
	id := uuid.NewString()
	p := strings.TrimSpace(prefix)
	if p == "" {
		return id
	}
	return p + "-" + id
}
