package models

import (
	"sort"
	"strings"
)

// Response bodies shared by every transport. Upstream details never reach
// the client.
const (
	MsgUpstreamFailure = "Something went wrong."
	MsgInvalidBody     = "Invalid request body."
)

// ValidationError reports client input that cannot be relayed upstream.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(e.Message)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(e.Fields[k])
		b.WriteString(".")
	}
	return b.String()
}
