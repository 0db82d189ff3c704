package store

import (
	"encoding/json"
	"strings"

	"github.com/jward/tsschema/internal/schema"
)

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// int64sToArgs converts []int64 to []any for use with database/sql.
func int64sToArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// shallowJSON encodes an Item without the members stored as separate rows.
func shallowJSON(it *schema.Item) (string, error) {
	shallow := *it
	shallow.Construct = nil
	shallow.Properties = nil
	shallow.InstanceProperties = nil
	b, err := json.Marshal(&shallow)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
