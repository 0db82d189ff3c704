package store

import (
	"crypto/sha256"
	"fmt"
)

// ComputeDigest computes a deterministic hash over rows in order. Two runs
// with the same digest produced the same schema; database IDs do not affect
// it.
func ComputeDigest(rows []Row) string {
	h := sha256.New()
	for _, r := range rows {
		fmt.Fprintf(h, "item:%s\nparent:%s\nname:%s\n%s\n", r.ItemID, r.ParentID, r.Name, r.JSON)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
