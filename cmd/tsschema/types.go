package main

import (
	"time"

	"github.com/jward/tsschema"
)

// CLIItem is one saved Item with the name and owner it was stored under.
// Nested members are not included; query them with 'children'.
type CLIItem struct {
	Name   string         `json:"name" yaml:"name"`
	Parent string         `json:"parent,omitempty" yaml:"parent,omitempty"`
	Item   *tsschema.Item `json:"item" yaml:"item"`
}

// CLIKindCount is the number of items of one kind.
type CLIKindCount struct {
	Kind  string `json:"kind" yaml:"kind"`
	Count int    `json:"count" yaml:"count"`
}

// CLISummary describes one saved run.
type CLISummary struct {
	RunID     int64          `json:"run_id" yaml:"run_id"`
	Entry     string         `json:"entry" yaml:"entry"`
	BaseDir   string         `json:"base_dir" yaml:"base_dir"`
	Digest    string         `json:"digest" yaml:"digest"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	Total     int            `json:"total" yaml:"total"`
	Kinds     []CLIKindCount `json:"kinds" yaml:"kinds"`
}

func rowToCLI(r *tsschema.Row) (CLIItem, error) {
	it, err := r.Item()
	if err != nil {
		return CLIItem{}, err
	}
	return CLIItem{Name: r.Name, Parent: r.ParentID, Item: it}, nil
}

func summaryToCLI(s *tsschema.Summary) *CLISummary {
	out := &CLISummary{
		RunID:     s.Run.ID,
		Entry:     s.Run.Entry,
		BaseDir:   s.Run.BaseDir,
		Digest:    s.Run.Digest,
		CreatedAt: s.Run.CreatedAt,
		Total:     s.Total,
		Kinds:     make([]CLIKindCount, 0, len(s.Counts)),
	}
	for _, c := range s.Counts {
		out.Kinds = append(out.Kinds, CLIKindCount{Kind: c.Kind, Count: c.Count})
	}
	return out
}
