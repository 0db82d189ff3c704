package store

// Reader is the read side of the store used by queries. *Store implements
// it against SQLite.
type Reader interface {
	LatestRun(entry string) (*Run, error)
	Runs() ([]*Run, error)
	ItemByID(runID int64, itemID string) (*Row, error)
	ItemsByKind(runID int64, kind string) ([]*Row, error)
	Children(runID int64, parentID string) ([]*Row, error)
	SearchItems(runID int64, glob string) ([]*Row, error)
	CountByKind(runID int64) ([]KindCount, error)
	GetMetadata(key string) (string, error)
}

// Compile-time check: *Store satisfies Reader.
var _ Reader = (*Store)(nil)
