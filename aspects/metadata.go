package aspects

import (
	"fmt"
	"slices"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/on-the-ground/aspect_ive_go/aspects/namespace"
)

// Metadata describes one function value in a wrapper chain.
//
// The pristine function of a chain gets a record of its own the first time it
// is decorated: its Original is its own Handle, it has no Predecessor and a
// zero Aspect.
type Metadata struct {
	Handle namespace.Handle
	// Original is the pristine function of the chain. It never changes when the
	// binding is decorated again.
	Original namespace.Handle
	// Predecessor is the function value this wrapper calls.
	Predecessor namespace.Handle
	// Aspect is the aspect this wrapper implements.
	Aspect    Spec
	BoundName string
	Namespace *namespace.Namespace
	Source    string
	// Depth counts the wrappers between this value and the pristine function.
	Depth int

	fn namespace.Func
}

// IsOriginal reports whether the record describes a pristine function.
func (m Metadata) IsOriginal() bool {
	return m.Handle == m.Original
}

const (
	tableMetadata = "metadata"
	indexID       = "id"
	indexOriginal = "original"
)

var metadataSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableMetadata: {
			Name: tableMetadata,
			Indexes: map[string]*memdb.IndexSchema{
				indexID: {
					Name:    indexID,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Handle"},
				},
				indexOriginal: {
					Name:    indexOriginal,
					Indexer: &memdb.StringFieldIndex{Field: "Original"},
				},
			},
		},
	},
}

// metadataTable is the side table of every decorated function, keyed by handle.
type metadataTable struct {
	db *memdb.MemDB
}

func newMetadataTable() (*metadataTable, error) {
	db, err := memdb.NewMemDB(metadataSchema)
	if err != nil {
		return nil, fmt.Errorf("create metadata table: %w", err)
	}
	return &metadataTable{db: db}, nil
}

func (t *metadataTable) get(h namespace.Handle) (*Metadata, bool, error) {
	txn := t.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tableMetadata, indexID, string(h))
	if err != nil || raw == nil {
		return nil, false, err
	}
	return raw.(*Metadata), true, nil
}

// insert stores records in one transaction; nil records are skipped.
func (t *metadataTable) insert(records ...*Metadata) error {
	txn := t.db.Txn(true)
	defer txn.Abort()

	for _, m := range records {
		if m == nil {
			continue
		}
		if err := txn.Insert(tableMetadata, m); err != nil {
			return fmt.Errorf("insert metadata of %s: %w", m.BoundName, err)
		}
	}
	txn.Commit()
	return nil
}

// chain lists every record sharing the pristine function original, pristine first.
func (t *metadataTable) chain(original namespace.Handle) ([]*Metadata, error) {
	txn := t.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableMetadata, indexOriginal, string(original))
	if err != nil {
		return nil, err
	}
	var records []*Metadata
	for raw := it.Next(); raw != nil; raw = it.Next() {
		records = append(records, raw.(*Metadata))
	}
	slices.SortFunc(records, func(a, b *Metadata) int { return a.Depth - b.Depth })
	return records, nil
}
