package types

import "time"

// CacheRecordVersion is bumped whenever the persisted layout of a record changes
const CacheRecordVersion = 1

// CacheRecord is the persisted form of a FunctionTable.
//
// Functions keep the table's insertion order so that a restored table is
// identical to the one that was saved.
type CacheRecord struct {
	Version   int
	CreatedAt time.Time
	Functions []SourceFunction
}

// NewCacheRecord snapshots table into a record stamped with the current time
func NewCacheRecord(table *FunctionTable) *CacheRecord {
	return &CacheRecord{
		Version:   CacheRecordVersion,
		CreatedAt: time.Now().UTC(),
		Functions: table.Functions(),
	}
}

// Table rebuilds the function table held by the record
func (r *CacheRecord) Table() *FunctionTable {
	table := NewFunctionTable()
	for _, fn := range r.Functions {
		table.Add(fn)
	}
	return table
}
