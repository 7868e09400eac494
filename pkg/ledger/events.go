package ledger

// CacheUpdate describes one cache-visible change made by a mutating
// operation: a record written to a table, or removed from it. The push layer
// consumes these lists to notify connected clients; the engine only produces
// them.
type CacheUpdate struct {
	Table   string
	Record  any
	Removed bool
}

func updated(table string, record any) CacheUpdate {
	return CacheUpdate{Table: table, Record: record}
}

func removed(table string, record any) CacheUpdate {
	return CacheUpdate{Table: table, Record: record, Removed: true}
}
