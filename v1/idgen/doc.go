// Package idgen assigns identifiers to documents on insert.
//
// Four strategies are built in and selected per entity with the idtype tag
// option: native ObjectIDs (the default), ObjectID hex strings, UUID
// strings, and auto-increment counters kept in a reserved collection. The
// counter is advanced with a single upsert-and-increment, so concurrent
// inserts never share a value.
package idgen
