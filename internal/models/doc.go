// Package models defines the persisted entities of the scan relay and their persistence interfaces.
//
// The relay itself keeps nothing; only the delivery journal is stored:
//   - [Delivery] : metadata of one event relayed onto the bus (never the payload bytes)
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines the data access operations the journal supports.
package models
