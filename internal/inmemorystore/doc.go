// Package inmemorystore provides a thread-safe, in-memory implementation of
// the search.Sink interface. It backs dry runs of the index command and the
// pipeline tests.
//
// Bodies are stored the way a search engine would see them: every document
// is encoded to JSON and decoded again, so numbers read back as float64 and
// nested values never alias the caller's maps.
package inmemorystore
