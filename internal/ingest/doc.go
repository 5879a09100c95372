// Package ingest fingerprints source files and registers them in the
// pipeline queue. Registration is register-or-reject: identical content
// bytes map to one item no matter how many times or under what name they
// arrive.
package ingest
