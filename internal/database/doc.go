// Package database provides the SQLite archive of rendered reports.
//
// Every rendering the CLI archives is stored with its title, format,
// media type, a SHA3-256 digest of the content and the delivery outcome.
// The digest lets a scheduled run skip mailing a report identical to the
// last one sent.
//
// The archive uses modernc.org/sqlite, a CGO-free driver, in WAL mode.
package database
