// Package queue implements the offline reading queue: readings that could not
// be delivered are stored durably in arrival order and replayed to the
// collector once the link returns.
//
// Two backends are provided:
//
//   - File stores one record per line ("timestamp,temperature,pressure",
//     values at two decimals). Appends are fsync'd; Clear and DropHead
//     rewrite through a temporary file and rename, so a crash leaves either
//     the old or the new contents.
//   - SQLite stores records in the offline_readings table of the node
//     database.
//
// Both backends are safe for concurrent use.
package queue
