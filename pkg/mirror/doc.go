// Package mirror provides durable stores for high-persistence error records.
//
// A mirror keeps the buffer's high-persistence snapshot on stable storage so
// that errors reported shortly before a crash or restart survive until the
// next flush. The buffer serializes the snapshot itself; a mirror only stores
// opaque blobs under string keys.
//
// # Usage
//
// Create a file-based mirror:
//
//	m := mirror.NewFileMirror("/var/lib/myapp/errship", "errors")
//
// Or a SQLite-backed one:
//
//	m, err := mirror.NewSQLiteMirror(mirror.SQLiteConfig{
//	    Path:       "/var/lib/myapp/errship.db",
//	    StorageKey: "errors",
//	})
//
// Or Redis:
//
//	m, err := mirror.NewRedisMirror(mirror.RedisConfig{
//	    Addr:       "localhost:6379",
//	    StorageKey: "errors",
//	})
//
// Pass the mirror to errship via errship.WithMirror.
//
// # Custom Mirrors
//
// Implement the Mirror interface to store snapshots elsewhere (S3, etcd,
// browser-style async storage behind RPC). Each operation must be
// individually atomic: a concurrent reader must never observe a partial
// write.
package mirror
