// Package sink provides flush destinations for buffered error snapshots.
//
// A sink receives the captured snapshot each time the buffer flushes. The
// buffer detaches the snapshot before delivery, so a failed send loses it
// from memory; sinks needing durability must be robust on their own.
//
// # Usage
//
// Ship snapshots to an HTTP collector:
//
//	s := sink.NewHTTPSink(&http.Client{Timeout: 15 * time.Second}, sink.Metadata{
//	    ServiceURL: "https://errors.example.com",
//	    AuthKey:    "api-key",
//	}, logger)
//
//	cfg := errship.Config{GetKey: keyFn, OnFlush: s.Send}
//
// Or write NDJSON lines to any io.Writer:
//
//	s := sink.NewWriterSink(os.Stdout)
//
// # Custom Sinks
//
// Any function with the Send signature works as a flush destination
// (e.g. Kafka producers, files, in-process handlers).
package sink
