package domain

import "encoding/json"

// Snapshot is a captured mapping of dedup key to record, taken at a single
// point in time. It is both the unit handed to the flush sink and the form
// in which high-persistence records are mirrored to durable storage.
type Snapshot map[string]*Record

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, r := range s {
		cp := *r
		out[k] = &cp
	}
	return out
}

// EncodeSnapshot serializes a snapshot to the blob form stored by mirrors.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses a mirror blob back into a snapshot.
// A nil or empty blob decodes to an empty snapshot.
func DecodeSnapshot(b []byte) (Snapshot, error) {
	if len(b) == 0 {
		return Snapshot{}, nil
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s == nil {
		s = Snapshot{}
	}
	return s, nil
}
