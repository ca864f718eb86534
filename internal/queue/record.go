package queue

import (
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
)

// Record is one opaque structured item stored and later drained as a batch.
// The queue does not enforce any schema.
type Record map[string]any

// Stored value framing: payloadLen(4B BE) | json payload | crc32c(payload)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EncodeRecord serializes a record into its stored representation.
func EncodeRecord(rec Record) ([]byte, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 4+len(payload)+4)
	var lb [4]byte
	binary.BigEndian.PutUint32(lb[:], uint32(len(payload)))
	out = append(out, lb[:]...)
	out = append(out, payload...)
	var cb [4]byte
	binary.BigEndian.PutUint32(cb[:], crc32.Checksum(payload, castagnoli))
	out = append(out, cb[:]...)
	return out, nil
}

// DecodeRecord parses a stored value, verifying length and checksum.
func DecodeRecord(b []byte) (Record, error) {
	if len(b) < 8 {
		return nil, ErrCorruptRecord
	}
	plen := binary.BigEndian.Uint32(b[:4])
	if int(4+plen+4) != len(b) {
		return nil, ErrCorruptRecord
	}
	payload := b[4 : 4+plen]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Checksum(payload, castagnoli) != expect {
		return nil, ErrCorruptRecord
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, ErrCorruptRecord
	}
	return rec, nil
}
