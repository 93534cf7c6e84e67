package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/snappy"
	"github.com/spaolacci/murmur3"

	colerr "github.com/colonnade/colonnade/internal/errors"
)

// Snapshot frame layout:
//
//	[0:4]   magic "CSNP"
//	[4]     format version
//	[5:13]  murmur3 checksum of the compressed payload (little-endian)
//	[13:]   snappy-compressed JSON payload
const (
	snapshotMagic   = "CSNP"
	snapshotVersion = 1
	headerSize      = 13
)

// EncodeSnapshot compresses and frames a serialized builder tree for
// storage.
func EncodeSnapshot(payload []byte) []byte {
	compressed := snappy.Encode(nil, payload)
	frame := make([]byte, headerSize+len(compressed))
	copy(frame[0:4], snapshotMagic)
	frame[4] = snapshotVersion
	binary.LittleEndian.PutUint64(frame[5:13], murmur3.Sum64(compressed))
	copy(frame[headerSize:], compressed)
	return frame
}

// DecodeSnapshot verifies and decompresses a snapshot frame.
func DecodeSnapshot(frame []byte) ([]byte, error) {
	if len(frame) < headerSize {
		return nil, colerr.NewStorageError(colerr.CodeInvalidData,
			fmt.Sprintf("snapshot frame too short (%d bytes)", len(frame)), nil)
	}
	if string(frame[0:4]) != snapshotMagic {
		return nil, colerr.NewStorageError(colerr.CodeInvalidData,
			"snapshot frame has invalid magic", nil)
	}
	if frame[4] != snapshotVersion {
		return nil, colerr.NewStorageError(colerr.CodeInvalidData,
			fmt.Sprintf("unsupported snapshot version %d", frame[4]), nil)
	}

	want := binary.LittleEndian.Uint64(frame[5:13])
	compressed := frame[headerSize:]
	if got := murmur3.Sum64(compressed); got != want {
		return nil, colerr.NewStorageError(colerr.CodeChecksum,
			fmt.Sprintf("snapshot checksum mismatch (want %x, got %x)", want, got), nil)
	}

	payload, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, colerr.NewStorageError(colerr.CodeInvalidData,
			"decompressing snapshot payload", err)
	}
	return payload, nil
}

// SnapshotChecksum returns the checksum stored in a snapshot frame
// without decoding the payload.
func SnapshotChecksum(frame []byte) (uint64, error) {
	if len(frame) < headerSize || string(frame[0:4]) != snapshotMagic {
		return 0, colerr.NewStorageError(colerr.CodeInvalidData,
			"snapshot frame has invalid header", nil)
	}
	return binary.LittleEndian.Uint64(frame[5:13]), nil
}
