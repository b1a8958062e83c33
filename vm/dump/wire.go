package dump

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Magic identifies a picovm heap dump file.
var Magic = [4]byte{'P', 'V', 'M', 'D'}

// ErrInvalidMagic indicates the file is not a picovm heap dump.
var ErrInvalidMagic = errors.New("dump: invalid magic number: expected PVMD")

// File header: magic(4) + version(4), followed by the CBOR payload.
const headerSize = 8

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dump: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalSnapshot serializes a Snapshot to canonical CBOR bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes and validates a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("dump: unmarshal snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// WriteFile writes the snapshot to path with the dump file header.
func WriteFile(path string, s *Snapshot) error {
	payload, err := MarshalSnapshot(s)
	if err != nil {
		return fmt.Errorf("dump: marshal snapshot: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(Magic[:])
	var version [4]byte
	binary.LittleEndian.PutUint32(version[:], s.Version)
	buf.Write(version[:])
	buf.Write(payload)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("dump: write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads and validates a snapshot from path.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dump: read %s: %w", path, err)
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("dump: %s: file too short for header", path)
	}
	if !bytes.Equal(data[:4], Magic[:]) {
		return nil, ErrInvalidMagic
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != Version {
		return nil, fmt.Errorf("dump: unsupported snapshot version %d", version)
	}
	return UnmarshalSnapshot(data[headerSize:])
}
