package dump

import (
	"os"
	"path/filepath"
	"testing"
)

func sampleSnapshot() *Snapshot {
	// pair(1, 2) rooted, plus one unrooted int.
	return &Snapshot{
		Version:   Version,
		Threshold: 8,
		Objects: []Object{
			{Kind: KindPair, Head: 1, Tail: 2},
			{Kind: KindInt, Int: 1, Head: NoRef, Tail: NoRef},
			{Kind: KindInt, Int: 2, Head: NoRef, Tail: NoRef},
			{Kind: KindInt, Int: 99, Head: NoRef, Tail: NoRef},
		},
		Roots: []uint32{0},
	}
}

func TestMarshalUnmarshalSnapshot(t *testing.T) {
	s := sampleSnapshot()
	data, err := MarshalSnapshot(s)
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}

	got, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot: %v", err)
	}
	if len(got.Objects) != 4 || len(got.Roots) != 1 || got.Threshold != 8 {
		t.Errorf("round trip lost data: %+v", got)
	}
	if got.Objects[0].Kind != KindPair || got.Objects[0].Head != 1 {
		t.Errorf("pair edges lost: %+v", got.Objects[0])
	}
	if got.Objects[2].Int != 2 {
		t.Errorf("int payload lost: %+v", got.Objects[2])
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	s := sampleSnapshot()
	a, err := MarshalSnapshot(s)
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalSnapshot(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("canonical CBOR encoding should be deterministic")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Snapshot)
		wantErr bool
	}{
		{"valid", func(s *Snapshot) {}, false},
		{"bad version", func(s *Snapshot) { s.Version = 99 }, true},
		{"edge out of range", func(s *Snapshot) { s.Objects[0].Head = 42 }, true},
		{"negative edge below NoRef", func(s *Snapshot) { s.Objects[0].Tail = -2 }, true},
		{"int with edge", func(s *Snapshot) { s.Objects[1].Head = 0 }, true},
		{"unknown kind", func(s *Snapshot) { s.Objects[1].Kind = 7 }, true},
		{"root out of range", func(s *Snapshot) { s.Roots[0] = 9 }, true},
		{"nulled pair edge", func(s *Snapshot) { s.Objects[0].Tail = NoRef }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := sampleSnapshot()
			tc.mutate(s)
			err := s.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.pvmd")
	s := sampleSnapshot()

	if err := WriteFile(path, s); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got.Objects) != len(s.Objects) || len(got.Roots) != len(s.Roots) {
		t.Errorf("file round trip lost data: %+v", got)
	}
}

func TestReadFileRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-dump")
	if err := os.WriteFile(path, []byte("XXXX00000000junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err != ErrInvalidMagic {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestReadFileRejectsShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short")
	if err := os.WriteFile(path, []byte("PV"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Error("expected error for truncated file")
	}
}
