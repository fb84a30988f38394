package wal

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestAppendReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")
	w, err := OpenWrite(path, 0)
	if err != nil {
		t.Fatalf("open write: %v", err)
	}
	records := [][]byte{
		[]byte("first"),
		[]byte(""),
		bytes.Repeat([]byte{0xab}, 1000),
	}
	for _, rec := range records {
		if err := w.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := OpenReader(path, 0, ReaderOptions{})
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()
	for i, want := range records {
		got, _, err := r.Next()
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("record %d = %q, want %q", i, got, want)
		}
	}
	if _, _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("got %v, want EOF", err)
	}
}

func TestReadFromOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")
	w, err := OpenWrite(path, 0)
	if err != nil {
		t.Fatalf("open write: %v", err)
	}
	if err := w.Append([]byte("skip me")); err != nil {
		t.Fatalf("append: %v", err)
	}
	resume := w.Offset()
	if err := w.Append([]byte("read me")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := OpenReader(path, resume, ReaderOptions{})
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()
	got, next, err := r.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if string(got) != "read me" {
		t.Fatalf("got %q", got)
	}
	if next != resume+int64(headerSize+len("read me")) {
		t.Fatalf("next offset = %d", next)
	}
}

func TestTruncatedTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")
	w, err := OpenWrite(path, 0)
	if err != nil {
		t.Fatalf("open write: %v", err)
	}
	if err := w.Append([]byte("good")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Append([]byte("torn record")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Chop the last record mid-payload.
	if err := os.Truncate(path, w.Offset()-4); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	r, err := OpenReader(path, 0, ReaderOptions{AllowTruncatedTail: true})
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()
	got, goodEnd, err := r.Next()
	if err != nil || string(got) != "good" {
		t.Fatalf("first record: %q, %v", got, err)
	}
	if _, _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("tolerant reader: got %v, want EOF", err)
	}
	if !r.TruncatedTail() || r.LastGoodOffset() != goodEnd {
		t.Fatalf("tail state: truncated=%v lastGood=%d want %d", r.TruncatedTail(), r.LastGoodOffset(), goodEnd)
	}

	strict, err := OpenReader(path, 0, ReaderOptions{})
	if err != nil {
		t.Fatalf("open strict reader: %v", err)
	}
	defer strict.Close()
	if _, _, err := strict.Next(); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if _, _, err := strict.Next(); !errors.Is(err, ErrCorruptPayload) {
		t.Fatalf("strict reader: got %v, want corrupt payload", err)
	}
}

func TestChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")
	w, err := OpenWrite(path, 0)
	if err != nil {
		t.Fatalf("open write: %v", err)
	}
	if err := w.Append([]byte("payload")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Flip one payload byte behind the checksum's back.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	raw[headerSize] ^= 0xff
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := OpenReader(path, 0, ReaderOptions{})
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()
	if _, _, err := r.Next(); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("got %v, want checksum mismatch", err)
	}
}
