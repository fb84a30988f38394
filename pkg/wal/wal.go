// Package wal implements a minimal append-only record log. Each record is
// framed as len(4) + crc32(4) + payload, little endian. The simulation uses
// it for the binary trade log; the framing is payload-agnostic.
package wal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"os"
)

const (
	headerSize      = 8 // len(4) + crc32(4)
	defaultFilePerm = 0o644
)

// DefaultMaxPayload bounds a single record so corrupt length fields cannot
// force huge allocations.
const DefaultMaxPayload = 4 << 20 // 4MB

var (
	ErrCorruptHeader    = errors.New("wal: corrupt header")
	ErrCorruptPayload   = errors.New("wal: corrupt payload")
	ErrChecksumMismatch = errors.New("wal: checksum mismatch")
	ErrPayloadTooLarge  = errors.New("wal: payload too large")
)

type Writer struct {
	f  *os.File
	bw *bufio.Writer
	// Logical offset of everything appended, including data still sitting
	// in the bufio buffer.
	off int64
}

func OpenWrite(path string, buffSize int) (*Writer, error) {
	if buffSize <= 0 {
		buffSize = 1 << 20
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, defaultFilePerm)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &Writer{
		f:   file,
		bw:  bufio.NewWriterSize(file, buffSize),
		off: stat.Size(),
	}, nil
}

// Append buffers one framed record. Call Flush to make it durable.
func (w *Writer) Append(payload []byte) error {
	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[4:], crc32.ChecksumIEEE(payload))
	if _, err := w.bw.Write(hdr[:]); err != nil {
		return ErrCorruptHeader
	}
	if _, err := w.bw.Write(payload); err != nil {
		return ErrCorruptPayload
	}

	w.off += int64(headerSize + len(payload))
	return nil
}

// Flush pushes buffered records to the OS and fsyncs the file.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	if err := w.f.Sync(); err != nil {
		return err
	}
	return nil
}

// Offset returns the logical end offset of the log.
func (w *Writer) Offset() int64 { return w.off }

func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		_ = w.f.Close()
		return err
	}
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}
