package txlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"macrosim.com/pkg/logger"
	"macrosim.com/pkg/wal"
)

// Frame layout inside the log: one 16-byte run id header record, then
// fixed-width 56-byte trade records, all little-endian.
const tradeRecordSize = 7*8 + 8

// WALSink appends trades to a checksummed write-ahead log. The writer
// buffers internally; Flush forces the buffer to disk.
type WALSink struct {
	runID string
	w     *wal.Writer
}

// OpenWALSink creates or appends to the log at path and writes the run id
// header for this run.
func OpenWALSink(path string, bufSize int) (*WALSink, error) {
	w, err := wal.OpenWrite(path, bufSize)
	if err != nil {
		return nil, fmt.Errorf("open trade log: %w", err)
	}
	id := uuid.New()
	if err := w.Append(id[:]); err != nil {
		w.Close()
		return nil, fmt.Errorf("write run header: %w", err)
	}
	return &WALSink{runID: id.String(), w: w}, nil
}

// RunID returns the identifier written in this run's header record.
func (s *WALSink) RunID() string { return s.runID }

func (s *WALSink) LogTransaction(marketID, buyerID, sellerID, initiatorID, amount, price int64, simTime float64) {
	buf := make([]byte, tradeRecordSize)
	off := 0
	for _, v := range []int64{marketID, buyerID, sellerID, initiatorID, amount, price} {
		binary.LittleEndian.PutUint64(buf[off:], uint64(v))
		off += 8
	}
	binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(simTime))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], 0) // reserved
	if err := s.w.Append(buf); err != nil {
		logger.Error(context.Background(), "trade log append failed", zap.Error(err))
	}
}

func (s *WALSink) Flush() error { return s.w.Flush() }

func (s *WALSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.w.Close()
		return err
	}
	return s.w.Close()
}

// ReadWAL replays a trade log from the beginning. Trades carry the run id of
// the most recent header record preceding them. A truncated tail is not an
// error; the good prefix is returned.
func ReadWAL(path string) ([]Trade, error) {
	r, err := wal.OpenReader(path, 0, wal.ReaderOptions{})
	if err != nil {
		return nil, fmt.Errorf("open trade log: %w", err)
	}
	defer r.Close()

	var out []Trade
	runID := ""
	for {
		payload, _, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("read trade log: %w", err)
		}
		switch len(payload) {
		case 16:
			id, err := uuid.FromBytes(payload)
			if err != nil {
				return out, fmt.Errorf("bad run header: %w", err)
			}
			runID = id.String()
		case tradeRecordSize:
			t := Trade{RunID: runID}
			fields := []*int64{&t.MarketID, &t.BuyerID, &t.SellerID, &t.InitiatorID, &t.Amount, &t.Price}
			off := 0
			for _, f := range fields {
				*f = int64(binary.LittleEndian.Uint64(payload[off:]))
				off += 8
			}
			t.SimTime = math.Float64frombits(binary.LittleEndian.Uint64(payload[off:]))
			out = append(out, t)
		default:
			return out, fmt.Errorf("trade log record has unexpected size %d", len(payload))
		}
	}
}
