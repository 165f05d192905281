// Package parser turns recorded sessions (one JSON object per line) into hand
// samples, device poses and user actions for replay.
package parser

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/spatialhue/lightcontrol/internal/geo"
)

// ErrUnknownType is returned for a line whose type is not recognised.
var ErrUnknownType = errors.New("unknown entry type")

const maxLineSize = 1 << 20

// Parser provides pure line -> entry conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
	start  time.Time

	parsed  atomic.Uint64
	skipped atomic.Uint64
}

// NewParser creates a parser stamping hand samples relative to start.
func NewParser(logger *slog.Logger, start time.Time) *Parser {
	return &Parser{logger: logger, start: start}
}

// Parsed returns how many lines were turned into entries.
func (p *Parser) Parsed() uint64 {
	return p.parsed.Load()
}

// Skipped returns how many lines Read dropped because they did not parse.
func (p *Parser) Skipped() uint64 {
	return p.skipped.Load()
}

// ParseLine parses a single session line.
func (p *Parser) ParseLine(data []byte) (Entry, error) {
	var raw rawLine
	if err := json.Unmarshal(data, &raw); err != nil {
		return Entry{}, fmt.Errorf("error unmarshalling line: %w", err)
	}
	if raw.T < 0 || math.IsNaN(raw.T) || math.IsInf(raw.T, 0) {
		return Entry{}, fmt.Errorf("invalid time offset %v", raw.T)
	}

	entry := Entry{At: time.Duration(raw.T * float64(time.Second))}
	var err error
	switch raw.Type {
	case string(EntryHand):
		entry.Kind = EntryHand
		entry.Hand, err = p.parseHand(raw, p.start.Add(entry.At))
	case string(EntryDevice):
		entry.Kind = EntryDevice
		entry.Device, err = geo.PoseFromSlices(raw.Matrix, raw.Pos, raw.Rot)
		if err != nil {
			err = fmt.Errorf("error parsing device pose: %w", err)
		}
	default:
		entry.Kind = EntryAction
		entry.Action, err = p.parseAction(raw)
	}
	if err != nil {
		return Entry{}, err
	}
	p.parsed.Add(1)
	return entry, nil
}

// Read parses r line by line and calls fn for every entry in order. Blank
// lines are ignored and malformed ones are logged and skipped. Read stops at
// the first error returned by fn or when ctx is done.
func (p *Parser) Read(ctx context.Context, r io.Reader, fn func(Entry) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		entry, err := p.ParseLine(data)
		if err != nil {
			p.skipped.Add(1)
			p.logger.Warn("Skipping session line", "line", line, "error", err)
			continue
		}
		entry.Line = line
		if err := fn(entry); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("error reading session: %w", err)
	}
	return nil
}
