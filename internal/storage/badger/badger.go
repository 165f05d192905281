// Package badgerstorage keeps records in a BadgerDB key-value store, one
// msgpack value per anchor id. An empty directory runs badger in memory.
package badgerstorage

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spatialhue/lightcontrol/pkg/core"
	"github.com/vmihailenco/msgpack/v5"
)

const keyPrefix = "record/"

// Config holds configuration for the badger storage backend.
type Config struct {
	Dir string
}

// entry is the stored form of a record. Seq preserves insertion order, which
// badger's key order would otherwise lose.
type entry struct {
	Seq       uint64      `msgpack:"seq"`
	AnchorID  string      `msgpack:"anchorId"`
	Kind      string      `msgpack:"kind"`
	Target    string      `msgpack:"target"`
	IsOn      bool        `msgpack:"isOn"`
	LastColor *core.Color `msgpack:"lastColor,omitempty"`
}

// Backend implements storage.Backend on BadgerDB.
type Backend struct {
	cfg Config
	log zerolog.Logger
	db  *badger.DB

	mu   sync.Mutex
	next uint64
}

// New creates the backend. The database is opened by Init.
func New(cfg Config, log zerolog.Logger) *Backend {
	return &Backend{cfg: cfg, log: log}
}

// Init opens the database and finds the next insertion sequence.
func (b *Backend) Init() error {
	opts := badger.DefaultOptions(b.cfg.Dir).WithLogger(badgerLogger{b.log})
	if b.cfg.Dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open badger: %w", err)
	}
	b.db = db

	entries, err := b.scan()
	if err != nil {
		return err
	}
	b.mu.Lock()
	for _, e := range entries {
		if e.Seq >= b.next {
			b.next = e.Seq + 1
		}
	}
	b.mu.Unlock()

	if b.cfg.Dir == "" {
		b.log.Info().Int("records", len(entries)).Msg("Using badger record store in memory")
	} else {
		b.log.Info().Str("dir", b.cfg.Dir).Int("records", len(entries)).Msg("Using badger record store")
	}
	return nil
}

// Close flushes and closes the database.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Dir returns the data directory, empty when in memory.
func (b *Backend) Dir() string {
	return b.cfg.Dir
}

// LoadAll returns every record in insertion order.
func (b *Backend) LoadAll() ([]core.LightControlRecord, error) {
	entries, err := b.scan()
	if err != nil {
		return nil, err
	}
	out := make([]core.LightControlRecord, 0, len(entries))
	for _, e := range entries {
		r, err := e.record()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Add stores r, keeping the original position when it replaces a record.
func (b *Backend) Add(r core.LightControlRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.db.Update(func(txn *badger.Txn) error {
		e := newEntry(r)
		prev, err := get(txn, r.AnchorID)
		switch {
		case err == nil:
			e.Seq = prev.Seq
		case errors.Is(err, badger.ErrKeyNotFound):
			e.Seq = b.next
			b.next++
		default:
			return err
		}
		return put(txn, e)
	})
}

func (b *Backend) Update(r core.LightControlRecord) error {
	return b.db.Update(func(txn *badger.Txn) error {
		prev, err := get(txn, r.AnchorID)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("update %s: %w", r.AnchorID, core.ErrRecordNotFound)
		}
		if err != nil {
			return err
		}
		e := newEntry(r)
		e.Seq = prev.Seq
		return put(txn, e)
	})
}

func (b *Backend) Remove(anchorID uuid.UUID) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key(anchorID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("remove %s: %w", anchorID, core.ErrRecordNotFound)
			}
			return err
		}
		return txn.Delete(key(anchorID))
	})
}

func (b *Backend) scan() ([]entry, error) {
	prefix := []byte(keyPrefix)
	var out []entry
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var e entry
			if err := item.Value(func(v []byte) error { return msgpack.Unmarshal(v, &e) }); err != nil {
				return fmt.Errorf("failed to decode %s: %w", item.Key(), err)
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func key(id uuid.UUID) []byte {
	return []byte(keyPrefix + id.String())
}

func get(txn *badger.Txn, id uuid.UUID) (entry, error) {
	item, err := txn.Get(key(id))
	if err != nil {
		return entry{}, err
	}
	var e entry
	err = item.Value(func(v []byte) error { return msgpack.Unmarshal(v, &e) })
	return e, err
}

func put(txn *badger.Txn, e entry) error {
	data, err := msgpack.Marshal(&e)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return txn.Set([]byte(keyPrefix+e.AnchorID), data)
}

func newEntry(r core.LightControlRecord) entry {
	return entry{
		AnchorID:  r.AnchorID.String(),
		Kind:      r.Kind.String(),
		Target:    r.TargetName,
		IsOn:      r.IsOn,
		LastColor: r.LastColor,
	}
}

func (e entry) record() (core.LightControlRecord, error) {
	id, err := uuid.Parse(e.AnchorID)
	if err != nil {
		return core.LightControlRecord{}, fmt.Errorf("bad anchor id %q: %w", e.AnchorID, err)
	}
	kind, err := core.ParseControlKind(e.Kind)
	if err != nil {
		return core.LightControlRecord{}, err
	}
	return core.LightControlRecord{
		Kind:       kind,
		TargetName: e.Target,
		IsOn:       e.IsOn,
		AnchorID:   id,
		LastColor:  e.LastColor,
	}, nil
}

// badgerLogger routes badger's warnings and errors to zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(f string, v ...any) {
	l.log.Error().Str("component", "badger").Msgf(f, v...)
}
func (l badgerLogger) Warningf(f string, v ...any) {
	l.log.Warn().Str("component", "badger").Msgf(f, v...)
}
func (l badgerLogger) Infof(f string, v ...any) {
	l.log.Debug().Str("component", "badger").Msgf(f, v...)
}
func (l badgerLogger) Debugf(string, ...any) {}
