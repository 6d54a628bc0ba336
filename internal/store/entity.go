package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Entity stores one record type under a key prefix. Records live at
// <prefix><id>; secondary index entries live at <prefix>idx:<name>:<value>
// and hold the record id.
type Entity[T any] struct {
	db      *badger.DB
	prefix  string
	idOf    func(*T) string
	ttlOf   func(*T) time.Duration
	indexes []Index[T]
}

// Index is a secondary index. Non-unique index values must embed the
// record id so entries stay distinct.
type Index[T any] struct {
	name   string
	unique bool
	values func(*T) []string
}

// NewEntity creates an entity stored under prefix.
func NewEntity[T any](db *badger.DB, prefix string, idOf func(*T) string) *Entity[T] {
	return &Entity[T]{db: db, prefix: prefix, idOf: idOf}
}

// WithIndex adds a non-unique index.
func (e *Entity[T]) WithIndex(name string, values func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{name: name, values: values})
	return e
}

// WithUniqueIndex adds an index whose values may point at one record only.
func (e *Entity[T]) WithUniqueIndex(name string, values func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{name: name, unique: true, values: values})
	return e
}

// WithTTL expires records after the returned duration. Zero means no expiry.
func (e *Entity[T]) WithTTL(ttl func(*T) time.Duration) *Entity[T] {
	e.ttlOf = ttl
	return e
}

func (e *Entity[T]) recordKey(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *Entity[T]) indexPrefix(name string) string {
	return e.prefix + "idx:" + name + ":"
}

func (e *Entity[T]) isIndexKey(key []byte) bool {
	return strings.HasPrefix(string(key[len(e.prefix):]), "idx:")
}

// Put inserts or replaces a record and its index entries.
func (e *Entity[T]) Put(ctx context.Context, v *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return e.putTxn(txn, v)
	})
}

func (e *Entity[T]) putTxn(txn *badger.Txn, v *T) error {
	id := e.idOf(v)

	old, err := e.getTxn(txn, id)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return err
	default:
		if err := e.dropIndexes(txn, old); err != nil {
			return err
		}
	}

	for _, idx := range e.indexes {
		for _, val := range idx.values(v) {
			key := []byte(e.indexPrefix(idx.name) + val)
			if idx.unique {
				owner, err := readString(txn, key)
				if err == nil && owner != id {
					return fmt.Errorf("index %s value %q: %w", idx.name, val, ErrAlreadyExists)
				}
				if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("check index %s: %w", idx.name, err)
				}
			}
			if err := txn.Set(key, []byte(id)); err != nil {
				return fmt.Errorf("set index %s: %w", idx.name, err)
			}
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.prefix, err)
	}
	entry := badger.NewEntry(e.recordKey(id), data)
	if e.ttlOf != nil {
		if ttl := e.ttlOf(v); ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
	}
	return txn.SetEntry(entry)
}

func (e *Entity[T]) dropIndexes(txn *badger.Txn, v *T) error {
	for _, idx := range e.indexes {
		for _, val := range idx.values(v) {
			if err := txn.Delete([]byte(e.indexPrefix(idx.name) + val)); err != nil {
				return fmt.Errorf("delete index %s: %w", idx.name, err)
			}
		}
	}
	return nil
}

// Get returns the record with id, or ErrNotFound.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *T
	err := e.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = e.getTxn(txn, id)
		return err
	})
	return out, err
}

func (e *Entity[T]) getTxn(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(e.recordKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s%s: %w", e.prefix, id, err)
	}
	return decodeItem[T](item)
}

// GetByIndex resolves a unique index value to its record.
func (e *Entity[T]) GetByIndex(ctx context.Context, name, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *T
	err := e.db.View(func(txn *badger.Txn) error {
		id, err := readString(txn, []byte(e.indexPrefix(name)+value))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		out, err = e.getTxn(txn, id)
		return err
	})
	return out, err
}

// Update loads the record, applies fn and writes it back with its indexes
// refreshed, all in one transaction.
func (e *Entity[T]) Update(ctx context.Context, id string, fn func(*T) error) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *T
	err := e.db.Update(func(txn *badger.Txn) error {
		cur, err := e.getTxn(txn, id)
		if err != nil {
			return err
		}
		if err := fn(cur); err != nil {
			return err
		}
		if err := e.putTxn(txn, cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	return out, err
}

// Delete removes a record and its index entries. Missing records are ignored.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.db.Update(func(txn *badger.Txn) error {
		cur, err := e.getTxn(txn, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := e.dropIndexes(txn, cur); err != nil {
			return err
		}
		return txn.Delete(e.recordKey(id))
	})
}

// Scan yields every record whose id starts with idPrefix.
func (e *Entity[T]) Scan(ctx context.Context, idPrefix string) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		prefix := e.recordKey(idPrefix)
		err := e.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				if e.isIndexKey(it.Item().Key()) {
					continue
				}
				v, err := decodeItem[T](it.Item())
				if err != nil {
					return err
				}
				if !yield(v, nil) {
					return errStopped
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopped) {
			yield(nil, err)
		}
	}
}

// ByIndex returns the records whose index values start with valuePrefix.
func (e *Entity[T]) ByIndex(ctx context.Context, name, valuePrefix string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*T
	err := e.db.View(func(txn *badger.Txn) error {
		prefix := []byte(e.indexPrefix(name) + valuePrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		var ids []string
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			}); err != nil {
				return err
			}
		}

		for _, id := range ids {
			v, err := e.getTxn(txn, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

// IndexValues yields the raw values of an index, in key order.
func (e *Entity[T]) IndexValues(ctx context.Context, name string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		prefix := []byte(e.indexPrefix(name))
		err := e.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				if !yield(string(it.Item().Key()[len(prefix):]), nil) {
					return errStopped
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopped) {
			yield("", err)
		}
	}
}

// Page returns one page of the records whose id starts with idPrefix,
// ordered by key. The cursor is the last key of the previous page.
func (e *Entity[T]) Page(ctx context.Context, idPrefix string, params PaginationParams) (*PaginatedResult[*T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params.Normalize()

	after, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	prefix := e.recordKey(idPrefix)
	if after != "" && !strings.HasPrefix(after, string(prefix)) {
		return nil, ErrInvalidCursor
	}

	result := &PaginatedResult[*T]{Items: make([]*T, 0, min(params.Limit, 64))}
	var lastKey string

	err = e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = params.Limit + 1
		it := txn.NewIterator(opts)
		defer it.Close()

		if after != "" {
			it.Seek([]byte(after))
			if it.Valid() && string(it.Item().Key()) == after {
				it.Next()
			}
		} else {
			it.Seek(prefix)
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if e.isIndexKey(key) {
				continue
			}
			if len(result.Items) == params.Limit {
				result.HasMore = true
				return nil
			}
			v, err := decodeItem[T](it.Item())
			if err != nil {
				return err
			}
			result.Items = append(result.Items, v)
			lastKey = string(key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.HasMore {
		result.NextCursor = EncodeCursor(lastKey)
	}
	return result, nil
}

// errStopped unwinds a View when the consumer of an iterator stops early.
var errStopped = errors.New("iteration stopped")

func decodeItem[T any](item *badger.Item) (*T, error) {
	var v T
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", item.Key(), err)
	}
	return &v, nil
}

func readString(txn *badger.Txn, key []byte) (string, error) {
	item, err := txn.Get(key)
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}
