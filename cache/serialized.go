package cache

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Serialized stores msgpack encodings of values in a byte cache, so every
// Get decodes an independent copy and callers can never mutate what the
// cache holds. Values must be msgpack-encodable.
//
// When V is an interface type (e.g. any) the encoding is prefixed with the
// id of the value's dynamic type, and Get decodes into a fresh value of that
// type. A []row put as any comes back as []row, an int as int.
type Serialized[K comparable, V any] struct {
	inner  Cache[K, []byte]
	logger *zap.Logger

	// dynamic is set when V is an interface type.
	dynamic bool
	types   typeTable
}

// NewSerialized wraps inner. A nil logger discards encode warnings.
func NewSerialized[K comparable, V any](inner Cache[K, []byte], logger *zap.Logger) *Serialized[K, V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Serialized[K, V]{
		inner:   inner,
		logger:  logger,
		dynamic: reflect.TypeFor[V]().Kind() == reflect.Interface,
	}
}

func (s *Serialized[K, V]) ID() string { return s.inner.ID() }
func (s *Serialized[K, V]) Len() int   { return s.inner.Len() }
func (s *Serialized[K, V]) Clear()     { s.inner.Clear() }

// Put stores the encoding of v. A value that cannot be encoded is not
// stored; the failure is logged and any previous value for k stays.
func (s *Serialized[K, V]) Put(k K, v V) {
	data, err := s.encode(v)
	if err != nil {
		s.logger.Warn("cache: value not stored",
			zap.String("cache", s.inner.ID()),
			zap.Any("key", k),
			zap.Error(err),
		)
		return
	}
	s.inner.Put(k, data)
}

// Get decodes a fresh copy. Undecodable bytes fail with ErrDecode.
func (s *Serialized[K, V]) Get(ctx context.Context, k K) (V, bool, error) {
	var zero V
	data, ok, err := s.inner.Get(ctx, k)
	if err != nil || !ok {
		return zero, ok, err
	}
	v, err := s.decode(data)
	if err != nil {
		return zero, false, fmt.Errorf("%w: cache %q key %v: %w", ErrDecode, s.inner.ID(), k, err)
	}
	return v, true, nil
}

// Remove deletes k. The previous value is decoded on a best-effort basis;
// if that fails the presence flag is still reported.
func (s *Serialized[K, V]) Remove(k K) (V, bool) {
	data, ok := s.inner.Remove(k)
	if !ok {
		var zero V
		return zero, false
	}
	v, err := s.decode(data)
	if err != nil {
		s.logger.Warn("cache: removed value not decodable",
			zap.String("cache", s.inner.ID()),
			zap.Any("key", k),
			zap.Error(err),
		)
	}
	return v, true
}

func (s *Serialized[K, V]) encode(v V) ([]byte, error) {
	if !s.dynamic {
		return msgpack.Marshal(v)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	typ := reflect.TypeOf(v) // nil for a nil interface
	if err := enc.EncodeUint(s.types.id(typ)); err != nil {
		return nil, err
	}
	if typ != nil {
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (s *Serialized[K, V]) decode(data []byte) (V, error) {
	var zero V
	if !s.dynamic {
		var v V
		if err := msgpack.Unmarshal(data, &v); err != nil {
			return zero, err
		}
		return v, nil
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	id, err := dec.DecodeUint64()
	if err != nil {
		return zero, err
	}
	if id == 0 {
		return zero, nil
	}
	typ, ok := s.types.lookup(id)
	if !ok {
		return zero, fmt.Errorf("unknown type id %d", id)
	}
	ptr := reflect.New(typ)
	if err := dec.Decode(ptr.Interface()); err != nil {
		return zero, err
	}
	v, ok := ptr.Elem().Interface().(V)
	if !ok {
		return zero, fmt.Errorf("%s does not implement %s", typ, reflect.TypeFor[V]())
	}
	return v, nil
}

// typeTable numbers the dynamic types seen by Put. Id 0 stands for nil.
type typeTable struct {
	mu    sync.RWMutex
	ids   map[reflect.Type]uint64
	types []reflect.Type
}

func (t *typeTable) id(typ reflect.Type) uint64 {
	if typ == nil {
		return 0
	}
	t.mu.RLock()
	id, ok := t.ids[typ]
	t.mu.RUnlock()
	if ok {
		return id
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.ids[typ]; ok {
		return id
	}
	if t.ids == nil {
		t.ids = make(map[reflect.Type]uint64)
	}
	t.types = append(t.types, typ)
	id = uint64(len(t.types))
	t.ids[typ] = id
	return id
}

func (t *typeTable) lookup(id uint64) (reflect.Type, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id == 0 || id > uint64(len(t.types)) {
		return nil, false
	}
	return t.types[id-1], true
}

var _ Cache[string, int] = (*Serialized[string, int])(nil)
