// Package key builds the composite keys statement results are cached under.
//
// A key is derived from an ordered sequence of components: the statement id,
// the row window, the SQL text, every bound parameter value and the
// environment id. Each component is msgpack-encoded (map keys sorted, so
// equal maps encode equally) and the whole sequence is hashed with 128-bit
// xxh3. Equal sequences always give equal keys; the key itself is a small
// comparable value usable as a map key.
package key

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"
)

// CacheKey identifies one cached statement result.
type CacheKey struct {
	hi, lo uint64
	count  int
}

// Count returns the number of components the key was built from.
func (k CacheKey) Count() int { return k.count }

// IsZero reports whether k was built from no components.
func (k CacheKey) IsZero() bool { return k == CacheKey{} }

// String renders a stable form: 128-bit hash then component count.
func (k CacheKey) String() string {
	return fmt.Sprintf("%016x%016x:%d", k.hi, k.lo, k.count)
}

var hasherPool = sync.Pool{New: func() any { return xxh3.New() }}

// Builder accumulates key components in order. The zero value is usable;
// New seeds it with the statement id.
type Builder struct {
	buf   bytes.Buffer
	parts []string
	err   error
}

// New starts a key for the given statement.
func New(statementID string) *Builder {
	b := &Builder{}
	return b.Update(statementID)
}

// Page adds the row window.
func (b *Builder) Page(offset, limit int) *Builder {
	return b.Update(offset, limit)
}

// SQL adds the statement text.
func (b *Builder) SQL(sql string) *Builder {
	return b.Update(sql)
}

// Env adds the environment id. Empty ids are skipped.
func (b *Builder) Env(env string) *Builder {
	if env == "" {
		return b
	}
	return b.Update(env)
}

// Update appends components. nil is a valid component. The first value
// that cannot be encoded poisons the builder; Key reports it.
func (b *Builder) Update(vals ...any) *Builder {
	if b.err != nil {
		return b
	}
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(&b.buf)
	enc.SetSortMapKeys(true)

	for _, v := range vals {
		if err := enc.Encode(v); err != nil {
			b.err = fmt.Errorf("key: component %d (%T): %w", len(b.parts), v, err)
			return b
		}
		b.parts = append(b.parts, fmt.Sprint(v))
	}
	return b
}

// Key hashes the components added so far. The builder stays usable.
func (b *Builder) Key() (CacheKey, error) {
	if b.err != nil {
		return CacheKey{}, b.err
	}
	if len(b.parts) == 0 {
		return CacheKey{}, nil
	}

	// acquire reusable hasher
	h := hasherPool.Get().(*xxh3.Hasher)
	h.Reset()
	_, _ = h.Write(b.buf.Bytes())
	u128 := h.Sum128()
	hasherPool.Put(h)

	return CacheKey{hi: u128.Hi, lo: u128.Lo, count: len(b.parts)}, nil
}

// MustKey is Key for components known to be encodable. It panics otherwise.
func (b *Builder) MustKey() CacheKey {
	k, err := b.Key()
	if err != nil {
		panic(err)
	}
	return k
}

// String lists the components for diagnostics.
func (b *Builder) String() string {
	return strings.Join(b.parts, ":")
}
