package amqp

// Default page sizes for pool arenas.
const (
	defaultPoolPageSize  = 4096
	defaultEntryPageSize = 64
	defaultValuePageSize = 64
)

// arena hands out sub-slices of fixed-size pages. Requests larger than a page
// get a dedicated block. Nothing is freed individually; recycle makes every
// page reusable at once.
type arena[T any] struct {
	pageSize int
	pages    [][]T
	page     int // index of the page being filled
	used     int // elements used in that page
	large    [][]T
	total    int // elements handed out since the last recycle
}

func newArena[T any](pageSize int) arena[T] {
	return arena[T]{pageSize: pageSize, page: -1}
}

func (a *arena[T]) alloc(n int) []T {
	if n == 0 {
		return []T{}
	}
	a.total += n
	if n > a.pageSize {
		block := make([]T, n)
		a.large = append(a.large, block)
		return block
	}
	if a.page < 0 || a.used+n > a.pageSize {
		a.page++
		a.used = 0
		if a.page == len(a.pages) {
			a.pages = append(a.pages, make([]T, a.pageSize))
		}
	}
	s := a.pages[a.page][a.used : a.used+n : a.used+n]
	a.used += n
	return s
}

func (a *arena[T]) recycle() {
	for _, p := range a.pages[:a.page+1] {
		clear(p)
	}
	a.page = -1
	a.used = 0
	a.large = nil
	a.total = 0
}

func (a *arena[T]) empty() {
	a.pages = nil
	a.page = -1
	a.used = 0
	a.large = nil
	a.total = 0
}

func (a *arena[T]) pageCount() int {
	return len(a.pages)
}

// Pool is a region allocator backing decoded frames, tables and message
// bodies. Memory obtained from a Pool stays valid until Recycle or Empty is
// called, which advance the pool generation. A Lease taken before that
// reports itself invalid afterwards.
//
// A Pool is not safe for concurrent use.
type Pool struct {
	bytes   arena[byte]
	entries arena[TableEntry]
	values  arena[FieldValue]

	gen   uint64
	limit int // max bytes per generation, 0 for unlimited
}

// NewPool creates a pool whose byte pages are pageSize long.
func NewPool(pageSize int) *Pool {
	if pageSize <= 0 {
		pageSize = defaultPoolPageSize
	}
	return &Pool{
		bytes:   newArena[byte](pageSize),
		entries: newArena[TableEntry](defaultEntryPageSize),
		values:  newArena[FieldValue](defaultValuePageSize),
	}
}

// SetLimit caps the number of bytes handed out per generation. Allocations
// beyond it fail with StatusNoMemory.
func (p *Pool) SetLimit(n int) {
	p.limit = n
}

// Alloc returns n bytes owned by the pool.
func (p *Pool) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, &LibraryError{Status: StatusInvalidParameter, Op: "pool alloc"}
	}
	if p.limit > 0 && p.bytes.total+n > p.limit {
		return nil, &LibraryError{Status: StatusNoMemory, Op: "pool alloc"}
	}
	return p.bytes.alloc(n), nil
}

// Dup copies b into the pool.
func (p *Pool) Dup(b []byte) ([]byte, error) {
	buf, err := p.Alloc(len(b))
	if err != nil {
		return nil, err
	}
	copy(buf, b)
	return buf, nil
}

func (p *Pool) allocEntries(n int) []TableEntry {
	return p.entries.alloc(n)
}

func (p *Pool) allocValues(n int) []FieldValue {
	return p.values.alloc(n)
}

// Recycle invalidates everything handed out so far. Byte pages are kept for
// reuse. Entry and value pages are dropped, so a Table kept past its
// generation never shows another frame's entries; its borrowed values panic
// on access instead.
func (p *Pool) Recycle() {
	p.bytes.recycle()
	p.entries.empty()
	p.values.empty()
	p.gen++
}

// Empty invalidates everything handed out so far and drops the pages.
func (p *Pool) Empty() {
	p.bytes.empty()
	p.entries.empty()
	p.values.empty()
	p.gen++
}

// Generation is bumped by every Recycle and Empty.
func (p *Pool) Generation() uint64 {
	return p.gen
}

// Allocated is the number of bytes handed out in the current generation.
func (p *Pool) Allocated() int {
	return p.bytes.total
}

// Pages is the number of byte pages currently retained.
func (p *Pool) Pages() int {
	return p.bytes.pageCount()
}

// Lease captures the current generation of p.
func (p *Pool) Lease() Lease {
	return Lease{pool: p, gen: p.gen}
}

// Lease ties borrowed memory to a pool generation.
type Lease struct {
	pool *Pool
	gen  uint64
}

// Valid reports whether memory borrowed under l is still usable. The zero
// Lease borrows nothing and is always valid.
func (l Lease) Valid() bool {
	return l.pool == nil || l.pool.gen == l.gen
}
