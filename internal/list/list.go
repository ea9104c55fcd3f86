// Package list implements a keyed intrusive doubly linked list
// (head=MRU, tail=LRU) used by the order-tracking policies.
package list

// node is a list element. Links are owned by the List.
type node[K comparable] struct {
	key  K
	prev *node[K]
	next *node[K]
}

// List keeps each key at most once and supports O(1) push, promote,
// remove and tail lookup. It is not safe for concurrent use; callers
// guard it with their own lock.
type List[K comparable] struct {
	m    map[K]*node[K]
	head *node[K] // MRU
	tail *node[K] // LRU
}

// New returns an empty list sized for capacity keys.
func New[K comparable](capacity int) *List[K] {
	if capacity < 0 {
		capacity = 0
	}
	return &List[K]{m: make(map[K]*node[K], capacity)}
}

// Len returns the number of keys in the list.
func (l *List[K]) Len() int { return len(l.m) }

// Contains reports whether k is linked.
func (l *List[K]) Contains(k K) bool {
	_, ok := l.m[k]
	return ok
}

// PushFront inserts k at MRU. If k is already linked it is promoted instead.
func (l *List[K]) PushFront(k K) {
	if n, ok := l.m[k]; ok {
		l.moveToFront(n)
		return
	}
	n := &node[K]{key: k}
	l.m[k] = n
	l.insertFront(n)
}

// MoveToFront promotes k to MRU. Returns false if k is not linked.
func (l *List[K]) MoveToFront(k K) bool {
	n, ok := l.m[k]
	if !ok {
		return false
	}
	l.moveToFront(n)
	return true
}

// Remove unlinks k. Returns false if k is not linked.
func (l *List[K]) Remove(k K) bool {
	n, ok := l.m[k]
	if !ok {
		return false
	}
	l.unlink(n)
	delete(l.m, k)
	return true
}

// Back returns the LRU key.
func (l *List[K]) Back() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}
	return l.tail.key, true
}

// Front returns the MRU key.
func (l *List[K]) Front() (K, bool) {
	if l.head == nil {
		var zero K
		return zero, false
	}
	return l.head.key, true
}

// PopBack unlinks and returns the LRU key.
func (l *List[K]) PopBack() (K, bool) {
	k, ok := l.Back()
	if ok {
		l.Remove(k)
	}
	return k, ok
}

// Keys returns keys from MRU to LRU. Intended for tests and diagnostics.
func (l *List[K]) Keys() []K {
	out := make([]K, 0, len(l.m))
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.key)
	}
	return out
}

// Reset drops every key.
func (l *List[K]) Reset() {
	clear(l.m)
	l.head, l.tail = nil, nil
}

// insertFront links n at MRU in O(1).
func (l *List[K]) insertFront(n *node[K]) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

// moveToFront promotes n to MRU in O(1).
func (l *List[K]) moveToFront(n *node[K]) {
	if n == l.head {
		return
	}
	l.unlink(n)
	l.insertFront(n)
}

// unlink detaches n from its neighbours in O(1).
func (l *List[K]) unlink(n *node[K]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if l.head == n {
		l.head = n.next
	}
	if l.tail == n {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
