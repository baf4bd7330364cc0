// Package tstamp pairs head and tail singles by timestamp.
//
// Entries are kept in timestamp order. A push looks for an opposite-tag entry
// within the coincidence window; entries that stay longer than the residency
// time are evicted as unmatched on Flush.
package tstamp

import (
	"fmt"
	"sort"
)

type Tag int

const (
	Head Tag = iota
	Tail
)

func (t Tag) String() string {
	switch t {
	case Head:
		return "head"
	case Tail:
		return "tail"
	default:
		return "unknown"
	}
}

func (t Tag) Opposite() Tag {
	if t == Head {
		return Tail
	}
	return Head
}

type Entry[T any] struct {
	Value     T
	Timestamp uint64
	Tag       Tag
	seq       uint64
}

// Handler receives the results of the queue: matched pairs and evicted
// singles.
type Handler[T any] interface {
	HandleCoinc(head Entry[T], tail Entry[T])
	HandleSingle(entry Entry[T])
}

// DiagnosticsSink collects matching statistics. dt is head minus tail
// timestamp.
type DiagnosticsSink interface {
	Matched(dt float64)
	Unmatched(tag Tag)
	Overflow()
	Depth(n int)
}

type Config struct {
	// Coincidence window, same units as the timestamps
	Window uint64
	// Maximum residency time before an entry is evicted
	MaxTime uint64
	// Maximum number of entries, 0 means unbounded
	MaxSize int
}

type Queue[T any] struct {
	config      Config
	entries     []Entry[T]
	nextSeq     uint64
	handler     Handler[T]
	diagnostics DiagnosticsSink
}

func NewQueue[T any](config Config, handler Handler[T], diagnostics DiagnosticsSink) (*Queue[T], error) {
	if handler == nil {
		return nil, fmt.Errorf("queue handler must not be nil")
	}
	if config.MaxSize < 0 {
		return nil, fmt.Errorf("invalid queue max size: %d", config.MaxSize)
	}
	if diagnostics == nil {
		diagnostics = nopSink{}
	}
	return &Queue[T]{
		config:      config,
		entries:     make([]Entry[T], 0),
		handler:     handler,
		diagnostics: diagnostics,
	}, nil
}

func (q *Queue[T]) Config() Config {
	return q.config
}

func (q *Queue[T]) Size() int {
	return len(q.entries)
}

func (q *Queue[T]) Empty() bool {
	return len(q.entries) == 0
}

// Timestamps returns the queued timestamps of one tag, oldest first.
func (q *Queue[T]) Timestamps(tag Tag) []uint64 {
	out := make([]uint64, 0)
	for _, e := range q.entries {
		if e.Tag == tag {
			out = append(out, e.Timestamp)
		}
	}
	return out
}

// Push inserts value and tries to match it. It returns true if a match was
// found, in which case HandleCoinc has already been called.
func (q *Queue[T]) Push(value T, timestamp uint64, tag Tag) bool {
	entry := Entry[T]{Value: value, Timestamp: timestamp, Tag: tag, seq: q.nextSeq}
	q.nextSeq++

	if match := q.findMatch(entry); match >= 0 {
		partner := q.entries[match]
		q.remove(match)
		q.emitCoinc(entry, partner)
		return true
	}

	q.insert(entry)
	q.diagnostics.Depth(len(q.entries))
	if q.config.MaxSize > 0 {
		for len(q.entries) > q.config.MaxSize {
			q.diagnostics.Overflow()
			q.evict(0)
		}
	}
	return false
}

// findMatch returns the index of the earliest enqueued opposite-tag entry
// within the window, or -1.
func (q *Queue[T]) findMatch(entry Entry[T]) int {
	best := -1
	lo := sort.Search(len(q.entries), func(i int) bool {
		return q.entries[i].Timestamp+q.config.Window >= entry.Timestamp
	})
	for i := lo; i < len(q.entries); i++ {
		candidate := q.entries[i]
		if candidate.Timestamp > entry.Timestamp+q.config.Window {
			break
		}
		if candidate.Tag == entry.Tag {
			continue
		}
		if best < 0 || candidate.seq < q.entries[best].seq {
			best = i
		}
	}
	return best
}

// insert keeps timestamp order; equal timestamps go after existing entries.
func (q *Queue[T]) insert(entry Entry[T]) {
	i := sort.Search(len(q.entries), func(i int) bool {
		return q.entries[i].Timestamp > entry.Timestamp
	})
	q.entries = append(q.entries, Entry[T]{})
	copy(q.entries[i+1:], q.entries[i:])
	q.entries[i] = entry
}

func (q *Queue[T]) remove(i int) Entry[T] {
	entry := q.entries[i]
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	return entry
}

func (q *Queue[T]) evict(i int) {
	entry := q.remove(i)
	q.diagnostics.Unmatched(entry.Tag)
	q.handler.HandleSingle(entry)
}

func (q *Queue[T]) emitCoinc(a Entry[T], b Entry[T]) {
	head, tail := a, b
	if a.Tag == Tail {
		head, tail = b, a
	}
	q.diagnostics.Matched(float64(head.Timestamp) - float64(tail.Timestamp))
	q.handler.HandleCoinc(head, tail)
}

// Flush evicts, oldest first, every entry with timestamp < now - MaxTime and
// returns how many were evicted.
func (q *Queue[T]) Flush(now uint64) int {
	if now <= q.config.MaxTime {
		return 0
	}
	threshold := now - q.config.MaxTime
	n := 0
	for len(q.entries) > 0 && q.entries[0].Timestamp < threshold {
		q.evict(0)
		n++
	}
	return n
}

// FlushIterative evicts the single oldest entry and returns the number of
// entries left.
func (q *Queue[T]) FlushIterative() int {
	if len(q.entries) == 0 {
		return 0
	}
	q.evict(0)
	return len(q.entries)
}

// FlushAll empties the queue, oldest first.
func (q *Queue[T]) FlushAll() int {
	n := len(q.entries)
	for q.FlushIterative() > 0 {
	}
	return n
}

// Clear drops every entry without reporting it.
func (q *Queue[T]) Clear() {
	q.entries = q.entries[:0]
}

type nopSink struct{}

func (nopSink) Matched(float64) {}
func (nopSink) Unmatched(Tag)   {}
func (nopSink) Overflow()       {}
func (nopSink) Depth(int)       {}
