package bytecode

// Pos is a single point in source text.
type Pos struct {
	Line   int
	Column int
}

// Span is a source range. The VM never consults a Span during normal
// execution — it exists purely so a thrown or uncaught error can point back
// at the offending source, per spec.md §4.2's "Span map" note.
type Span struct {
	Start Pos
	End   Pos
}

// spanEntry records the span that produced the bytes at [from, to) in a
// Chunk's code.
type spanEntry struct {
	from, to int
	span     Span
}

// SpanMap is a parallel, byte-offset-indexed record of source spans for a
// Chunk. Entries are appended in emission order and are non-overlapping, so
// lookup is a reverse linear scan from the end (the common case — looking up
// the span of the instruction that just faulted — is always near the end
// during normal forward execution, and a binary search would be overkill for
// chunks in the size range this VM runs).
type SpanMap struct {
	entries []spanEntry
}

// Record associates the byte range [from, to) with span.
func (m *SpanMap) Record(from, to int, span Span) {
	m.entries = append(m.entries, spanEntry{from: from, to: to, span: span})
}

// Lookup returns the span covering byte offset ip, or the zero Span if none
// was recorded (which should not happen for a well-formed chunk).
func (m *SpanMap) Lookup(ip int) Span {
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if ip >= e.from && ip < e.to {
			return e.span
		}
	}
	return Span{}
}
