package token

// Span is a byte-range source location carried on every AST and HIR node. It
// is deliberately independent of FileSet/Pos: nodes built by the lowering and
// checking stages often outlive the FileSet that produced them, and the span
// representation is what diagnostics and golden tests key off of.
type Span struct {
	File      string
	StartByte int
	EndByte   int
	Line      int // 1-based line of StartByte
	Column    int // 1-based column of StartByte
}

// Merge returns the smallest Span covering both s and other. File is taken
// from s; callers must not merge spans from different files.
func (s Span) Merge(other Span) Span {
	merged := s
	if other.StartByte < merged.StartByte {
		merged.StartByte = other.StartByte
		merged.Line = other.Line
		merged.Column = other.Column
	}
	if other.EndByte > merged.EndByte {
		merged.EndByte = other.EndByte
	}
	return merged
}

// IsValid reports whether the span carries a non-empty byte range.
func (s Span) IsValid() bool { return s.EndByte >= s.StartByte && s.File != "" }

// SpanFromFile builds a Span for the byte range [start, end) using f to
// resolve the starting line and column.
func SpanFromFile(f *File, start, end Pos) Span {
	pos := f.Position(start)
	return Span{
		File:      f.Name(),
		StartByte: f.Offset(start),
		EndByte:   f.Offset(end),
		Line:      pos.Line,
		Column:    pos.Column,
	}
}
