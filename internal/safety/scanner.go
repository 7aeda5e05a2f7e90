package safety

// scanner walks SQL text byte by byte, stepping over string literals,
// quoted identifiers and comments as single units.
type scanner struct {
	input string
	pos   int
}

// unit kinds produced by next.
const (
	unitEOF = iota
	unitCode
	unitString
	unitQuotedIdent
	unitComment
	unitUnterminated
)

func newScanner(input string) *scanner {
	return &scanner{input: input}
}

// peekAt returns the byte at pos+offset, or 0 past the end.
func (s *scanner) peekAt(offset int) byte {
	if s.pos+offset >= len(s.input) {
		return 0
	}
	return s.input[s.pos+offset]
}

// next consumes one unit and returns its kind and, for code, the byte.
func (s *scanner) next() (int, byte) {
	if s.pos >= len(s.input) {
		return unitEOF, 0
	}

	ch := s.input[s.pos]
	switch {
	case ch == '\'':
		return s.quoted('\'', unitString)
	case ch == '"':
		return s.quoted('"', unitQuotedIdent)
	case ch == '`':
		return s.quoted('`', unitQuotedIdent)
	case ch == '-' && s.peekAt(1) == '-':
		s.skipLineComment()
		return unitComment, 0
	case ch == '/' && s.peekAt(1) == '*':
		if !s.skipBlockComment() {
			return unitUnterminated, 0
		}
		return unitComment, 0
	default:
		s.pos++
		return unitCode, ch
	}
}

// quoted consumes a quoted run. A doubled quote is an escaped quote.
func (s *scanner) quoted(q byte, kind int) (int, byte) {
	s.pos++ // opening quote
	for s.pos < len(s.input) {
		if s.input[s.pos] == q {
			if s.peekAt(1) == q {
				s.pos += 2
				continue
			}
			s.pos++
			return kind, 0
		}
		s.pos++
	}
	return unitUnterminated, 0
}

func (s *scanner) skipLineComment() {
	for s.pos < len(s.input) && s.input[s.pos] != '\n' {
		s.pos++
	}
}

func (s *scanner) skipBlockComment() bool {
	s.pos += 2
	for s.pos+1 < len(s.input) {
		if s.input[s.pos] == '*' && s.input[s.pos+1] == '/' {
			s.pos += 2
			return true
		}
		s.pos++
	}
	s.pos = len(s.input)
	return false
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

func isWordChar(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}
