package patch

import (
	"github.com/serixdev/serix"
)

// InsertionPoint locates the top-level declaration `type <name> struct`
// in a source snapshot and returns the byte offset just after the
// closing brace of its body, where synthesized members are inserted.
// The scan is lexical: comments and literals are skipped and brace depth
// is tracked; real parsing belongs to the semantic model provider.
func InsertionPoint(src []byte, name string) (int, error) {
	s := &scanner{src: src}
	for {
		tok, ok := s.next()
		if !ok {
			break
		}
		if tok.kind != tokIdent || tok.text != "type" || tok.depth != 0 {
			continue
		}
		tok, ok = s.next()
		if !ok || tok.kind != tokIdent || tok.text != name {
			continue
		}
		tok, ok = s.next()
		if ok && tok.kind == tokPunct && tok.text == "[" {
			// Skip the type parameter list of a generic declaration.
			level := 1
			for level > 0 {
				tok, ok = s.next()
				if !ok {
					return 0, serix.NewClassNotFoundError(name, "")
				}
				switch tok.text {
				case "[":
					level++
				case "]":
					level--
				}
			}
			tok, ok = s.next()
		}
		if !ok || tok.kind != tokIdent || tok.text != "struct" {
			continue
		}
		for {
			tok, ok = s.next()
			if !ok {
				return 0, serix.NewClassNotFoundError(name, "")
			}
			if tok.kind == tokPunct && tok.text == "}" && tok.depth == 0 {
				return tok.end, nil
			}
		}
	}
	return 0, serix.NewClassNotFoundError(name, "")
}

// HasTopLevelFunc reports whether the snapshot already declares a
// top-level function with the given name. Methods do not match: the
// token after "func" for a method is its receiver list, not a name.
func HasTopLevelFunc(src []byte, name string) bool {
	s := &scanner{src: src}
	for {
		tok, ok := s.next()
		if !ok {
			return false
		}
		if tok.kind != tokIdent || tok.text != "func" || tok.depth != 0 {
			continue
		}
		tok, ok = s.next()
		if ok && tok.kind == tokIdent && tok.text == name {
			return true
		}
	}
}

type tokKind uint8

const (
	tokIdent tokKind = iota
	tokPunct
)

type token struct {
	kind  tokKind
	text  string
	end   int // offset just past the token
	depth int // brace depth before consuming the token ('}' reports post-consume depth)
}

// scanner yields identifier and punctuation tokens, skipping whitespace,
// comments, and string/rune literals, while tracking brace depth.
type scanner struct {
	src   []byte
	pos   int
	depth int
}

func (s *scanner) next() (token, bool) {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++
		case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/':
			s.skipLine()
		case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '*':
			s.skipBlockComment()
		case c == '"' || c == '\'':
			s.skipQuoted(c)
		case c == '`':
			s.skipRawString()
		case isIdentStart(c):
			start := s.pos
			for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
				s.pos++
			}
			return token{kind: tokIdent, text: string(s.src[start:s.pos]), end: s.pos, depth: s.depth}, true
		default:
			s.pos++
			switch c {
			case '{':
				s.depth++
			case '}':
				if s.depth > 0 {
					s.depth--
				}
			}
			return token{kind: tokPunct, text: string(c), end: s.pos, depth: s.depth}, true
		}
	}
	return token{}, false
}

func (s *scanner) skipLine() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
}

func (s *scanner) skipBlockComment() {
	s.pos += 2
	for s.pos+1 < len(s.src) {
		if s.src[s.pos] == '*' && s.src[s.pos+1] == '/' {
			s.pos += 2
			return
		}
		s.pos++
	}
	s.pos = len(s.src)
}

func (s *scanner) skipQuoted(quote byte) {
	s.pos++
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
			continue
		case quote:
			s.pos++
			return
		case '\n':
			// Unterminated literal; resynchronize at the line break.
			return
		}
		s.pos++
	}
}

func (s *scanner) skipRawString() {
	s.pos++
	for s.pos < len(s.src) && s.src[s.pos] != '`' {
		s.pos++
	}
	if s.pos < len(s.src) {
		s.pos++
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}
