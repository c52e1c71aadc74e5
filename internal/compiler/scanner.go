package compiler

import (
	"bufio"
	"io"
	"strings"
	"unicode"
)

// sourceLine is one physical line of script text.
type sourceLine struct {
	num    int    // 1-based
	indent int    // leading whitespace runes
	text   string // trimmed content
}

func (l sourceLine) blank() bool   { return l.text == "" }
func (l sourceLine) comment() bool { return strings.HasPrefix(l.text, "//") }

// scanner hands out trimmed source lines with one line of lookahead.
type scanner struct {
	lines []sourceLine
	pos   int
}

func newScanner(r io.Reader) (*scanner, error) {
	s := &scanner{}
	br := bufio.NewScanner(r)
	br.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	num := 0
	for br.Scan() {
		num++
		raw := strings.TrimRight(br.Text(), "\r")
		if num == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)
		s.lines = append(s.lines, sourceLine{
			num:    num,
			indent: len([]rune(raw)) - len([]rune(trimmed)),
			text:   strings.TrimRightFunc(trimmed, unicode.IsSpace),
		})
	}
	if err := br.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *scanner) done() bool { return s.pos >= len(s.lines) }

func (s *scanner) next() sourceLine {
	l := s.lines[s.pos]
	s.pos++
	return l
}

// peekContent returns the next line that is neither blank nor a comment,
// without consuming anything.
func (s *scanner) peekContent() (sourceLine, bool) {
	for i := s.pos; i < len(s.lines); i++ {
		if l := s.lines[i]; !l.blank() && !l.comment() {
			return l, true
		}
	}
	return sourceLine{}, false
}

// skipNoise consumes blank and comment lines.
func (s *scanner) skipNoise() {
	for !s.done() {
		l := s.lines[s.pos]
		if !l.blank() && !l.comment() {
			return
		}
		s.pos++
	}
}

// lastLine is used to position end-of-input errors.
func (s *scanner) lastLine() int {
	if len(s.lines) == 0 {
		return 1
	}
	return s.lines[len(s.lines)-1].num
}
