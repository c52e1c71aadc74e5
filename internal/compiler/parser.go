package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/aretw0/spindle/pkg/domain"
)

const (
	headerEnd = "---"
	nodeEnd   = "==="
	titleKey  = "title"
)

// Parser converts script text into unresolved node drafts.
// Jump and option targets are left as titles with Ref == domain.NoRef;
// resolution is domain.NewDialog's job.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses a whole script held in memory.
func (p *Parser) Parse(data []byte) ([]domain.Node, error) {
	return p.ParseReader(bytes.NewReader(data))
}

// ParseReader parses a script from r. Read failures wrap domain.ErrRead;
// grammar violations are returned as *domain.ParseError.
func (p *Parser) ParseReader(r io.Reader) ([]domain.Node, error) {
	s, err := newScanner(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRead, err)
	}

	var nodes []domain.Node
	for {
		s.skipNoise()
		if s.done() {
			break
		}
		node, err := parseNode(s)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if len(nodes) == 0 {
		return nil, &domain.ParseError{Line: s.lastLine(), Reason: "script contains no nodes"}
	}
	return nodes, nil
}

// Parse is shorthand for NewParser().Parse on a string.
func Parse(src string) ([]domain.Node, error) {
	return NewParser().ParseReader(strings.NewReader(src))
}

// ParseReader is shorthand for NewParser().ParseReader.
func ParseReader(r io.Reader) ([]domain.Node, error) {
	return NewParser().ParseReader(r)
}

func errAt(l sourceLine, format string, args ...any) error {
	return &domain.ParseError{Line: l.num, Column: l.indent + 1, Reason: fmt.Sprintf(format, args...)}
}

func parseNode(s *scanner) (domain.Node, error) {
	start := s.lines[s.pos]
	node := domain.Node{
		Headers:  make(map[string]string),
		Position: start.num,
	}

	if err := parseHeaders(s, &node); err != nil {
		return node, err
	}
	if err := parseBody(s, &node); err != nil {
		return node, err
	}
	return node, nil
}

func parseHeaders(s *scanner, node *domain.Node) error {
	for {
		if s.done() {
			return &domain.ParseError{Line: s.lastLine(), Reason: "unterminated header block: expected \"---\""}
		}
		l := s.next()
		if l.blank() || l.comment() {
			continue
		}
		if l.text == headerEnd {
			title, ok := node.Headers[titleKey]
			if !ok {
				return errAt(l, "node is missing a title header")
			}
			node.Title = title
			return nil
		}
		key, value, ok := strings.Cut(l.text, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || key == "" || strings.ContainsFunc(key, unicode.IsSpace) {
			return errAt(l, "expected \"key: value\" header, got %q", l.text)
		}
		if _, dup := node.Headers[key]; dup {
			return errAt(l, "duplicate header %q", key)
		}
		if key == titleKey {
			if value == "" {
				return errAt(l, "title must not be empty")
			}
			node.Position = l.num
		}
		node.Headers[key] = value
	}
}

func parseBody(s *scanner, node *domain.Node) error {
	for {
		if s.done() {
			return &domain.ParseError{Line: s.lastLine(), Reason: fmt.Sprintf("node %q is not terminated by \"===\"", node.Title)}
		}
		l, ok := s.peekContent()
		if !ok {
			s.pos = len(s.lines)
			continue
		}
		s.skipNoise()

		switch {
		case l.text == nodeEnd:
			s.next()
			if len(node.Lines) == 0 {
				return errAt(l, "node %q has no lines", node.Title)
			}
			return nil
		case l.text == headerEnd:
			return errAt(l, "unexpected \"---\" inside node %q body", node.Title)
		case strings.HasPrefix(l.text, "->"):
			line, err := parseOptionBlock(s)
			if err != nil {
				return err
			}
			node.Lines = append(node.Lines, line)
		case strings.HasPrefix(l.text, "<<"):
			s.next()
			line, err := parseStatement(l)
			if err != nil {
				return err
			}
			node.Lines = append(node.Lines, line)
		default:
			s.next()
			line, err := parseDialog(l)
			if err != nil {
				return err
			}
			node.Lines = append(node.Lines, line)
		}
	}
}

// statementBody strips "<<" and ">>" from l and returns the inner text.
func statementBody(l sourceLine) (string, error) {
	if !strings.HasSuffix(l.text, ">>") || len(l.text) < 4 {
		return "", errAt(l, "statement %q is not closed by \">>\"", l.text)
	}
	inner := strings.TrimSpace(l.text[2 : len(l.text)-2])
	if inner == "" {
		return "", errAt(l, "empty statement")
	}
	return inner, nil
}

func parseStatement(l sourceLine) (domain.Line, error) {
	inner, err := statementBody(l)
	if err != nil {
		return nil, err
	}
	keyword, rest := cutKeyword(inner)

	switch keyword {
	case "set":
		return parseSet(l, rest)
	case "jump":
		return parseJump(l, rest)
	case "if":
		return nil, errAt(l, "conditions are only allowed on options")
	default:
		return parseCommand(l, inner)
	}
}

func parseSet(l sourceLine, rest string) (domain.Line, error) {
	fields := strings.Fields(rest)
	if len(fields) != 3 || (fields[1] != "to" && fields[1] != "=") {
		return nil, errAt(l, "malformed set: expected \"<<set $name to true|false>>\"")
	}
	name, err := parseVariable(l, fields[0])
	if err != nil {
		return nil, err
	}
	value, err := parseBool(l, fields[2])
	if err != nil {
		return nil, err
	}
	return domain.SetLine{Variable: name, Value: value}, nil
}

func parseJump(l sourceLine, rest string) (domain.JumpLine, error) {
	if rest == "" {
		return domain.JumpLine{}, errAt(l, "jump requires a target node")
	}
	return domain.JumpLine{Target: rest, Ref: domain.NoRef}, nil
}

func parseCommand(l sourceLine, inner string) (domain.Line, error) {
	tokens, err := splitArgs(inner)
	if err != nil {
		return nil, errAt(l, "%v", err)
	}
	name := tokens[0]
	if !isIdent(name) {
		return nil, errAt(l, "invalid command name %q", name)
	}
	var args []string
	if len(tokens) > 1 {
		args = tokens[1:]
	}
	return domain.CommandLine{Name: name, Args: args}, nil
}

func parseDialog(l sourceLine) (domain.Line, error) {
	body, tags := splitTags(l.text)
	speaker, text, ok := splitSpeaker(body)
	if !ok {
		return nil, errAt(l, "empty speaker before \":\"")
	}
	if text == "" {
		return nil, errAt(l, "dialog line has no text")
	}
	return domain.DialogLine{Speaker: speaker, Text: text, Tags: tags}, nil
}

// parseOptionBlock consumes consecutive "->" options, each followed by its jump.
func parseOptionBlock(s *scanner) (domain.Line, error) {
	var block domain.OptionLine
	for {
		l, ok := s.peekContent()
		if !ok || !strings.HasPrefix(l.text, "->") {
			break
		}
		s.skipNoise()
		s.next()

		possibility, speaker, err := parseOption(l)
		if err != nil {
			return nil, err
		}

		s.skipNoise()
		if s.done() {
			return nil, errAt(l, "option %q must be followed by a jump", possibility.Text)
		}
		jl := s.next()
		if !strings.HasPrefix(jl.text, "<<") {
			return nil, errAt(jl, "option %q must be followed by a jump", possibility.Text)
		}
		inner, err := statementBody(jl)
		if err != nil {
			return nil, err
		}
		keyword, rest := cutKeyword(inner)
		if keyword != "jump" {
			return nil, errAt(jl, "option %q must be followed by a jump", possibility.Text)
		}
		jump, err := parseJump(jl, rest)
		if err != nil {
			return nil, err
		}
		possibility.Target = jump.Target
		possibility.Ref = domain.NoRef

		if block.Speaker == "" {
			block.Speaker = speaker
		}
		block.Possibilities = append(block.Possibilities, possibility)
	}
	return block, nil
}

func parseOption(l sourceLine) (domain.OptionPossibility, string, error) {
	body := strings.TrimSpace(strings.TrimPrefix(l.text, "->"))

	var cond *domain.Condition
	if i := strings.Index(body, "<<"); i >= 0 {
		stmt := sourceLine{num: l.num, indent: l.indent, text: strings.TrimSpace(body[i:])}
		inner, err := statementBody(stmt)
		if err != nil {
			return domain.OptionPossibility{}, "", err
		}
		keyword, rest := cutKeyword(inner)
		if keyword != "if" {
			return domain.OptionPossibility{}, "", errAt(l, "only <<if ...>> may follow option text")
		}
		c, err := parseCondition(l, rest)
		if err != nil {
			return domain.OptionPossibility{}, "", err
		}
		cond = &c
		body = strings.TrimSpace(body[:i])
	}

	speaker, text, ok := splitSpeaker(body)
	if !ok {
		return domain.OptionPossibility{}, "", errAt(l, "empty speaker before \":\"")
	}
	if text == "" {
		return domain.OptionPossibility{}, "", errAt(l, "option has no text")
	}
	return domain.OptionPossibility{Text: text, Condition: cond}, speaker, nil
}

func parseCondition(l sourceLine, expr string) (domain.Condition, error) {
	fields := strings.Fields(expr)
	if len(fields) != 3 {
		return domain.Condition{}, errAt(l, "malformed condition: expected \"<<if $name == true|false>>\"")
	}
	name, err := parseVariable(l, fields[0])
	if err != nil {
		return domain.Condition{}, err
	}
	kind, err := domain.ParseConditionKind(fields[1])
	if err != nil {
		return domain.Condition{}, errAt(l, "%v", err)
	}
	value, err := parseBool(l, fields[2])
	if err != nil {
		return domain.Condition{}, err
	}
	return domain.Condition{Variable: name, Kind: kind, Value: value}, nil
}

func parseVariable(l sourceLine, tok string) (string, error) {
	name, ok := strings.CutPrefix(tok, "$")
	if !ok || !isIdent(name) {
		return "", errAt(l, "invalid variable %q: expected $name", tok)
	}
	return name, nil
}

func parseBool(l sourceLine, tok string) (bool, error) {
	switch tok {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errAt(l, "invalid boolean %q", tok)
	}
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.')) {
			continue
		}
		return false
	}
	return true
}

// splitSpeaker separates "Speaker: text". The colon must be followed by
// whitespace or end the line, so that "at 10:30" stays plain text.
// ok is false when the colon has nothing in front of it.
func splitSpeaker(s string) (speaker, text string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != ':' {
			continue
		}
		if i+1 < len(s) && s[i+1] != ' ' && s[i+1] != '\t' {
			continue
		}
		speaker = strings.TrimSpace(s[:i])
		return speaker, strings.TrimSpace(s[i+1:]), speaker != ""
	}
	return "", strings.TrimSpace(s), true
}

// cutKeyword splits a statement into its first word and the trimmed rest.
func cutKeyword(s string) (string, string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// splitTags removes trailing "#name[:value]" words from a dialog line.
// A '#' only starts a tag at the beginning of a word; "\#" is a literal hash.
func splitTags(s string) (string, []domain.Tag) {
	var tags []domain.Tag
	cut := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '#' && (i == 0 || s[i-1] == ' ' || s[i-1] == '\t') {
			cut = i
			break
		}
	}
	body := s
	if cut >= 0 {
		body = s[:cut]
		for _, word := range strings.Fields(s[cut:]) {
			word = strings.TrimPrefix(word, "#")
			if word == "" {
				continue
			}
			name, value, _ := strings.Cut(word, ":")
			tags = append(tags, domain.Tag{Name: name, Value: value})
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(body), `\#`, "#"), tags
}

var errUnterminatedQuote = errors.New("unterminated quoted argument")

// splitArgs splits a command statement on whitespace, honoring double quotes
// and backslash escapes inside them.
func splitArgs(s string) ([]string, error) {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
		hasTok  bool
	)
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuote && r == '\\' && i+1 < len(runes):
			i++
			cur.WriteRune(runes[i])
		case r == '"':
			inQuote = !inQuote
			hasTok = true
		case !inQuote && unicode.IsSpace(r):
			if hasTok {
				out = append(out, cur.String())
				cur.Reset()
				hasTok = false
			}
		default:
			cur.WriteRune(r)
			hasTok = true
		}
	}
	if inQuote {
		return nil, errUnterminatedQuote
	}
	if hasTok {
		out = append(out, cur.String())
	}
	return out, nil
}
