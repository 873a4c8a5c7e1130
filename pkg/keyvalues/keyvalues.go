// Package keyvalues parses Valve's KeyValues text format as used by materials,
// soundscapes, soundscripts, particle manifests and resource lists.
package keyvalues

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Node is a key with either a string value or a block of children.
type Node struct {
	Key      string
	Value    string
	Children []*Node
	Line     int
	block    bool
}

// IsBlock reports whether the node holds children rather than a value.
func (n *Node) IsBlock() bool { return n.block }

// Child returns the first direct child whose key matches (case-insensitive).
func (n *Node) Child(key string) *Node {
	for _, c := range n.Children {
		if strings.EqualFold(c.Key, key) {
			return c
		}
	}
	return nil
}

// SyntaxError reports malformed input with its line.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("keyvalues: line %d: %s", e.Line, e.Msg)
}

// Parse reads every top-level node from r.
func Parse(r io.Reader) ([]*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data)
}

// ParseBytes parses KeyValues text held in memory.
func ParseBytes(data []byte) ([]*Node, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	p := &parser{lex: &lexer{src: data, line: 1}}
	return p.parseBlock(false)
}

// Walk calls fn for every node depth-first, parents before children.
func Walk(nodes []*Node, fn func(n *Node, depth int)) {
	var visit func(list []*Node, depth int)
	visit = func(list []*Node, depth int) {
		for _, n := range list {
			fn(n, depth)
			if n.block {
				visit(n.Children, depth+1)
			}
		}
	}
	visit(nodes, 0)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokOpen
	tokClose
	tokCondition
)

type token struct {
	kind tokenKind
	text string
	line int
}

type lexer struct {
	src    []byte
	pos    int
	line   int
	peeked *token
}

func (l *lexer) peek() (token, error) {
	if l.peeked == nil {
		t, err := l.scan()
		if err != nil {
			return token{}, err
		}
		l.peeked = &t
	}
	return *l.peeked, nil
}

func (l *lexer) next() (token, error) {
	t, err := l.peek()
	l.peeked = nil
	return t, err
}

func (l *lexer) scan() (token, error) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '{':
			l.pos++
			return token{kind: tokOpen, line: l.line}, nil
		case c == '}':
			l.pos++
			return token{kind: tokClose, line: l.line}, nil
		case c == '[':
			start, line := l.pos, l.line
			for l.pos < len(l.src) && l.src[l.pos] != ']' && l.src[l.pos] != '\n' {
				l.pos++
			}
			if l.pos >= len(l.src) || l.src[l.pos] != ']' {
				return token{}, &SyntaxError{Line: line, Msg: "unterminated conditional"}
			}
			l.pos++
			return token{kind: tokCondition, text: string(l.src[start:l.pos]), line: line}, nil
		case c == '"':
			return l.scanQuoted()
		default:
			start := l.pos
			for l.pos < len(l.src) {
				b := l.src[l.pos]
				if b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '{' || b == '}' || b == '"' {
					break
				}
				l.pos++
			}
			return token{kind: tokString, text: string(l.src[start:l.pos]), line: l.line}, nil
		}
	}
	return token{kind: tokEOF, line: l.line}, nil
}

// scanQuoted reads a quoted token. Backslashes are literal, as in the engine's
// material and script loaders, so `tools\toolsnodraw` keeps its separator.
func (l *lexer) scanQuoted() (token, error) {
	line := l.line
	l.pos++ // opening quote
	start := l.pos
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '"':
			text := string(l.src[start:l.pos])
			l.pos++
			return token{kind: tokString, text: text, line: line}, nil
		case '\n':
			l.line++
		}
		l.pos++
	}
	return token{}, &SyntaxError{Line: line, Msg: "unterminated string"}
}

type parser struct {
	lex *lexer
}

func (p *parser) parseBlock(nested bool) ([]*Node, error) {
	var nodes []*Node
	for {
		t, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		switch t.kind {
		case tokEOF:
			if nested {
				return nil, &SyntaxError{Line: t.line, Msg: "unexpected end of input inside block"}
			}
			return nodes, nil
		case tokClose:
			if !nested {
				return nil, &SyntaxError{Line: t.line, Msg: "unexpected '}'"}
			}
			return nodes, nil
		case tokOpen:
			return nil, &SyntaxError{Line: t.line, Msg: "block without key"}
		case tokCondition:
			continue
		}

		node := &Node{Key: t.text, Line: t.line}
		if err := p.skipConditions(); err != nil {
			return nil, err
		}
		v, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		switch v.kind {
		case tokString:
			node.Value = v.text
			if err := p.skipConditions(); err != nil {
				return nil, err
			}
		case tokOpen:
			node.block = true
			children, err := p.parseBlock(true)
			if err != nil {
				return nil, err
			}
			node.Children = children
		case tokEOF:
			return nil, &SyntaxError{Line: v.line, Msg: fmt.Sprintf("key %q has no value", node.Key)}
		case tokClose:
			return nil, &SyntaxError{Line: v.line, Msg: fmt.Sprintf("key %q has no value", node.Key)}
		}
		nodes = append(nodes, node)
	}
}

func (p *parser) skipConditions() error {
	for {
		t, err := p.lex.peek()
		if err != nil {
			return err
		}
		if t.kind != tokCondition {
			return nil
		}
		if _, err := p.lex.next(); err != nil {
			return err
		}
	}
}
