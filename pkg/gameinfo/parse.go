// Package gameinfo turns a game's root descriptor (gameinfo.txt) into the
// ordered list of content roots that assets are resolved against.
package gameinfo

import (
	"bufio"
	"io"
	"strings"
)

// DescriptorName is the root descriptor file inside a content directory.
const DescriptorName = "gameinfo.txt"

// GameInfoToken expands to the directory holding the descriptor.
const GameInfoToken = "|gameinfo_path|"

// Entry is one line of the SearchPaths block.
type Entry struct {
	Line  int    `json:"line"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Parse reads the SearchPaths block of a descriptor. It returns the entries in
// file order; it does not touch the filesystem.
func Parse(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry
	inBlock := false
	awaitBrace := false
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := stripComment(sc.Text())

		if !inBlock {
			if strings.Contains(strings.ToLower(line), "searchpaths") {
				inBlock = true
				awaitBrace = !strings.Contains(line, "{")
			}
			continue
		}
		if awaitBrace {
			if strings.TrimSpace(line) == "" {
				continue
			}
			awaitBrace = false
			if strings.TrimSpace(line) == "{" {
				continue
			}
		}
		if strings.Contains(line, "}") {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		tokens := Tokenize(line)
		if len(tokens) == 0 {
			continue
		}
		e := Entry{Line: lineNo, Key: tokens[0]}
		if len(tokens) > 1 {
			e.Value = tokens[1]
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

// Tokenize splits a descriptor line on whitespace outside quotes. Quote
// characters are removed from the returned tokens.
func Tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	var quote rune
	inToken := false

	flush := func() {
		if inToken {
			tokens = append(tokens, cur.String())
			cur.Reset()
			inToken = false
		}
	}

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	flush()
	return tokens
}

func stripComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '"':
			inQuote = !inQuote
		case !inQuote && line[i] == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}
