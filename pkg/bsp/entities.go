package bsp

import (
	"fmt"
	"strings"
)

// KeyValue is one entity property. Keys repeat for entity outputs.
type KeyValue struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Entity is one placed entity in declaration order.
type Entity struct {
	Pairs []KeyValue `json:"pairs" yaml:"pairs"`
}

// Get returns the first value for key (case-insensitive).
func (e Entity) Get(key string) (string, bool) {
	for _, kv := range e.Pairs {
		if strings.EqualFold(kv.Key, key) {
			return kv.Value, true
		}
	}
	return "", false
}

// ClassName returns the entity's classname.
func (e Entity) ClassName() string {
	v, _ := e.Get("classname")
	return v
}

// Entities parses the entity lump.
func (m *Map) Entities() ([]Entity, error) {
	data, err := m.ReadLump(LumpEntities)
	if err != nil {
		return nil, fmt.Errorf("entity lump: %w", err)
	}
	return ParseEntities(data)
}

// ParseEntities decodes entity lump text: a sequence of { "key" "value" ... }
// blocks. A trailing NUL terminator is ignored.
func ParseEntities(data []byte) ([]Entity, error) {
	var (
		out  []Entity
		cur  *Entity
		key  string
		have bool
		line = 1
	)
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '\n':
			line++
		case c == 0 || c == ' ' || c == '\t' || c == '\r':
		case c == '{':
			if cur != nil {
				return nil, fmt.Errorf("line %d: nested entity block", line)
			}
			cur = &Entity{}
		case c == '}':
			if cur == nil {
				return nil, fmt.Errorf("line %d: unexpected }", line)
			}
			if have {
				return nil, fmt.Errorf("line %d: key %q without value", line, key)
			}
			out = append(out, *cur)
			cur = nil
		case c == '"':
			end := i + 1
			for end < len(data) && data[end] != '"' {
				if data[end] == '\n' {
					line++
				}
				end++
			}
			if end >= len(data) {
				return nil, fmt.Errorf("line %d: unterminated string", line)
			}
			s := string(data[i+1 : end])
			i = end
			if cur == nil {
				return nil, fmt.Errorf("line %d: string outside entity", line)
			}
			if !have {
				key, have = s, true
			} else {
				cur.Pairs = append(cur.Pairs, KeyValue{Key: key, Value: s})
				have = false
			}
		default:
			return nil, fmt.Errorf("line %d: unexpected %q", line, c)
		}
	}
	if cur != nil {
		return nil, fmt.Errorf("line %d: unterminated entity", line)
	}
	return out, nil
}

// Worldspawn returns the worldspawn entity, if present.
func Worldspawn(ents []Entity) (Entity, bool) {
	for _, e := range ents {
		if strings.EqualFold(e.ClassName(), "worldspawn") {
			return e, true
		}
	}
	return Entity{}, false
}
