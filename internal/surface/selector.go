package surface

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSelector is returned for selectors outside the supported grammar.
var ErrInvalidSelector = errors.New("invalid selector")

// Selector is a parsed selector list. Supported forms are "*", "tag",
// "#id", ".class", compounds such as "button#inc.speed", and comma-separated
// lists of those. Combinators are not supported.
type Selector struct {
	raw  string
	alts []compound
}

type compound struct {
	any     bool
	tag     string
	id      string
	classes []string
}

// ParseSelector parses a selector list.
func ParseSelector(raw string) (Selector, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Selector{}, fmt.Errorf("%w: empty", ErrInvalidSelector)
	}
	sel := Selector{raw: trimmed}
	for _, part := range strings.Split(trimmed, ",") {
		c, err := parseCompound(strings.TrimSpace(part))
		if err != nil {
			return Selector{}, fmt.Errorf("%w %q: %v", ErrInvalidSelector, raw, err)
		}
		sel.alts = append(sel.alts, c)
	}
	return sel, nil
}

func parseCompound(part string) (compound, error) {
	if part == "" {
		return compound{}, errors.New("empty alternative")
	}
	if part == "*" {
		return compound{any: true}, nil
	}
	var c compound
	i := 0
	readName := func() string {
		start := i
		for i < len(part) && isNameByte(part[i]) {
			i++
		}
		return part[start:i]
	}
	if isNameByte(part[0]) {
		c.tag = readName()
	}
	for i < len(part) {
		switch part[i] {
		case '#':
			i++
			name := readName()
			if name == "" || c.id != "" {
				return compound{}, errors.New("bad id")
			}
			c.id = name
		case '.':
			i++
			name := readName()
			if name == "" {
				return compound{}, errors.New("bad class")
			}
			c.classes = append(c.classes, name)
		default:
			return compound{}, fmt.Errorf("unexpected %q", part[i])
		}
	}
	return c, nil
}

func isNameByte(b byte) bool {
	return b == '-' || b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// String returns the selector source.
func (s Selector) String() string {
	return s.raw
}

// Match reports whether n matches any alternative.
func (s Selector) Match(n *Node) bool {
	if n == nil {
		return false
	}
	for _, c := range s.alts {
		if c.match(n) {
			return true
		}
	}
	return false
}

func (c compound) match(n *Node) bool {
	if c.any {
		return true
	}
	if c.tag != "" && c.tag != n.Tag {
		return false
	}
	if c.id != "" && c.id != n.ID {
		return false
	}
	for _, class := range c.classes {
		if !n.HasClass(class) {
			return false
		}
	}
	return true
}

// Matches reports whether n matches selector. Invalid selectors never match.
func (n *Node) Matches(selector string) bool {
	sel, err := ParseSelector(selector)
	if err != nil {
		return false
	}
	return sel.Match(n)
}

// Closest returns the nearest ancestor-or-self matching selector.
func (n *Node) Closest(selector string) *Node {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil
	}
	return sel.Closest(n)
}

// Closest returns the nearest ancestor-or-self of n matching s.
func (s Selector) Closest(n *Node) *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if s.Match(cur) {
			return cur
		}
	}
	return nil
}
