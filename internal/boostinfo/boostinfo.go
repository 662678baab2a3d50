// Package boostinfo parses the hierarchical key/value text format used by
// odr-dabmux configuration files (Boost INFO syntax): nested brace-delimited
// sections, optional single values per key, repeated keys, quoted tokens and
// `;` line comments.
//
// The tree is an arena of nodes addressed by index; Node is a cheap handle
// into it. The tree is built once per Parse call and never mutated afterwards.
package boostinfo

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// node is a single arena entry. Child order is significant: keys records
// every distinct key in first-insertion order, children keeps the ordered
// node indices per key so repeated keys accumulate as a sequence.
type node struct {
	value     string
	hasValue  bool
	parent    int
	lastChild int
	keys      []string
	children  map[string][]int
}

// Tree holds the parsed configuration. The zero value is not usable; obtain
// one from Parse or ParseString.
type Tree struct {
	nodes []node
}

// Node is a handle to a single subtree.
type Node struct {
	tree *Tree
	idx  int
}

func newTree() *Tree {
	t := &Tree{}
	t.alloc(-1, "", false)
	return t
}

func (t *Tree) alloc(parent int, value string, hasValue bool) int {
	t.nodes = append(t.nodes, node{
		value:     value,
		hasValue:  hasValue,
		parent:    parent,
		lastChild: -1,
	})
	return len(t.nodes) - 1
}

func (t *Tree) appendChild(parent int, key, value string, hasValue bool) int {
	idx := t.alloc(parent, value, hasValue)
	p := &t.nodes[parent]
	if p.children == nil {
		p.children = make(map[string][]int)
	}
	if _, seen := p.children[key]; !seen {
		p.keys = append(p.keys, key)
	}
	p.children[key] = append(p.children[key], idx)
	p.lastChild = idx
	return idx
}

// Root returns the (unnamed, valueless) root node.
func (t *Tree) Root() Node { return Node{tree: t, idx: 0} }

// Value returns the node's scalar value, or "" when none was given.
func (n Node) Value() string { return n.tree.nodes[n.idx].value }

// HasValue reports whether the node carries a scalar value at all,
// distinguishing `key ""` from a bare `key`.
func (n Node) HasValue() bool { return n.tree.nodes[n.idx].hasValue }

// Keys returns the node's distinct child key names in first-insertion order.
func (n Node) Keys() []string {
	keys := n.tree.nodes[n.idx].keys
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Children returns the ordered sequence of child subtrees under key.
// Repeated keys are never collapsed.
func (n Node) Children(key string) []Node {
	idxs := n.tree.nodes[n.idx].children[key]
	out := make([]Node, len(idxs))
	for i, idx := range idxs {
		out[i] = Node{tree: n.tree, idx: idx}
	}
	return out
}

// Get resolves a `/`-separated key path against this node and returns every
// matching subtree at each segment, in document order. A segment with no
// match yields an empty slice, never an error.
func (n Node) Get(path string) []Node {
	ctx := []Node{n}
	for _, key := range strings.Split(path, "/") {
		var next []Node
		for _, c := range ctx {
			next = append(next, c.Children(key)...)
		}
		ctx = next
	}
	return ctx
}

// First returns the first subtree matching path, if any.
func (n Node) First(path string) (Node, bool) {
	nodes := n.Get(path)
	if len(nodes) == 0 {
		return Node{}, false
	}
	return nodes[0], true
}

// String re-emits the tree in info-file syntax. Round-tripping the output
// through Parse yields an equivalent tree.
func (t *Tree) String() string {
	var sb strings.Builder
	t.print(&sb, 0, 0)
	return sb.String()
}

func (t *Tree) print(sb *strings.Builder, idx, depth int) {
	n := t.nodes[idx]
	for _, key := range n.keys {
		for _, child := range n.children[key] {
			c := t.nodes[child]
			sb.WriteString(strings.Repeat("    ", depth))
			sb.WriteString(key)
			if c.hasValue {
				sb.WriteByte(' ')
				sb.WriteString(quoteValue(c.value))
			}
			sb.WriteByte('\n')
			if len(c.keys) > 0 {
				sb.WriteString(strings.Repeat("    ", depth))
				sb.WriteString("{\n")
				t.print(sb, child, depth+1)
				sb.WriteString(strings.Repeat("    ", depth))
				sb.WriteString("}\n")
			}
		}
	}
}

func quoteValue(v string) string {
	if v == "" || strings.ContainsAny(v, " \t;{}\"") {
		return fmt.Sprintf("%q", v)
	}
	return v
}

// MalformedConfigError reports a structural parse failure together with the
// offending line.
type MalformedConfigError struct {
	Line   int    // 1-based line number; 0 when detected at end of input
	Text   string // offending line, already trimmed
	Reason string
}

func (e *MalformedConfigError) Error() string {
	if e.Line == 0 {
		return "malformed config: " + e.Reason
	}
	return fmt.Sprintf("malformed config: %s (line %d: %q)", e.Reason, e.Line, e.Text)
}

// Parse reads the whole stream and builds the configuration tree.
func Parse(r io.Reader) (*Tree, error) {
	p := &parser{tree: newTree(), stack: []int{0}}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineno := 0
	for scanner.Scan() {
		lineno++
		if err := p.parseLine(strings.TrimSpace(scanner.Text()), lineno); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(p.stack) > 1 {
		return nil, &MalformedConfigError{Reason: "unclosed section at end of input"}
	}
	return p.tree, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(s string) (*Tree, error) {
	return Parse(strings.NewReader(s))
}

type parser struct {
	tree  *Tree
	stack []int // context stack of node indices; stack[0] is the root
}

func (p *parser) ctx() int { return p.stack[len(p.stack)-1] }

func (p *parser) parseLine(line string, lineno int) error {
	line = strings.TrimSpace(stripComment(line))
	if line == "" {
		return nil
	}

	// A `{` on the same line as the key declaration: split and process both
	// halves in order, so nesting binds exactly as if they were on separate
	// lines.
	if open := strings.IndexByte(line, '{'); open > 0 {
		if err := p.parseLine(line[:open], lineno); err != nil {
			return err
		}
		return p.parseLine(line[open:], lineno)
	}

	switch line[0] {
	case '{':
		// Opening a section binds to the immediately preceding key
		// declaration in the current context.
		last := p.tree.nodes[p.ctx()].lastChild
		if last < 0 {
			return &MalformedConfigError{Line: lineno, Text: line, Reason: "section opened without a preceding key"}
		}
		p.stack = append(p.stack, last)
		return nil

	case '}':
		if len(p.stack) == 1 {
			return &MalformedConfigError{Line: lineno, Text: line, Reason: "closing brace with no open section"}
		}
		p.stack = p.stack[:len(p.stack)-1]
		return nil
	}

	tokens, err := splitTokens(line)
	if err != nil {
		return &MalformedConfigError{Line: lineno, Text: line, Reason: err.Error()}
	}
	if len(tokens) == 0 {
		return nil
	}
	key := tokens[0]
	value, hasValue := "", false
	if len(tokens) > 1 {
		value, hasValue = tokens[1], true
	}
	p.tree.appendChild(p.ctx(), key, value, hasValue)
	return nil
}

// stripComment cuts the line at the first `;` that is neither escaped nor
// inside a quoted token.
func stripComment(line string) string {
	var quote byte
	escaped := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ';':
			return line[:i]
		}
	}
	return line
}

// splitTokens splits a line into whitespace-separated tokens. Double or
// single quotes allow embedded whitespace; a backslash escapes the next
// character outside single quotes.
func splitTokens(line string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inTok   bool
		quote   byte
		escaped bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case c == '\\' && quote != '\'':
			escaped = true
			inTok = true
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inTok = true
		case c == ' ' || c == '\t':
			if inTok {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			cur.WriteByte(c)
			inTok = true
		}
	}
	if escaped {
		return nil, fmt.Errorf("trailing escape character")
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	if inTok {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}
