package adf

import (
	"regexp"
	"strings"
)

var orderedPrefix = regexp.MustCompile(`^\d+\.\s`)

const fence = "```"

// Options enables behaviour beyond the literal line-by-line conversion.
// The zero value reproduces the default conversion exactly.
type Options struct {
	// MergeLists folds adjacent list lines of the same kind into a single
	// list with several items.
	MergeLists bool
	// CodeBlocks collects the lines between ``` fences into a codeBlock
	// instead of classifying them one by one.
	CodeBlocks bool
	// InlineMarks parses **strong**, *em*, _em_, `code` and [text](href).
	InlineMarks bool
}

// Converter turns plain or markdown-ish text into a document tree.
// A Converter is stateless and safe for concurrent use.
type Converter struct {
	opts Options
}

// NewConverter returns a Converter with the given options.
func NewConverter(opts Options) *Converter {
	return &Converter{opts: opts}
}

var defaultConverter = NewConverter(Options{})

// FromText converts text with the default options.
func FromText(text string) *Node {
	return defaultConverter.Convert(text)
}

type lineState int

const (
	stateNone lineState = iota
	stateList
	stateFence
)

type builder struct {
	opts      Options
	blocks    []Node
	state     lineState
	listKind  string
	fenceLang string
	fenceBody []string
}

// Convert converts text into a document tree. It never fails and the
// result always holds at least one block.
func (c *Converter) Convert(text string) *Node {
	b := &builder{opts: c.opts}
	for _, line := range strings.Split(text, "\n") {
		b.line(strings.TrimSuffix(line, "\r"))
	}
	b.flushFence()

	if len(b.blocks) == 0 {
		b.blocks = append(b.blocks, Paragraph())
	}
	return Doc(b.blocks...)
}

func (b *builder) line(line string) {
	if b.state == stateFence {
		if isFence(line) {
			b.flushFence()
			return
		}
		b.fenceBody = append(b.fenceBody, line)
		return
	}

	if strings.TrimSpace(line) == "" {
		b.state = stateNone
		if n := len(b.blocks); n > 0 && b.blocks[n-1].Type == TypeParagraph {
			b.emit(Paragraph())
		}
		return
	}

	switch {
	case strings.HasPrefix(line, "#### "):
		b.emit(Heading(4, Text(strings.TrimSpace(line[5:]))))
	case strings.HasPrefix(line, "### "):
		b.emit(Heading(3, Text(strings.TrimSpace(line[4:]))))
	case strings.HasPrefix(line, "## "):
		b.emit(Heading(2, Text(strings.TrimSpace(line[3:]))))
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
		b.listLine(TypeBulletList, strings.TrimSpace(line[2:]))
	case orderedPrefix.MatchString(line):
		b.listLine(TypeOrderedList, strings.TrimSpace(orderedPrefix.ReplaceAllString(line, "")))
	case isFence(line):
		if b.opts.CodeBlocks {
			b.state = stateFence
			b.fenceLang = strings.TrimSpace(line[len(fence):])
			b.fenceBody = b.fenceBody[:0]
		}
	default:
		if inline := b.inline(strings.TrimSpace(line)); len(inline) > 0 {
			b.emit(Paragraph(inline...))
		}
	}
}

// isFence reports whether line opens or closes a fenced block. Both need
// the backticks at the start of the line.
func isFence(line string) bool {
	return strings.HasPrefix(line, fence)
}

func (b *builder) emit(n Node) {
	b.state = stateNone
	b.blocks = append(b.blocks, n)
}

func (b *builder) listLine(kind, rest string) {
	item := ListItem(b.inline(rest)...)
	if b.opts.MergeLists && b.state == stateList && b.listKind == kind {
		last := &b.blocks[len(b.blocks)-1]
		last.Content = append(last.Content, item)
		return
	}
	b.emit(List(kind, item))
	if b.opts.MergeLists {
		b.state = stateList
		b.listKind = kind
	}
}

func (b *builder) flushFence() {
	if b.state != stateFence {
		return
	}
	b.emit(CodeBlock(b.fenceLang, strings.Join(b.fenceBody, "\n")))
	b.fenceLang = ""
	b.fenceBody = nil
}

// inline returns the inline nodes for one line of text. By default the
// whole line is a single text leaf.
func (b *builder) inline(s string) []Node {
	if b.opts.InlineMarks {
		if nodes := parseInline(s); len(nodes) > 0 {
			return nodes
		}
	}
	return []Node{Text(s)}
}
