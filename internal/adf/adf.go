// Package adf builds Atlassian Document Format trees, the rich-text
// representation Jira Cloud expects in description and comment fields.
package adf

import (
	"encoding/json"
)

// Node type tags understood by the Jira REST API v3.
const (
	TypeDoc         = "doc"
	TypeParagraph   = "paragraph"
	TypeHeading     = "heading"
	TypeBulletList  = "bulletList"
	TypeOrderedList = "orderedList"
	TypeListItem    = "listItem"
	TypeCodeBlock   = "codeBlock"
	TypeText        = "text"
)

// Mark type tags for inline formatting.
const (
	MarkStrong = "strong"
	MarkEm     = "em"
	MarkCode   = "code"
	MarkLink   = "link"
)

// Node is a single node of a document tree. The root has Type TypeDoc and
// Version 1; text leaves carry Text and optional Marks, every other node
// carries Content.
type Node struct {
	Type    string         `json:"type"`
	Version int            `json:"version,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Mark is an inline formatting mark applied to a text leaf.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

type textJSON struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Marks []Mark `json:"marks,omitempty"`
}

type blockJSON struct {
	Type    string         `json:"type"`
	Version int            `json:"version,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content"`
}

// MarshalJSON writes the wire shape Jira accepts: text leaves always have a
// text field, and every non-text node has a content array, even when empty.
func (n Node) MarshalJSON() ([]byte, error) {
	if n.Type == TypeText {
		return json.Marshal(textJSON{Type: n.Type, Text: n.Text, Marks: n.Marks})
	}
	content := n.Content
	if content == nil {
		content = []Node{}
	}
	return json.Marshal(blockJSON{
		Type:    n.Type,
		Version: n.Version,
		Attrs:   n.Attrs,
		Content: content,
	})
}

// Doc wraps blocks in a root document node.
func Doc(blocks ...Node) *Node {
	if blocks == nil {
		blocks = []Node{}
	}
	return &Node{Type: TypeDoc, Version: 1, Content: blocks}
}

// Paragraph returns a paragraph holding the given inline nodes.
func Paragraph(inline ...Node) Node {
	if inline == nil {
		inline = []Node{}
	}
	return Node{Type: TypeParagraph, Content: inline}
}

// Heading returns a heading of the given level.
func Heading(level int, inline ...Node) Node {
	return Node{
		Type:    TypeHeading,
		Attrs:   map[string]any{"level": level},
		Content: inline,
	}
}

// Text returns a text leaf.
func Text(s string, marks ...Mark) Node {
	return Node{Type: TypeText, Text: s, Marks: marks}
}

// ListItem wraps inline content in a list item holding one paragraph.
func ListItem(inline ...Node) Node {
	return Node{Type: TypeListItem, Content: []Node{Paragraph(inline...)}}
}

// List returns a bullet or ordered list of the given items.
func List(kind string, items ...Node) Node {
	return Node{Type: kind, Content: items}
}

// CodeBlock returns a code block. language may be empty.
func CodeBlock(language, body string) Node {
	n := Node{Type: TypeCodeBlock, Content: []Node{}}
	if language != "" {
		n.Attrs = map[string]any{"language": language}
	}
	if body != "" {
		n.Content = []Node{Text(body)}
	}
	return n
}
