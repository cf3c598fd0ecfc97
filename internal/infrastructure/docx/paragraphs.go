package docx

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

const wordprocessingPrefix = "w"

// textNode is one w:t element, or a w:tab, w:br or w:cr inside a run
// (text holds "\t" or "\n" for those). start/end span the whole element.
type textNode struct {
	start int64
	end   int64
	text  string
	mark  bool
}

// paragraph collects the text nodes of one w:p, wherever it sits (body,
// table cell, nested table). Nodes of nested paragraphs stay with them.
type paragraph struct {
	nodes []textNode
}

func (p paragraph) Text() string {
	var sb strings.Builder
	for _, n := range p.nodes {
		sb.WriteString(n.text)
	}
	return sb.String()
}

func isWordElement(name xml.Name, local string) bool {
	return name.Space == wordprocessingPrefix && name.Local == local
}

// scanParagraphs walks document.xml once with raw tokens and records byte
// offsets so the content can later be patched without re-encoding.
func scanParagraphs(body []byte) ([]paragraph, error) {
	dec := xml.NewDecoder(strings.NewReader(string(body)))

	var (
		out    []paragraph
		stack  []*paragraph
		inText bool
		node   textNode
		text   strings.Builder
		runs   int
		mark   *textNode
	)

	for {
		offset := dec.InputOffset()
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case isWordElement(t.Name, "p"):
				stack = append(stack, &paragraph{})
			case isWordElement(t.Name, "r"):
				runs++
			case isWordElement(t.Name, "t") && len(stack) > 0:
				inText = true
				node = textNode{start: offset}
				text.Reset()
			case runs > 0 && len(stack) > 0 && mark == nil:
				if value, ok := markText(t); ok {
					mark = &textNode{start: offset, text: value, mark: true}
				}
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		case xml.EndElement:
			switch {
			case isWordElement(t.Name, "t") && inText:
				inText = false
				node.end = dec.InputOffset()
				node.text = text.String()
				current := stack[len(stack)-1]
				current.nodes = append(current.nodes, node)
			case mark != nil && (isWordElement(t.Name, "tab") || isWordElement(t.Name, "br") || isWordElement(t.Name, "cr")):
				mark.end = dec.InputOffset()
				current := stack[len(stack)-1]
				current.nodes = append(current.nodes, *mark)
				mark = nil
			case isWordElement(t.Name, "r") && runs > 0:
				runs--
			case isWordElement(t.Name, "p") && len(stack) > 0:
				out = append(out, *stack[len(stack)-1])
				stack = stack[:len(stack)-1]
			}
		}
	}
	return out, nil
}

// markText maps run-level tabs and line breaks to their text form. Page and
// column breaks are not text and stay where they are.
func markText(el xml.StartElement) (string, bool) {
	switch {
	case isWordElement(el.Name, "tab"):
		return "\t", true
	case isWordElement(el.Name, "cr"):
		return "\n", true
	case isWordElement(el.Name, "br"):
		for _, attr := range el.Attr {
			if attr.Name.Local == "type" && attr.Value != "textWrapping" {
				return "", false
			}
		}
		return "\n", true
	}
	return "", false
}

type patch struct {
	start int64
	end   int64
	value string
}

// rewriteParagraph returns the patches that put newText into the first
// node, empty every other text node and drop the tabs and breaks, which
// runText writes back at their place in newText.
func rewriteParagraph(p paragraph, newText string) []patch {
	if len(p.nodes) == 0 {
		return nil
	}
	patches := make([]patch, 0, len(p.nodes))
	for i, n := range p.nodes {
		value := "<w:t></w:t>"
		switch {
		case i == 0:
			value = runText(newText)
		case n.mark:
			value = ""
		}
		patches = append(patches, patch{start: n.start, end: n.end, value: value})
	}
	return patches
}

func applyPatches(body []byte, patches []patch) []byte {
	sort.Slice(patches, func(i, j int) bool { return patches[i].start < patches[j].start })

	var sb strings.Builder
	sb.Grow(len(body))
	var cursor int64
	for _, p := range patches {
		sb.Write(body[cursor:p.start])
		sb.WriteString(p.value)
		cursor = p.end
	}
	sb.Write(body[cursor:])
	return []byte(sb.String())
}

// runText encodes text for a single run, turning tabs and line breaks into
// their run-level elements.
func runText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var sb, segment strings.Builder
	flush := func() {
		sb.WriteString(escapeText(segment.String()))
		segment.Reset()
	}

	sb.WriteString(`<w:t xml:space="preserve">`)
	for _, r := range s {
		switch r {
		case '\n':
			flush()
			sb.WriteString(`</w:t><w:br/><w:t xml:space="preserve">`)
		case '\t':
			flush()
			sb.WriteString(`</w:t><w:tab/><w:t xml:space="preserve">`)
		default:
			segment.WriteRune(r)
		}
	}
	flush()
	sb.WriteString("</w:t>")
	return sb.String()
}

func escapeText(s string) string {
	var sb strings.Builder
	if err := xml.EscapeText(&sb, []byte(s)); err != nil {
		return s
	}
	return sb.String()
}
