// Package xmlparse converts an XML document into plain maps and slices in
// the shape xml2js produces with its default options:
//
//	<root a="1"><item>x</item><item>y</item></root>
//
// becomes
//
//	{"root": {"$": {"a": "1"}, "item": ["x", "y"]}}
//
// An element without attributes or children is its text. Otherwise it is a
// map with "$" for attributes, "_" for non-blank text and one []any per
// child element name, in document order.
package xmlparse

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/conneroisu/assetpipe/internal/errors"
)

const (
	// AttrKey holds the attributes of an element.
	AttrKey = "$"
	// TextKey holds the text of an element that also has attributes or
	// children.
	TextKey = "_"

	opParse = "xmlparse.Parse"
)

type element struct {
	name     string
	attrs    map[string]any
	children map[string][]any
	text     strings.Builder
}

func (e *element) value() any {
	text := strings.TrimSpace(e.text.String())
	if len(e.attrs) == 0 && len(e.children) == 0 {
		return text
	}

	out := make(map[string]any, len(e.children)+2)
	if len(e.attrs) > 0 {
		out[AttrKey] = e.attrs
	}
	if text != "" {
		out[TextKey] = text
	}
	for name, values := range e.children {
		out[name] = values
	}
	return out
}

// Parse reads one XML document from r.
func Parse(r io.Reader) (map[string]any, error) {
	if r == nil {
		return nil, errors.NewValidationError(opParse, errors.ErrCodeInvalidArgument, "no input")
	}

	dec := xml.NewDecoder(r)
	dec.Strict = true

	var (
		stack []*element
		root  map[string]any
	)

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseError(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil {
				return nil, parseError(fmt.Errorf("content after root element <%s>", qualified(t.Name)))
			}
			el := &element{name: qualified(t.Name)}
			for _, a := range t.Attr {
				if el.attrs == nil {
					el.attrs = make(map[string]any, len(t.Attr))
				}
				el.attrs[qualified(a.Name)] = a.Value
			}
			stack = append(stack, el)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, parseError(fmt.Errorf("unexpected </%s>", qualified(t.Name)))
			}
			el := stack[len(stack)-1]
			if name := qualified(t.Name); name != el.name {
				return nil, parseError(fmt.Errorf("element <%s> closed by </%s>", el.name, name))
			}
			stack = stack[:len(stack)-1]

			if len(stack) == 0 {
				root = map[string]any{el.name: el.value()}
				continue
			}
			parent := stack[len(stack)-1]
			if parent.children == nil {
				parent.children = make(map[string][]any)
			}
			parent.children[el.name] = append(parent.children[el.name], el.value())
		}
	}

	if len(stack) > 0 {
		return nil, parseError(fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].name))
	}
	if root == nil {
		return nil, parseError(fmt.Errorf("document has no root element"))
	}
	return root, nil
}

// ParseString parses an XML document held in s.
func ParseString(s string) (map[string]any, error) {
	return Parse(strings.NewReader(s))
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func parseError(err error) error {
	return errors.Wrap(err, errors.ErrorTypeValidation, opParse, errors.ErrCodeParse, "invalid XML")
}
