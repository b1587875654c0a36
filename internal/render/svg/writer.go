// Package svg writes SVG markup element by element.
package svg

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Attr is a single attribute; use A to format values.
type Attr struct {
	Name  string
	Value string
}

// A formats v as an attribute value. Floats are written with at most two decimals.
func A(name string, v interface{}) Attr {
	switch x := v.(type) {
	case string:
		return Attr{name, x}
	case float64:
		return Attr{name, Num(x)}
	case int:
		return Attr{name, strconv.Itoa(x)}
	}
	return Attr{name, fmt.Sprint(v)}
}

// Num formats a coordinate compactly.
func Num(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// Writer keeps the first write error so callers can check once at the end.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) raw(s string) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.WriteString(s)
}

func (w *Writer) text(s string) {
	if w.err != nil {
		return
	}
	w.err = xml.EscapeText(w.w, []byte(s))
}

func (w *Writer) tag(name string, attrs []Attr, selfClose bool) {
	w.raw("<" + name)
	for _, a := range attrs {
		w.raw(" " + a.Name + `="`)
		w.text(a.Value)
		w.raw(`"`)
	}
	if selfClose {
		w.raw("/>")
	} else {
		w.raw(">")
	}
}

// Start opens the root svg element.
func (w *Writer) Start(width, height float64, attrs ...Attr) {
	base := []Attr{
		A("xmlns", "http://www.w3.org/2000/svg"),
		A("width", width),
		A("height", height),
		A("viewBox", fmt.Sprintf("0 0 %s %s", Num(width), Num(height))),
	}
	w.tag("svg", append(base, attrs...), false)
}

// Open starts an element that will contain children.
func (w *Writer) Open(name string, attrs ...Attr) {
	w.tag(name, attrs, false)
}

// Close ends the element opened last with the given name.
func (w *Writer) Close(name string) {
	w.raw("</" + name + ">")
}

// Empty writes a self-closing element.
func (w *Writer) Empty(name string, attrs ...Attr) {
	w.tag(name, attrs, true)
}

// Text writes an element holding escaped character data.
func (w *Writer) Text(name, body string, attrs ...Attr) {
	w.tag(name, attrs, false)
	w.text(body)
	w.Close(name)
}

// End closes the root element and flushes.
func (w *Writer) End() error {
	w.Close("svg")
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// Err returns the first error seen so far.
func (w *Writer) Err() error {
	return w.err
}
