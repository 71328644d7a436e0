package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// lineBreaks is how many newlines surround an element's rendered text,
// mirroring what a browser's innerText produces.
var lineBreaks = map[atom.Atom]int{
	atom.P:          2,
	atom.H1:         2,
	atom.H2:         2,
	atom.H3:         2,
	atom.H4:         2,
	atom.H5:         2,
	atom.H6:         2,
	atom.Address:    1,
	atom.Article:    1,
	atom.Aside:      1,
	atom.Blockquote: 1,
	atom.Dd:         1,
	atom.Details:    1,
	atom.Div:        1,
	atom.Dl:         1,
	atom.Dt:         1,
	atom.Figcaption: 1,
	atom.Figure:     1,
	atom.Footer:     1,
	atom.Form:       1,
	atom.Header:     1,
	atom.Hr:         1,
	atom.Li:         1,
	atom.Main:       1,
	atom.Nav:        1,
	atom.Ol:         1,
	atom.Pre:        1,
	atom.Section:    1,
	atom.Summary:    1,
	atom.Table:      1,
	atom.Tr:         1,
	atom.Ul:         1,
}

var skippedTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Button:   true,
	atom.Head:     true,
}

// renderedText approximates HTMLElement.innerText for every node in s:
// whitespace collapses outside <pre>, block elements break lines and
// hidden or non-content elements are dropped.
func renderedText(s *goquery.Selection) string {
	w := &textWriter{}
	for _, n := range s.Nodes {
		w.breakLines(1)
		w.walk(n, false)
	}
	return strings.TrimSpace(w.b.String())
}

// textWithout renders s with every descendant matching selector removed.
func textWithout(s *goquery.Selection, selector string) string {
	c := s.Clone()
	c.Find(selector).Remove()
	return renderedText(c)
}

// contentOf prefers the rendered markdown containers inside s and falls
// back to the node's own text.
func contentOf(s *goquery.Selection, markdownSelector string) string {
	if md := outermost(s.Find(markdownSelector)); md.Length() > 0 {
		if text := renderedText(md); text != "" {
			return text
		}
	}
	return renderedText(s)
}

// outermost drops nodes nested inside another node of the same selection.
func outermost(s *goquery.Selection) *goquery.Selection {
	set := make(map[*html.Node]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		set[n] = true
	}
	return s.FilterFunction(func(_ int, one *goquery.Selection) bool {
		for p := one.Nodes[0].Parent; p != nil; p = p.Parent {
			if set[p] {
				return false
			}
		}
		return true
	})
}

func timestampOf(s *goquery.Selection) string {
	ts, _ := s.Find("time[datetime]").First().Attr("datetime")
	return strings.TrimSpace(ts)
}

func hidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "style":
			if strings.Contains(strings.ReplaceAll(a.Val, " ", ""), "display:none") {
				return true
			}
		}
	}
	return false
}

type textWriter struct {
	b      strings.Builder
	breaks int
	space  bool
}

func (w *textWriter) breakLines(n int) {
	if n == 0 {
		return
	}
	if n > w.breaks {
		w.breaks = n
	}
	w.space = false
}

func (w *textWriter) write(s string) {
	if s == "" {
		return
	}
	if w.b.Len() > 0 {
		if w.breaks > 0 {
			w.b.WriteString(strings.Repeat("\n", w.breaks))
		} else if w.space {
			w.b.WriteByte(' ')
		}
	}
	w.breaks = 0
	w.space = false
	w.b.WriteString(s)
}

func (w *textWriter) text(data string, pre bool) {
	if pre {
		w.write(data)
		return
	}
	fields := strings.FieldsFunc(data, collapsible)
	if len(fields) == 0 {
		if data != "" {
			w.space = w.breaks == 0
		}
		return
	}
	if startsWithSpace(data) && w.breaks == 0 {
		w.space = true
	}
	w.write(strings.Join(fields, " "))
	if endsWithSpace(data) {
		w.space = true
	}
}

func (w *textWriter) walk(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data, pre)
		return
	case html.ElementNode:
		if skippedTags[n.DataAtom] || hidden(n) {
			return
		}
		if n.DataAtom == atom.Br {
			w.b.WriteString("\n")
			w.breaks = 0
			w.space = false
			return
		}
	case html.DocumentNode:
	default:
		return
	}

	breaks := lineBreaks[n.DataAtom]
	cell := n.DataAtom == atom.Td || n.DataAtom == atom.Th
	w.breakLines(breaks)
	if cell && w.breaks == 0 {
		w.space = true
	}
	inPre := pre || n.DataAtom == atom.Pre || n.DataAtom == atom.Textarea
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, inPre)
	}
	w.breakLines(breaks)
	if cell && w.breaks == 0 {
		w.space = true
	}
}

// collapsible is the whitespace CSS collapses. U+00A0 is not among it and
// survives as text, as it does in innerText.
func collapsible(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func startsWithSpace(s string) bool {
	return s != "" && collapsible(rune(s[0]))
}

func endsWithSpace(s string) bool {
	return s != "" && collapsible(rune(s[len(s)-1]))
}
