package ndbc

import (
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const listingTimeLayout = "2006-01-02 15:04"

// ListingEntry is one file row of an Apache directory index
type ListingEntry struct {
	Name         string
	LastModified time.Time
	Size         uint64
	Description  string
}

type listingColumns struct {
	name, modified, size, description int
}

// ParseListing reads the file rows of an NDBC directory index. Rows without
// a last-modified time (headers, separators, the parent directory) are dropped.
func ParseListing(r io.Reader) ([]ListingEntry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "parsing directory listing")
	}

	var (
		cols    *listingColumns
		entries []ListingEntry
	)
	for _, tr := range findAll(doc, atom.Tr) {
		cells := cellsOf(tr)
		if cols == nil {
			cols = headerColumns(cells)
			continue
		}
		entry, ok := listingEntry(cells, cols)
		if ok {
			entries = append(entries, entry)
		}
	}

	if cols == nil {
		return nil, errors.New("directory listing has no Name/Last modified header")
	}
	return entries, nil
}

func headerColumns(cells []*html.Node) *listingColumns {
	cols := listingColumns{name: -1, modified: -1, size: -1, description: -1}
	for i, c := range cells {
		switch strings.ToLower(textOf(c)) {
		case "name":
			cols.name = i
		case "last modified":
			cols.modified = i
		case "size":
			cols.size = i
		case "description":
			cols.description = i
		}
	}
	if cols.name < 0 || cols.modified < 0 {
		return nil
	}
	return &cols
}

func listingEntry(cells []*html.Node, cols *listingColumns) (ListingEntry, bool) {
	if cols.name >= len(cells) || cols.modified >= len(cells) {
		return ListingEntry{}, false
	}

	modified, err := time.Parse(listingTimeLayout, textOf(cells[cols.modified]))
	if err != nil {
		return ListingEntry{}, false
	}

	name := textOf(cells[cols.name])
	// long names are truncated in the cell text, the link is not
	if href := linkOf(cells[cols.name]); href != "" {
		if strings.HasPrefix(href, "/") || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "..") {
			return ListingEntry{}, false
		}
		if unescaped, err := url.PathUnescape(href); err == nil {
			name = unescaped
		}
	}
	if name == "" || strings.HasSuffix(name, "/") {
		return ListingEntry{}, false
	}

	entry := ListingEntry{Name: name, LastModified: modified.UTC()}
	if cols.size >= 0 && cols.size < len(cells) {
		entry.Size = parseSize(textOf(cells[cols.size]))
	}
	if cols.description >= 0 && cols.description < len(cells) {
		entry.Description = textOf(cells[cols.description])
	}
	return entry, true
}

// parseSize converts Apache sizes such as "41K" or "1.2M"; "-" is 0
func parseSize(s string) uint64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0
	}
	return n
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func cellsOf(tr *html.Node) []*html.Node {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			cells = append(cells, c)
		}
	}
	return cells
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func linkOf(n *html.Node) string {
	for _, a := range findAll(n, atom.A) {
		for _, attr := range a.Attr {
			if attr.Key == "href" {
				return attr.Val
			}
		}
	}
	return ""
}
