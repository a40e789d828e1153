package pagination

import (
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"github.com/deppfellow/rsweb/internal/config"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	innerWindow = 2
	outerWindow = 1

	prevLabel = "&laquo;"
	nextLabel = "&raquo;"
	gapLabel  = "&hellip;"
)

// gap marks an elided run of pages in Pages.
const gap = 0

// Pagination is the state behind the widget rendered under a scene list.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	RecordName string

	framework      string
	linkSize       string
	showSinglePage bool

	path  string
	query url.Values
}

// New builds a Pagination for the given request path and query.
// The query is copied so page links keep the caller's other arguments.
func New(cfg config.PaginationConfig, args Args, total int, recordName, path string, query url.Values) *Pagination {
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}

	return &Pagination{
		Page:           args.Page,
		PerPage:        args.PerPage,
		Total:          total,
		RecordName:     recordName,
		framework:      cfg.CSSFramework,
		linkSize:       cfg.LinkSize,
		showSinglePage: cfg.ShowSinglePage,
		path:           path,
		query:          q,
	}
}

// TotalPages is the number of pages needed for Total records.
func (p *Pagination) TotalPages() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p *Pagination) HasPrev() bool { return p.Page > 1 }

func (p *Pagination) HasNext() bool { return p.Page < p.TotalPages() }

// Pages lists the page numbers to render. A zero entry stands for a gap.
func (p *Pagination) Pages() []int {
	total := p.TotalPages()
	var pages []int
	lastWasGap := false

	for n := 1; n <= total; n++ {
		near := n-p.Page <= innerWindow && p.Page-n <= innerWindow
		edge := n <= outerWindow || n > total-outerWindow
		if near || edge {
			pages = append(pages, n)
			lastWasGap = false
			continue
		}
		if !lastWasGap {
			pages = append(pages, gap)
			lastWasGap = true
		}
	}
	return pages
}

// PageURL returns the link for page n, preserving the other query arguments.
func (p *Pagination) PageURL(n int) string {
	q := url.Values{}
	for k, v := range p.query {
		q[k] = v
	}
	q.Set(PageParam, strconv.Itoa(n))
	return p.path + "?" + q.Encode()
}

// Info renders "displaying <b>1 - 10</b> scenes in total <b>1,234</b>".
func (p *Pagination) Info() template.HTML {
	if p.Total <= 0 {
		return template.HTML(fmt.Sprintf(`<div class="pagination-page-info">no %s found</div>`,
			html.EscapeString(p.RecordName)))
	}

	start, end := Args{Page: p.Page, PerPage: p.PerPage}.Window(p.Total)
	printer := message.NewPrinter(language.English)

	var shown string
	if start >= end {
		shown = printer.Sprintf("%d", p.Total)
		return template.HTML(fmt.Sprintf(
			`<div class="pagination-page-info">no %s on this page, <b>%s</b> in total</div>`,
			html.EscapeString(p.RecordName), shown))
	}

	return template.HTML(fmt.Sprintf(
		`<div class="pagination-page-info">displaying <b>%s - %s</b> %s in total <b>%s</b></div>`,
		printer.Sprintf("%d", start+1),
		printer.Sprintf("%d", end),
		html.EscapeString(p.RecordName),
		printer.Sprintf("%d", p.Total),
	))
}

// Links renders the page links for the configured CSS framework.
//
// Nothing is rendered for a single page unless show_single_page is set.
func (p *Pagination) Links() template.HTML {
	if p.TotalPages() == 0 || (p.TotalPages() == 1 && !p.showSinglePage) {
		return ""
	}

	r := rendererFor(p.framework, p.linkSize)
	var b strings.Builder
	b.WriteString(r.open)

	if p.HasPrev() {
		b.WriteString(r.link(p.PageURL(p.Page-1), prevLabel))
	} else {
		b.WriteString(r.disabled(prevLabel))
	}

	for _, n := range p.Pages() {
		switch {
		case n == gap:
			b.WriteString(r.disabled(gapLabel))
		case n == p.Page:
			b.WriteString(r.active(strconv.Itoa(n)))
		default:
			b.WriteString(r.link(p.PageURL(n), strconv.Itoa(n)))
		}
	}

	if p.HasNext() {
		b.WriteString(r.link(p.PageURL(p.Page+1), nextLabel))
	} else {
		b.WriteString(r.disabled(nextLabel))
	}

	b.WriteString(r.close)
	return template.HTML(b.String())
}

// frameworkRenderer holds the markup of one CSS framework. Labels are
// trusted constants or page numbers; hrefs are escaped here.
type frameworkRenderer struct {
	open, close string
	link        func(href, label string) string
	active      func(label string) string
	disabled    func(label string) string
}

func sizeClass(prefix, size string) string {
	if size == "" {
		return ""
	}
	return " " + prefix + size
}

func rendererFor(framework, size string) frameworkRenderer {
	switch framework {
	case "bootstrap":
		return frameworkRenderer{
			open:  fmt.Sprintf(`<div class="pagination%s"><ul>`, sizeClass("pagination-", expandSize(size))),
			close: `</ul></div>`,
			link: func(href, label string) string {
				return fmt.Sprintf(`<li><a href="%s">%s</a></li>`, html.EscapeString(href), label)
			},
			active:   func(label string) string { return fmt.Sprintf(`<li class="active"><a>%s</a></li>`, label) },
			disabled: func(label string) string { return fmt.Sprintf(`<li class="disabled"><a>%s</a></li>`, label) },
		}
	case "bootstrap4":
		return frameworkRenderer{
			open:  fmt.Sprintf(`<nav aria-label="pagination"><ul class="pagination%s">`, sizeClass("pagination-", size)),
			close: `</ul></nav>`,
			link: func(href, label string) string {
				return fmt.Sprintf(`<li class="page-item"><a class="page-link" href="%s">%s</a></li>`, html.EscapeString(href), label)
			},
			active: func(label string) string {
				return fmt.Sprintf(`<li class="page-item active"><span class="page-link">%s</span></li>`, label)
			},
			disabled: func(label string) string {
				return fmt.Sprintf(`<li class="page-item disabled"><span class="page-link">%s</span></li>`, label)
			},
		}
	case "foundation":
		return frameworkRenderer{
			open:  `<ul class="pagination">`,
			close: `</ul>`,
			link: func(href, label string) string {
				return fmt.Sprintf(`<li><a href="%s">%s</a></li>`, html.EscapeString(href), label)
			},
			active:   func(label string) string { return fmt.Sprintf(`<li class="current"><a>%s</a></li>`, label) },
			disabled: func(label string) string { return fmt.Sprintf(`<li class="unavailable"><a>%s</a></li>`, label) },
		}
	case "semantic":
		return frameworkRenderer{
			open:  fmt.Sprintf(`<div class="ui%s pagination menu">`, semanticSize(size)),
			close: `</div>`,
			link: func(href, label string) string {
				return fmt.Sprintf(`<a class="item" href="%s">%s</a>`, html.EscapeString(href), label)
			},
			active:   func(label string) string { return fmt.Sprintf(`<a class="active item">%s</a>`, label) },
			disabled: func(label string) string { return fmt.Sprintf(`<div class="disabled item">%s</div>`, label) },
		}
	default:
		return frameworkRenderer{
			open:  fmt.Sprintf(`<ul class="pagination%s">`, sizeClass("pagination-", size)),
			close: `</ul>`,
			link: func(href, label string) string {
				return fmt.Sprintf(`<li><a href="%s">%s</a></li>`, html.EscapeString(href), label)
			},
			active: func(label string) string {
				return fmt.Sprintf(`<li class="active"><a>%s <span class="sr-only">(current)</span></a></li>`, label)
			},
			disabled: func(label string) string { return fmt.Sprintf(`<li class="disabled"><a>%s</a></li>`, label) },
		}
	}
}

// expandSize maps sm/lg to the bootstrap 2 class suffixes.
func expandSize(size string) string {
	switch size {
	case "sm":
		return "small"
	case "lg":
		return "large"
	default:
		return ""
	}
}

func semanticSize(size string) string {
	switch size {
	case "sm":
		return " mini"
	case "lg":
		return " large"
	default:
		return ""
	}
}
