// Package browsertest serves static HTML through the browser.Page surface so
// scrapers and the form driver can be tested without a real browser.
package browsertest

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rushi1222/job-applier-amazon/internal/browser"
)

// ClickHandler runs when a matching element is clicked.
type ClickHandler func(p *Page) error

type clickRule struct {
	selector string
	fn       ClickHandler
}

// Page is an in-memory browser.Page. Routes maps absolute URLs to HTML;
// Resolve, when set, is consulted for URLs missing from Routes.
type Page struct {
	Routes  map[string]string
	Resolve func(url string) (string, bool)

	// Visited records every successful navigation, Clicks the id (or text)
	// of every clicked element, Scripts every evaluated script, Screenshots every capture path.
	Visited     []string
	Clicks      []string
	Scripts     []string
	Screenshots []string

	doc     *goquery.Document
	url     string
	history []string
	rules   []clickRule
}

func New(routes map[string]string) *Page {
	if routes == nil {
		routes = map[string]string{}
	}
	return &Page{Routes: routes}
}

// Load replaces the current document without recording a navigation.
func (p *Page) Load(url, html string) {
	p.url = url
	p.doc = mustParse(html)
}

// OnClick registers fn for clicks on elements matching selector.
func (p *Page) OnClick(selector string, fn ClickHandler) {
	p.rules = append(p.rules, clickRule{selector: selector, fn: fn})
}

// Clicked reports whether an element with the given id was clicked.
func (p *Page) Clicked(id string) bool {
	for _, c := range p.Clicks {
		if c == id {
			return true
		}
	}
	return false
}

// Value returns the value attribute of the first match, as set by Fill.
func (p *Page) Value(selector string) string {
	v, _ := p.doc.Find(selector).First().Attr("value")
	return v
}

// Selected returns the ids of every element marked selected by a click or SelectOption.
func (p *Page) Selected() []string {
	var ids []string
	p.doc.Find("[data-selected]").Each(func(_ int, s *goquery.Selection) {
		ids = append(ids, describe(s))
	})
	return ids
}

func (p *Page) Goto(url string) error {
	html, ok := p.Routes[url]
	if !ok && p.Resolve != nil {
		html, ok = p.Resolve(url)
	}
	if !ok {
		return fmt.Errorf("navigate to %s: no route", url)
	}
	if p.url != "" {
		p.history = append(p.history, p.url)
	}
	p.url = url
	p.doc = mustParse(html)
	p.Visited = append(p.Visited, url)
	return nil
}

func (p *Page) URL() string { return p.url }

func (p *Page) Title() (string, error) {
	if p.doc == nil {
		return "", nil
	}
	return strings.TrimSpace(p.doc.Find("title").First().Text()), nil
}

func (p *Page) Content() (string, error) {
	if p.doc == nil {
		return "", nil
	}
	return p.doc.Html()
}

func (p *Page) Back() error {
	if len(p.history) == 0 {
		return fmt.Errorf("no history")
	}
	prev := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
	html, ok := p.Routes[prev]
	if !ok && p.Resolve != nil {
		html, ok = p.Resolve(prev)
	}
	if !ok {
		return fmt.Errorf("navigate back to %s: no route", prev)
	}
	p.url = prev
	p.doc = mustParse(html)
	return nil
}

func (p *Page) Evaluate(script string) (any, error) {
	p.Scripts = append(p.Scripts, script)
	return nil, nil
}

// Screenshot records path; no file is written.
func (p *Page) Screenshot(path string) error {
	p.Screenshots = append(p.Screenshots, path)
	return nil
}

// WaitFor never sleeps: the document is static, so it either matches now or never.
func (p *Page) WaitFor(selector string, _ time.Duration) error {
	if p.doc == nil || p.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s", browser.ErrTimeout, selector)
	}
	return nil
}

func (p *Page) Query(selector string) (browser.Element, error) {
	if p.doc == nil {
		return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}
	return p.first(p.doc.Find(selector), selector)
}

func (p *Page) QueryAll(selector string) ([]browser.Element, error) {
	if p.doc == nil {
		return nil, nil
	}
	return p.all(p.doc.Find(selector)), nil
}

func (p *Page) first(s *goquery.Selection, selector string) (browser.Element, error) {
	if s.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}
	return &element{page: p, sel: s.First()}, nil
}

func (p *Page) all(s *goquery.Selection) []browser.Element {
	els := make([]browser.Element, 0, s.Length())
	s.Each(func(_ int, item *goquery.Selection) {
		els = append(els, &element{page: p, sel: item})
	})
	return els
}

type element struct {
	page *Page
	sel  *goquery.Selection
}

func (e *element) Query(selector string) (browser.Element, error) {
	return e.page.first(e.sel.Find(selector), selector)
}

func (e *element) QueryAll(selector string) ([]browser.Element, error) {
	return e.page.all(e.sel.Find(selector)), nil
}

func (e *element) Text() (string, error) {
	return e.sel.Text(), nil
}

func (e *element) Attr(name string) (string, error) {
	v, _ := e.sel.Attr(name)
	return v, nil
}

// Click runs the first matching OnClick handler, otherwise follows href.
// The element is marked data-selected so radio/option picks can be asserted.
func (e *element) Click() error {
	if _, disabled := e.sel.Attr("disabled"); disabled {
		return fmt.Errorf("element %s is disabled", describe(e.sel))
	}
	e.page.Clicks = append(e.page.Clicks, describe(e.sel))
	e.sel.SetAttr("data-selected", "true")
	for _, r := range e.page.rules {
		if e.sel.Is(r.selector) {
			return r.fn(e.page)
		}
	}
	if href, ok := e.sel.Attr("href"); ok && strings.HasPrefix(href, "http") {
		return e.page.Goto(href)
	}
	return nil
}

func (e *element) Fill(value string) error {
	e.sel.SetAttr("value", value)
	return nil
}

func (e *element) SelectOption(label string) error {
	var found bool
	e.sel.Find("option").EachWithBreak(func(_ int, o *goquery.Selection) bool {
		if strings.TrimSpace(o.Text()) == label {
			o.SetAttr("data-selected", "true")
			found = true
			return false
		}
		return true
	})
	if !found {
		return fmt.Errorf("%w: option %q", browser.ErrNotFound, label)
	}
	return nil
}

func describe(s *goquery.Selection) string {
	if id, ok := s.Attr("id"); ok && id != "" {
		return id
	}
	return strings.TrimSpace(s.Text())
}

func mustParse(html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(fmt.Sprintf("browsertest: parse html: %v", err))
	}
	return doc
}
