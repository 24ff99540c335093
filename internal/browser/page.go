// Package browser is the capability surface the scrapers and the form driver
// need from a browser, plus the Playwright implementation of it.
package browser

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a selector matches nothing.
	ErrNotFound = errors.New("element not found")
	// ErrTimeout is returned when a bounded wait expires.
	ErrTimeout = errors.New("wait timed out")
)

// Page is one navigable browsing context. Implementations are not safe for
// concurrent use; the whole pipeline shares a single Page sequentially.
type Page interface {
	Goto(url string) error
	URL() string
	Title() (string, error)
	// Content returns the serialized DOM of the current document.
	Content() (string, error)
	Back() error
	Evaluate(script string) (any, error)
	// Screenshot writes a full-page PNG to path.
	Screenshot(path string) error

	// WaitFor blocks until selector matches at least one element or timeout expires.
	WaitFor(selector string, timeout time.Duration) error
	Query(selector string) (Element, error)
	QueryAll(selector string) ([]Element, error)
}

// Element is a handle to one node of the current document.
type Element interface {
	Query(selector string) (Element, error)
	QueryAll(selector string) ([]Element, error)
	Text() (string, error)
	// Attr returns "" without error when the attribute is absent.
	Attr(name string) (string, error)
	Click() error
	Fill(value string) error
	// SelectOption picks the <option> whose visible label equals label.
	SelectOption(label string) error
}

// TextOf returns the trimmed text of the first match of selector under el.
func TextOf(el Element, selector string) (string, error) {
	child, err := el.Query(selector)
	if err != nil {
		return "", err
	}
	text, err := child.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// FindByText returns the first element whose trimmed text equals text,
// ignoring case.
func FindByText(els []Element, text string) (Element, bool) {
	for _, el := range els {
		t, err := el.Text()
		if err != nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(t), text) {
			return el, true
		}
	}
	return nil, false
}

// FindContaining returns the first element whose text contains substr, ignoring case.
func FindContaining(els []Element, substr string) (Element, bool) {
	substr = strings.ToLower(substr)
	for _, el := range els {
		t, err := el.Text()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(t), substr) {
			return el, true
		}
	}
	return nil, false
}

// Exists reports whether selector currently matches anything on page.
func Exists(page Page, selector string) bool {
	_, err := page.Query(selector)
	return err == nil
}
