package browser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Cookie is one entry of a cookie export. Both the browser-extension layout
// (expirationDate, no_restriction) and Playwright's storage state are read.
type Cookie struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Domain         string  `json:"domain"`
	Path           string  `json:"path"`
	Expires        float64 `json:"expires"`
	ExpirationDate float64 `json:"expirationDate"`
	HTTPOnly       bool    `json:"httpOnly"`
	Secure         bool    `json:"secure"`
	SameSite       string  `json:"sameSite"`
}

type storageState struct {
	Cookies []Cookie `json:"cookies"`
}

// LoadCookies reads a cookie export so a logged-in session can be reused
// without scripting the login form. The file is either a JSON array of
// cookies or a storage state object with a "cookies" array.
func LoadCookies(path string) ([]playwright.OptionalCookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cookies, err := parseCookies(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" || c.Domain == "" {
			continue
		}
		out = append(out, c.ToPlaywright())
	}
	return out, nil
}

func parseCookies(data []byte) ([]Cookie, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var st storageState
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, fmt.Errorf("invalid storage state: %w", err)
		}
		return st.Cookies, nil
	}
	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("invalid cookie export: %w", err)
	}
	return cookies, nil
}

func (c Cookie) ToPlaywright() playwright.OptionalCookie {
	path := c.Path
	if path == "" {
		path = "/"
	}
	pc := playwright.OptionalCookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: playwright.String(c.Domain),
		Path:   playwright.String(path),
	}

	expires := c.Expires
	if expires <= 0 {
		expires = c.ExpirationDate
	}
	// session cookies carry -1 or nothing
	if expires > 0 {
		pc.Expires = playwright.Float(expires)
	}
	if c.HTTPOnly {
		pc.HttpOnly = playwright.Bool(true)
	}
	if c.Secure {
		pc.Secure = playwright.Bool(true)
	}

	switch strings.ToLower(c.SameSite) {
	case "lax":
		pc.SameSite = playwright.SameSiteAttributeLax
	case "strict":
		pc.SameSite = playwright.SameSiteAttributeStrict
	case "none", "no_restriction":
		pc.SameSite = playwright.SameSiteAttributeNone
	}
	return pc
}
