package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	logger  *zap.Logger
}

// NewPlaywright starts the Playwright driver and launches Chromium.
func NewPlaywright(ctx context.Context, headless bool, logger *zap.Logger) (*PlaywrightManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
			"--disable-blink-features=AutomationControlled",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}
	logger.Info("🌐 Chromium launched", zap.Bool("headless", headless))

	return &PlaywrightManager{pw: pw, browser: b, logger: logger}, nil
}

// NewPage opens a fresh context carrying cookies and returns its single page.
func (pm *PlaywrightManager) NewPage(cookies []playwright.OptionalCookie, actionTimeout time.Duration) (Page, error) {
	bctx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(defaultUserAgent),
		Viewport:  &playwright.Size{Width: 1366, Height: 900},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			pm.logger.Warn("⚠️ Could not add cookies", zap.Error(err))
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	page.SetDefaultTimeout(float64(actionTimeout.Milliseconds()))
	return &pwPage{page: page, timeout: actionTimeout}, nil
}

func (pm *PlaywrightManager) Close() error {
	var errs []error
	if pm.browser != nil {
		errs = append(errs, pm.browser.Close())
	}
	if pm.pw != nil {
		errs = append(errs, pm.pw.Stop())
	}
	return errors.Join(errs...)
}

// pwPage adapts playwright.Page to Page.
type pwPage struct {
	page    playwright.Page
	timeout time.Duration
}

// WrapPage exposes an existing Playwright page through the Page surface.
func WrapPage(page playwright.Page, actionTimeout time.Duration) Page {
	return &pwPage{page: page, timeout: actionTimeout}
}

func (p *pwPage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (p *pwPage) URL() string { return p.page.URL() }

func (p *pwPage) Title() (string, error) { return p.page.Title() }

func (p *pwPage) Content() (string, error) { return p.page.Content() }

func (p *pwPage) Back() error {
	_, err := p.page.GoBack(playwright.PageGoBackOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p *pwPage) Evaluate(script string) (any, error) {
	return p.page.Evaluate(script)
}

func (p *pwPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

func (p *pwPage) WaitFor(selector string, timeout time.Duration) error {
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, selector, err)
	}
	return nil
}

func (p *pwPage) Query(selector string) (Element, error) {
	return first(p.page.Locator(selector), selector, p.timeout)
}

func (p *pwPage) QueryAll(selector string) ([]Element, error) {
	return all(p.page.Locator(selector), p.timeout)
}

// pwElement adapts playwright.Locator to Element.
type pwElement struct {
	loc     playwright.Locator
	timeout time.Duration
}

func first(loc playwright.Locator, selector string, timeout time.Duration) (Element, error) {
	l := loc.First()
	n, err := l.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return &pwElement{loc: l, timeout: timeout}, nil
}

func all(loc playwright.Locator, timeout time.Duration) ([]Element, error) {
	locs, err := loc.All()
	if err != nil {
		return nil, err
	}
	els := make([]Element, len(locs))
	for i, l := range locs {
		els[i] = &pwElement{loc: l, timeout: timeout}
	}
	return els, nil
}

func (e *pwElement) ms() *float64 {
	return playwright.Float(float64(e.timeout.Milliseconds()))
}

func (e *pwElement) Query(selector string) (Element, error) {
	return first(e.loc.Locator(selector), selector, e.timeout)
}

func (e *pwElement) QueryAll(selector string) ([]Element, error) {
	return all(e.loc.Locator(selector), e.timeout)
}

func (e *pwElement) Text() (string, error) {
	return e.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: e.ms()})
}

func (e *pwElement) Attr(name string) (string, error) {
	return e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: e.ms()})
}

func (e *pwElement) Click() error {
	if err := e.loc.ScrollIntoViewIfNeeded(); err != nil {
		return err
	}
	return e.loc.Click(playwright.LocatorClickOptions{Timeout: e.ms()})
}

func (e *pwElement) Fill(value string) error {
	return e.loc.Fill(value, playwright.LocatorFillOptions{Timeout: e.ms()})
}

func (e *pwElement) SelectOption(label string) error {
	_, err := e.loc.SelectOption(playwright.SelectOptionValues{
		Labels: playwright.StringSlice(label),
	}, playwright.LocatorSelectOptionOptions{Timeout: e.ms()})
	return err
}
