// Package browser is the narrow surface the renewal flow drives a web page through.
// The production implementation is backed by Playwright; tests use browsertest.Page.
package browser

import (
	"errors"
	"time"
)

// WaitPolicy names the load event a navigation waits for.
type WaitPolicy string

const (
	WaitDOMContentLoaded WaitPolicy = "domcontentloaded"
	WaitLoad             WaitPolicy = "load"
)

// ErrTimeout is returned (wrapped) when a browser operation exceeds its timeout.
var ErrTimeout = errors.New("browser: timeout")

// Cookie is a cookie to inject into the browsing context before navigation.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
}

// Control is an element on the page that can be activated.
type Control interface {
	Hover(timeout time.Duration) error
	Click(timeout time.Duration) error
	Text() string
}

// Page is a single browser tab. Implementations are not safe for concurrent use.
type Page interface {
	Navigate(url string, wait WaitPolicy, timeout time.Duration) error
	Reload(wait WaitPolicy, timeout time.Duration) error
	URL() string
	// Content returns the current serialized DOM.
	Content() (string, error)
	// FirstVisible returns the first visible element matching selector.
	// ok is false when nothing matches or nothing matching is visible.
	FirstVisible(selector string) (c Control, ok bool, err error)
	Fill(selector, value string, timeout time.Duration) error
	// Screenshot returns a full-page PNG.
	Screenshot() ([]byte, error)
}
