package renew

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kuitang/leasekeeper/internal/browser"
	"github.com/kuitang/leasekeeper/internal/browser/browsertest"
	"github.com/kuitang/leasekeeper/internal/config"
	"github.com/kuitang/leasekeeper/internal/shots"
)

const (
	testPanelURL = "https://panel.example.com"
	testLoginURL = testPanelURL + "/auth/login"
	serverA      = testPanelURL + "/server/aaa111"
	serverB      = testPanelURL + "/server/bbb222"
	serverC      = testPanelURL + "/server/ccc333"
)

var (
	renewSel = Exact("시간추가").Selector()
	startSel = Exact("Start").Selector()
	stopSel  = `button:text-is("Stop")`
)

func testTimings() config.Timings {
	return config.Timings{
		Navigation: time.Second,
		Element:    30 * time.Millisecond,
		Challenge:  30 * time.Millisecond,
		Popup:      30 * time.Millisecond,
		Poll:       time.Millisecond,
	}
}

func testConfig(servers ...string) *config.Config {
	return &config.Config{
		PanelURL:          testPanelURL,
		LoginURL:          testLoginURL,
		ServerURLs:        servers,
		SessionCookie:     "remember-token",
		SessionCookieName: "remember_web_test",
		Headless:          true,
		Timings:           testTimings(),
	}
}

func credentialConfig(servers ...string) *config.Config {
	cfg := testConfig(servers...)
	cfg.SessionCookie = ""
	cfg.Email = "ops@example.com"
	cfg.Password = "hunter2"
	return cfg
}

type recordingJar struct {
	cookies []browser.Cookie
	err     error
}

func (j *recordingJar) AddCookie(c browser.Cookie) error {
	if j.err != nil {
		return j.err
	}
	j.cookies = append(j.cookies, c)
	return nil
}

type recordingSink struct {
	mu    sync.Mutex
	names []string
}

func (s *recordingSink) Save(_ context.Context, name string, _ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
	return nil
}

func (s *recordingSink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

func homeScreen() browsertest.Screen {
	return browsertest.Screen{HTML: browsertest.HTML("<h1>Your servers</h1>")}
}

// controlScreen renders a server control page. An empty expiry omits the marker.
func controlScreen(expiry string, controls map[string]*browsertest.Control) browsertest.Screen {
	var body []string
	if expiry != "" {
		body = append(body, "<div><span>유통기한</span> <span>"+expiry+"</span></div>")
	}

	selectors := make([]string, 0, len(controls))
	for sel := range controls {
		selectors = append(selectors, sel)
	}
	sort.Strings(selectors)

	all := make(map[string]*browsertest.Control, len(controls)+1)
	for _, sel := range selectors {
		c := controls[sel]
		all[sel] = c
		body = append(body, "<button>"+c.Label+"</button>")
		if _, ok := all["button"]; !ok && !c.Hidden {
			all["button"] = c
		}
	}
	return browsertest.Screen{HTML: browsertest.HTML(body...), Controls: all}
}

// toastOnClick returns a control that shows msg after it is clicked.
func toastOnClick(label, msg string) *browsertest.Control {
	c := browsertest.Button(label)
	c.OnClick = func(p *browsertest.Page) {
		p.AppendHTML(`<div class="toast">` + msg + `</div>`)
	}
	return c
}

func challengeScreen() browsertest.Screen {
	return browsertest.Screen{HTML: browsertest.HTML("<h1>Just a moment...</h1><p>Checking your browser before accessing.</p>")}
}

func newTestRunner(cfg *config.Config, page *browsertest.Page) (*Runner, *recordingJar, *recordingSink) {
	jar := &recordingJar{}
	sink := &recordingSink{}
	return NewRunner(cfg, page, jar, shots.NewCapturer(sink)), jar, sink
}

func hasName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

func containsPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

// targetResult returns the recorded result for id or fails the test.
func targetResult(t *testing.T, r *RunResult, id string) TargetResult {
	t.Helper()
	for _, tr := range r.Targets() {
		if tr.Target.ID == id {
			return tr
		}
	}
	t.Fatalf("no result recorded for target %q", id)
	return TargetResult{}
}
