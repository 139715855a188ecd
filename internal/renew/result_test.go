package renew

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func sampleResult() *RunResult {
	r := NewRunResult("run-1")
	r.Session = Session{Authenticated: true, Method: MethodCookie}
	r.Add(TargetResult{
		Target: Target{ID: "aaa111", Address: serverA},
		Actions: []ActionResult{
			{Action: "renew", Outcome: Confirmed, Signals: []Outcome{PopupConfirmed, ExpiryChanged}, Before: "유통기한 10:00", After: "유통기한 16:00"},
			{Action: "start", Outcome: Unconfirmed},
		},
	})
	r.Add(TargetResult{
		Target:  Target{ID: "bbb|222", Address: serverB},
		Actions: []ActionResult{{Action: "renew", Outcome: NoButton}},
	})
	return r
}

func TestRunResult_AddIsWriteOnce(t *testing.T) {
	t.Parallel()

	r := sampleResult()
	added := r.Add(TargetResult{Target: Target{ID: "aaa111"}, Actions: []ActionResult{{Action: "renew", Outcome: NoButton}}})
	assert.False(t, added)
	require.Equal(t, 2, r.Len())

	o, _ := targetResult(t, r, "aaa111").Outcome("renew")
	assert.Equal(t, Confirmed, o)
}

func TestRunResult_Counts(t *testing.T) {
	t.Parallel()

	counts := sampleResult().Counts()
	assert.Equal(t, 1, counts["renew"][Confirmed])
	assert.Equal(t, 1, counts["renew"][NoButton])
	assert.Equal(t, 1, counts["start"][Unconfirmed])
}

func TestRunResult_WriteSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, sampleResult().WriteSummary(&buf))
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[0], "TARGET"))
	assert.Contains(t, lines[1], "aaa111")
	assert.Contains(t, lines[1], "popup_confirmed+expiry_changed")
	assert.Contains(t, lines[2], "unconfirmed")
	assert.Contains(t, lines[2], "unknown")
	assert.Contains(t, lines[3], "no_button")
	assert.Contains(t, out, "2 target(s), run run-1")
	assert.True(t, strings.HasSuffix(out, "renew: confirmed=1, no_button=1\nstart: unconfirmed=1\n"), out)
}

func TestRunResult_Markdown(t *testing.T) {
	t.Parallel()

	md := sampleResult().Markdown()
	assert.Contains(t, md, "# Lease renewal run `run-1`")
	assert.Contains(t, md, "Session: cookie")
	assert.Contains(t, md, `| bbb\|222 | renew | no_button | - |`)
}

func testRunResult_PreservesInsertionOrder(t *rapid.T) {
	ids := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z0-9]{1,8}`), 0, 20, rapid.ID[string]).Draw(t, "ids")
	r := NewRunResult("run-x")
	for _, id := range ids {
		r.Add(TargetResult{Target: Target{ID: id}})
	}
	got := r.Targets()
	if len(got) != len(ids) {
		t.Fatalf("len = %d, want %d", len(got), len(ids))
	}
	for i, tr := range got {
		if tr.Target.ID != ids[i] {
			t.Fatalf("position %d = %q, want %q", i, tr.Target.ID, ids[i])
		}
	}
}

func TestRunResult_PreservesInsertionOrder(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testRunResult_PreservesInsertionOrder)
}
