package renew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var markers = []ExpiryMarker{UnknownExpiry, " ", "유통기한 2025-01-02 10:00", "유통기한 2025-01-02 16:00", "Expires: 2025-03-01"}

func testDecide_EitherSignalConfirms(t *rapid.T) {
	popup := rapid.Bool().Draw(t, "popup")
	before := rapid.SampledFrom(markers).Draw(t, "before")
	after := rapid.SampledFrom(markers).Draw(t, "after")

	got := Decide(popup, before, after)
	changed := before.Known() && after.Known() && before != after
	want := Unconfirmed
	if popup || changed {
		want = Confirmed
	}
	if got != want {
		t.Fatalf("Decide(%v, %q, %q) = %s, want %s", popup, before, after, got, want)
	}
	if again := Decide(popup, before, after); again != got {
		t.Fatalf("Decide not stable: %s then %s", got, again)
	}
}

func TestDecide_EitherSignalConfirms(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testDecide_EitherSignalConfirms)
}

func TestDecide_TruthTable(t *testing.T) {
	t.Parallel()

	a := ExpiryMarker("유통기한 2025-01-02 10:00")
	b := ExpiryMarker("유통기한 2025-01-02 16:00")
	tests := []struct {
		name          string
		popup         bool
		before, after ExpiryMarker
		want          Outcome
	}{
		{"popup only", true, a, a, Confirmed},
		{"expiry only", false, a, b, Confirmed},
		{"both", true, a, b, Confirmed},
		{"neither", false, a, a, Unconfirmed},
		{"unknown before", false, UnknownExpiry, b, Unconfirmed},
		{"unknown after", false, a, UnknownExpiry, Unconfirmed},
		{"unknown both with popup", true, UnknownExpiry, UnknownExpiry, Confirmed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.popup, tt.before, tt.after))
		})
	}
}

func TestVerification_Signals(t *testing.T) {
	t.Parallel()

	v := Verification{Popup: true, Before: "x 1", After: "x 2"}
	assert.Equal(t, []Outcome{PopupConfirmed, ExpiryChanged}, v.Signals())
	assert.Empty(t, Verification{Before: "x 1", After: "x 1"}.Signals())
}

func TestNewPhrase_IgnoresPhrasesAlreadyShown(t *testing.T) {
	t.Parallel()

	phrases := RenewAction.SuccessPhrases
	assert.Equal(t, "추가되었습니다", newPhrase("시간추가\n시간이 추가되었습니다", "시간추가", phrases))
	assert.Equal(t, "", newPhrase("작업 성공\n시간추가", "작업 성공\n시간추가", phrases))
	assert.Equal(t, "renewed", newPhrase("Server RENEWED", "", phrases))
	assert.Equal(t, "", newPhrase("", "", phrases))
}

func TestNewPhrase_RepeatedPhraseCounts(t *testing.T) {
	t.Parallel()

	phrases := RenewAction.SuccessPhrases
	assert.Equal(t, "성공", newPhrase("상태 성공\n작업 성공", "상태 성공", phrases))
	assert.Equal(t, "성공", newPhrase("작업 성공\n작업 성공", "작업 성공", phrases))
	assert.Equal(t, "", newPhrase("작업 성공", "작업 성공\n작업 성공", phrases))
}

func testNewPhrase_AppendedToastIsNew(t *rapid.T) {
	phrases := RenewAction.SuccessPhrases
	phrase := rapid.SampledFrom(phrases).Draw(t, "phrase")
	baseline := rapid.StringMatching(`[a-z ]{0,20}`).Draw(t, "baseline")
	repeats := rapid.IntRange(0, 3).Draw(t, "repeats")
	for range repeats {
		baseline += "\n" + phrase
	}

	if got := newPhrase(baseline+"\n"+phrase, baseline, phrases); got == "" {
		t.Fatalf("toast %q after %d earlier copies not detected", phrase, repeats)
	}
	if got := newPhrase(baseline, baseline, phrases); got != "" {
		t.Fatalf("unchanged page reported %q", got)
	}
}

func TestNewPhrase_AppendedToastIsNew(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testNewPhrase_AppendedToastIsNew)
}
