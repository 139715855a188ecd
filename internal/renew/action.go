package renew

// Action describes one control to activate and how to recognise success.
type Action struct {
	Name           string
	Matchers       []Matcher
	SuccessPhrases []string
	// TrackExpiry enables the before/after expiry comparison.
	TrackExpiry bool
}

// RenewAction extends the server lease.
var RenewAction = Action{
	Name: "renew",
	Matchers: []Matcher{
		Exact("시간추가"),
		Exact("시간 추가"),
		Exact("Renew"),
		Contains("연장"),
		Contains("시간"),
		Contains("Renew"),
		Contains("Extend"),
		Text("시간추가"),
		Icon(""),
	},
	SuccessPhrases: []string{
		"성공",
		"완료",
		"추가되었습니다",
		"연장되었습니다",
		"success",
		"renewed",
		"extended",
	},
	TrackExpiry: true,
}

// StartAction powers the server on. It has no icon fallback: the nearest icon
// button on a control page is usually Stop or Restart.
var StartAction = Action{
	Name: "start",
	Matchers: []Matcher{
		Exact("Start"),
		Exact("시작"),
		Contains("Start"),
	},
	SuccessPhrases: []string{
		"시작되었습니다",
		"시작 중",
		"started",
		"starting",
		"success",
		"성공",
	},
}
