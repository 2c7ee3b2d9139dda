package server

// ZeroAddress marks "no runner-up" in solo round results.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

const (
	CategoryFunniest     = "Funniest"
	CategoryMostAccurate = "Most Accurate"
	CategoryMostCreative = "Most Creative"
	CategoryBestMeme     = "Best Meme"
)

var validCategories = []string{
	CategoryFunniest,
	CategoryMostAccurate,
	CategoryMostCreative,
	CategoryBestMeme,
}

const redactedCaption = "[Hidden]"

// Round is one timed contest. Timestamps are unix seconds. gen is a
// store-assigned stamp that distinguishes a round from a later round
// reusing the same id.
type Round struct {
	ID        string
	ImageURL  string
	Category  string
	Creator   string
	CreatedAt int64
	Deadline  int64
	Resolved  bool

	gen uint64
}

// Caption is a single entry, at most one per (round, author).
type Caption struct {
	Author      string
	Text        string
	SubmittedAt int64
}

// roundState holds a round's transient storage: the round itself, the
// captions keyed by author, and the submission-ordered author index that
// stands in for a round -> participants multi-map. len(order) is the
// participant count.
type roundState struct {
	round    Round
	captions map[string]*Caption
	order    []string
}

// RoundResult survives round deletion and id reuse. SoloScore 0 means
// "not a solo round"; solo rounds carry a clamped 1-10 score.
type RoundResult struct {
	RoundID         string
	Winner          string
	RunnerUp        string
	WinnerCaption   string
	RunnerUpCaption string
	ResolvedAt      int64
	SoloScore       int
}

// IsSolo reports whether the result came from a single-entrant round.
func (r *RoundResult) IsSolo() bool {
	return r.SoloScore > 0
}

// Participant pairs an author with their caption text for judging.
type Participant struct {
	Address string
	Text    string
}

// Award is one XP grant applied when a round resolves.
type Award struct {
	Address string
	Amount  int64
	Reason  string
}

// CaptionView is a caption as exposed to readers, with the text redacted
// while the submission window is still open.
type CaptionView struct {
	Author      string `json:"author"`
	Text        string `json:"text"`
	SubmittedAt int64  `json:"submitted_at"`
}

// RoundView is the public shape of an active round.
type RoundView struct {
	RoundID          string        `json:"round_id"`
	ImageURL         string        `json:"image_url"`
	Category         string        `json:"category"`
	Creator          string        `json:"creator"`
	CreatedAt        int64         `json:"created_at"`
	Deadline         int64         `json:"submission_deadline"`
	Resolved         bool          `json:"resolved"`
	Captions         []CaptionView `json:"captions"`
	ParticipantCount int           `json:"participant_count"`
}

// ResultView is the public shape of a permanent round result.
type ResultView struct {
	RoundID         string  `json:"round_id"`
	Winner          string  `json:"winner"`
	RunnerUp        *string `json:"runner_up"`
	WinnerCaption   string  `json:"winner_caption"`
	RunnerUpCaption *string `json:"runner_up_caption"`
	ResolvedAt      int64   `json:"resolved_at"`
	SoloScore       *int    `json:"solo_score"`
	IsSoloRound     bool    `json:"is_solo_round"`
}

func resultView(result *RoundResult) ResultView {
	view := ResultView{
		RoundID:       result.RoundID,
		Winner:        result.Winner,
		WinnerCaption: result.WinnerCaption,
		ResolvedAt:    result.ResolvedAt,
		IsSoloRound:   result.IsSolo(),
	}
	if result.IsSolo() {
		score := result.SoloScore
		view.SoloScore = &score
	} else {
		runnerUp := result.RunnerUp
		runnerUpCaption := result.RunnerUpCaption
		view.RunnerUp = &runnerUp
		view.RunnerUpCaption = &runnerUpCaption
	}
	return view
}
