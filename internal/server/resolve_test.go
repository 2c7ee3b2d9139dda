package server

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emark-cloud/caption-this/internal/config"
)

// scriptedJudge returns a canned reply and records what it was asked.
type scriptedJudge struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
	last  Judgment
}

func (j *scriptedJudge) Evaluate(_ context.Context, judgment Judgment) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls++
	j.last = judgment
	return j.reply, j.err
}

func newResolveServer(clock *testClock, judge JudgeOracle) *Server {
	srv := New(nil, config.Default(), judge)
	srv.store = NewStore(clock.Now)
	return srv
}

func TestResolveSoloRound(t *testing.T) {
	clock := newTestClock(1_000_000)
	judge := &scriptedJudge{reply: `{"score": 7}`}
	srv := newResolveServer(clock, judge)

	mustCreateRound(t, srv.store, "r1", addrAlice)
	if _, _, err := srv.store.SubmitCaption("r1", addrBob, "cat pic"); err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	clock.Advance(181 * time.Second)

	result, awards, err := srv.ResolveRound(context.Background(), "r1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	// participation 3 plus floor(7*15/10) = 10
	if got := srv.ledger.Balance(addrBob); got != 13 {
		t.Fatalf("solo XP = %d, want 13", got)
	}
	if len(awards) != 2 {
		t.Fatalf("expected 2 awards, got %d", len(awards))
	}
	if result.SoloScore != 7 {
		t.Fatalf("solo score = %d, want 7", result.SoloScore)
	}
	if result.RunnerUp != ZeroAddress {
		t.Fatalf("runner up = %s, want zero address", result.RunnerUp)
	}
	if result.WinnerCaption != "cat pic" {
		t.Fatalf("winner caption = %q", result.WinnerCaption)
	}
	if !strings.Contains(judge.last.Prompt, "cat pic") {
		t.Fatal("judge prompt missing the caption text")
	}
}

func TestResolveSoloClampsScore(t *testing.T) {
	for _, tc := range []struct {
		name  string
		reply string
		score int
		xp    int64
	}{
		{name: "above range", reply: `{"score": 42}`, score: 10, xp: 3 + 15},
		{name: "below range", reply: `{"score": -2}`, score: 1, xp: 3 + 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clock := newTestClock(1_000_000)
			srv := newResolveServer(clock, &scriptedJudge{reply: tc.reply})
			mustCreateRound(t, srv.store, "r1", addrAlice)
			if _, _, err := srv.store.SubmitCaption("r1", addrBob, "entry"); err != nil {
				t.Fatalf("submission failed: %v", err)
			}
			clock.Advance(181 * time.Second)

			result, _, err := srv.ResolveRound(context.Background(), "r1")
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			if result.SoloScore != tc.score {
				t.Fatalf("score = %d, want %d", result.SoloScore, tc.score)
			}
			if got := srv.ledger.Balance(addrBob); got != tc.xp {
				t.Fatalf("xp = %d, want %d", got, tc.xp)
			}
		})
	}
}

func TestResolveSoloAcceptsWrappedJSON(t *testing.T) {
	clock := newTestClock(1_000_000)
	judge := &scriptedJudge{reply: "Here is my verdict:\n{\"score\": 9}\nThanks!"}
	srv := newResolveServer(clock, judge)
	mustCreateRound(t, srv.store, "r1", addrAlice)
	if _, _, err := srv.store.SubmitCaption("r1", addrBob, "entry"); err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	clock.Advance(181 * time.Second)

	result, _, err := srv.ResolveRound(context.Background(), "r1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.SoloScore != 9 {
		t.Fatalf("score = %d, want 9", result.SoloScore)
	}
}

func TestResolveMultiRound(t *testing.T) {
	clock := newTestClock(1_000_000)
	judge := &scriptedJudge{reply: `{"winner": "B", "runner_up": "A"}`}
	srv := newResolveServer(clock, judge)

	mustCreateRound(t, srv.store, "r1", addrAlice)
	for _, entry := range []struct{ addr, text string }{
		{addrAlice, "first in"},
		{addrBob, "second in"},
		{addrCarol, "third in"},
	} {
		if _, _, err := srv.store.SubmitCaption("r1", entry.addr, entry.text); err != nil {
			t.Fatalf("submission failed: %v", err)
		}
	}
	clock.Advance(181 * time.Second)

	result, _, err := srv.ResolveRound(context.Background(), "r1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	// winner: 3 + (15-3), runner-up: 3 + (8-3), participant: 3
	if got := srv.ledger.Balance(addrBob); got != 15 {
		t.Fatalf("winner XP = %d, want 15", got)
	}
	if got := srv.ledger.Balance(addrAlice); got != 8 {
		t.Fatalf("runner-up XP = %d, want 8", got)
	}
	if got := srv.ledger.Balance(addrCarol); got != 3 {
		t.Fatalf("participant XP = %d, want 3", got)
	}

	if result.Winner != addrBob || result.RunnerUp != addrAlice {
		t.Fatalf("result names %s/%s, want %s/%s", result.Winner, result.RunnerUp, addrBob, addrAlice)
	}
	if result.WinnerCaption != "second in" || result.RunnerUpCaption != "first in" {
		t.Fatalf("caption snapshots wrong: %q / %q", result.WinnerCaption, result.RunnerUpCaption)
	}
	if result.SoloScore != 0 {
		t.Fatalf("solo score sentinel = %d, want 0", result.SoloScore)
	}
}

func TestResolveCleanupFreesID(t *testing.T) {
	clock := newTestClock(1_000_000)
	srv := newResolveServer(clock, &scriptedJudge{reply: `{"score": 5}`})
	mustCreateRound(t, srv.store, "r1", addrAlice)
	if _, _, err := srv.store.SubmitCaption("r1", addrBob, "entry"); err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	clock.Advance(181 * time.Second)

	if _, _, err := srv.ResolveRound(context.Background(), "r1"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if _, err := srv.store.RoundView("r1"); !errors.Is(err, ErrRoundNotFound) {
		t.Fatalf("round state survived resolution: %v", err)
	}
	if count := srv.store.participantCount("r1"); count != 0 {
		t.Fatalf("stale participant entries: %d", count)
	}
	if _, err := srv.store.Result("r1"); err != nil {
		t.Fatalf("result missing after resolution: %v", err)
	}

	// Same id must be immediately reusable while the result survives.
	if _, err := srv.store.CreateRound("r1", "https://img.example/new.png", CategoryBestMeme, addrCarol, 180); err != nil {
		t.Fatalf("id reuse after resolution failed: %v", err)
	}
	if _, err := srv.store.Result("r1"); err != nil {
		t.Fatalf("result lost after id reuse: %v", err)
	}

	// And the old round is gone, so resolving again is a not-found.
	_, _, err := srv.ResolveRound(context.Background(), "r2")
	if !errors.Is(err, ErrRoundNotFound) {
		t.Fatalf("expected ErrRoundNotFound, got %v", err)
	}
}

// judgeFunc adapts a closure to the oracle interface.
type judgeFunc func(context.Context, Judgment) (string, error)

func (f judgeFunc) Evaluate(ctx context.Context, judgment Judgment) (string, error) {
	return f(ctx, judgment)
}

func TestResolveRejectsRoundReplacedDuringJudging(t *testing.T) {
	clock := newTestClock(1_000_000)

	// The judge cancels the round and recreates it under the same id
	// while its evaluation is in flight.
	var srv *Server
	judge := judgeFunc(func(context.Context, Judgment) (string, error) {
		if err := srv.store.CancelRound("r1", addrAlice); err != nil {
			t.Fatalf("cancel during judging failed: %v", err)
		}
		mustCreateRound(t, srv.store, "r1", addrCarol)
		if _, _, err := srv.store.SubmitCaption("r1", addrCarol, "fresh entry"); err != nil {
			t.Fatalf("resubmission during judging failed: %v", err)
		}
		return `{"score": 9}`, nil
	})
	srv = newResolveServer(clock, judge)

	mustCreateRound(t, srv.store, "r1", addrAlice)
	if _, _, err := srv.store.SubmitCaption("r1", addrBob, "stale entry"); err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	clock.Advance(181 * time.Second)

	_, _, err := srv.ResolveRound(context.Background(), "r1")
	if !errors.Is(err, ErrRoundChanged) {
		t.Fatalf("expected ErrRoundChanged, got %v", err)
	}

	// No XP, no result, and the replacement round is untouched.
	if got := srv.ledger.Balance(addrBob); got != 0 {
		t.Fatalf("stale judgment paid out: xp=%d", got)
	}
	if _, err := srv.store.Result("r1"); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("stale result written: %v", err)
	}
	view, err := srv.store.RoundView("r1")
	if err != nil {
		t.Fatalf("replacement round destroyed: %v", err)
	}
	if view.Creator != addrCarol || view.ParticipantCount != 1 {
		t.Fatalf("replacement round altered: creator=%s participants=%d", view.Creator, view.ParticipantCount)
	}
}

func TestResolveRejectsMalformedReplies(t *testing.T) {
	replies := []struct {
		name  string
		reply string
	}{
		{name: "empty", reply: ""},
		{name: "no json", reply: "the winner is B, obviously"},
		{name: "broken json", reply: `{"winner": "B", "runner_up":`},
		{name: "missing keys", reply: `{"favorite": "B"}`},
		{name: "unknown winner", reply: `{"winner": "Z", "runner_up": "A"}`},
		{name: "unknown runner up", reply: `{"winner": "A", "runner_up": "Z"}`},
		{name: "winner equals runner up", reply: `{"winner": "A", "runner_up": "A"}`},
	}

	for _, tc := range replies {
		t.Run(tc.name, func(t *testing.T) {
			clock := newTestClock(1_000_000)
			srv := newResolveServer(clock, &scriptedJudge{reply: tc.reply})
			mustCreateRound(t, srv.store, "r1", addrAlice)
			for _, addr := range []string{addrAlice, addrBob} {
				if _, _, err := srv.store.SubmitCaption("r1", addr, "entry by "+addr); err != nil {
					t.Fatalf("submission failed: %v", err)
				}
			}
			clock.Advance(181 * time.Second)

			_, _, err := srv.ResolveRound(context.Background(), "r1")
			if !errors.Is(err, ErrInvalidJudgeReply) {
				t.Fatalf("expected ErrInvalidJudgeReply, got %v", err)
			}

			// Full state diff: no XP, no result, round intact and retryable.
			if got := srv.ledger.Balance(addrAlice) + srv.ledger.Balance(addrBob); got != 0 {
				t.Fatalf("XP awarded on failed resolve: %d", got)
			}
			if _, err := srv.store.Result("r1"); !errors.Is(err, ErrResultNotFound) {
				t.Fatalf("result written on failed resolve: %v", err)
			}
			if count := srv.store.participantCount("r1"); count != 2 {
				t.Fatalf("participants lost on failed resolve: %d", count)
			}
		})
	}
}

func TestResolveSoloRejectsMissingScore(t *testing.T) {
	clock := newTestClock(1_000_000)
	srv := newResolveServer(clock, &scriptedJudge{reply: `{"rating": 7}`})
	mustCreateRound(t, srv.store, "r1", addrAlice)
	if _, _, err := srv.store.SubmitCaption("r1", addrBob, "entry"); err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	clock.Advance(181 * time.Second)

	_, _, err := srv.ResolveRound(context.Background(), "r1")
	if !errors.Is(err, ErrInvalidJudgeReply) {
		t.Fatalf("expected ErrInvalidJudgeReply, got %v", err)
	}
	if got := srv.ledger.Balance(addrBob); got != 0 {
		t.Fatalf("XP awarded on failed resolve: %d", got)
	}
}

func TestResolveSurfacesJudgeFailure(t *testing.T) {
	clock := newTestClock(1_000_000)
	srv := newResolveServer(clock, &scriptedJudge{err: errors.New("backend down")})
	mustCreateRound(t, srv.store, "r1", addrAlice)
	if _, _, err := srv.store.SubmitCaption("r1", addrBob, "entry"); err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	clock.Advance(181 * time.Second)

	_, _, err := srv.ResolveRound(context.Background(), "r1")
	if err == nil || !strings.Contains(err.Error(), "backend down") {
		t.Fatalf("judge failure not surfaced: %v", err)
	}

	// Retry with a healthy judge succeeds: the round stayed closed and
	// unresolved.
	srv.judge = &scriptedJudge{reply: `{"score": 4}`}
	if _, _, err := srv.ResolveRound(context.Background(), "r1"); err != nil {
		t.Fatalf("retry after judge failure did not succeed: %v", err)
	}
}

func TestResolveRequiresConfiguredJudge(t *testing.T) {
	clock := newTestClock(1_000_000)
	srv := newResolveServer(clock, nil)
	mustCreateRound(t, srv.store, "r1", addrAlice)
	if _, _, err := srv.store.SubmitCaption("r1", addrBob, "entry"); err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	clock.Advance(181 * time.Second)

	_, _, err := srv.ResolveRound(context.Background(), "r1")
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("expected unconfigured judge error, got %v", err)
	}
}

func TestResolveZeroParticipantsLeavesRoundClosed(t *testing.T) {
	clock := newTestClock(1_000_000)
	srv := newResolveServer(clock, &scriptedJudge{reply: `{"score": 5}`})
	mustCreateRound(t, srv.store, "r1", addrAlice)
	clock.Advance(181 * time.Second)

	_, _, err := srv.ResolveRound(context.Background(), "r1")
	if !errors.Is(err, ErrNoParticipants) {
		t.Fatalf("expected ErrNoParticipants, got %v", err)
	}
	if _, err := srv.store.RoundView("r1"); err != nil {
		t.Fatalf("round should remain after failed resolve: %v", err)
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare object", input: `{"score": 3}`, want: `{"score": 3}`},
		{name: "leading text", input: `verdict: {"score": 3}`, want: `{"score": 3}`},
		{name: "surrounded", input: "a\n{\"x\":1}\nb", want: `{"x":1}`},
		{name: "whitespace", input: "  {\"x\":1}  ", want: `{"x":1}`},
		{name: "empty", input: "   ", wantErr: true},
		{name: "no braces", input: "nothing here", wantErr: true},
		{name: "reversed braces", input: "} nope {", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractJSONObject(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidJudgeReply) {
					t.Fatalf("expected ErrInvalidJudgeReply, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
