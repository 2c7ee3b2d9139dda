package server

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrRoundNotFound    = errors.New("round not found")
	ErrRoundExists      = errors.New("round id already exists")
	ErrDeadlinePassed   = errors.New("submission deadline has passed")
	ErrAlreadySubmitted = errors.New("caption already submitted for this round")
	ErrNotCreator       = errors.New("only the round creator can cancel")
	ErrWindowStillOpen  = errors.New("submission window is still open")
	ErrNoParticipants   = errors.New("need at least one participant to resolve")
	ErrResultNotFound   = errors.New("no result found for this round")
	ErrRoundChanged     = errors.New("round changed while resolution was in flight")
)

// Store holds all active-round state plus the permanent results map. A
// single mutex makes every public write an all-or-nothing unit; methods
// validate first and only then mutate.
type Store struct {
	mu      sync.Mutex
	now     func() time.Time
	rounds  map[string]*roundState
	results map[string]*RoundResult
	counter uint64
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{
		now:     now,
		rounds:  make(map[string]*roundState),
		results: make(map[string]*RoundResult),
	}
}

func (s *Store) nowUnix() int64 {
	return s.now().Unix()
}

// CreateRound opens a new round. The id must not collide with an active
// round; ids freed by cancellation or resolution may be reused.
func (s *Store) CreateRound(id, imageURL, category, creator string, duration int64) (Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rounds[id]; exists {
		return Round{}, ErrRoundExists
	}

	s.counter++
	now := s.nowUnix()
	round := Round{
		ID:        id,
		ImageURL:  imageURL,
		Category:  category,
		Creator:   creator,
		CreatedAt: now,
		Deadline:  now + duration,
		gen:       s.counter,
	}
	s.rounds[id] = &roundState{
		round:    round,
		captions: make(map[string]*Caption),
	}
	return round, nil
}

// SubmitCaption records one caption per (round, author). The duplicate
// check and the index append happen under the same lock, so a retry of
// the same author can never double-book an ordinal.
func (s *Store) SubmitCaption(roundID, author, text string) (Caption, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rounds[roundID]
	if !ok {
		return Caption{}, 0, ErrRoundNotFound
	}

	now := s.nowUnix()
	if now > state.round.Deadline {
		return Caption{}, 0, ErrDeadlinePassed
	}
	if _, dup := state.captions[author]; dup {
		return Caption{}, 0, ErrAlreadySubmitted
	}

	caption := Caption{
		Author:      author,
		Text:        text,
		SubmittedAt: now,
	}
	state.captions[author] = &caption
	state.order = append(state.order, author)
	return caption, len(state.order), nil
}

// CancelRound drops a round and all of its transient storage. Only the
// creator may cancel; a closed-but-unresolved round is still cancellable.
func (s *Store) CancelRound(roundID, requester string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rounds[roundID]
	if !ok {
		return ErrRoundNotFound
	}
	if state.round.Creator != requester {
		return ErrNotCreator
	}

	delete(s.rounds, roundID)
	return nil
}

// RoundView returns the public shape of an active round. Caption texts
// are redacted until the window closes or the round resolves.
func (s *Store) RoundView(roundID string) (RoundView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rounds[roundID]
	if !ok {
		return RoundView{}, ErrRoundNotFound
	}

	now := s.nowUnix()
	visible := captionsVisible(state.round, now)
	captions := make([]CaptionView, 0, len(state.order))
	for _, author := range state.order {
		caption := state.captions[author]
		text := caption.Text
		if !visible {
			text = redactedCaption
		}
		captions = append(captions, CaptionView{
			Author:      author,
			Text:        text,
			SubmittedAt: caption.SubmittedAt,
		})
	}

	return RoundView{
		RoundID:          state.round.ID,
		ImageURL:         state.round.ImageURL,
		Category:         state.round.Category,
		Creator:          state.round.Creator,
		CreatedAt:        state.round.CreatedAt,
		Deadline:         state.round.Deadline,
		Resolved:         state.round.Resolved,
		Captions:         captions,
		ParticipantCount: len(state.order),
	}, nil
}

// ActiveRounds lists ids still inside their submission window, sorted
// for deterministic output.
func (s *Store) ActiveRounds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowUnix()
	active := make([]string, 0, len(s.rounds))
	for id, state := range s.rounds {
		if roundStatus(state.round, now) == StatusOpen {
			active = append(active, id)
		}
	}
	sort.Strings(active)
	return active
}

// ResolutionSnapshot checks the resolve preconditions and returns the
// round plus its participants in submission order. The judge call runs
// against this snapshot outside the lock; CommitResolution re-validates
// before anything is applied.
func (s *Store) ResolutionSnapshot(roundID string) (Round, []Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rounds[roundID]
	if !ok {
		return Round{}, nil, ErrRoundNotFound
	}
	now := s.nowUnix()
	if now <= state.round.Deadline {
		return Round{}, nil, ErrWindowStillOpen
	}
	if len(state.order) < 1 {
		return Round{}, nil, ErrNoParticipants
	}

	participants := make([]Participant, 0, len(state.order))
	for _, author := range state.order {
		participants = append(participants, Participant{
			Address: author,
			Text:    state.captions[author].Text,
		})
	}
	return state.round, participants, nil
}

// CommitResolution writes the permanent result and reclaims the round's
// transient storage in one locked step, freeing the id for reuse. It
// fails without mutating if the round vanished, was replaced by a new
// round under the same id, or changed participants since the snapshot
// was taken.
func (s *Store) CommitResolution(snapshot Round, result *RoundResult, snapshotCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rounds[snapshot.ID]
	if !ok {
		return ErrRoundNotFound
	}
	if state.round.gen != snapshot.gen || state.round.Resolved || len(state.order) != snapshotCount {
		return ErrRoundChanged
	}

	state.round.Resolved = true
	s.results[snapshot.ID] = result
	delete(s.rounds, snapshot.ID)
	return nil
}

// Result returns the permanent record for a resolved round id.
func (s *Store) Result(roundID string) (*RoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, ok := s.results[roundID]
	if !ok {
		return nil, ErrResultNotFound
	}
	copied := *result
	return &copied, nil
}

// RestoreResult loads a persisted result during startup.
func (s *Store) RestoreResult(result *RoundResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *result
	s.results[result.RoundID] = &copied
}

// Counter reports how many rounds have ever been created.
func (s *Store) Counter() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// participantCount reports the index size for an active round, zero if
// the round is gone. Used by tests to verify cleanup.
func (s *Store) participantCount(roundID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.rounds[roundID]
	if !ok {
		return 0
	}
	return len(state.order)
}
