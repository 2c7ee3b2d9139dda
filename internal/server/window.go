package server

// Round status is never stored; it is a pure function of the clock
// against the stored deadline, evaluated on every read and write that
// touches the round. Resolved and cancelled rounds are deleted outright,
// so only the open/closed distinction is ever observable.
type RoundStatus string

const (
	StatusOpen   RoundStatus = "open"
	StatusClosed RoundStatus = "closed"
)

func roundStatus(round Round, now int64) RoundStatus {
	if !round.Resolved && now <= round.Deadline {
		return StatusOpen
	}
	return StatusClosed
}

// captionsVisible gates entry texts: hidden while the window is open so
// late entrants cannot crib from earlier submissions, revealed once the
// deadline passes or the round resolves.
func captionsVisible(round Round, now int64) bool {
	return now > round.Deadline || round.Resolved
}
