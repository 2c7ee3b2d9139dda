package server

import "context"

// Judgment is one request to the judging oracle: the prompt to evaluate
// plus the task description and free-text acceptance criteria the
// oracle's consensus layer checks replies against.
type Judgment struct {
	Task     string
	Criteria string
	Prompt   string
}

// JudgeOracle supplies a natural-language judgment for a prompt. By the
// time a reply reaches the engine it is already consensus-settled; the
// engine still runs its own schema and range validation, since the
// acceptance criteria are advisory text rather than an enforced type.
type JudgeOracle interface {
	Evaluate(ctx context.Context, judgment Judgment) (string, error)
}
