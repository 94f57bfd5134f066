package domain

import "time"

// Player identifies who is playing a drill session.
type Player struct {
	Name      string `json:"name"`
	ClassName string `json:"className"`
}

// Question is a single multiplication prompt with four answer options.
type Question struct {
	Index   int   `json:"index"`
	Num1    int   `json:"num1"`
	Num2    int   `json:"num2"`
	Answer  int   `json:"-"`
	Options []int `json:"options"`
}

// Phase is the lifecycle stage of a drill session.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseAwaitingAnswer
	PhaseRoundResolved
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseRoundResolved:
		return "round_resolved"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Outcome classifies how a round ended.
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
	OutcomeTimeout Outcome = "timeout"
)

// GameResult is handed to the session-end collaborator exactly once.
type GameResult struct {
	FinalScore   int `json:"finalScore"`
	CorrectCount int `json:"correctCount"`
}

// AnswerSubmission models an answer sent by a client.
// QuestionIndex of zero means "whatever question is current".
type AnswerSubmission struct {
	QuestionIndex int
	Selected      int
}

// ScoreRecord is the best ranked score kept per player.
type ScoreRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ClassName string    `json:"className"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// Leaderboard captures an ordered, optionally filtered view of score records.
type Leaderboard struct {
	Class     string        `json:"class"`
	Classes   []string      `json:"classes"`
	Entries   []ScoreRecord `json:"entries"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
