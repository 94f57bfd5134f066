package game

import "sifir-drill-service/internal/domain"

// UpdateType tags an Update for clients.
type UpdateType string

const (
	UpdateQuestion UpdateType = "question"
	UpdateTick     UpdateType = "tick"
	UpdateRound    UpdateType = "round"
	UpdateSound    UpdateType = "sound"
	UpdateGameOver UpdateType = "gameOver"
	UpdateRanked   UpdateType = "ranked"
	UpdateState    UpdateType = "state"
)

// Update is a client-facing notification about a session.
type Update struct {
	Type    UpdateType `json:"type"`
	Payload any        `json:"payload"`
}

// QuestionView is a question without its answer.
type QuestionView struct {
	Index          int     `json:"index"`
	Num1           int     `json:"num1"`
	Num2           int     `json:"num2"`
	Options        []int   `json:"options"`
	TimeoutSeconds float64 `json:"timeoutSeconds"`
}

type TickView struct {
	Remaining int `json:"remaining"`
}

type RoundView struct {
	QuestionIndex int            `json:"questionIndex"`
	Outcome       domain.Outcome `json:"outcome"`
	Answer        int            `json:"answer"`
	Awarded       int            `json:"awarded"`
	Combo         int            `json:"combo"`
	Score         int            `json:"score"`
	Lives         int            `json:"lives"`
	CorrectCount  int            `json:"correctCount"`
}

type SoundView struct {
	Cue Cue `json:"cue"`
}

type RankedView struct {
	FinalScore   int  `json:"finalScore"`
	CorrectCount int  `json:"correctCount"`
	Ranked       bool `json:"ranked"`
}

// StateView is a full snapshot, sent to new subscribers.
type StateView struct {
	Phase            string        `json:"phase"`
	Score            int           `json:"score"`
	Lives            int           `json:"lives"`
	Combo            int           `json:"combo"`
	CorrectCount     int           `json:"correctCount"`
	QuestionIndex    int           `json:"questionIndex"`
	RemainingSeconds int           `json:"remainingSeconds"`
	Question         *QuestionView `json:"question,omitempty"`
}

// View renders s for clients; the answer to the current question is withheld.
func (s State) View(cfg Config) StateView {
	v := StateView{
		Phase:            s.Phase.String(),
		Score:            s.Score,
		Lives:            s.Lives,
		Combo:            s.Combo,
		CorrectCount:     s.CorrectCount,
		QuestionIndex:    s.QuestionIndex,
		RemainingSeconds: s.RemainingSeconds,
	}
	if s.Current != nil {
		v.Question = &QuestionView{
			Index:          s.Current.Index,
			Num1:           s.Current.Num1,
			Num2:           s.Current.Num2,
			Options:        append([]int(nil), s.Current.Options...),
			TimeoutSeconds: cfg.QuestionTimeout.Seconds(),
		}
	}
	return v
}
