package game

import (
	"math/rand"

	"sifir-drill-service/internal/domain"
)

const (
	optionCount = 4
	maxOffset   = 5
	// maxDistractorDraws bounds the random accept/reject loop before the
	// deterministic fill takes over.
	maxDistractorDraws = 64
)

// QuestionSource produces the question for a 1-based question index.
type QuestionSource interface {
	Generate(index int) domain.Question
}

type operandRange struct {
	min, max int
}

// tierFor maps a question index to its difficulty tier.
func tierFor(index int) operandRange {
	switch {
	case index <= 5:
		return operandRange{min: 1, max: 5}
	case index <= 10:
		return operandRange{min: 2, max: 7}
	default:
		return operandRange{min: 4, max: 9}
	}
}

func (r operandRange) draw(rnd *rand.Rand) int {
	return r.min + rnd.Intn(r.max-r.min+1)
}

// Generator builds multiplication questions with adaptive difficulty.
// A Generator is owned by a single Session and is not safe for concurrent use.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator seeds a Generator from the system entropy source.
func NewGenerator() (*Generator, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewGeneratorWithSeed(seed), nil
}

// NewGeneratorWithSeed returns a reproducible Generator.
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

func (g *Generator) Generate(index int) domain.Question {
	tier := tierFor(index)
	num1 := tier.draw(g.rnd)
	num2 := tier.draw(g.rnd)
	answer := num1 * num2
	return domain.Question{
		Index:   index,
		Num1:    num1,
		Num2:    num2,
		Answer:  answer,
		Options: options(answer, g.rnd),
	}
}

// options returns answer plus three distinct positive distractors within
// maxOffset of it, shuffled.
func options(answer int, rnd *rand.Rand) []int {
	seen := map[int]struct{}{answer: {}}
	opts := make([]int, 0, optionCount)
	opts = append(opts, answer)

	for draws := 0; len(opts) < optionCount && draws < maxDistractorDraws; draws++ {
		offset := rnd.Intn(maxOffset) + 1
		if rnd.Intn(2) == 0 {
			offset = -offset
		}
		candidate := answer + offset
		if candidate <= 0 {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		opts = append(opts, candidate)
	}

	// Fallback when the draw budget runs out: walk upward from the answer.
	for next := answer + 1; len(opts) < optionCount; next++ {
		if _, ok := seen[next]; ok {
			continue
		}
		seen[next] = struct{}{}
		opts = append(opts, next)
	}

	rnd.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})
	return opts
}
