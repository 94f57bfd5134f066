package game

import (
	"testing"
	"time"

	"sifir-drill-service/internal/domain"
)

func TestEvaluateSpeedBonusBoundary(t *testing.T) {
	cases := []struct {
		name    string
		latency time.Duration
		want    int
	}{
		{"just under", 4999 * time.Millisecond, 15},
		{"exactly at limit", 5 * time.Second, 10},
		{"slow", 9 * time.Second, 10},
		{"instant", 0, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Evaluate(domain.OutcomeCorrect, tc.latency, 0)
			if d.Score != tc.want {
				t.Fatalf("expected %d points, got %d", tc.want, d.Score)
			}
			if d.Combo != 1 || d.Lives != 0 {
				t.Fatalf("expected combo 1 and no life change, got %+v", d)
			}
		})
	}
}

func TestEvaluateComboBonusEveryThird(t *testing.T) {
	combo := 0
	wantScores := []int{10, 10, 30, 10, 10, 30}
	for i, want := range wantScores {
		d := Evaluate(domain.OutcomeCorrect, 6*time.Second, combo)
		if d.Score != want {
			t.Fatalf("answer %d: expected %d points, got %d", i+1, want, d.Score)
		}
		if d.Combo != i+1 {
			t.Fatalf("answer %d: expected combo %d, got %d", i+1, i+1, d.Combo)
		}
		combo = d.Combo
	}
}

func TestEvaluateFailureResetsCombo(t *testing.T) {
	for _, outcome := range []domain.Outcome{domain.OutcomeWrong, domain.OutcomeTimeout} {
		for _, prior := range []int{0, 2, 7} {
			d := Evaluate(outcome, time.Second, prior)
			if d != (Delta{Score: 0, Combo: 0, Lives: -1}) {
				t.Fatalf("%s with combo %d: unexpected delta %+v", outcome, prior, d)
			}
		}
	}
}

func TestRulesCustomThreshold(t *testing.T) {
	rules := Rules{SpeedBonusWithin: 2 * time.Second}
	if d := rules.Evaluate(domain.OutcomeCorrect, 3*time.Second, 0); d.Score != 10 {
		t.Fatalf("expected no speed bonus, got %d", d.Score)
	}
}
