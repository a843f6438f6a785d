package physics

import "testing"

func TestScorePerfectEpisode(t *testing.T) {
	r := Score(0, 100, 0)
	if r.NumericScore < 90 {
		t.Errorf("perfect episode scored %d, want >= 90", r.NumericScore)
	}
	if r.LetterGrade != "A" {
		t.Errorf("perfect episode graded %q, want A", r.LetterGrade)
	}
}

func TestScoreBlownEpisode(t *testing.T) {
	r := Score(100, -50, 2000)
	if r.NumericScore >= 10 {
		t.Errorf("blown episode scored %d, want single digits", r.NumericScore)
	}
	if r.LetterGrade != "F" {
		t.Errorf("blown episode graded %q, want F", r.LetterGrade)
	}
}

func TestScoreNegativeTempErrorSymmetric(t *testing.T) {
	hot := Score(15, 50, 20)
	cold := Score(-15, 50, 20)
	if hot.NumericScore != cold.NumericScore {
		t.Errorf("temperature error sign should not matter: %d vs %d", hot.NumericScore, cold.NumericScore)
	}
}

func TestScoreBounds(t *testing.T) {
	tests := []struct {
		name               string
		tempErr, cost, co  float64
	}{
		{"zeros", 0, 0, 0},
		{"huge_miss", 1e6, -1e6, 1e6},
		{"perfect", 0, 1e6, 0},
		{"negative_co_is_still_clean", 0, 100, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Score(tt.tempErr, tt.cost, tt.co)
			if r.NumericScore < 0 || r.NumericScore > 100 {
				t.Errorf("score %d out of [0,100]", r.NumericScore)
			}
			if r.NumericScore != r.TempPoints+r.CostPoints+r.COPoints {
				t.Errorf("score %d does not equal sub-score sum", r.NumericScore)
			}
		})
	}
}

func TestLetterGradeBoundaries(t *testing.T) {
	tests := []struct {
		score int
		grade string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {80, "B"},
		{79, "C"}, {70, "C"}, {69, "D"}, {60, "D"},
		{59, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		if got := letterGrade(tt.score); got != tt.grade {
			t.Errorf("letterGrade(%d) = %q, want %q", tt.score, got, tt.grade)
		}
	}
}

func TestTempPointsDescending(t *testing.T) {
	prev := 41
	for _, err := range []float64{0, 6, 15, 30, 60, 100} {
		pts := tempPoints(err)
		if pts >= prev {
			t.Errorf("tempPoints(%.0f) = %d should descend below %d", err, pts, prev)
		}
		prev = pts
	}
}
