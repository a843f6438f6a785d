package physics

import "math"

// ScoreResult is the end-of-episode grade.
type ScoreResult struct {
	NumericScore int    `json:"numeric_score"`
	LetterGrade  string `json:"letter_grade"`
	TempPoints   int    `json:"temp_points"`
	CostPoints   int    `json:"cost_points"`
	COPoints     int    `json:"co_points"`
}

// Score grades a finished episode from its final temperature error (°C),
// cumulative cost savings ($) and cumulative CO (kg). Sub-scores are fixed
// step functions worth 40/30/30 points; the function is total for any
// finite inputs.
func Score(tempError, costSavings, cumulativeCO float64) ScoreResult {
	r := ScoreResult{
		TempPoints: tempPoints(math.Abs(tempError)),
		CostPoints: costPoints(costSavings),
		COPoints:   coPoints(cumulativeCO),
	}
	r.NumericScore = r.TempPoints + r.CostPoints + r.COPoints
	r.LetterGrade = letterGrade(r.NumericScore)
	return r
}

func tempPoints(absErr float64) int {
	switch {
	case absErr <= 5:
		return 40
	case absErr <= 10:
		return 32
	case absErr <= 20:
		return 24
	case absErr <= 40:
		return 16
	case absErr <= 75:
		return 8
	default:
		return 0
	}
}

func costPoints(savings float64) int {
	switch {
	case savings >= 100:
		return 30
	case savings >= 50:
		return 24
	case savings >= 20:
		return 18
	case savings >= 0:
		return 12
	case savings >= -50:
		return 6
	default:
		return 0
	}
}

func coPoints(co float64) int {
	switch {
	case co <= 10:
		return 30
	case co <= 50:
		return 24
	case co <= 150:
		return 18
	case co <= 400:
		return 12
	case co <= 1000:
		return 6
	default:
		return 0
	}
}

func letterGrade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
