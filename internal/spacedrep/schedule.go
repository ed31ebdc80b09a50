package spacedrep

import "math"

// WrongIntervals is the expanding re-ask schedule in days for an
// exercise answered wrong: first miss comes back tomorrow, then after
// 3 days, then weekly.
var WrongIntervals = []int{1, 3, 7}

// MinEasiness is the floor for the easiness factor. Below this the
// interval growth would collapse.
const MinEasiness = 1.3

// InitialEasiness is the easiness factor assigned to an exercise on
// first review.
const InitialEasiness = 2.5

// Review qualities. Wrong answers always score QualityWrong; correct
// answers score higher the less help and time they needed.
const (
	QualityWrong      = 1
	QualityHeavy      = 2 // correct with two or more hints
	QualityHinted     = 3 // correct with one hint
	QualityGood       = 4
	QualityEffortless = 5 // correct, no hints, clearly faster than usual
)

// fastFraction of the running average response time under which a
// clean answer counts as effortless.
const fastFraction = 0.7

// QualityFor maps one answer to a review quality.
func QualityFor(correct bool, hintsUsed int, responseSec, avgSec float64) int {
	if !correct {
		return QualityWrong
	}
	switch {
	case hintsUsed >= 2:
		return QualityHeavy
	case hintsUsed == 1:
		return QualityHinted
	}
	if avgSec > 0 && responseSec <= fastFraction*avgSec {
		return QualityEffortless
	}
	return QualityGood
}

// NextEasiness applies the SM-2 easiness update for a quality in 1..5.
func NextEasiness(ef float64, quality int) float64 {
	q := float64(quality)
	ef += 0.1 - (5-q)*(0.08+(5-q)*0.02)
	if ef < MinEasiness {
		ef = MinEasiness
	}
	return ef
}

// NextInterval returns the next review interval in days after a
// successful review. repetitions counts successful reviews including
// this one.
func NextInterval(repetitions, prevInterval int, ef float64) int {
	switch {
	case repetitions <= 1:
		return 1
	case repetitions == 2:
		return 6
	}
	next := int(math.Round(float64(prevInterval) * ef))
	if next < 1 {
		next = 1
	}
	return next
}

// WrongInterval returns the re-ask interval after the nth miss.
func WrongInterval(wrongCount int) int {
	if wrongCount < 1 {
		wrongCount = 1
	}
	if wrongCount > len(WrongIntervals) {
		wrongCount = len(WrongIntervals)
	}
	return WrongIntervals[wrongCount-1]
}
