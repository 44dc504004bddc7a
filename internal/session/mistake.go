package session

import (
	"strconv"
	"strings"

	"github.com/abhisek/screenwise/internal/screening"
)

var mirrorLetters = map[rune]rune{
	'b': 'd', 'd': 'b',
	'p': 'q', 'q': 'p',
	'm': 'w', 'w': 'm',
	'n': 'u', 'u': 'n',
}

// InferMistake tags a wrong choice the way the game clients do when the
// learner answers on their own: mirror-letter confusions are reversals,
// reversed digits are number reversals, and anything else gets the
// domain's default mistake. Correct choices get MistakeNone.
func InferMistake(q screening.QuestionSpec, chosen string) screening.MistakeType {
	if chosen == q.CorrectOption {
		return screening.MistakeNone
	}
	if mirrored(chosen, q.CorrectOption) {
		return screening.MistakeLetterReversal
	}
	if digitsReversed(chosen, q.CorrectOption) {
		return screening.MistakeNumberReversal
	}

	switch q.Domain {
	case screening.DomainReading:
		return screening.MistakeSubstitution
	case screening.DomainWriting:
		return screening.MistakeSpellingError
	case screening.DomainMath:
		return screening.MistakeCalculationError
	case screening.DomainAttention:
		return screening.MistakeSequenceError
	}
	return screening.MistakeSubstitution
}

// mirrored reports whether a and b differ only in mirror-letter pairs.
func mirrored(a, b string) bool {
	ra, rb := []rune(strings.ToLower(a)), []rune(strings.ToLower(b))
	if len(ra) != len(rb) {
		return false
	}
	swaps := 0
	for i := range ra {
		if ra[i] == rb[i] {
			continue
		}
		if m, ok := mirrorLetters[ra[i]]; !ok || m != rb[i] {
			return false
		}
		swaps++
	}
	return swaps > 0
}

func digitsReversed(a, b string) bool {
	if len(a) < 2 || len(a) != len(b) {
		return false
	}
	if _, err := strconv.Atoi(a); err != nil {
		return false
	}
	if _, err := strconv.Atoi(b); err != nil {
		return false
	}
	r := []rune(a)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r) == b
}
