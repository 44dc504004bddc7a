package questiongen

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/abhisek/screenwise/internal/screening"
)

// Symbols used by counting questions.
const (
	starSymbol  = "⭐"
	decoySymbol = "🔵"
)

// markerProbability is the chance each position in a counting string
// holds the marker rather than a decoy.
const markerProbability = 0.7

// DefaultBank returns the built-in template bank. Every cell of the
// supported domains and difficulties is populated.
func DefaultBank() Bank {
	return Bank{
		screening.DomainReading: {
			screening.DifficultyEasy: {
				{Build: letterQuestion},
				{Text: `Which word rhymes with "cat"?`, Options: []string{"dog", "bat", "car", "sun"}, Correct: 1},
				{Text: `What letter does "apple" start with?`, Options: []string{"B", "A", "C", "D"}, Correct: 1},
			},
			screening.DifficultyMedium: {
				{Text: `What is the opposite of "hot"?`, Options: []string{"sad", "cold", "small", "down"}, Correct: 1},
				{Text: `Which word means the same as "happy"?`, Options: []string{"sad", "joyful", "angry", "tired"}, Correct: 1},
				{Text: "Complete: The dog ___ fast", Options: []string{"run", "runs", "running", "ran"}, Correct: 1},
			},
			screening.DifficultyHard: {
				{Text: "Complete the sentence: She ___ to school yesterday", Options: []string{"go", "went", "goes", "going"}, Correct: 1},
				{Text: "Which word is spelled correctly?", Options: []string{"recieve", "receive", "recive", "receeve"}, Correct: 1},
				{Text: `What is the past tense of "swim"?`, Options: []string{"swam", "swimmed", "swum", "swimming"}, Correct: 0},
			},
		},
		screening.DomainWriting: {
			screening.DifficultyEasy: {
				{Text: "Which word is spelled correctly?", Options: []string{"cat", "kat", "catt", "cta"}, Correct: 0},
				{Text: "Which letter is missing from d_g, an animal that barks?", Options: []string{"a", "o", "i", "e"}, Correct: 1},
				{Text: "Which word should start with a capital letter?", Options: []string{"apple", "paris", "table", "green"}, Correct: 1},
			},
			screening.DifficultyMedium: {
				{Text: "Choose the correct word: I have ___ apples.", Options: []string{"to", "two", "too", "tow"}, Correct: 1},
				{Text: "Which word is spelled correctly?", Options: []string{"freind", "friend", "frend", "frient"}, Correct: 1},
				{Text: "Which sentence is written correctly?", Options: []string{"where are you going?", "Where are you going?", "Where are you going,", "where are you going"}, Correct: 1},
			},
			screening.DifficultyHard: {
				{Text: "Choose the correct word: ___ going to the park.", Options: []string{"Their", "There", "They're", "Theyre"}, Correct: 2},
				{Text: "Which word is spelled correctly?", Options: []string{"necessary", "neccessary", "necesary", "neccesary"}, Correct: 0},
				{Text: `What is the plural of "child"?`, Options: []string{"childs", "children", "childes", "childrens"}, Correct: 1},
			},
		},
		screening.DomainMath: {
			screening.DifficultyEasy: {
				{Build: addition},
				{Build: subtraction},
				{Text: "Count: " + strings.Repeat(starSymbol, 5), Options: []string{"3", "4", "5", "6"}, Correct: 2},
			},
			screening.DifficultyMedium: {
				{Build: multiplication},
				{Build: division},
				{Text: "What comes next: 2, 4, 6, 8, ?", Options: []string{"9", "10", "11", "12"}, Correct: 1},
			},
			screening.DifficultyHard: {
				{Build: twoStep},
				{Text: "If 3x = 12, what is x?", Options: []string{"3", "4", "5", "6"}, Correct: 1},
				{Text: "What is 15% of 60?", Options: []string{"6", "7", "8", "9"}, Correct: 3},
			},
		},
		screening.DomainAttention: {
			screening.DifficultyEasy: {
				{Build: countStars},
				{Text: "Which shape is different? 🔵🔵🔴🔵", Options: []string{"1st", "2nd", "3rd", "4th"}, Correct: 2},
				{Text: "Find the number: A B 3 C D", Options: []string{"A", "B", "3", "C"}, Correct: 2},
			},
			screening.DifficultyMedium: {
				{Text: "What comes next: 2, 4, 6, 8, ?", Options: []string{"9", "10", "11", "12"}, Correct: 1},
				{Text: "Pattern: ▲▼▲▼▲?", Options: []string{"▲", "▼", "●", "■"}, Correct: 1},
				{Text: "Which is the odd one out: 2, 4, 5, 8", Options: []string{"2", "4", "5", "8"}, Correct: 2},
			},
			screening.DifficultyHard: {
				{Text: "Find the pattern: 1, 1, 2, 3, 5, 8, ?", Options: []string{"10", "11", "13", "15"}, Correct: 2},
				{Text: "Complete: A1, B2, C3, D?", Options: []string{"3", "4", "E4", "D4"}, Correct: 1},
				{Text: "What number is missing: 2, 4, _, 8, 10", Options: []string{"5", "6", "7", "8"}, Correct: 1},
			},
		},
	}
}

func numeric(text string, answer int, rng *rand.Rand) (string, []string, int) {
	options := NumericOptions(answer, rng)
	correct := 0
	for i, o := range options {
		if o == strconv.Itoa(answer) {
			correct = i
		}
	}
	return text, options, correct
}

// between returns a uniform integer in [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

func addition(rng *rand.Rand) (string, []string, int) {
	a, b := between(rng, 1, 10), between(rng, 1, 10)
	return numeric(fmt.Sprintf("What is %d + %d?", a, b), a+b, rng)
}

func subtraction(rng *rand.Rand) (string, []string, int) {
	a := between(rng, 5, 15)
	b := between(rng, 1, a-1)
	return numeric(fmt.Sprintf("What is %d - %d?", a, b), a-b, rng)
}

func multiplication(rng *rand.Rand) (string, []string, int) {
	a, b := between(rng, 2, 9), between(rng, 2, 9)
	return numeric(fmt.Sprintf("What is %d × %d?", a, b), a*b, rng)
}

// division builds the dividend from the answer so the result is exact.
func division(rng *rand.Rand) (string, []string, int) {
	b := between(rng, 2, 5)
	answer := between(rng, 2, 10)
	return numeric(fmt.Sprintf("What is %d ÷ %d?", answer*b, b), answer, rng)
}

func twoStep(rng *rand.Rand) (string, []string, int) {
	a, b, c := between(rng, 2, 5), between(rng, 2, 5), between(rng, 1, 10)
	return numeric(fmt.Sprintf("Solve: %d × %d + %d", a, b, c), a*b+c, rng)
}

// countStars builds a string of count+5 symbols, each a star with
// probability markerProbability, and asks for the number of stars.
func countStars(rng *rand.Rand) (string, []string, int) {
	count := between(rng, 5, 12)
	var b strings.Builder
	stars := 0
	for range count + 5 {
		if rng.Float64() < markerProbability {
			b.WriteString(starSymbol)
			stars++
		} else {
			b.WriteString(decoySymbol)
		}
	}
	return numeric(fmt.Sprintf("Count the %ss: %s", starSymbol, b.String()), stars, rng)
}
