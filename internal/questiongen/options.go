package questiongen

import (
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/abhisek/screenwise/internal/screening"
)

// nearOffsets are tried first when picking numeric distractors.
var nearOffsets = []int{-3, -2, -1, 1, 2, 3}

// maxFillAttempts bounds the random fill phase. It only runs out for
// negative answers, where few positive distractors are reachable.
const maxFillAttempts = 200

// NumericOptions returns four distinct options containing correct, in
// random order. Three near offsets are drawn first, keeping positive
// unseen values; the rest is filled with random offsets in [-5, 5].
// Distractors are always positive.
func NumericOptions(correct int, rng *rand.Rand) []string {
	options := []string{strconv.Itoa(correct)}

	for range 3 {
		wrong := correct + nearOffsets[rng.IntN(len(nearOffsets))]
		if wrong > 0 && !slices.Contains(options, strconv.Itoa(wrong)) {
			options = append(options, strconv.Itoa(wrong))
		}
	}

	for attempts := 0; len(options) < screening.OptionCount && attempts < maxFillAttempts; attempts++ {
		wrong := correct + rng.IntN(11) - 5
		if wrong > 0 && !slices.Contains(options, strconv.Itoa(wrong)) {
			options = append(options, strconv.Itoa(wrong))
		}
	}
	for next := max(correct+1, 1); len(options) < screening.OptionCount; next++ {
		if !slices.Contains(options, strconv.Itoa(next)) {
			options = append(options, strconv.Itoa(next))
		}
	}

	rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return options
}

// letterWords maps each starting letter to its target word.
var letterWords = []struct {
	Letter string
	Word   string
}{
	{"A", "ant"},
	{"B", "bat"},
	{"C", "cat"},
	{"D", "dog"},
}

// letterQuestion builds the "find the word that starts with" question:
// the three other words in random order with the target inserted at a
// random position.
func letterQuestion(rng *rand.Rand) (string, []string, int) {
	target := letterWords[rng.IntN(len(letterWords))]

	others := make([]string, 0, len(letterWords)-1)
	for _, lw := range letterWords {
		if lw.Word != target.Word {
			others = append(others, lw.Word)
		}
	}
	rng.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })

	pos := rng.IntN(screening.OptionCount)
	options := slices.Insert(others, pos, target.Word)
	return `Find the word that starts with "` + target.Letter + `"`, options, pos
}
