package engine

import (
	"fmt"
	"math/rand/v2"
)

// Deck returns the unshuffled card values 1,1,2,2,...,8,8
func Deck() []int {
	numbers := make([]int, 0, CardCount)
	for n := 1; n <= PairCount; n++ {
		numbers = append(numbers, n, n)
	}
	return numbers
}

// Shuffle returns a uniformly random permutation of the deck. A nil rng uses
// the package-level source.
func Shuffle(rng *rand.Rand) []int {
	numbers := Deck()
	swap := func(i, j int) {
		numbers[i], numbers[j] = numbers[j], numbers[i]
	}
	if rng == nil {
		rand.Shuffle(len(numbers), swap)
	} else {
		rng.Shuffle(len(numbers), swap)
	}
	return numbers
}

// ValidateDeck checks that numbers holds every value in 1..8 exactly twice
func ValidateDeck(numbers []int) error {
	if len(numbers) != CardCount {
		return fmt.Errorf("deck must have %d cards, got %d", CardCount, len(numbers))
	}
	var counts [PairCount + 1]int
	for i, n := range numbers {
		if n < 1 || n > PairCount {
			return fmt.Errorf("card %d has value %d outside 1..%d", i, n, PairCount)
		}
		counts[n]++
	}
	for n := 1; n <= PairCount; n++ {
		if counts[n] != 2 {
			return fmt.Errorf("value %d appears %d times, want 2", n, counts[n])
		}
	}
	return nil
}

// InBounds reports whether x,y addresses a cell on the board
func InBounds(x, y int) bool {
	return 0 <= x && x < GridSize && 0 <= y && y < GridSize
}

// deckIndex maps grid coordinates to an index in the shuffled deck
func deckIndex(x, y int) int {
	return GridSize*x + y
}

func mustInBounds(x, y int) {
	if !InBounds(x, y) {
		panic(fmt.Sprintf("engine: card coordinates (%d, %d) out of range [0,%d)", x, y, GridSize))
	}
}
