package recovery

import (
	"crypto/rand"
	"math/big"
	"sort"
	"strings"
)

// selectChallengePositions picks count crypto-random unique positions
// in [0, totalWords), returned sorted ascending.
func selectChallengePositions(totalWords, count int) ([]int, error) {
	if count <= 0 || count > totalWords {
		return nil, ErrInvalidCount
	}

	seen := make(map[int]struct{}, count)
	positions := make([]int, 0, count)
	for len(positions) < count {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(totalWords)))
		if err != nil {
			return nil, ErrRandomGeneration
		}
		pos := int(n.Int64())
		if _, dup := seen[pos]; dup {
			continue
		}
		seen[pos] = struct{}{}
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	return positions, nil
}

// SelectVerifyPositions randomly selects count positions (out of the
// full 24-word mnemonic) for backup verification.
func SelectVerifyPositions(count int) ([]int, error) {
	return selectChallengePositions(MnemonicWords, count)
}

// splitWords splits a full mnemonic into the words at challengePos
// (returned in the order challengePos lists them) and the remaining
// stored words (in their original mnemonic order).
func splitWords(mnemonic string, challengePos []int) (challenge, stored []string) {
	words := strings.Fields(mnemonic)
	isChallenge := make(map[int]bool, len(challengePos))
	for _, p := range challengePos {
		isChallenge[p] = true
	}

	challenge = make([]string, len(challengePos))
	for i, p := range challengePos {
		if p < 0 || p >= len(words) {
			continue
		}
		challenge[i] = words[p]
	}

	for i, w := range words {
		if !isChallenge[i] {
			stored = append(stored, w)
		}
	}
	return challenge, stored
}

// ShuffleChallengePositions returns a randomized copy of positions, so
// the recovery prompt doesn't reveal the mnemonic's original word
// order.
func ShuffleChallengePositions(positions []int) []int {
	shuffled := append([]int(nil), positions...)
	for i := len(shuffled) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			continue
		}
		j := int(n.Int64())
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// reconstructMnemonic interleaves challengeWords back into their
// original positions among storedWords to rebuild the full 24-word
// mnemonic.
func reconstructMnemonic(challengeWords []string, challengePos []int, storedWords []string) (string, error) {
	total := len(challengeWords) + len(storedWords)
	if total != MnemonicWords {
		return "", ErrInvalidMnemonic
	}
	if len(challengeWords) != len(challengePos) {
		return "", ErrInvalidPositions
	}

	words := make([]string, total)
	isChallenge := make(map[int]bool, len(challengePos))
	for _, p := range challengePos {
		if p < 0 || p >= total {
			return "", ErrInvalidPositions
		}
		isChallenge[p] = true
	}
	for i, p := range challengePos {
		words[p] = challengeWords[i]
	}

	si := 0
	for i := 0; i < total; i++ {
		if isChallenge[i] {
			continue
		}
		if si >= len(storedWords) {
			return "", ErrInvalidMnemonic
		}
		words[i] = storedWords[si]
		si++
	}

	mnemonic := strings.Join(words, " ")
	if !ValidateMnemonic(mnemonic) {
		return "", ErrInvalidMnemonic
	}
	return mnemonic, nil
}
