package recovery

import (
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// GenerateMnemonic generates a fresh 24-word BIP39 mnemonic from 256
// bits of entropy.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(EntropyBits)
	if err != nil {
		return "", ErrEntropyGeneration
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", ErrMnemonicGeneration
	}
	return mnemonic, nil
}

// ValidateWord reports whether word (case-insensitive) appears in the
// BIP39 English wordlist.
func ValidateWord(word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	for _, w := range bip39.GetWordList() {
		if w == word {
			return true
		}
	}
	return false
}

// ValidateMnemonic checks a full mnemonic's BIP39 checksum.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(mnemonic))
}
