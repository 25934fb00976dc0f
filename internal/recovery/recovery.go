// Package recovery implements BIP39-mnemonic-based vault recovery: a
// 24-word phrase is split into 6 challenge words (the user memorizes or
// stores these separately) and 18 stored words (kept, Argon2id-wrapped
// under a key derived from the challenge words, in the recovery metadata
// saved next to the vault file). Presenting the correct challenge words later reconstructs
// the full mnemonic and, from it, a vault recovery key equivalent to
// the master password.
package recovery

import (
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// RecoveryMetadata is the portion of this scheme that is persisted; the
// recoverystore package writes it to a sidecar file next to the vault.
type RecoveryMetadata struct {
	ChallengePositions []int      `json:"challenge_positions"`
	Salt               []byte     `json:"salt"`
	StoredWordsBlob    []byte     `json:"stored_words_blob"`
	KDFParams          *KDFParams `json:"kdf_params"`
	PassphraseEnabled  bool       `json:"passphrase_enabled"`
}

// SetupConfig configures recovery setup during vault initialization.
type SetupConfig struct {
	// Passphrase is an optional BIP39 25th-word passphrase. Empty means none.
	Passphrase []byte
	// KDFParams overrides the default Argon2id parameters.
	KDFParams *KDFParams
}

// SetupResult is the outcome of SetupRecovery.
type SetupResult struct {
	Mnemonic         string
	Metadata         *RecoveryMetadata
	VaultRecoveryKey []byte
}

// RecoveryConfig configures a recovery attempt.
type RecoveryConfig struct {
	ChallengeWords []string
	Passphrase     []byte
	Metadata       *RecoveryMetadata
}

// VerifyConfig configures backup verification (the "did you actually
// write this down" prompt shown right after setup).
type VerifyConfig struct {
	Mnemonic        string
	VerifyPositions []int
	UserWords       []string
}

// SetupRecovery generates a fresh mnemonic, splits it into challenge
// and stored words, and wraps the stored words so they are only
// recoverable by someone who can reproduce the challenge words.
func SetupRecovery(config *SetupConfig) (*SetupResult, error) {
	if config == nil {
		config = &SetupConfig{}
	}
	params := config.KDFParams
	if params == nil {
		params = DefaultKDFParams()
	}

	mnemonic, err := GenerateMnemonic()
	if err != nil {
		return nil, err
	}

	positions, err := selectChallengePositions(MnemonicWords, ChallengeCount)
	if err != nil {
		return nil, err
	}
	challengeWords, storedWords := splitWords(mnemonic, positions)

	salt, err := randomSalt()
	if err != nil {
		return nil, err
	}

	challengeKey := deriveKey([]byte(strings.Join(challengeWords, " ")), saltFromPassphrase(salt, config.Passphrase), params)
	storedBlob, err := encryptStoredWords(storedWords, challengeKey)
	if err != nil {
		return nil, err
	}

	seed := bip39.NewSeed(mnemonic, string(config.Passphrase))
	vaultRecoveryKey := deriveKey(seed, salt, params)

	return &SetupResult{
		Mnemonic: mnemonic,
		Metadata: &RecoveryMetadata{
			ChallengePositions: positions,
			Salt:               salt,
			StoredWordsBlob:    storedBlob,
			KDFParams:          params,
			PassphraseEnabled:  len(config.Passphrase) > 0,
		},
		VaultRecoveryKey: vaultRecoveryKey,
	}, nil
}

// PerformRecovery reconstructs the vault recovery key from
// user-supplied challenge words and the vault's stored recovery
// metadata. A wrong challenge word or passphrase surfaces as
// ErrDecryptionFailed or ErrInvalidMnemonic; it never partially
// succeeds.
func PerformRecovery(config *RecoveryConfig) ([]byte, error) {
	if config == nil || config.Metadata == nil {
		return nil, ErrRecoveryDisabled
	}
	meta := config.Metadata

	challengeKey := deriveKey([]byte(strings.Join(config.ChallengeWords, " ")), saltFromPassphrase(meta.Salt, config.Passphrase), meta.KDFParams)
	storedWords, err := decryptStoredWords(meta.StoredWordsBlob, challengeKey)
	if err != nil {
		return nil, err
	}

	mnemonic, err := reconstructMnemonic(config.ChallengeWords, meta.ChallengePositions, storedWords)
	if err != nil {
		return nil, err
	}

	seed := bip39.NewSeed(mnemonic, string(config.Passphrase))
	return deriveKey(seed, meta.Salt, meta.KDFParams), nil
}

// VerifyBackup checks that the user correctly transcribed the mnemonic
// by comparing their entered words against the actual words at
// VerifyPositions.
func VerifyBackup(config *VerifyConfig) error {
	if config == nil {
		return ErrVerificationFailed
	}
	if len(config.VerifyPositions) != len(config.UserWords) {
		return ErrVerificationFailed
	}
	words := strings.Fields(config.Mnemonic)
	for i, pos := range config.VerifyPositions {
		if pos < 0 || pos >= len(words) {
			return ErrVerificationFailed
		}
		if !strings.EqualFold(strings.TrimSpace(config.UserWords[i]), words[pos]) {
			return ErrVerificationFailed
		}
	}
	return nil
}
