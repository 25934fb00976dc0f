package recovery

import (
	"strings"
	"testing"
)

func fastParams() *KDFParams {
	return &KDFParams{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32}
}

func TestGenerateMnemonicProducesValidPhrase(t *testing.T) {
	m, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !ValidateMnemonic(m) {
		t.Fatalf("generated mnemonic failed checksum validation: %q", m)
	}
}

func TestValidateWordRejectsGarbage(t *testing.T) {
	if ValidateWord("notarealbip39word") {
		t.Fatal("expected garbage word to be rejected")
	}
	if !ValidateWord("ABANDON") {
		t.Fatal("expected case-insensitive match on a real wordlist entry")
	}
}

func TestSplitAndReconstructMnemonicRoundTrip(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	positions, err := selectChallengePositions(MnemonicWords, ChallengeCount)
	if err != nil {
		t.Fatalf("select positions: %v", err)
	}
	challenge, stored := splitWords(mnemonic, positions)
	if len(challenge) != ChallengeCount || len(stored) != MnemonicWords-ChallengeCount {
		t.Fatalf("unexpected split sizes: challenge=%d stored=%d", len(challenge), len(stored))
	}

	rebuilt, err := reconstructMnemonic(challenge, positions, stored)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if rebuilt != mnemonic {
		t.Fatalf("reconstructed mnemonic mismatch:\n got  %q\n want %q", rebuilt, mnemonic)
	}
}

func TestSetupThenPerformRecoveryRecoversSameKey(t *testing.T) {
	result, err := SetupRecovery(&SetupConfig{KDFParams: fastParams()})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	challengeWords, _ := splitWords(result.Mnemonic, result.Metadata.ChallengePositions)

	recoveredKey, err := PerformRecovery(&RecoveryConfig{
		ChallengeWords: challengeWords,
		Metadata:       result.Metadata,
	})
	if err != nil {
		t.Fatalf("perform recovery: %v", err)
	}
	if len(recoveredKey) != int(DefaultKeyLen) {
		t.Fatalf("unexpected key length: %d", len(recoveredKey))
	}
	if string(recoveredKey) != string(result.VaultRecoveryKey) {
		t.Fatal("recovered key does not match the key produced at setup")
	}
}

func TestPerformRecoveryRejectsWrongChallengeWord(t *testing.T) {
	result, err := SetupRecovery(&SetupConfig{KDFParams: fastParams()})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	challengeWords, _ := splitWords(result.Mnemonic, result.Metadata.ChallengePositions)
	if challengeWords[0] == "zoo" {
		challengeWords[0] = "abandon"
	} else {
		challengeWords[0] = "zoo"
	}

	if _, err := PerformRecovery(&RecoveryConfig{
		ChallengeWords: challengeWords,
		Metadata:       result.Metadata,
	}); err == nil {
		t.Fatal("expected recovery with a corrupted challenge word to fail")
	}
}

func TestPerformRecoveryWithPassphraseRequiresSamePassphrase(t *testing.T) {
	result, err := SetupRecovery(&SetupConfig{KDFParams: fastParams(), Passphrase: []byte("extra words")})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	challengeWords, _ := splitWords(result.Mnemonic, result.Metadata.ChallengePositions)

	if _, err := PerformRecovery(&RecoveryConfig{
		ChallengeWords: challengeWords,
		Metadata:       result.Metadata,
	}); err == nil {
		t.Fatal("expected recovery without the passphrase to fail")
	}

	recoveredKey, err := PerformRecovery(&RecoveryConfig{
		ChallengeWords: challengeWords,
		Passphrase:     []byte("extra words"),
		Metadata:       result.Metadata,
	})
	if err != nil {
		t.Fatalf("perform recovery with correct passphrase: %v", err)
	}
	if string(recoveredKey) != string(result.VaultRecoveryKey) {
		t.Fatal("recovered key does not match the key produced at setup")
	}
}

func TestVerifyBackupDetectsMismatch(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	positions, err := SelectVerifyPositions(VerifyCount)
	if err != nil {
		t.Fatalf("select verify positions: %v", err)
	}
	actual := strings.Fields(mnemonic)
	words := make([]string, len(positions))
	for i, p := range positions {
		words[i] = actual[p]
	}

	if err := VerifyBackup(&VerifyConfig{Mnemonic: mnemonic, VerifyPositions: positions, UserWords: words}); err != nil {
		t.Fatalf("expected correct transcription to verify, got %v", err)
	}

	words[0] = "definitely-wrong-word"
	if err := VerifyBackup(&VerifyConfig{Mnemonic: mnemonic, VerifyPositions: positions, UserWords: words}); err == nil {
		t.Fatal("expected a wrong word to fail verification")
	}
}

func TestShuffleChallengePositionsPreservesSetAndDoesNotMutateInput(t *testing.T) {
	positions := []int{1, 5, 9, 13, 17, 21}
	original := append([]int(nil), positions...)

	shuffled := ShuffleChallengePositions(positions)
	if len(shuffled) != len(original) {
		t.Fatalf("expected same length, got %d vs %d", len(shuffled), len(original))
	}
	for _, p := range original {
		found := false
		for _, s := range shuffled {
			if s == p {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("position %d missing from shuffled output", p)
		}
	}
	for i := range positions {
		if positions[i] != original[i] {
			t.Fatal("ShuffleChallengePositions must not mutate its input slice")
		}
	}
}
