package vaultengine

import "errors"

// Error taxonomy per spec.md §7. Engine operations return one of these
// sentinels (wrapped with context via fmt.Errorf %w) rather than ad-hoc
// error strings, so callers can branch with errors.Is.
var (
	// ErrInvalidPassword indicates the supplied password did not open
	// the vault's verifier. User-facing, recoverable by re-prompting.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrWeakPassword indicates the password failed the minimum-length
	// policy at create or change_password time.
	ErrWeakPassword = errors.New("password does not meet minimum requirements")

	// ErrAuthFailure indicates an AEAD tag mismatch on something other
	// than the password-gated verifier (e.g. unlock_with_stored_key
	// presenting a key that doesn't open the vault).
	ErrAuthFailure = errors.New("authentication failure")

	// ErrCorrupt indicates a structural format violation: invalid
	// magic, unsupported version, truncation, or other malformed framing.
	ErrCorrupt = errors.New("vault container is corrupt")

	// ErrIO indicates a filesystem failure from the storage driver.
	ErrIO = errors.New("vault storage I/O error")

	// ErrNotFound indicates an operation referenced an item id that
	// does not exist.
	ErrNotFound = errors.New("item not found")

	// ErrAuthCancelled indicates a biometric/user-presence prompt from
	// the keychain collaborator was cancelled.
	ErrAuthCancelled = errors.New("authentication cancelled")

	// ErrWrongState indicates an operation was invoked while the engine
	// was not in the state its contract requires (e.g. add_item while
	// Locked).
	ErrWrongState = errors.New("vault engine is not in the required state")
)

// MinPasswordLength is the minimum password length accepted by create
// and change_password, per spec.md §4.7's create precondition.
const MinPasswordLength = 8
