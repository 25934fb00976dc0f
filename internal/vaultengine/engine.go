// Package vaultengine implements the vault's lock/unlock state machine,
// CRUD over items, and the key lifecycle that guards them. It is the
// single logical actor spec.md §5 describes: state-transition and
// mutation operations run under an exclusive lock, while reads (search,
// snapshotting) may run concurrently with each other but never with a
// mutation.
package vaultengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/dodoapps/dodopass/internal/auditlog"
	"github.com/dodoapps/dodopass/internal/cryptocore"
	"github.com/dodoapps/dodopass/internal/item"
	"github.com/dodoapps/dodopass/internal/searchindex"
	"github.com/dodoapps/dodopass/internal/secretbuf"
	"github.com/dodoapps/dodopass/internal/storage"
	"github.com/dodoapps/dodopass/internal/vaultformat"
)

// State is one of the Vault Engine's state machine states, per
// spec.md §4.7.
type State string

const (
	StateEmpty     State = "empty"
	StateLocked    State = "locked"
	StateUnlocking State = "unlocking"
	StateUnlocked  State = "unlocked"
	StateLocking   State = "locking"
)

// verifierPlaintext is the fixed known plaintext the verifier blob
// seals. Its content carries no meaning beyond being reproducible and
// small — the engine reuses the container's own magic bytes per
// spec.md §9's resolution of the "authentication tag" open question.
var verifierPlaintext = []byte(vaultformat.Magic[:])

// Engine is the vault's lock/unlock state machine and the sole owner of
// decrypted item state while Unlocked.
type Engine struct {
	mu sync.RWMutex

	driver   storage.Driver
	clientID string
	iters    int
	audit    *auditlog.Logger
	events   eventBus

	state State

	// Populated only while Unlocked (or transiently during Unlocking).
	keys         *cryptocore.KeySet
	salt         []byte
	verifierBlob []byte
	metadata     *Metadata
	items        map[string]*item.Record
	index        *searchindex.Index
}

// New returns an Engine backed by driver. It probes the driver to
// determine the initial state: Empty if no vault file exists yet,
// Locked otherwise.
func New(driver storage.Driver, clientID string, opts ...Option) *Engine {
	e := &Engine{
		driver:   driver,
		clientID: clientID,
		iters:    cryptocore.DefaultIterations,
	}
	for _, opt := range opts {
		opt(e)
	}
	if driver.Exists() {
		e.state = StateLocked
	} else {
		e.state = StateEmpty
	}
	return e
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithAuditLogger attaches an audit log sink.
func WithAuditLogger(l *auditlog.Logger) Option {
	return func(e *Engine) { e.audit = l }
}

// WithIterations overrides the PBKDF2 iteration count (test-only
// escape hatch; production code should accept cryptocore's default).
func WithIterations(n int) Option {
	return func(e *Engine) { e.iters = n }
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Subscribe returns a channel of state-change events. The channel is
// buffered; slow subscribers miss events rather than blocking the
// engine.
func (e *Engine) Subscribe(buffer int) <-chan Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events.subscribe(buffer)
}

func (e *Engine) logAudit(category auditlog.Category, eventType, outcome, itemTitle string) {
	if e.audit == nil {
		return
	}
	_ = e.audit.Log(auditlog.Entry{
		Category:  category,
		EventType: eventType,
		Level:     auditlog.LevelInfo,
		Outcome:   outcome,
		ItemTitle: itemTitle,
	})
}

// Create transitions Empty -> Unlocked: generates a fresh salt,
// derives the key hierarchy, writes an empty vault, and leaves the
// engine unlocked with the newly created state in memory.
func (e *Engine) Create(password string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateEmpty {
		return fmt.Errorf("%w: create requires state=Empty, got %s", ErrWrongState, e.state)
	}
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}

	salt, err := cryptocore.GenerateSalt()
	if err != nil {
		return fmt.Errorf("%w: generate salt: %v", ErrIO, err)
	}
	keys, err := cryptocore.DeriveKeySet([]byte(password), salt, e.iters)
	if err != nil {
		return fmt.Errorf("%w: derive keys: %v", ErrIO, err)
	}

	metadata := newMetadata(e.clientID)
	items := make(map[string]*item.Record)

	verifierBlob, metadataBlob, itemsBlob, err := sealAll(keys.VaultKey.Bytes(), metadata, items)
	if err != nil {
		keys.Destroy()
		return fmt.Errorf("%w: seal vault: %v", ErrIO, err)
	}

	container := &vaultformat.Container{
		Version:      vaultformat.CurrentVersion,
		Salt:         salt,
		VerifierBlob: verifierBlob,
		MetadataBlob: metadataBlob,
		ItemsBlob:    itemsBlob,
	}
	encoded, err := vaultformat.Encode(container)
	if err != nil {
		keys.Destroy()
		return fmt.Errorf("%w: encode container: %v", ErrIO, err)
	}
	if err := e.driver.Write(encoded); err != nil {
		keys.Destroy()
		return fmt.Errorf("%w: write vault: %v", ErrIO, err)
	}

	e.keys = keys
	e.salt = salt
	e.verifierBlob = verifierBlob
	e.metadata = metadata
	e.items = items
	e.index = searchindex.New(keys.SearchKey.Bytes())
	e.state = StateUnlocked

	e.logAudit(auditlog.CategoryVault, auditlog.EventVaultCreate, auditlog.OutcomeSuccess, "")
	e.events.publish(Event{Kind: EventUnlocked})
	return nil
}

// Unlock transitions Locked -> Unlocking -> Unlocked. It is cancellable
// via ctx during the PBKDF2 derivation and the I/O read; on
// cancellation it returns to Locked, and any key set the abandoned
// derivation still produces is zeroized when it completes.
func (e *Engine) Unlock(ctx context.Context, password string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateLocked {
		return fmt.Errorf("%w: unlock requires state=Locked, got %s", ErrWrongState, e.state)
	}
	e.state = StateUnlocking

	raw, err := e.readWithCancellation(ctx)
	if err != nil {
		e.state = StateLocked
		return err
	}

	container, err := vaultformat.Decode(raw)
	if err != nil {
		e.state = StateLocked
		e.logAudit(auditlog.CategoryVault, auditlog.EventVaultUnlock, auditlog.OutcomeFailure, "")
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	keys, err := e.deriveWithCancellation(ctx, []byte(password), container.Salt)
	if err != nil {
		e.state = StateLocked
		return err
	}

	if _, err := cryptocore.Open(keys.VaultKey.Bytes(), container.VerifierBlob, verifierPlaintext); err != nil {
		keys.Destroy()
		e.state = StateLocked
		e.logAudit(auditlog.CategoryAuth, auditlog.EventVaultUnlock, auditlog.OutcomeFailure, "")
		return ErrInvalidPassword
	}

	metadata, items, err := e.openAndMigrate(keys.VaultKey.Bytes(), container)
	if err != nil {
		keys.Destroy()
		e.state = StateLocked
		e.logAudit(auditlog.CategoryVault, auditlog.EventVaultUnlock, auditlog.OutcomeFailure, "")
		return err
	}

	e.keys = keys
	e.salt = container.Salt
	e.verifierBlob = container.VerifierBlob
	e.metadata = metadata
	e.items = items
	e.index = searchindex.New(keys.SearchKey.Bytes())
	for _, r := range items {
		e.index.Add(r)
	}
	e.state = StateUnlocked

	e.logAudit(auditlog.CategoryVault, auditlog.EventVaultUnlock, auditlog.OutcomeSuccess, "")
	e.events.publish(Event{Kind: EventUnlocked})
	return nil
}

// UnlockWithStoredKey transitions Locked -> Unlocked using a master key
// retrieved from an external keychain collaborator, skipping PBKDF2
// entirely. A key that doesn't open the verifier is treated as
// AuthFailure rather than InvalidPassword, since no password was
// presented to judge.
func (e *Engine) UnlockWithStoredKey(masterKey []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateLocked {
		return fmt.Errorf("%w: unlock requires state=Locked, got %s", ErrWrongState, e.state)
	}
	e.state = StateUnlocking

	raw, err := e.driver.Read()
	if err != nil {
		e.state = StateLocked
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	container, err := vaultformat.Decode(raw)
	if err != nil {
		e.state = StateLocked
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	master := secretbuf.Wrap(masterKey)
	keys, err := cryptocore.DeriveSubKeys(master)
	if err != nil {
		e.state = StateLocked
		return fmt.Errorf("%w: derive sub-keys: %v", ErrAuthFailure, err)
	}

	if _, err := cryptocore.Open(keys.VaultKey.Bytes(), container.VerifierBlob, verifierPlaintext); err != nil {
		keys.Destroy()
		e.state = StateLocked
		e.logAudit(auditlog.CategoryAuth, auditlog.EventVaultUnlock, auditlog.OutcomeFailure, "")
		return ErrAuthFailure
	}

	metadata, items, err := e.openAndMigrate(keys.VaultKey.Bytes(), container)
	if err != nil {
		keys.Destroy()
		e.state = StateLocked
		return err
	}

	e.keys = keys
	e.salt = container.Salt
	e.verifierBlob = container.VerifierBlob
	e.metadata = metadata
	e.items = items
	e.index = searchindex.New(keys.SearchKey.Bytes())
	for _, r := range items {
		e.index.Add(r)
	}
	e.state = StateUnlocked

	e.logAudit(auditlog.CategoryAuth, auditlog.EventVaultUnlock, auditlog.OutcomeSuccess, "")
	e.events.publish(Event{Kind: EventUnlocked})
	return nil
}

// Lock transitions Unlocked -> Locking -> Locked: zeroizes the key set,
// drops plaintext items and the search index, and emits an audit event.
// Idempotent — locking an already-Locked or Empty engine is a no-op.
func (e *Engine) Lock() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUnlocked {
		return
	}
	e.state = StateLocking

	if e.keys != nil {
		e.keys.Destroy()
		e.keys = nil
	}
	e.items = nil
	e.index = nil
	e.metadata = nil
	e.verifierBlob = nil

	e.state = StateLocked
	e.logAudit(auditlog.CategoryVault, auditlog.EventVaultLock, auditlog.OutcomeSuccess, "")
	e.events.publish(Event{Kind: EventLocked})
}

// ChangePassword regenerates the salt, re-derives the full key set, and
// re-encrypts every blob (verifier included) under a brand new
// container written via the atomic storage path. The old container is
// never overwritten in place.
func (e *Engine) ChangePassword(oldPassword, newPassword string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUnlocked {
		return fmt.Errorf("%w: change_password requires state=Unlocked, got %s", ErrWrongState, e.state)
	}
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	oldKeys, err := cryptocore.DeriveKeySet([]byte(oldPassword), e.salt, e.iters)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	_, verifyErr := cryptocore.Open(oldKeys.VaultKey.Bytes(), e.verifierBlob, verifierPlaintext)
	oldKeys.Destroy()
	if verifyErr != nil {
		return ErrInvalidPassword
	}

	newSalt, err := cryptocore.GenerateSalt()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	newKeys, err := cryptocore.DeriveKeySet([]byte(newPassword), newSalt, e.iters)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	if err := e.persistLocked(newKeys, newSalt, nil); err != nil {
		newKeys.Destroy()
		return err
	}

	e.keys.Destroy()
	e.keys = newKeys
	e.salt = newSalt
	e.index = searchindex.New(newKeys.SearchKey.Bytes())
	for _, r := range e.items {
		e.index.Add(r)
	}

	e.logAudit(auditlog.CategoryVault, auditlog.EventVaultPasswordChange, auditlog.OutcomeSuccess, "")
	return nil
}

// SetPassword re-keys the vault under newPassword without re-verifying an
// old password. The caller must already be authenticated - this is meant
// for the recovery flow, where access was regained via a recovered master
// key rather than a password.
func (e *Engine) SetPassword(newPassword string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUnlocked {
		return fmt.Errorf("%w: set_password requires state=Unlocked, got %s", ErrWrongState, e.state)
	}
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	newSalt, err := cryptocore.GenerateSalt()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	newKeys, err := cryptocore.DeriveKeySet([]byte(newPassword), newSalt, e.iters)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	if err := e.persistLocked(newKeys, newSalt, nil); err != nil {
		newKeys.Destroy()
		return err
	}

	e.keys.Destroy()
	e.keys = newKeys
	e.salt = newSalt
	e.index = searchindex.New(newKeys.SearchKey.Bytes())
	for _, r := range e.items {
		e.index.Add(r)
	}

	e.logAudit(auditlog.CategoryVault, auditlog.EventVaultPasswordChange, auditlog.OutcomeSuccess, "recovery")
	return nil
}

// AddItem persists a new item. The item's id must not already exist.
func (e *Engine) AddItem(r *item.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUnlocked {
		return fmt.Errorf("%w: add_item requires state=Unlocked, got %s", ErrWrongState, e.state)
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	r.Touch()
	stored := r.Clone()
	e.items[r.ID] = stored
	e.metadata.touch(e.clientID, len(e.items))

	if err := e.persistLocked(e.keys, e.salt, nil); err != nil {
		delete(e.items, r.ID)
		return err
	}
	e.index.Add(stored)

	e.logAudit(auditlog.CategoryVault, auditlog.EventItemAdd, auditlog.OutcomeSuccess, r.Title)
	e.events.publish(Event{Kind: EventItemsChanged})
	return nil
}

// UpdateItem replaces an existing item by id, preserving its
// CreatedAt timestamp.
func (e *Engine) UpdateItem(r *item.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUnlocked {
		return fmt.Errorf("%w: update_item requires state=Unlocked, got %s", ErrWrongState, e.state)
	}
	existing, ok := e.items[r.ID]
	if !ok {
		return ErrNotFound
	}
	r.CreatedAt = existing.CreatedAt
	r.Touch()
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	stored := r.Clone()
	e.items[r.ID] = stored
	e.metadata.touch(e.clientID, len(e.items))

	if err := e.persistLocked(e.keys, e.salt, nil); err != nil {
		e.items[r.ID] = existing
		return err
	}
	e.index.Remove(stored.ID)
	e.index.Add(stored)

	e.logAudit(auditlog.CategoryVault, auditlog.EventItemUpdate, auditlog.OutcomeSuccess, r.Title)
	e.events.publish(Event{Kind: EventItemsChanged})
	return nil
}

// DeleteItem removes an item by id.
func (e *Engine) DeleteItem(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUnlocked {
		return fmt.Errorf("%w: delete_item requires state=Unlocked, got %s", ErrWrongState, e.state)
	}
	existing, ok := e.items[id]
	if !ok {
		return ErrNotFound
	}
	delete(e.items, id)
	e.metadata.touch(e.clientID, len(e.items))

	if err := e.persistLocked(e.keys, e.salt, nil); err != nil {
		e.items[id] = existing
		return err
	}
	e.index.Remove(id)

	e.logAudit(auditlog.CategoryVault, auditlog.EventItemDelete, auditlog.OutcomeSuccess, existing.Title)
	e.events.publish(Event{Kind: EventItemsChanged})
	return nil
}

// GetItem returns a snapshot copy of the item by id.
func (e *Engine) GetItem(id string) (*item.Record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != StateUnlocked {
		return nil, fmt.Errorf("%w: get_item requires state=Unlocked, got %s", ErrWrongState, e.state)
	}
	r, ok := e.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

// ListItems returns every item currently in the vault. Infallible while
// Unlocked; returns ErrWrongState otherwise. Each returned Record is a
// copy, safe for the caller to mutate.
func (e *Engine) ListItems() ([]*item.Record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != StateUnlocked {
		return nil, fmt.Errorf("%w: list_items requires state=Unlocked, got %s", ErrWrongState, e.state)
	}
	out := make([]*item.Record, 0, len(e.items))
	for _, r := range e.items {
		out = append(out, r.Clone())
	}
	return item.SortByID(out), nil
}

// Search tokenizes query and returns matching items ordered
// favorite-first then most-recently-modified first. A read-only
// operation: it may run concurrently with other Search calls but is
// excluded from running concurrently with a mutation by the shared
// RWMutex.
func (e *Engine) Search(query string) []*item.Record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != StateUnlocked {
		return nil
	}
	ids := e.index.Query(query)
	out := make([]*item.Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := e.items[id]; ok {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Snapshot returns the engine's current metadata, for callers (the sync
// command) that need the version vector without a full item dump.
func (e *Engine) Snapshot() (*Metadata, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != StateUnlocked {
		return nil, fmt.Errorf("%w: snapshot requires state=Unlocked, got %s", ErrWrongState, e.state)
	}
	cp := *e.metadata
	cp.VersionVector = make(map[string]int, len(e.metadata.VersionVector))
	for k, v := range e.metadata.VersionVector {
		cp.VersionVector[k] = v
	}
	return &cp, nil
}

// ApplyReconciled replaces the engine's entire item set and metadata
// with the result of an external reconciliation (syncreconciler.Result)
// and persists it. It is the sync collaborator's write path: unlike
// AddItem/UpdateItem/DeleteItem, which mutate incrementally and touch
// the version vector themselves, the caller has already computed the
// merged metadata and is handing over the final state wholesale.
func (e *Engine) ApplyReconciled(meta *Metadata, items []*item.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUnlocked {
		return fmt.Errorf("%w: apply_reconciled requires state=Unlocked, got %s", ErrWrongState, e.state)
	}

	prevMetadata := e.metadata
	prevItems := e.items

	newItems := make(map[string]*item.Record, len(items))
	for _, r := range items {
		newItems[r.ID] = r.Clone()
	}

	e.metadata = meta
	e.items = newItems

	if err := e.persistLocked(e.keys, e.salt, nil); err != nil {
		e.metadata = prevMetadata
		e.items = prevItems
		return err
	}

	e.index = searchindex.New(e.keys.SearchKey.Bytes())
	for _, r := range e.items {
		e.index.Add(r)
	}

	e.logAudit(auditlog.CategoryVault, auditlog.EventSyncReconcile, auditlog.OutcomeSuccess, "")
	e.events.publish(Event{Kind: EventItemsChanged})
	return nil
}

// persistLocked re-encrypts metadata and items under keys, builds a new
// container reusing verifierBlob unless overridden, and writes it via
// the storage driver. Caller must hold e.mu.
func (e *Engine) persistLocked(keys *cryptocore.KeySet, salt []byte, verifierOverride []byte) error {
	verifier := e.verifierBlob
	if verifierOverride != nil {
		verifier = verifierOverride
	} else if keys != e.keys {
		// change_password: re-seal the verifier under the new key.
		sealed, err := cryptocore.Seal(keys.VaultKey.Bytes(), verifierPlaintext, nil)
		if err != nil {
			return fmt.Errorf("%w: reseal verifier: %v", ErrIO, err)
		}
		verifier = sealed
	}

	metadataBlob, err := sealMetadata(keys.VaultKey.Bytes(), e.metadata)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	itemsBlob, err := sealItems(keys.VaultKey.Bytes(), e.items)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	container := &vaultformat.Container{
		Version:      vaultformat.CurrentVersion,
		Salt:         salt,
		VerifierBlob: verifier,
		MetadataBlob: metadataBlob,
		ItemsBlob:    itemsBlob,
	}
	encoded, err := vaultformat.Encode(container)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := e.driver.Write(encoded); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	e.verifierBlob = verifier
	return nil
}

func (e *Engine) openAndMigrate(vaultKey []byte, container *vaultformat.Container) (*Metadata, map[string]*item.Record, error) {
	metadataPlain, err := cryptocore.Open(vaultKey, container.MetadataBlob, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: metadata: %v", ErrCorrupt, err)
	}
	metadata, err := unmarshalMetadata(metadataPlain)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: metadata: %v", ErrCorrupt, err)
	}

	itemsPlain, err := cryptocore.Open(vaultKey, container.ItemsBlob, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: items: %v", ErrCorrupt, err)
	}
	records, err := item.UnmarshalItems(itemsPlain)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: items: %v", ErrCorrupt, err)
	}

	migrator := vaultformat.NewMigrator()
	migrated, err := migrator.Migrate(records, int(container.Version), vaultformat.CurrentVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: migrate: %v", ErrCorrupt, err)
	}
	records = migrated.([]*item.Record)

	items := make(map[string]*item.Record, len(records))
	for _, r := range records {
		items[r.ID] = r
	}
	return metadata, items, nil
}

// readWithCancellation runs driver.Read() in a goroutine so ctx
// cancellation during I/O can be observed promptly, per spec.md §5.
func (e *Engine) readWithCancellation(ctx context.Context) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := e.driver.Read()
		ch <- result{data, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, r.err)
		}
		return r.data, nil
	}
}

// deriveWithCancellation runs the PBKDF2 master-key derivation and
// sub-key expansion in a goroutine so it can be cancelled; on
// cancellation a second goroutine waits for the derivation to finish and
// destroys the key set it produced. No key is stored on the Engine until
// after a successful select case.
func (e *Engine) deriveWithCancellation(ctx context.Context, password, salt []byte) (*cryptocore.KeySet, error) {
	type result struct {
		keys *cryptocore.KeySet
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		keys, err := cryptocore.DeriveKeySet(password, salt, e.iters)
		ch <- result{keys, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.keys != nil {
				r.keys.Destroy()
			}
		}()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, r.err)
		}
		return r.keys, nil
	}
}

func sealAll(vaultKey []byte, metadata *Metadata, items map[string]*item.Record) (verifier, metadataBlob, itemsBlob []byte, err error) {
	verifier, err = cryptocore.Seal(vaultKey, verifierPlaintext, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	metadataBlob, err = sealMetadata(vaultKey, metadata)
	if err != nil {
		return nil, nil, nil, err
	}
	itemsBlob, err = sealItems(vaultKey, items)
	if err != nil {
		return nil, nil, nil, err
	}
	return verifier, metadataBlob, itemsBlob, nil
}

func sealMetadata(vaultKey []byte, metadata *Metadata) ([]byte, error) {
	plain, err := marshalMetadata(metadata)
	if err != nil {
		return nil, err
	}
	return cryptocore.Seal(vaultKey, plain, nil)
}

func sealItems(vaultKey []byte, items map[string]*item.Record) ([]byte, error) {
	records := make([]*item.Record, 0, len(items))
	for _, r := range items {
		records = append(records, r)
	}
	records = item.SortByID(records)
	plain, err := item.MarshalItems(records)
	if err != nil {
		return nil, err
	}
	return cryptocore.Seal(vaultKey, plain, nil)
}

