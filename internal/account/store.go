// Package account persists stake accounts, one per owner, inside a ledger
// namespace.
package account

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	klog "github.com/Klingon-tech/klingnet-stake/internal/log"
	"github.com/Klingon-tech/klingnet-stake/internal/stake"
	"github.com/Klingon-tech/klingnet-stake/internal/storage"
	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

// Key prefixes inside a namespace.
var (
	prefixAccount = []byte("a/") // a/<owner20> -> Account JSON
	prefixNonce   = []byte("n/") // n/<owner20> -> last accepted nonce, uint64 BE
)

// ErrStaleNonce is returned when a request nonce does not exceed the last
// accepted one for the owner.
var ErrStaleNonce = errors.New("nonce already used")

// Store implements the account store backed by a storage.DB.
type Store struct {
	db    storage.DB
	cache *lru.Cache[types.Address, stake.Account] // nil when disabled

	// fillMu orders cache fills from Load against write-backs so a slow
	// Load cannot re-insert a record older than one just saved.
	fillMu sync.RWMutex

	locks keyLocks
}

// NewStore creates an account store over db. cacheSize <= 0 disables the
// record cache.
func NewStore(db storage.DB, cacheSize int) (*Store, error) {
	s := &Store{
		db:    db,
		locks: keyLocks{m: make(map[types.Address]*keyLock)},
	}
	if cacheSize > 0 {
		c, err := lru.New[types.Address, stake.Account](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("account cache: %w", err)
		}
		s.cache = c
	}
	klog.Store.Debug().Int("cache_size", cacheSize).Msg("Account store opened")
	return s, nil
}

func accountKey(owner types.Address) []byte {
	key := make([]byte, len(prefixAccount)+types.AddressSize)
	copy(key, prefixAccount)
	copy(key[len(prefixAccount):], owner[:])
	return key
}

func nonceKey(owner types.Address) []byte {
	key := make([]byte, len(prefixNonce)+types.AddressSize)
	copy(key, prefixNonce)
	copy(key[len(prefixNonce):], owner[:])
	return key
}

// Lock acquires the per-owner write lock and returns its release function.
// Callers hold it across a load, transition and save cycle.
func (s *Store) Lock(owner types.Address) func() {
	return s.locks.lock(owner)
}

// Create stores acct if no account exists for its owner yet.
// It returns stake.ErrAlreadyExists otherwise and leaves the stored record
// untouched.
func (s *Store) Create(acct stake.Account) error {
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("account marshal: %w", err)
	}

	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	ok, err := s.db.PutIfAbsent(accountKey(acct.Owner), data)
	if err != nil {
		return fmt.Errorf("account create: %w", err)
	}
	if !ok {
		return stake.ErrAlreadyExists
	}
	s.cacheAdd(acct)
	return nil
}

// Load returns the account owned by owner, or stake.ErrNotFound.
func (s *Store) Load(owner types.Address) (*stake.Account, error) {
	if s.cache != nil {
		if acct, ok := s.cache.Get(owner); ok {
			return &acct, nil
		}
	}

	s.fillMu.RLock()
	defer s.fillMu.RUnlock()

	data, err := s.db.Get(accountKey(owner))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, stake.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account load: %w", err)
	}
	acct, err := decodeAccount(data)
	if err != nil {
		return nil, err
	}
	s.cacheAdd(acct)
	return &acct, nil
}

// Save replaces the stored record for acct.Owner.
func (s *Store) Save(acct stake.Account) error {
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("account marshal: %w", err)
	}

	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	if err := s.db.Put(accountKey(acct.Owner), data); err != nil {
		return fmt.Errorf("account save: %w", err)
	}
	s.cacheAdd(acct)
	return nil
}

// Has reports whether owner has an account.
func (s *Store) Has(owner types.Address) (bool, error) {
	if s.cache != nil && s.cache.Contains(owner) {
		return true, nil
	}
	return s.db.Has(accountKey(owner))
}

// ForEach iterates over every stored account in key order.
func (s *Store) ForEach(fn func(stake.Account) error) error {
	return s.db.ForEach(prefixAccount, func(key, value []byte) error {
		acct, err := decodeAccount(value)
		if err != nil {
			klog.Store.Warn().Err(err).Hex("key", key).Msg("Unreadable account record")
			return err
		}
		return fn(acct)
	})
}

// Count returns the number of stored accounts.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.ForEach(prefixAccount, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

// LastNonce returns the last accepted request nonce for owner, 0 if none.
func (s *Store) LastNonce(owner types.Address) (uint64, error) {
	data, err := s.db.Get(nonceKey(owner))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("nonce load: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("nonce load: corrupt value (%d bytes)", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// UseNonce records nonce as the owner's last accepted nonce. It fails with
// ErrStaleNonce unless nonce is greater than the current one. Callers hold
// Lock(owner).
func (s *Store) UseNonce(owner types.Address, nonce uint64) error {
	last, err := s.LastNonce(owner)
	if err != nil {
		return err
	}
	if nonce <= last {
		return fmt.Errorf("%w: got %d, last %d", ErrStaleNonce, nonce, last)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	if err := s.db.Put(nonceKey(owner), buf[:]); err != nil {
		return fmt.Errorf("nonce save: %w", err)
	}
	return nil
}

func (s *Store) cacheAdd(acct stake.Account) {
	if s.cache != nil {
		s.cache.Add(acct.Owner, acct)
	}
}

func decodeAccount(data []byte) (stake.Account, error) {
	var acct stake.Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return stake.Account{}, fmt.Errorf("account unmarshal: %w", err)
	}
	return acct, nil
}
