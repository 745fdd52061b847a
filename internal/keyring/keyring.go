// Package keyring keeps named credential sets, e.g. a main account and a
// sub-account for the same exchange.
package keyring

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sandi/pkg/core"
)

type KeyRing struct {
	mu      sync.RWMutex
	entries []*Entry
	current int
	logger  zerolog.Logger
}

// Entry is one named credential set.
type Entry struct {
	Name        string
	Credentials *core.Credentials
	Disabled    bool
	LastUsed    time.Time
	ErrorCount  int
}

// New builds a ring from entries. Entries are copied.
func New(entries ...*Entry) *KeyRing {
	k := &KeyRing{logger: zerolog.Nop()}
	for _, e := range entries {
		k.Add(e)
	}
	return k
}

// FromEnv loads one entry per prefix from PREFIX_API_KEY, PREFIX_API_SECRET
// and PREFIX_API_PASSPHRASE. Prefixes without a key and secret are skipped.
// The entry name is the lower-cased prefix.
func FromEnv(prefixes ...string) (*KeyRing, error) {
	k := New()
	for _, prefix := range prefixes {
		creds, err := core.CredentialsFromEnv(prefix)
		if errors.Is(err, core.ErrNoCredentials) {
			continue
		}
		if err != nil {
			return nil, err
		}
		k.Add(&Entry{Name: strings.ToLower(prefix), Credentials: creds})
	}
	if k.Len() == 0 {
		return nil, noCredentials(strings.Join(prefixes, ","))
	}
	return k, nil
}

func noCredentials(name string) error {
	return core.NewValidationError("keyring", fmt.Sprintf("no credentials for %q", name)).
		WithCode(core.ErrCodeNoCredentials).
		WithCause(core.ErrNoCredentials)
}

func (k *KeyRing) SetLogger(logger zerolog.Logger) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.logger = logger
}

func (k *KeyRing) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.entries)
}

// Get returns the enabled entry called name.
func (k *KeyRing) Get(name string) (*core.Credentials, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	for _, e := range k.entries {
		if e.Name == name && !e.Disabled {
			return e.Credentials, nil
		}
	}
	return nil, noCredentials(name)
}

// Current returns the credentials at the rotation cursor, skipping disabled entries.
func (k *KeyRing) Current() (*core.Credentials, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	for i := 0; i < len(k.entries); i++ {
		idx := (k.current + i) % len(k.entries)
		if !k.entries[idx].Disabled {
			return k.entries[idx].Credentials, nil
		}
	}
	return nil, noCredentials("current")
}

// Rotate moves the cursor to the next enabled entry.
func (k *KeyRing) Rotate() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.rotate()
}

func (k *KeyRing) rotate() {
	if len(k.entries) == 0 {
		return
	}
	start := k.current
	for {
		k.current = (k.current + 1) % len(k.entries)
		if !k.entries[k.current].Disabled || k.current == start {
			return
		}
	}
}

// OnError records a failed call on the current entry. Authentication
// failures move the cursor so the next call uses a different key.
func (k *KeyRing) OnError(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.entries) == 0 {
		return
	}
	e := k.entries[k.current]
	e.ErrorCount++

	if core.IsAuthenticationError(err) {
		k.logger.Warn().Str("entry", e.Name).Int("errors", e.ErrorCount).Msg("rotating after authentication failure")
		k.rotate()
	}
}

func (k *KeyRing) MarkUsed() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.entries) == 0 {
		return
	}
	k.entries[k.current].LastUsed = time.Now()
}

func (k *KeyRing) Disable(name string) {
	k.setDisabled(name, true)
}

func (k *KeyRing) Enable(name string) {
	k.setDisabled(name, false)
}

func (k *KeyRing) setDisabled(name string, disabled bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, e := range k.entries {
		if e.Name == name {
			e.Disabled = disabled
			if !disabled {
				e.ErrorCount = 0
			}
			return
		}
	}
}

// Add inserts a copy of e unless an entry with the same name exists.
func (k *KeyRing) Add(e *Entry) {
	if e == nil || e.Credentials == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, existing := range k.entries {
		if existing.Name == e.Name {
			return
		}
	}
	creds := *e.Credentials
	k.entries = append(k.entries, &Entry{
		Name:        e.Name,
		Credentials: &creds,
		Disabled:    e.Disabled,
	})
}

func (k *KeyRing) Remove(name string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i, e := range k.entries {
		if e.Name == name {
			k.entries = append(k.entries[:i], k.entries[i+1:]...)
			if k.current >= len(k.entries) {
				k.current = 0
			}
			return
		}
	}
}

// Names returns the entry names in sorted order.
func (k *KeyRing) Names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	names := make([]string, 0, len(k.entries))
	for _, e := range k.entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

func (e *Entry) String() string {
	key := ""
	if e.Credentials != nil {
		key = e.Credentials.APIKey
	}
	return fmt.Sprintf("Entry{Name:%s, Key:%s}", e.Name, core.MaskKey(key))
}
