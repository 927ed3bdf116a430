// Package vault encrypts and decrypts integration credentials with a
// rotating set of Fernet keys. Encryption always uses the current primary
// key; decryption falls back through historical keys in order, so data
// encrypted before a rotation stays readable until its key is retired.
// The vault never persists key material itself: keys arrive from the
// environment and rotation hands the new set back to the operator.
package vault

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fernet/fernet-go"
)

var (
	// ErrNoPrimaryKey means the vault was built without a usable primary key.
	ErrNoPrimaryKey = errors.New("vault: no primary key configured")
	// ErrDecryptFailed means no key in {primary} ∪ historical could decrypt
	// the ciphertext. Callers must treat this as "credential unusable".
	ErrDecryptFailed = errors.New("vault: ciphertext not decryptable with any configured key")
)

// DefaultRotationDays is the primary-key age threshold after which
// rotation is reported as due.
const DefaultRotationDays = 90

// KeyConfig is the externally supplied key material.
type KeyConfig struct {
	PrimaryKey     string   // base64 Fernet key, required
	HistoricalKeys []string // ordered, newest first; decryption fallback only
	KeyCreatedAt   time.Time
	RotationDays   int // 0 = DefaultRotationDays
}

// Vault holds process-wide key material. Read-only during normal
// operation; Rotate is an explicit operator action off the hot path.
type Vault struct {
	mu           sync.RWMutex
	primary      *fernet.Key
	historical   []*fernet.Key
	createdAt    time.Time
	rotationDays int
}

// New builds a vault from key material. An unparseable primary key is a
// configuration error; unparseable historical keys are rejected too,
// since silently dropping one would make old ciphertext unreadable.
func New(cfg KeyConfig) (*Vault, error) {
	if strings.TrimSpace(cfg.PrimaryKey) == "" {
		return nil, ErrNoPrimaryKey
	}
	primary, err := fernet.DecodeKey(cfg.PrimaryKey)
	if err != nil {
		return nil, fmt.Errorf("decode primary key: %w", err)
	}
	historical := make([]*fernet.Key, 0, len(cfg.HistoricalKeys))
	for i, raw := range cfg.HistoricalKeys {
		k, err := fernet.DecodeKey(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("decode historical key %d: %w", i, err)
		}
		historical = append(historical, k)
	}
	createdAt := cfg.KeyCreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	rotationDays := cfg.RotationDays
	if rotationDays <= 0 {
		rotationDays = DefaultRotationDays
	}
	return &Vault{
		primary:      primary,
		historical:   historical,
		createdAt:    createdAt,
		rotationDays: rotationDays,
	}, nil
}

// GenerateKey returns a fresh base64-encoded Fernet key. Used for dev
// mode and by Rotate.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("generate fernet key: %w", err)
	}
	return k.Encode(), nil
}

// Encrypt encrypts plaintext with the primary key only.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.primary == nil {
		return "", ErrNoPrimaryKey
	}
	tok, err := fernet.EncryptAndSign([]byte(plaintext), v.primary)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	return string(tok), nil
}

// Decrypt tries the primary key first, then each historical key in
// order, and returns the first success. A ciphertext produced under a
// key outside the configured set yields ErrDecryptFailed, never a
// silently wrong plaintext (Fernet tokens are authenticated).
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	v.mu.RLock()
	keys := make([]*fernet.Key, 0, 1+len(v.historical))
	if v.primary != nil {
		keys = append(keys, v.primary)
	}
	keys = append(keys, v.historical...)
	v.mu.RUnlock()

	if len(keys) == 0 {
		return "", ErrNoPrimaryKey
	}
	// TTL 0: tokens never age out; they live until their key is retired.
	msg := fernet.VerifyAndDecrypt([]byte(ciphertext), 0, keys)
	if msg == nil {
		return "", ErrDecryptFailed
	}
	return string(msg), nil
}

// RotationPlan is the outcome of a key rotation. The vault has already
// switched to the new primary in memory; persisting the new material
// (environment, secret manager) is the operator's responsibility, and
// EnvInstructions spells out how.
type RotationPlan struct {
	NewPrimaryKey   string    `json:"new_primary_key"`
	HistoricalKeys  []string  `json:"historical_keys"`
	RotatedAt       time.Time `json:"rotated_at"`
	EnvInstructions []string  `json:"env_instructions"`
}

// Rotate moves the current primary key to the front of the historical
// list and generates a new primary. Data encrypted under the old primary
// remains decryptable via the fallback chain.
func (v *Vault) Rotate() (*RotationPlan, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.primary == nil {
		return nil, ErrNoPrimaryKey
	}

	var next fernet.Key
	if err := next.Generate(); err != nil {
		return nil, fmt.Errorf("generate replacement key: %w", err)
	}

	v.historical = append([]*fernet.Key{v.primary}, v.historical...)
	v.primary = &next
	now := time.Now()
	v.createdAt = now

	hist := make([]string, len(v.historical))
	for i, k := range v.historical {
		hist[i] = k.Encode()
	}
	return &RotationPlan{
		NewPrimaryKey:  next.Encode(),
		HistoricalKeys: hist,
		RotatedAt:      now,
		EnvInstructions: []string{
			fmt.Sprintf("export AUDITOPS_PRIMARY_KEY='%s'", next.Encode()),
			fmt.Sprintf("export AUDITOPS_HISTORICAL_KEYS='%s'", strings.Join(hist, ",")),
			fmt.Sprintf("export AUDITOPS_KEY_CREATED_AT='%s'", now.Format(time.RFC3339)),
		},
	}, nil
}

// KeyStatus reports key age and rotation due-ness for operators.
type KeyStatus struct {
	PrimaryKeySet     bool      `json:"primary_key_set"`
	HistoricalCount   int       `json:"historical_count"`
	AgeDays           int       `json:"age_days"`
	RotationDue       bool      `json:"rotation_due"`
	DaysUntilRotation int       `json:"days_until_rotation"`
	CreatedAt         time.Time `json:"created_at"`
}

// Status returns the current key status.
func (v *Vault) Status() KeyStatus {
	v.mu.RLock()
	defer v.mu.RUnlock()
	ageDays := int(time.Since(v.createdAt).Hours() / 24)
	remaining := v.rotationDays - ageDays
	if remaining < 0 {
		remaining = 0
	}
	return KeyStatus{
		PrimaryKeySet:     v.primary != nil,
		HistoricalCount:   len(v.historical),
		AgeDays:           ageDays,
		RotationDue:       ageDays > v.rotationDays,
		DaysUntilRotation: remaining,
		CreatedAt:         v.createdAt,
	}
}
