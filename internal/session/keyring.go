package session

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zalando/go-keyring"
)

const keyringService = "leadcrm"

// keychain is the subset of the OS credential store KeyringKV uses
type keychain interface {
	Get(service, user string) (string, error)
	Set(service, user, password string) error
	Delete(service, user string) error
}

type osKeychain struct{}

func (osKeychain) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

func (osKeychain) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

func (osKeychain) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

// KeyringKV keeps values in the OS keychain/credential manager. Entries are
// namespaced so that sessions for different API hosts do not collide.
type KeyringKV struct {
	namespace string
	keys      keychain
}

// NewKeyringKV creates a KeyringKV. namespace is usually the API base URL.
func NewKeyringKV(namespace string) *KeyringKV {
	return &KeyringKV{namespace: namespace, keys: osKeychain{}}
}

// keyringKey returns the keychain entry name for key
func (k *KeyringKV) keyringKey(key string) string {
	return fmt.Sprintf("%s-%s", key, k.namespace)
}

func (k *KeyringKV) Get(key string) (string, error) {
	value, err := k.keys.Get(keyringService, k.keyringKey(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load %s from keyring: %w", key, err)
	}
	return value, nil
}

// Set writes every value or none of them. When one write fails all keys in
// values are removed, so an older entry never outlives a newer one.
func (k *KeyringKV) Set(values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if err := k.keys.Set(keyringService, k.keyringKey(key), values[key]); err != nil {
			if rollbackErr := k.Delete(keys...); rollbackErr != nil {
				err = errors.Join(err, rollbackErr)
			}
			return fmt.Errorf("failed to save %s to keyring: %w", key, err)
		}
	}
	return nil
}

func (k *KeyringKV) Delete(keys ...string) error {
	var errs []error
	for _, key := range keys {
		err := k.keys.Delete(keyringService, k.keyringKey(key))
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			errs = append(errs, fmt.Errorf("failed to delete %s from keyring: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
