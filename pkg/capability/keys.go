/*
 Copyright 2025 Basalt Authors.

 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package capability

import (
	"crypto/sha256"
	"sync"

	"github.com/basaltfs/basalt/pkg/types"
)

// KeyStore holds the current sealing key plus a short window of recently
// superseded ones, so in-flight tokens survive a rotation. Reads return
// snapshots and never block sealing.
type KeyStore struct {
	mux     sync.RWMutex
	current []byte
	recent  [][]byte
	window  int
}

// NewKeyStore derives sealing keys from the configured secrets. The current
// secret is mandatory.
func NewKeyStore(current string, recent []string, window int) (*KeyStore, error) {
	if current == "" {
		return nil, types.ErrInvalidArg
	}
	if window <= 0 {
		window = 2
	}
	ks := &KeyStore{current: deriveKey(current), window: window}
	for _, r := range recent {
		if r == "" {
			continue
		}
		ks.recent = append(ks.recent, deriveKey(r))
	}
	if len(ks.recent) > window {
		ks.recent = ks.recent[:window]
	}
	return ks, nil
}

// Current returns the key used to seal new tokens.
func (ks *KeyStore) Current() []byte {
	ks.mux.RLock()
	defer ks.mux.RUnlock()
	return ks.current
}

// VerifyKeys returns the current key followed by the recent window, newest
// first.
func (ks *KeyStore) VerifyKeys() [][]byte {
	ks.mux.RLock()
	defer ks.mux.RUnlock()
	keys := make([][]byte, 0, 1+len(ks.recent))
	keys = append(keys, ks.current)
	keys = append(keys, ks.recent...)
	return keys
}

// Rotate installs a new current secret and pushes the old one into the
// recent window.
func (ks *KeyStore) Rotate(secret string) error {
	if secret == "" {
		return types.ErrInvalidArg
	}
	ks.mux.Lock()
	defer ks.mux.Unlock()
	ks.recent = append([][]byte{ks.current}, ks.recent...)
	if len(ks.recent) > ks.window {
		ks.recent = ks.recent[:ks.window]
	}
	ks.current = deriveKey(secret)
	return nil
}

func deriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}
