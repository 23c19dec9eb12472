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
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"runtime/trace"
	"strconv"
	"time"

	"github.com/bluele/gcache"
	"go.uber.org/zap"

	"github.com/basaltfs/basalt/pkg/types"
	"github.com/basaltfs/basalt/utils/logger"
)

const (
	nonceSize       = 12
	verifyCacheSize = 4096
	verifyCacheTTL  = time.Minute
)

// Engine seals capability attribute sets into opaque tokens and verifies
// them. Tokens are AES-256-GCM sealed, so any altered byte fails
// authentication outright; a token never decodes partially.
type Engine struct {
	keys   *KeyStore
	cache  gcache.Cache
	logger *zap.SugaredLogger
}

func NewEngine(keys *KeyStore) *Engine {
	return &Engine{
		keys:   keys,
		cache:  gcache.New(verifyCacheSize).LRU().Build(),
		logger: logger.NewLogger("capability"),
	}
}

// Create seals the ordered attribute set under the current key and returns
// the token as a URL-safe string.
func (e *Engine) Create(ctx context.Context, attrs types.Attributes) (string, error) {
	defer trace.StartRegion(ctx, "capability.engine.Create").End()

	aead, err := buildAEAD(e.keys.Current())
	if err != nil {
		e.logger.Errorw("build sealer failed", "err", err)
		return "", types.ErrInternal
	}

	nonce := make([]byte, nonceSize)
	if _, err = rand.Read(nonce); err != nil {
		return "", types.ErrInternal
	}
	sealed := aead.Seal(nonce, nonce, []byte(attrs.Encode()), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Verify opens a token against the current key and the recent rotation
// window. Tampered, undecodable and expired tokens all fail the same way.
func (e *Engine) Verify(ctx context.Context, token string) (types.Attributes, error) {
	defer trace.StartRegion(ctx, "capability.engine.Verify").End()

	if cached, err := e.cache.Get(token); err == nil {
		attrs := cached.(types.Attributes)
		if expired(attrs) {
			return nil, types.ErrInvalidArg
		}
		// callers may mutate the result, the cached copy stays private
		return cloneAttrs(attrs), nil
	}

	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(sealed) <= nonceSize {
		return nil, types.ErrInvalidArg
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]

	var payload []byte
	for _, key := range e.keys.VerifyKeys() {
		aead, buildErr := buildAEAD(key)
		if buildErr != nil {
			continue
		}
		if payload, err = aead.Open(nil, nonce, ciphertext, nil); err == nil {
			break
		}
	}
	if err != nil || payload == nil {
		return nil, types.ErrInvalidArg
	}

	attrs, err := types.DecodeAttributes(string(payload))
	if err != nil {
		return nil, types.ErrInvalidArg
	}
	if expired(attrs) {
		return nil, types.ErrInvalidArg
	}

	_ = e.cache.SetWithExpire(token, cloneAttrs(attrs), verifyCacheTTL)
	return attrs, nil
}

func cloneAttrs(attrs types.Attributes) types.Attributes {
	cp := make(types.Attributes, len(attrs))
	copy(cp, attrs)
	return cp
}

func buildAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func expired(attrs types.Attributes) bool {
	raw, ok := attrs.Get(types.AttrExpires)
	if !ok {
		return false
	}
	expires, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return true
	}
	return time.Now().Unix() >= expires
}
