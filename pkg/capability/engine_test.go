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
	"encoding/base64"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/basaltfs/basalt/pkg/types"
)

func sampleAttrs(expires int64) types.Attributes {
	var attrs types.Attributes
	attrs.Add(types.AttrAccess, types.AccessCreate)
	attrs.Addf(types.AttrUID, "%d", 100)
	attrs.Addf(types.AttrGID, "%d", 100)
	attrs.Add(types.AttrPath, "/a/b.dat")
	attrs.Add(types.AttrManager, "mgm.example.org:1094")
	attrs.Addf(types.AttrFileID, "%x", 42)
	attrs.Addf(types.AttrExpires, "%d", expires)
	return attrs
}

var _ = Describe("TestCapabilityRoundTrip", func() {
	ctx := context.TODO()

	Context("seal then verify", func() {
		var engine *Engine
		It("init engine should be succeed", func() {
			keys, err := NewKeyStore("current-secret", nil, 2)
			Expect(err).Should(BeNil())
			engine = NewEngine(keys)
		})
		It("verify should return the exact attribute set", func() {
			attrs := sampleAttrs(time.Now().Unix() + 600)
			token, err := engine.Create(ctx, attrs)
			Expect(err).Should(BeNil())

			got, err := engine.Verify(ctx, token)
			Expect(err).Should(BeNil())
			Expect(got).Should(Equal(attrs))
		})
		It("mutating a verify result should not poison later verifications", func() {
			attrs := sampleAttrs(time.Now().Unix() + 600)
			token, err := engine.Create(ctx, attrs)
			Expect(err).Should(BeNil())

			first, err := engine.Verify(ctx, token)
			Expect(err).Should(BeNil())
			first[0].Value = "clobbered"

			// second verify is a cache hit and must see the sealed values
			second, err := engine.Verify(ctx, token)
			Expect(err).Should(BeNil())
			Expect(second).Should(Equal(attrs))
		})
		It("attribute order should survive the round trip", func() {
			attrs := sampleAttrs(time.Now().Unix() + 600)
			token, err := engine.Create(ctx, attrs)
			Expect(err).Should(BeNil())

			got, err := engine.Verify(ctx, token)
			Expect(err).Should(BeNil())
			Expect(got.Encode()).Should(Equal(attrs.Encode()))
		})
	})

	Context("tampered token", func() {
		var engine *Engine
		It("init engine should be succeed", func() {
			keys, err := NewKeyStore("current-secret", nil, 2)
			Expect(err).Should(BeNil())
			engine = NewEngine(keys)
		})
		It("every flipped byte should fail verification", func() {
			token, err := engine.Create(ctx, sampleAttrs(time.Now().Unix()+600))
			Expect(err).Should(BeNil())

			raw, err := base64.RawURLEncoding.DecodeString(token)
			Expect(err).Should(BeNil())
			for i := 0; i < len(raw); i += 7 {
				mutated := make([]byte, len(raw))
				copy(mutated, raw)
				mutated[i] ^= 0x01
				_, err = engine.Verify(ctx, base64.RawURLEncoding.EncodeToString(mutated))
				Expect(err).Should(Equal(types.ErrInvalidArg), fmt.Sprintf("byte %d", i))
			}
		})
		It("garbage token should fail verification", func() {
			_, err := engine.Verify(ctx, "not-a-token")
			Expect(err).Should(Equal(types.ErrInvalidArg))
		})
	})

	Context("expired token", func() {
		It("verification should fail", func() {
			keys, err := NewKeyStore("current-secret", nil, 2)
			Expect(err).Should(BeNil())
			engine := NewEngine(keys)

			token, err := engine.Create(ctx, sampleAttrs(time.Now().Unix()-1))
			Expect(err).Should(BeNil())
			_, err = engine.Verify(ctx, token)
			Expect(err).Should(Equal(types.ErrInvalidArg))
		})
	})
})

var _ = Describe("TestKeyRotation", func() {
	ctx := context.TODO()

	Context("rotate with in-flight tokens", func() {
		var (
			engine   *Engine
			keys     *KeyStore
			oldToken string
		)
		It("seal under the first key", func() {
			var err error
			keys, err = NewKeyStore("gen-1", nil, 2)
			Expect(err).Should(BeNil())
			engine = NewEngine(keys)
			oldToken, err = engine.Create(ctx, sampleAttrs(time.Now().Unix()+600))
			Expect(err).Should(BeNil())
		})
		It("rotated key should verify old tokens via the recent window", func() {
			Expect(keys.Rotate("gen-2")).Should(BeNil())
			_, err := engine.Verify(ctx, oldToken)
			Expect(err).Should(BeNil())
		})
		It("token outside the recent window should fail", func() {
			Expect(keys.Rotate("gen-3")).Should(BeNil())
			Expect(keys.Rotate("gen-4")).Should(BeNil())
			Expect(keys.Rotate("gen-5")).Should(BeNil())

			freshEngine := NewEngine(keys)
			_, err := freshEngine.Verify(ctx, oldToken)
			Expect(err).Should(Equal(types.ErrInvalidArg))
		})
		It("empty rotation secret should be rejected", func() {
			Expect(keys.Rotate("")).Should(Equal(types.ErrInvalidArg))
		})
	})
})
