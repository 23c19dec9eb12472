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

package types

import (
	"fmt"
	"net/url"
	"strings"
)

// Capability wire attribute keys. The mgm.* key set is consumed as-is by the
// storage node software, keep it byte compatible.
const (
	AttrAccess       = "mgm.access"
	AttrUID          = "mgm.uid"
	AttrGID          = "mgm.gid"
	AttrRealUID      = "mgm.ruid"
	AttrRealGID      = "mgm.rgid"
	AttrPath         = "mgm.path"
	AttrManager      = "mgm.manager"
	AttrFileID       = "mgm.fid"
	AttrLayoutID     = "mgm.lid"
	AttrNodeID       = "mgm.fsid"
	AttrLocalPrefix  = "mgm.localprefix"
	AttrURL          = "mgm.url"
	AttrLogID        = "mgm.logid"
	AttrReplicaIndex = "mgm.replicaindex"
	AttrExpires      = "mgm.cap.expires"
	// AttrCapToken carries the sealed token appended to the plain attributes
	// in the redirection payload.
	AttrCapToken = "mgm.cap.msg"
)

const (
	AccessCreate = "create"
	AccessUpdate = "update"
	AccessRead   = "read"
)

// Attributes is an ordered key/value sequence. Order is part of the signed
// payload, so append order is canonical.
type Attributes []Attribute

type Attribute struct {
	Key   string
	Value string
}

func (a *Attributes) Add(key, value string) {
	*a = append(*a, Attribute{Key: key, Value: value})
}

func (a *Attributes) Addf(key, format string, args ...interface{}) {
	a.Add(key, fmt.Sprintf(format, args...))
}

func (a Attributes) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Encode renders the flat key=value&... wire form, values URL-escaped.
func (a Attributes) Encode() string {
	var sb strings.Builder
	for i, attr := range a {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(attr.Key)
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(attr.Value))
	}
	return sb.String()
}

func DecodeAttributes(encoded string) (Attributes, error) {
	if encoded == "" {
		return nil, nil
	}
	var attrs Attributes
	for _, pair := range strings.Split(encoded, "&") {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: malformed attribute pair %q", ErrInvalidArg, pair)
		}
		unescaped, err := url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %s: %s", ErrInvalidArg, key, err)
		}
		attrs.Add(key, unescaped)
	}
	return attrs, nil
}
