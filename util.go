/*
Copyright 2025.

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

package engine

import "strings"

// deepCopyAny recursively copies a JSON-shaped value (map[string]any,
// []any, or a scalar) so accessors can hand out data the caller is free to
// mutate without corrupting engine state. Non-JSON-shaped values (e.g. a
// *Service left in data by a misbehaving loader) are returned as-is.
func deepCopyAny(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = deepCopyAny(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = deepCopyAny(vv)
		}
		return out
	default:
		return v
	}
}

func splitDotted(key string) []string {
	return strings.Split(key, ".")
}

func mainKeyOf(key string) string {
	if i := strings.IndexByte(key, '.'); i >= 0 {
		return key[:i]
	}
	return key
}

func ancestorKeys(key string) []string {
	segs := splitDotted(key)
	if len(segs) < 2 {
		return nil
	}
	out := make([]string, 0, len(segs)-1)
	for i := 1; i < len(segs); i++ {
		out = append(out, strings.Join(segs[:i], "."))
	}
	return out
}

// walkPath descends a dotted path segment by segment through nested
// map[string]any data, returning the value found and whether every segment
// along the way existed (a missing intermediate map, or a non-map where a
// map was expected, is reported as "not found" rather than panicking).
func walkPath(data any, segs []string) (any, bool) {
	cur := data
	for _, seg := range segs {
		m, isMap := cur.(map[string]any)
		if !isMap {
			return nil, false
		}
		v, exists := m[seg]
		if !exists {
			return nil, false
		}
		cur = v
	}
	return cur, true
}
