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

// validate is the Resolver's single public-to-the-package entry: resolve
// and memoize whether key (and everything it transitively depends on) is
// valid. depth is the pipe-joined chain of keys already being validated on
// this call stack, used only for circular-reference detection.
func (s *Service) validate(key, depth string) bool {
	if v, ok := s.validations[key]; ok {
		return v
	}

	chain := key
	if depth != "" {
		chain = depth + "|" + key
	}
	if countChainOccurrences(chain, key) >= 2 {
		err := newProgrammerError(s.decl.name, `validation dependency circular reference[%s]`, chain)
		s.log.Error(err, "circular dependency detected during validation", "key", key, "chain", chain)
		panic(err)
	}

	mainKey := mainKeyOf(key)

	for _, ancestor := range ancestorKeys(key) {
		if v, ok := s.validations[ancestor]; ok && v {
			s.validations[key] = true
			return true
		}
	}

	for _, promise := range s.decl.allPromiseLists[mainKey] {
		if !s.validate(promise, chain) {
			s.validations[mainKey] = false
			return false
		}
	}

	if loader, ok := s.decl.allLoaders[mainKey]; ok {
		for _, dep := range loader.Deps {
			if !s.validate(dep, chain) {
				s.validations[mainKey] = false
			}
		}
	}

	data := s.loadKey(mainKey)
	items := deepCopyAny(data).(map[string]any)

	s.validateWith(key, items, chain)

	orderedCallbackKeys := s.orderedCallbackKeys(key)
	for _, callbackKey := range orderedCallbackKeys {
		cb := s.decl.allCallbacks[callbackKey]
		for _, dep := range cb.Deps {
			if !s.validate(dep, chain) {
				s.validations[key] = false
			}
		}
	}

	if s.validations[key] {
		for _, callbackKey := range orderedCallbackKeys {
			if !strings.HasSuffix(callbackKey, "@defer") {
				s.runCallback(callbackKey)
			}
		}
	}

	return s.validations[key]
}

func countChainOccurrences(chain, key string) int {
	n := 0
	for _, seg := range strings.Split(chain, "|") {
		if seg == key {
			n++
		}
	}
	return n
}

// resolveDeps validates and gathers the resolved values for deps, in order.
// A dependency that validated true but has no data falls back to
// defaults[dep] (mirrors the source's "default parameter value" escape
// hatch); a dependency that failed validation, or has neither data nor a
// default, makes the whole gather unresolved.
func (s *Service) resolveDeps(deps []string, defaults map[string]any, depth string) ([]any, bool) {
	vals := make([]any, len(deps))
	for i, dep := range deps {
		s.validate(dep, depth)
		valid := s.validations[dep]

		if v, exists := s.data[dep]; valid && exists {
			vals[i] = v
			continue
		}
		if dv, exists := defaults[dep]; valid && exists {
			vals[i] = dv
			continue
		}
		return nil, false
	}
	return vals, true
}
