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

import (
	"sort"
	"strings"
)

// ownerKeyOf returns the part of a callback key before its "__" separator.
func ownerKeyOf(callbackKey string) string {
	if i := strings.Index(callbackKey, "__"); i >= 0 {
		return callbackKey[:i]
	}
	return callbackKey
}

// orderedCallbackKeys returns every callback key owned by key (those
// prefixed "key__"), with promise-ordered keys first (each preceded by its
// transitive predecessors, depth-first) and the remainder after, sorted for
// determinism since a Go map-based declaration carries no literal
// "declaration order" to preserve.
func (s *Service) orderedCallbackKeys(key string) []string {
	prefix := key + "__"

	var promiseKeys, allKeys []string
	for k := range s.decl.allPromiseLists {
		if strings.HasPrefix(k, prefix) {
			promiseKeys = append(promiseKeys, k)
		}
	}
	for k := range s.decl.allCallbacks {
		if strings.HasPrefix(k, prefix) {
			allKeys = append(allKeys, k)
		}
	}
	sort.Strings(promiseKeys)

	ordered := s.shouldOrderedCallbackKeys(promiseKeys)
	orderedSet := map[string]bool{}
	for _, k := range ordered {
		orderedSet[k] = true
	}

	var rest []string
	for _, k := range allKeys {
		if !orderedSet[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)

	return append(ordered, rest...)
}

// shouldOrderedCallbackKeys walks keys depth-first through their promise
// predecessors, emitting each predecessor before the key itself and
// deduplicating by first occurrence.
func (s *Service) shouldOrderedCallbackKeys(keys []string) []string {
	seen := map[string]bool{}
	var out []string

	var walk func([]string)
	walk = func(ks []string) {
		for _, k := range ks {
			walk(s.decl.allPromiseLists[k])
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	walk(keys)
	return out
}

// runCallback resolves callbackKey's dependencies and, once resolved,
// invokes it; a mutate result replaces data[ownerKey] wholesale. An
// unresolvable dependency skips the callback's side effect, logged at V(1)
// (it has already been accounted for in validations by the caller).
func (s *Service) runCallback(callbackKey string) {
	cb, ok := s.decl.allCallbacks[callbackKey]
	if !ok {
		return
	}
	vals, ok := s.resolveDeps(cb.Deps, cb.Defaults, callbackKey)
	if !ok {
		s.log.V(1).Info("skipping callback, dependencies unresolved", "callback", callbackKey, "deps", cb.Deps)
		return
	}
	value, mutate := cb.Fn(vals)
	if mutate {
		s.data[ownerKeyOf(callbackKey)] = value
	}
}

// runAllDeferCallbacks runs every "@defer"-suffixed callback across this
// instance and, depth-first, every child, in deterministic key order. Only
// ever invoked by the root, and only once the entire total-error tree is
// confirmed empty.
func (s *Service) runAllDeferCallbacks() {
	var deferred []string
	for k := range s.decl.allCallbacks {
		if strings.HasSuffix(k, "@defer") {
			deferred = append(deferred, k)
		}
	}
	sort.Strings(deferred)

	for _, k := range deferred {
		s.runCallback(k)
	}

	var childKeys []string
	for k := range s.children {
		childKeys = append(childKeys, k)
	}
	sort.Strings(childKeys)

	for _, k := range childKeys {
		s.children[k].runAllDeferCallbacks()
	}
}
