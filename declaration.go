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
	"regexp"
)

var (
	topLevelKeyPattern = regexp.MustCompile(`^[A-Za-z]\w*$`)
	callbackKeyPattern = regexp.MustCompile(`^[A-Za-z]\w*__[\w-]+(@defer)?$`)
)

// Loader produces the value for one key. Deps names the other keys the
// loader needs resolved first; Defaults supplies a fallback for a
// dependency that validates true but never receives data (mirrors the
// original's use of a Python default parameter value). Fn receives the
// resolved dependency values in the same order as Deps.
type Loader struct {
	Deps     []string
	Defaults map[string]any
	Fn       func(deps []any) any
}

// Callback is a side-effecting hook owned by a key (the part of its
// declared map key before "__"). If Fn's mutate result is true, the value
// Fn returns replaces data[ownerKey]; otherwise Fn runs purely for its side
// effect and its return value is discarded. A callback may depend on its own
// owning key to read the value currently loaded there. A callback is
// deferred when its key ends in "@defer"; the Deferred field is not read.
type Callback struct {
	Deps     []string
	Defaults map[string]any
	Deferred bool
	Fn       func(deps []any) (value any, mutate bool)
}

// Declaration is the class-level, read-only-after-construction contribution
// of one service class: its own bind names, loaders, callbacks, promise
// lists and rule lists, plus the traits it composes.
type Declaration struct {
	name         string
	bindNames    map[string]string
	loaders      map[string]Loader
	callbacks    map[string]Callback
	promiseLists map[string][]string
	ruleLists    map[string][]map[string]any
	traits       []*Declaration

	allTraits       []*Declaration
	allBindNames    map[string]string
	allLoaders      map[string]Loader
	allCallbacks    map[string]Callback
	allPromiseLists map[string][]string
	allRuleLists    map[*Declaration]map[string][]map[string]any
}

// DeclarationConfig is the plain-value input to NewDeclaration. Name is used
// only to make ProgrammerError messages readable; it plays no role in
// identity (traits are deduplicated by pointer, not by name).
type DeclarationConfig struct {
	Name         string
	BindNames    map[string]string
	Loaders      map[string]Loader
	Callbacks    map[string]Callback
	PromiseLists map[string][]string
	RuleLists    map[string][]map[string]any
	Traits       []*Declaration
}

// NewDeclaration validates a class's own contributions and merges in its
// traits. Validation failures (bad key patterns, a nil trait, a duplicate
// loader/callback key already provided by another trait) are returned as
// *ProgrammerError rather than panicking, since a declaration is ordinarily
// built once at package-init time where a returned error is easy to check.
func NewDeclaration(cfg DeclarationConfig) (*Declaration, error) {
	d := &Declaration{
		name:         cfg.Name,
		bindNames:    copyStringMap(cfg.BindNames),
		loaders:      copyLoaderMap(cfg.Loaders),
		callbacks:    copyCallbackMap(cfg.Callbacks),
		promiseLists: copyPromiseLists(cfg.PromiseLists),
		ruleLists:    copyRuleLists(cfg.RuleLists),
		traits:       append([]*Declaration{}, cfg.Traits...),
	}

	for key := range d.bindNames {
		if dotSegments(key) > 1 {
			return nil, newProgrammerError(d.name, `bind name key "%s" must not contain "."`, key)
		}
	}
	for key := range d.callbacks {
		if !callbackKeyPattern.MatchString(key) {
			return nil, newProgrammerError(d.name, `callback key "%s" does not match the callback pattern`, key)
		}
	}
	for key := range d.loaders {
		if !topLevelKeyPattern.MatchString(key) {
			return nil, newProgrammerError(d.name, `loader key "%s" does not match the top-level key pattern`, key)
		}
	}
	for _, t := range d.traits {
		if t == nil {
			return nil, newProgrammerError(d.name, "trait must itself be a service declaration")
		}
	}

	if err := d.computeAllTraits(); err != nil {
		return nil, err
	}
	if err := d.computeAllLoaders(); err != nil {
		return nil, err
	}
	if err := d.computeAllCallbacks(); err != nil {
		return nil, err
	}
	d.computeAllBindNames()
	d.computeAllPromiseLists()
	d.computeAllRuleLists()

	return d, nil
}

func (d *Declaration) computeAllTraits() error {
	seen := map[*Declaration]bool{}
	var arr []*Declaration

	var walk func(*Declaration) error
	walk = func(t *Declaration) error {
		for _, sub := range t.traits {
			if sub == nil {
				return newProgrammerError(d.name, "trait must itself be a service declaration")
			}
			if err := walk(sub); err != nil {
				return err
			}
		}
		if !seen[t] {
			seen[t] = true
			arr = append(arr, t)
		}
		return nil
	}

	for _, t := range d.traits {
		if err := walk(t); err != nil {
			return err
		}
	}

	d.allTraits = arr
	return nil
}

// computeAllBindNames unions bind names over traits then self, with the
// declaring class overwriting any trait contribution of the same key.
func (d *Declaration) computeAllBindNames() {
	arr := map[string]string{}
	for _, cls := range append(append([]*Declaration{}, d.allTraits...), d) {
		for k, v := range cls.bindNames {
			arr[k] = v
		}
	}
	d.allBindNames = arr
}

// computeAllLoaders merges direct traits (each already fully merged with
// its own traits), raising on a key duplicated across two distinct traits;
// the declaring class's own loaders are then layered on top without a
// duplicate check, since self is always allowed to override a trait.
func (d *Declaration) computeAllLoaders() error {
	arr := map[string]Loader{}
	for _, t := range d.traits {
		for k, loader := range t.allLoaders {
			if _, exists := arr[k]; exists {
				return newProgrammerError(d.name, `"%s" loader key is duplicated in traits`, k)
			}
			arr[k] = loader
		}
	}
	for k, loader := range d.loaders {
		arr[k] = loader
	}
	d.allLoaders = arr
	return nil
}

func (d *Declaration) computeAllCallbacks() error {
	arr := map[string]Callback{}
	for _, t := range d.traits {
		for k, cb := range t.allCallbacks {
			if _, exists := arr[k]; exists {
				return newProgrammerError(d.name, `"%s" callback key is duplicated in traits`, k)
			}
			arr[k] = cb
		}
	}
	for k, cb := range d.callbacks {
		arr[k] = cb
	}
	d.allCallbacks = arr
	return nil
}

// computeAllPromiseLists unions promise predecessors per callback key over
// allTraits+self, deduplicating while preserving first-seen order.
func (d *Declaration) computeAllPromiseLists() {
	arr := map[string][]string{}
	for _, cls := range append(append([]*Declaration{}, d.allTraits...), d) {
		for key, promises := range cls.promiseLists {
			existing := arr[key]
			for _, p := range promises {
				if !containsString(existing, p) {
					existing = append(existing, p)
				}
			}
			arr[key] = existing
		}
	}
	d.allPromiseLists = arr
}

// computeAllRuleLists buckets each class's own rule lists under that
// class's identity, so rules declared by different traits never merge.
func (d *Declaration) computeAllRuleLists() {
	arr := map[*Declaration]map[string][]map[string]any{}
	for _, cls := range append(append([]*Declaration{}, d.allTraits...), d) {
		bucket := map[string][]map[string]any{}
		for k, rules := range cls.ruleLists {
			bucket[k] = append([]map[string]any{}, rules...)
		}
		arr[cls] = bucket
	}
	d.allRuleLists = arr
}

func dotSegments(key string) int {
	n := 1
	for _, r := range key {
		if r == '.' {
			n++
		}
	}
	return n
}

func containsString(arr []string, s string) bool {
	for _, v := range arr {
		if v == s {
			return true
		}
	}
	return false
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyLoaderMap(m map[string]Loader) map[string]Loader {
	out := make(map[string]Loader, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyCallbackMap(m map[string]Callback) map[string]Callback {
	out := make(map[string]Callback, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyPromiseLists(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string{}, v...)
	}
	return out
}

func copyRuleLists(m map[string][]map[string]any) map[string][]map[string]any {
	out := make(map[string][]map[string]any, len(m))
	for k, v := range m {
		out[k] = append([]map[string]any{}, v...)
	}
	return out
}
