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

import "fmt"

// ChildDescriptor is the Go analogue of the source's `[ServiceClass,
// inputs?, names?]` loader return value: a loader (or input) may hand back
// one of these (or a slice of them) instead of a plain value, and the
// LoaderRunner will construct, parent, and run a child Service from it.
type ChildDescriptor struct {
	Decl   *Declaration
	Inputs map[string]any
	Names  map[string]string
}

// unresolvedMarker is the distinguished sentinel a child Run returns in
// place of a value when that child finished with errors; the parent's
// LoaderRunner recognizes it by identity via isUnresolvedResult.
type unresolvedMarker struct{}

var unresolvedResult any = unresolvedMarker{}

func isUnresolvedResult(v any) bool {
	_, ok := v.(unresolvedMarker)
	return ok
}

func isChildValue(v any) bool {
	switch v.(type) {
	case *ChildDescriptor, *Service:
		return true
	}
	return false
}

// loadKey is the LoaderRunner: idempotently resolves data[key], taking
// inputs over the declared loader, running any child-service values to
// completion, and writing data[key] only when every item resolved cleanly.
func (s *Service) loadKey(key string) map[string]any {
	if _, exists := s.data[key]; exists {
		return s.data
	}

	var value any
	switch {
	case mapHas(s.inputs, key):
		value = s.inputs[key]
	default:
		loader, ok := s.decl.allLoaders[key]
		if !ok {
			return s.data
		}
		vals, ok := s.resolveDeps(loader.Deps, loader.Defaults, key)
		if !ok {
			return s.data
		}
		value = loader.Fn(vals)
		if isUnresolvedResult(value) {
			return s.data
		}
	}

	hasServicesInArray := false
	if arr, isArr := value.([]any); isArr {
		for _, v := range arr {
			if isChildValue(v) {
				hasServicesInArray = true
				break
			}
		}
	}

	var items []any
	if hasServicesInArray {
		items = value.([]any)
	} else {
		items = []any{value}
	}

	resolved := make([]any, len(items))
	copy(resolved, items)
	hasResolveError := false

	for i, item := range items {
		if !isChildValue(item) {
			continue
		}

		child, err := s.instantiateChild(item)
		if err != nil {
			panic(err)
		}
		child.setParent(s)

		childKey := key
		if hasServicesInArray {
			childKey = fmt.Sprintf("%s.%d", key, i)
		}
		s.children[childKey] = child

		out := child.Run()
		if isUnresolvedResult(out) {
			hasResolveError = true
			s.validations[key] = false
			continue
		}
		resolved[i] = out
	}

	if hasResolveError {
		return s.data
	}

	if hasServicesInArray {
		s.data[key] = resolved
	} else {
		s.data[key] = resolved[0]
	}
	return s.data
}

func mapHas(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

// instantiateChild constructs (or adopts) a *Service from a loader value
// that is a child-service reference, resolving its name templates through
// the parent first.
func (s *Service) instantiateChild(v any) (*Service, error) {
	switch x := v.(type) {
	case *Service:
		return x, nil
	case *ChildDescriptor:
		names := map[string]string{}
		for k, tmpl := range x.Names {
			resolved, err := s.resolveBindName(tmpl)
			if err != nil {
				return nil, err
			}
			names[k] = resolved
		}
		return newWithOptions(x.Decl, x.Inputs, names, s.opts)
	default:
		return nil, newProgrammerError(s.decl.name, "not a child service value")
	}
}
