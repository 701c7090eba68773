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
	"github.com/go-logr/logr"
)

// Service is one running instance of a Declaration. Construct with New,
// optionally extend inputs/names with With, then call Run exactly once.
type Service struct {
	decl   *Declaration
	inputs map[string]any
	names  map[string]string

	data        map[string]any
	validations map[string]bool
	errors      map[string][]string
	children    map[string]*Service
	parent      *Service
	isRun       bool

	opts *options
	log  logr.Logger
}

// New constructs a Service from a Declaration and its inputs/bind-name
// overrides. Input keys must match the top-level key grammar; violating
// that, or supplying the same key twice, is a ProgrammerError.
func New(decl *Declaration, inputs map[string]any, names map[string]string, opt ...Option) (*Service, error) {
	return newWithOptions(decl, inputs, names, newOptions(opt...))
}

// newWithOptions builds a Service sharing an already-constructed options
// value, used by New (a fresh options set) and by the LoaderRunner when it
// instantiates a child service (the parent's options, so logger/validator/
// response-builder/name-depth are consistent across the whole tree).
func newWithOptions(decl *Declaration, inputs map[string]any, names map[string]string, opts *options) (*Service, error) {
	s := &Service{
		decl:        decl,
		inputs:      map[string]any{},
		names:       map[string]string{},
		validations: map[string]bool{},
		errors:      map[string][]string{},
		children:    map[string]*Service{},
		opts:        opts,
		log:         opts.logger,
	}

	if err := s.merge(inputs, names); err != nil {
		return nil, err
	}
	return s, nil
}

// With merges additional inputs/names into a fresh clone of s, mirroring
// the original's setWith/_clone pattern: the receiver is left untouched so
// a caller may extend the same base, or a value returned by an earlier
// With, without either value observing the other's mutation.
func (s *Service) With(inputs map[string]any, names map[string]string) (*Service, error) {
	clone := s.shallowClone()
	if err := clone.merge(inputs, names); err != nil {
		return nil, err
	}
	return clone, nil
}

func (s *Service) shallowClone() *Service {
	clone := *s
	clone.inputs = copyAnyMap(s.inputs)
	clone.names = copyStringMap(s.names)
	clone.validations = map[string]bool{}
	clone.errors = map[string][]string{}
	clone.children = map[string]*Service{}
	clone.data = nil
	return &clone
}

func (s *Service) merge(inputs map[string]any, names map[string]string) error {
	if s.isRun {
		return newProgrammerError(s.decl.name, "already run service")
	}

	for key := range inputs {
		if !topLevelKeyPattern.MatchString(key) {
			return newProgrammerError(s.decl.name, `"%s" input key does not match the top-level key pattern`, key)
		}
		if _, exists := s.inputs[key]; exists {
			return newProgrammerError(s.decl.name, `"%s" input key is duplicated`, key)
		}
	}
	for key := range names {
		if _, exists := s.names[key]; exists {
			return newProgrammerError(s.decl.name, `"%s" name key is duplicated`, key)
		}
	}

	for key, value := range inputs {
		if value == "" {
			continue
		}
		s.inputs[key] = value
	}
	for key, value := range names {
		s.names[key] = value
	}
	return nil
}

func (s *Service) setParent(parent *Service) {
	s.parent = parent
}

// GetData returns a defensive deep copy of the resolved key/value data.
func (s *Service) GetData() map[string]any { return deepCopyAny(s.data).(map[string]any) }

// GetInputs returns a defensive deep copy of the inputs supplied to New/With.
func (s *Service) GetInputs() map[string]any { return deepCopyAny(s.inputs).(map[string]any) }

// GetNames returns a defensive deep copy of the per-instance bind-name
// template overrides.
func (s *Service) GetNames() map[string]string { return copyStringMap(s.names) }

// GetErrors returns a defensive deep copy of this instance's own errors,
// keyed by dotted rule path.
func (s *Service) GetErrors() map[string][]string {
	out := make(map[string][]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = append([]string{}, v...)
	}
	return out
}

// GetValidations returns a defensive deep copy of the validation memo.
func (s *Service) GetValidations() map[string]bool {
	out := make(map[string]bool, len(s.validations))
	for k, v := range s.validations {
		out[k] = v
	}
	return out
}

// GetChilds returns a defensive shallow copy of the child-service map
// (childKey -> child Service). Child instances themselves are not copied;
// they are already owned exclusively by this instance.
func (s *Service) GetChilds() map[string]*Service {
	out := make(map[string]*Service, len(s.children))
	for k, v := range s.children {
		out[k] = v
	}
	return out
}

// GetTotalErrors folds this instance's own errors together with every
// child's total errors, keyed by child key, recursively.
func (s *Service) GetTotalErrors() map[string]any {
	out := map[string]any{}
	for k, v := range s.GetErrors() {
		out[k] = anySliceFromStrings(v)
	}
	for key, child := range s.GetChilds() {
		childErrors := child.GetTotalErrors()
		if len(childErrors) > 0 {
			out[key] = childErrors
		}
	}
	return out
}

func anySliceFromStrings(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func copyAnyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
