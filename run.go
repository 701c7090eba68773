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

// Run drives this Service's resolution to completion exactly once. At the
// root it returns the final {"result": ...} / {"errors": ...} envelope as a
// map[string]any; called internally on a non-root (a child a loader value
// produced), it returns either the resolved data.result or the internal
// unresolved sentinel instead.
//
// Run panics with a *ProgrammerError on any condition a correct caller
// would never trigger: re-run, a circular validation dependency, a missing
// bind name, a missing "result" on a successful root run, and so on — see
// ProgrammerError. It never recovers its own panics; the caller decides
// what boundary, if any, should recover them.
func (s *Service) Run() any {
	if s.isRun {
		panic(newProgrammerError(s.decl.name, "already run service"))
	}

	s.children = map[string]*Service{}
	s.data = map[string]any{}
	s.errors = map[string][]string{}
	s.validations = map[string]bool{}

	var onSuccess, onFail []func()

	if s.parent == nil {
		var onStart []func()
		onStart, onSuccess, onFail = snapshotProcessCallbacks()
		for _, cb := range onStart {
			cb()
		}
	} else {
		for k, tmpl := range s.names {
			resolved, err := s.parent.resolveBindName(tmpl)
			if err != nil {
				panic(err)
			}
			s.names[k] = resolved
		}
	}

	for key := range s.inputs {
		s.validate(key, "")
	}
	for _, bucket := range s.decl.allRuleLists {
		for key := range bucket {
			s.validate(key, "")
		}
	}
	for key := range s.decl.allLoaders {
		s.validate(key, "")
	}

	totalErrors := s.GetTotalErrors()

	if s.parent == nil {
		if len(totalErrors) == 0 {
			s.runAllDeferCallbacks()
			for _, cb := range onSuccess {
				cb()
			}
		} else {
			for _, cb := range onFail {
				cb()
			}
		}
	}

	s.isRun = true

	if s.parent != nil {
		if len(totalErrors) > 0 {
			return unresolvedResult
		}
		return s.data["result"]
	}

	if len(totalErrors) == 0 {
		if _, ok := s.data["result"]; !ok {
			panic(newProgrammerError(s.decl.name, `successful run produced no "result" in data`))
		}
		return s.opts.builder.BuildSuccess(s.data["result"])
	}
	return s.opts.builder.BuildFailure(totalErrors)
}
