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

// ProgrammerError represents a misuse of the engine that a correct caller
// would never trigger: a malformed declaration, a circular dependency, a
// re-run, a missing "result" on success. These are never recovered inside
// the engine itself; Run panics with a ProgrammerError and expects the
// caller to recover at whatever boundary makes sense for it (see Run).
type ProgrammerError struct {
	Class string // the declaration/service this was raised against
	Msg    string
}

func (e *ProgrammerError) Error() string {
	if e.Class == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s in %s", e.Msg, e.Class)
}

func newProgrammerError(class, format string, args ...any) *ProgrammerError {
	return &ProgrammerError{Class: class, Msg: fmt.Sprintf(format, args...)}
}
