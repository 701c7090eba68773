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

// Package engine implements a declarative service-execution runtime: a
// declaration supplies inputs, loaders, rule lists, callbacks, promise
// lists, bind names and traits for a single "service", and the engine
// resolves a dependency graph derived from those declarations into a
// single {"result": ...} or {"errors": {...}} response.
package engine

import "sync"

// onStart, onSuccess and onFail are process-wide, append-only hooks invoked
// exactly once by a root Service's Run, regardless of how deep the service
// tree is. They are guarded by a mutex only so registration is safe to call
// from parallel ginkgo specs in test setup; the engine itself never runs
// concurrently.
var (
	processCallbacksMu sync.Mutex
	onStartCallbacks   []func()
	onSuccessCallbacks []func()
	onFailCallbacks    []func()
)

// AddOnStartCallback registers a hook invoked once before a root service
// begins resolving. Must be called before Run; there is no removal API.
func AddOnStartCallback(cb func()) {
	processCallbacksMu.Lock()
	defer processCallbacksMu.Unlock()
	onStartCallbacks = append(onStartCallbacks, cb)
}

// AddOnSuccessCallback registers a hook invoked once when a root service's
// Run completes with an empty total-error tree.
func AddOnSuccessCallback(cb func()) {
	processCallbacksMu.Lock()
	defer processCallbacksMu.Unlock()
	onSuccessCallbacks = append(onSuccessCallbacks, cb)
}

// AddOnFailCallback registers a hook invoked once when a root service's Run
// completes with a non-empty total-error tree.
func AddOnFailCallback(cb func()) {
	processCallbacksMu.Lock()
	defer processCallbacksMu.Unlock()
	onFailCallbacks = append(onFailCallbacks, cb)
}

func snapshotProcessCallbacks() (start, success, fail []func()) {
	processCallbacksMu.Lock()
	defer processCallbacksMu.Unlock()
	return append([]func(){}, onStartCallbacks...),
		append([]func(){}, onSuccessCallbacks...),
		append([]func(){}, onFailCallbacks...)
}

// resetProcessCallbacksForTest clears the process-wide registries. It is
// unexported (visible only inside package engine) for use by this package's
// test suites that need a clean slate between specs.
func resetProcessCallbacksForTest() {
	processCallbacksMu.Lock()
	defer processCallbacksMu.Unlock()
	onStartCallbacks = nil
	onSuccessCallbacks = nil
	onFailCallbacks = nil
}
