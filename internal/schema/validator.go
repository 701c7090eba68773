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

// Package schema adapts github.com/santhosh-tekuri/jsonschema/v5 to the
// engine's Validator contract: compile a rule fragment as a Draft 2020-12
// schema anchored at the document root, validate it against the current
// data, and flatten every violation (recursing through AllOf/AnyOf/OneOf
// causes) into one Issue per leaf.
package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Issue is one flattened schema violation.
type Issue struct {
	// Path is the sequence of data keys from the document root to the value
	// that failed, not including RequiredProperty.
	Path []string
	// RequiredProperty is set when the violation is a missing required
	// property; Path names the object that should have contained it.
	RequiredProperty string
	// Message is the validator's own text, used for any non-required
	// violation.
	Message string
}

var requiredMsgRe = regexp.MustCompile(`missing propert(?:y|ies):\s*(.+)$`)
var quotedNameRe = regexp.MustCompile(`'([^']*)'`)

// Adapter compiles and validates one rule fragment at a time. Rules arrive
// as already-decoded map[string]any values (not raw JSON text), so each
// call round-trips the rule through json.Marshal to hand the compiler a
// reader it can parse, then compiles it under a fresh, process-unique
// resource id — rules are dynamic and never reused across calls, so there
// is no benefit in caching compiled schemas the way a long-lived service
// mesh validator would.
type Adapter struct{}

// New constructs a schema Adapter.
func New() *Adapter { return &Adapter{} }

var resourceSeq int64

// Validate compiles rule as a Draft 2020-12 schema and validates items
// against it, flattening every violation into a slice of Issue.
func (a *Adapter) Validate(items map[string]any, rule map[string]any) ([]Issue, error) {
	raw, err := json.Marshal(rule)
	if err != nil {
		return nil, fmt.Errorf("marshal rule: %w", err)
	}

	id := fmt.Sprintf("mem://rule-%d.json", atomic.AddInt64(&resourceSeq, 1))
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(id, strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("add rule resource: %w", err)
	}
	compiled, err := compiler.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("compile rule: %w", err)
	}

	// jsonschema validates against plain Go values decoded the way
	// encoding/json would (map[string]interface{}, []interface{},
	// float64...); items is already shaped that way, round-trip it anyway
	// so nested structs/pointers left by a misbehaving loader normalize the
	// same way they would for the real document.
	itemsRaw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	var instance any
	if err := json.Unmarshal(itemsRaw, &instance); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}

	verr := compiled.Validate(instance)
	if verr == nil {
		return nil, nil
	}
	ve, ok := verr.(*jsonschema.ValidationError)
	if !ok {
		return []Issue{{Message: verr.Error()}}, nil
	}

	var issues []Issue
	flatten(ve, &issues)
	return issues, nil
}

func flatten(ve *jsonschema.ValidationError, out *[]Issue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			flatten(cause, out)
		}
		return
	}

	path := instanceLocationPath(ve.InstanceLocation)
	if m := requiredMsgRe.FindStringSubmatch(ve.Message); m != nil {
		for _, name := range quotedNameRe.FindAllStringSubmatch(m[1], -1) {
			*out = append(*out, Issue{Path: append([]string{}, path...), RequiredProperty: name[1]})
		}
		return
	}

	*out = append(*out, Issue{Path: path, Message: ve.Message})
}

// instanceLocationPath turns a JSON-pointer-shaped location ("/a/b/0") into
// its segment list, unescaping "~1"/"~0" per RFC 6901.
func instanceLocationPath(loc string) []string {
	loc = strings.TrimPrefix(loc, "/")
	if loc == "" {
		return nil
	}
	segs := strings.Split(loc, "/")
	for i, s := range segs {
		s = strings.ReplaceAll(s, "~1", "/")
		s = strings.ReplaceAll(s, "~0", "~")
		segs[i] = s
	}
	return segs
}
