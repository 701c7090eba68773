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

const defaultMaxNameDepth = 64

// ValidationIssue is one schema violation reported by a Validator. Path is
// the sequence of data keys from the document root to the value that
// failed. RequiredProperty is set when the violation is a missing required
// property (Path names the object that should have contained it); otherwise
// Message carries the validator's own text verbatim.
type ValidationIssue struct {
	Path             []string
	RequiredProperty string
	Message          string
}

// Validator is the external JSON-Schema contract RuleEngine invokes once per
// surviving rule, against items (a deep copy of the current data). Rules are
// root-anchored: a rule filed under dotted key "a.b" is a full schema whose
// "properties" nest from the document root down to "a" then "b".
type Validator interface {
	Validate(items map[string]any, rule map[string]any) ([]ValidationIssue, error)
}

// ResponseBuilder assembles the root-level success/failure envelope from a
// resolved result and the accumulated error tree. The default builder
// produces {"result": ...} / {"errors": ...} per ResponseAssembler.
type ResponseBuilder interface {
	BuildSuccess(result any) map[string]any
	BuildFailure(totalErrors map[string]any) map[string]any
}

type defaultResponseBuilder struct{}

func (defaultResponseBuilder) BuildSuccess(result any) map[string]any {
	return map[string]any{"result": result}
}

func (defaultResponseBuilder) BuildFailure(totalErrors map[string]any) map[string]any {
	return map[string]any{"errors": totalErrors}
}

type options struct {
	logger       logr.Logger
	validator    Validator
	builder      ResponseBuilder
	maxNameDepth int
}

// Option configures a Service at construction time.
type Option func(*options)

// WithLogger attaches a logr.Logger used for structured diagnostics during
// Run. Defaults to logr.Discard().
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithValidator overrides the JSON-Schema validator RuleEngine invokes.
// Defaults to the internal/schema santhosh-tekuri/jsonschema adapter.
func WithValidator(v Validator) Option {
	return func(o *options) { o.validator = v }
}

// WithResponseBuilder overrides how the root assembles its final
// success/failure envelope.
func WithResponseBuilder(b ResponseBuilder) Option {
	return func(o *options) { o.builder = b }
}

// WithMaxNameDepth caps how many nested {{...}} substitutions resolveBindName
// will perform before giving up with a ProgrammerError, guarding against a
// pathological bind-name declaration that does not actually terminate.
func WithMaxNameDepth(n int) Option {
	return func(o *options) { o.maxNameDepth = n }
}

func newOptions(opts ...Option) *options {
	o := &options{
		logger:       logr.Discard(),
		builder:      defaultResponseBuilder{},
		maxNameDepth: defaultMaxNameDepth,
	}
	for _, apply := range opts {
		apply(o)
	}
	if o.validator == nil {
		o.validator = newSchemaValidator()
	}
	return o
}
