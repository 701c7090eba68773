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

import "github.com/cappyzawa/service-engine/internal/schema"

// schemaValidator adapts internal/schema's jsonschema/v5-backed Adapter to
// the Validator interface so Service never imports internal/schema
// directly; a caller supplying WithValidator never needs to know the
// default implementation exists.
type schemaValidator struct {
	adapter *schema.Adapter
}

func newSchemaValidator() Validator {
	return &schemaValidator{adapter: schema.New()}
}

func (v *schemaValidator) Validate(items map[string]any, rule map[string]any) ([]ValidationIssue, error) {
	issues, err := v.adapter.Validate(items, rule)
	if err != nil {
		return nil, err
	}
	out := make([]ValidationIssue, len(issues))
	for i, iss := range issues {
		out[i] = ValidationIssue{
			Path:             iss.Path,
			RequiredProperty: iss.RequiredProperty,
			Message:          iss.Message,
		}
	}
	return out, nil
}
