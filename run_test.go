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
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Run end-to-end", func() {
	It("passes an input straight through to the result when its own rule is satisfied", func() {
		decl, err := NewDeclaration(DeclarationConfig{
			Name:      "Passthrough",
			BindNames: map[string]string{"result": "result"},
			RuleLists: map[string][]map[string]any{
				"result": {{"required": []any{"result"}}},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		s, err := New(decl, map[string]any{"result": "value"}, nil)
		Expect(err).NotTo(HaveOccurred())

		resp, ok := s.Run().(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(s.GetTotalErrors()).To(BeEmpty())
		Expect(resp).To(Equal(map[string]any{"result": "value"}))
	})

	It("skips a callback whose dependency has no loader, while its sibling still mutates the result", func() {
		decl, err := NewDeclaration(DeclarationConfig{
			Name: "Gating",
			Loaders: map[string]Loader{
				"test1": {Fn: func(deps []any) any { return "test1 val" }},
			},
			Callbacks: map[string]Callback{
				"result__cb1": {
					Deps: []string{"result", "test1"},
					Fn: func(deps []any) (any, bool) {
						order, _ := deps[0].(map[string]any)
						out := map[string]any{}
						for k, v := range order {
							out[k] = v
						}
						out["abcd"] = deps[1]
						return out, true
					},
				},
				"result__cb2": {
					Deps: []string{"result", "test2"},
					Fn: func(deps []any) (any, bool) {
						panic("cb2 must never run: test2 is unresolvable")
					},
				},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		s, err := New(decl, map[string]any{"result": map[string]any{"aaaa": "aaaa"}}, nil)
		Expect(err).NotTo(HaveOccurred())

		resp, ok := s.Run().(map[string]any)
		Expect(ok).To(BeTrue())

		validations := s.GetValidations()
		Expect(validations["result"]).To(BeTrue())
		Expect(validations["test1"]).To(BeTrue())
		Expect(validations["test2"]).To(BeTrue())

		Expect(resp["result"]).To(Equal(map[string]any{"aaaa": "aaaa", "abcd": "test1 val"}))
	})

	It("resolves an array of child services into an array of their results", func() {
		childDecl, err := NewDeclaration(DeclarationConfig{
			Name: "Child",
			Loaders: map[string]Loader{
				"result": {Fn: func(deps []any) any { return "child result value" }},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		parentDecl, err := NewDeclaration(DeclarationConfig{Name: "Parent"})
		Expect(err).NotTo(HaveOccurred())

		s, err := New(parentDecl, map[string]any{
			"result": []any{
				&ChildDescriptor{Decl: childDecl},
				&ChildDescriptor{Decl: childDecl},
			},
		}, nil)
		Expect(err).NotTo(HaveOccurred())

		resp, ok := s.Run().(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(resp["result"]).To(Equal([]any{"child result value", "child result value"}))
	})

	It("fails a key whose descendant rule rejects the loaded shape", func() {
		decl, err := NewDeclaration(DeclarationConfig{
			Name:      "DescendantFailure",
			BindNames: map[string]string{"result": "result[...]"},
			Loaders: map[string]Loader{
				"result": {Fn: func(deps []any) any {
					return map[string]any{
						"a": map[string]any{"c": "ccc"},
						"b": map[string]any{"c": "ccc"},
					}
				}},
			},
			RuleLists: map[string][]map[string]any{
				"result": {{
					"type":       "object",
					"properties": map[string]any{"result": map[string]any{"type": "object"}},
				}},
				"result.a": {{
					"type": "object",
					"properties": map[string]any{
						"result": map[string]any{
							"properties": map[string]any{"a": map[string]any{"type": "string"}},
						},
					},
				}},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		s, err := New(decl, nil, nil)
		Expect(err).NotTo(HaveOccurred())

		_, ok := s.Run().(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(s.GetValidations()["result"]).To(BeFalse())
	})

	It("prunes sibling branches independently when one parent-level rule fails", func() {
		decl, err := NewDeclaration(DeclarationConfig{
			Name:      "IndependentPruning",
			BindNames: map[string]string{"result": "result[...]"},
			Loaders: map[string]Loader{
				"result": {Fn: func(deps []any) any {
					return map[string]any{
						"a": map[string]any{"c": "ccc"},
						"b": map[string]any{"c": "ccc"},
					}
				}},
			},
			RuleLists: map[string][]map[string]any{
				"result": {{
					"type":       "object",
					"properties": map[string]any{"result": map[string]any{"type": "object"}},
				}},
				"result.a": {{
					"type": "object",
					"properties": map[string]any{
						"result": map[string]any{
							"properties": map[string]any{
								"a": map[string]any{"type": "object", "required": []any{"d"}},
							},
						},
					},
				}},
				"result.a.c": {{
					"type": "object",
					"properties": map[string]any{
						"result": map[string]any{
							"properties": map[string]any{
								"a": map[string]any{
									"properties": map[string]any{"c": map[string]any{"type": "string"}},
								},
							},
						},
					},
				}},
				"result.b": {{
					"type": "object",
					"properties": map[string]any{
						"result": map[string]any{
							"properties": map[string]any{"b": map[string]any{"type": "object"}},
						},
					},
				}},
				"result.b.c": {{
					"type": "object",
					"properties": map[string]any{
						"result": map[string]any{
							"properties": map[string]any{
								"b": map[string]any{
									"properties": map[string]any{"c": map[string]any{"type": "string"}},
								},
							},
						},
					},
				}},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		s, err := New(decl, nil, nil)
		Expect(err).NotTo(HaveOccurred())

		s.Run()

		validations := s.GetValidations()
		Expect(validations["result"]).To(BeFalse())
		Expect(validations["result.a"]).To(BeFalse())
		Expect(validations["result.a.c"]).To(BeFalse())
		Expect(validations["result.b"]).To(BeTrue())
		Expect(validations["result.b.c"]).To(BeTrue())
	})

	It("substitutes a [...] bind name with the dotted path of a nested required-property error", func() {
		decl, err := NewDeclaration(DeclarationConfig{
			Name: "NameSubstitution",
			RuleLists: map[string][]map[string]any{
				"result": {{
					"type":       "object",
					"properties": map[string]any{"result": map[string]any{"type": "object"}},
				}},
				"result.a": {{
					"type": "object",
					"properties": map[string]any{
						"result": map[string]any{
							"properties": map[string]any{
								"a": map[string]any{"type": "object", "required": []any{"b"}},
							},
						},
					},
				}},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		s, err := New(decl, map[string]any{"result": map[string]any{"a": map[string]any{}}},
			map[string]string{"result": "result[...] name"})
		Expect(err).NotTo(HaveOccurred())

		s.Run()

		found := false
		for _, msgs := range s.GetErrors() {
			for _, msg := range msgs {
				if strings.Contains(msg, "result[a][b]") {
					found = true
				}
			}
		}
		Expect(found).To(BeTrue())
	})

	It("panics on a second Run of the same service", func() {
		decl, err := NewDeclaration(DeclarationConfig{Name: "Idempotence"})
		Expect(err).NotTo(HaveOccurred())

		s, err := New(decl, map[string]any{"result": "value"}, nil)
		Expect(err).NotTo(HaveOccurred())

		s.Run()
		Expect(func() { s.Run() }).To(Panic())
	})

	It("propagates a failing child's errors under its own child key and keeps the parent key unresolved", func() {
		childDecl, err := NewDeclaration(DeclarationConfig{
			Name:      "FailingChild",
			BindNames: map[string]string{"result": "result"},
			RuleLists: map[string][]map[string]any{
				"result": {{
					"type":       "object",
					"properties": map[string]any{"result": map[string]any{"type": "string", "minLength": 3}},
				}},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		parentDecl, err := NewDeclaration(DeclarationConfig{Name: "Parent"})
		Expect(err).NotTo(HaveOccurred())

		s, err := New(parentDecl, map[string]any{
			"result": &ChildDescriptor{
				Decl:   childDecl,
				Inputs: map[string]any{"result": "a"},
			},
		}, nil)
		Expect(err).NotTo(HaveOccurred())

		resp, ok := s.Run().(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(resp["errors"]).NotTo(BeNil())

		data := s.GetData()
		_, exists := data["result"]
		Expect(exists).To(BeFalse())
		Expect(s.GetValidations()["result"]).To(BeFalse())

		totalErrors := s.GetTotalErrors()
		Expect(totalErrors["result"]).NotTo(BeNil())
	})
})
