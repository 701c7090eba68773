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

	"github.com/go-logr/logr/funcr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Callbacks", func() {
	It("runs two callbacks on the same key in promise-list order", func() {
		decl, err := NewDeclaration(DeclarationConfig{
			Name: "Ordering",
			Loaders: map[string]Loader{
				"result": {Fn: func(deps []any) any { return 0 }},
			},
			Callbacks: map[string]Callback{
				"result__addOne": {
					Deps: []string{"result"},
					Fn: func(deps []any) (any, bool) {
						return deps[0].(int) + 1, true
					},
				},
				"result__double": {
					Deps: []string{"result"},
					Fn: func(deps []any) (any, bool) {
						return deps[0].(int) * 2, true
					},
				},
			},
			PromiseLists: map[string][]string{
				"result__double": {"result__addOne"},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		s, err := New(decl, nil, nil)
		Expect(err).NotTo(HaveOccurred())

		resp, ok := s.Run().(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(resp["result"]).To(Equal(2))
	})

	deferredDecl := func() (*Declaration, error) {
		return NewDeclaration(DeclarationConfig{
			Name:      "Deferring",
			BindNames: map[string]string{"result": "result"},
			Callbacks: map[string]Callback{
				"result__markChecked@defer": {
					Deps: []string{"result"},
					Fn: func(deps []any) (any, bool) {
						return deps[0].(string) + "-checked", true
					},
				},
			},
			RuleLists: map[string][]map[string]any{
				"result": {
					{
						"type": "object",
						"properties": map[string]any{
							"result": map[string]any{
								"type":      "string",
								"minLength": 2,
							},
						},
					},
				},
			},
		})
	}

	It("runs a deferred callback's mutation once the run succeeds", func() {
		decl, err := deferredDecl()
		Expect(err).NotTo(HaveOccurred())

		s, err := New(decl, map[string]any{"result": "abc"}, nil)
		Expect(err).NotTo(HaveOccurred())

		resp, ok := s.Run().(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(resp["errors"]).To(BeNil())
		Expect(resp["result"]).To(Equal("abc-checked"))
	})

	It("never runs a deferred callback's mutation when the run fails", func() {
		decl, err := deferredDecl()
		Expect(err).NotTo(HaveOccurred())

		s, err := New(decl, map[string]any{"result": "a"}, nil)
		Expect(err).NotTo(HaveOccurred())

		resp, ok := s.Run().(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(resp["errors"]).NotTo(BeNil())
		Expect(s.GetData()["result"]).To(Equal("a"))
	})

	It("logs and skips a callback whose dependency validates true but never actually resolves to data", func() {
		decl, err := NewDeclaration(DeclarationConfig{
			Name: "UnresolvedDep",
			Loaders: map[string]Loader{
				"result": {Fn: func(deps []any) any { return "final value" }},
			},
			Callbacks: map[string]Callback{
				"result__cb": {
					Deps: []string{"result.child"},
					Fn: func(deps []any) (any, bool) {
						return "should never run", true
					},
				},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		var logged []string
		logger := funcr.New(func(prefix, args string) {
			logged = append(logged, args)
		}, funcr.Options{Verbosity: 1})

		s, err := New(decl, nil, nil, WithLogger(logger))
		Expect(err).NotTo(HaveOccurred())

		resp, ok := s.Run().(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(resp["errors"]).To(BeNil())
		Expect(resp["result"]).To(Equal("final value"))

		Expect(logged).NotTo(BeEmpty())
		Expect(strings.Join(logged, "\n")).To(ContainSubstring("skipping callback"))
	})
})
