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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewDeclaration", func() {
	It("rejects a bind name key containing a dot", func() {
		_, err := NewDeclaration(DeclarationConfig{
			Name:      "Bad",
			BindNames: map[string]string{"a.b": "whatever"},
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("must not contain"))
	})

	It("accepts a callback key with the @defer suffix and rejects a malformed one", func() {
		_, err := NewDeclaration(DeclarationConfig{
			Name: "Deferring",
			Callbacks: map[string]Callback{
				"order__notify@defer": {Fn: func(deps []any) (any, bool) { return nil, false }},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = NewDeclaration(DeclarationConfig{
			Name: "Malformed",
			Callbacks: map[string]Callback{
				"orderNotify": {Fn: func(deps []any) (any, bool) { return nil, false }},
			},
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("callback pattern"))
	})

	It("rejects a loader key that does not match the top-level key pattern", func() {
		_, err := NewDeclaration(DeclarationConfig{
			Name: "BadLoader",
			Loaders: map[string]Loader{
				"a.b": {Fn: func(deps []any) any { return nil }},
			},
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("top-level key pattern"))
	})

	It("rejects a nil trait", func() {
		_, err := NewDeclaration(DeclarationConfig{
			Name:   "NilTrait",
			Traits: []*Declaration{nil},
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("trait must itself"))
	})

	It("rejects a loader key duplicated across two distinct traits", func() {
		traitA, err := NewDeclaration(DeclarationConfig{
			Name:    "TraitA",
			Loaders: map[string]Loader{"shared": {Fn: func(deps []any) any { return "a" }}},
		})
		Expect(err).NotTo(HaveOccurred())

		traitB, err := NewDeclaration(DeclarationConfig{
			Name:    "TraitB",
			Loaders: map[string]Loader{"shared": {Fn: func(deps []any) any { return "b" }}},
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = NewDeclaration(DeclarationConfig{
			Name:   "Combined",
			Traits: []*Declaration{traitA, traitB},
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("duplicated in traits"))
	})

	It("lets self silently override a trait's bind name and loader for the same key", func() {
		trait, err := NewDeclaration(DeclarationConfig{
			Name:      "Trait",
			BindNames: map[string]string{"shared": "trait name"},
			Loaders:   map[string]Loader{"shared": {Fn: func(deps []any) any { return "trait value" }}},
		})
		Expect(err).NotTo(HaveOccurred())

		self, err := NewDeclaration(DeclarationConfig{
			Name:      "Self",
			Traits:    []*Declaration{trait},
			BindNames: map[string]string{"shared": "self name"},
			Loaders:   map[string]Loader{"shared": {Fn: func(deps []any) any { return "self value" }}},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(self.allBindNames["shared"]).To(Equal("self name"))
		Expect(self.allLoaders["shared"].Fn(nil)).To(Equal("self value"))
	})

	It("unions promise lists across trait and self, deduplicating in first-seen order", func() {
		trait, err := NewDeclaration(DeclarationConfig{
			Name:         "Trait",
			PromiseLists: map[string][]string{"order__apply": {"order__first", "order__second"}},
		})
		Expect(err).NotTo(HaveOccurred())

		self, err := NewDeclaration(DeclarationConfig{
			Name:         "Self",
			Traits:       []*Declaration{trait},
			PromiseLists: map[string][]string{"order__apply": {"order__second", "order__third"}},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(self.allPromiseLists["order__apply"]).To(Equal([]string{"order__first", "order__second", "order__third"}))
	})
})
