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

// Package demo builds one illustrative declaration for cmd/servicerunner:
// an order summary that loads a customer tier, applies a discount callback,
// and requires a shipping address to be present.
package demo

import (
	"fmt"

	svc "github.com/cappyzawa/service-engine"
	"github.com/cappyzawa/service-engine/internal/obslog"
)

func orderSummaryDeclaration() (*svc.Declaration, error) {
	return svc.NewDeclaration(svc.DeclarationConfig{
		Name: "OrderSummary",
		BindNames: map[string]string{
			"order": "order[...]",
			"tier":  "customer tier",
		},
		Loaders: map[string]svc.Loader{
			"tier": {
				Deps: []string{},
				Fn: func(deps []any) any {
					return "standard"
				},
			},
		},
		Callbacks: map[string]svc.Callback{
			"order__applyDiscount": {
				Deps: []string{"order", "tier"},
				Fn: func(deps []any) (any, bool) {
					order, _ := deps[0].(map[string]any)
					tier, _ := deps[1].(string)
					out := map[string]any{}
					for k, v := range order {
						out[k] = v
					}
					if tier == "gold" {
						out["discountApplied"] = true
					} else {
						out["discountApplied"] = false
					}
					return out, true
				},
			},
		},
		RuleLists: map[string][]map[string]any{
			"order": {
				{
					"type": "object",
					"properties": map[string]any{
						"order": map[string]any{
							"type":     "object",
							"required": []any{"shippingAddress"},
						},
					},
				},
			},
		},
	})
}

// RunOrderSummary runs the order-summary declaration with overrides merged
// over its default input, returning the response envelope.
func RunOrderSummary(overrides map[string]any, development bool) (map[string]any, error) {
	decl, err := orderSummaryDeclaration()
	if err != nil {
		return nil, fmt.Errorf("build declaration: %w", err)
	}

	inputs := map[string]any{
		"order": map[string]any{
			"shippingAddress": "221B Baker Street",
		},
	}
	if v, ok := overrides["order"]; ok {
		inputs["order"] = v
	}

	s, err := svc.New(decl, inputs, nil, svc.WithLogger(obslog.New(development)))
	if err != nil {
		return nil, fmt.Errorf("construct service: %w", err)
	}

	response, ok := s.Run().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected root response type")
	}
	return response, nil
}
