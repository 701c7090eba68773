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
	"sort"
	"strings"
)

var presentRelatedKeywords = []string{
	"required", "properties", "dependentRequired",
	"allOf", "anyOf", "oneOf", "if", "then", "else",
}

func validationErrorTemplateMessages() map[string]string {
	return map[string]string{"required": "'{property}' is required"}
}

// validateWith is the RuleEngine: for key, walk every class (traits then
// self) and check its related rule lists against items, recording errors
// and flipping validations[key] false on the first rule-schema violation
// found in any class (matching the source's early-return-on-first-failure
// behavior rather than accumulating across every class).
func (s *Service) validateWith(key string, items map[string]any, depth string) bool {
	classes := append(append([]*Declaration{}, s.decl.allTraits...), s.decl)

	for _, cls := range classes {
		names := map[string]string{}
		ruleLists := s.relatedRuleLists(key, cls)
		ruleLists = s.filterAvailableExpandedRuleLists(cls, items, ruleLists)

		for k, ruleList := range ruleLists {
			var kept []map[string]any
			for _, rule := range ruleList {
				dropped := false
				for _, depKey := range dependencyKeysInRule(rule) {
					if strings.Contains(depKey, ".*") {
						panic(newProgrammerError(cls.name, `wildcard(*) key can't appear in a rule dependency`))
					}
					if !s.validate(depKey, depth) {
						s.validations[key] = false
						dropped = true
					}
					resolvedName, err := s.resolveBindName("{{" + depKey + "}}")
					if err != nil {
						panic(err)
					}
					names[depKey] = resolvedName
				}
				if !dropped {
					kept = append(kept, stripDependencyWrappers(rule))
				}
			}
			ruleLists[k] = kept
		}

		for k, ruleList := range ruleLists {
			if len(ruleList) > 0 {
				resolvedName, err := s.resolveBindName("{{" + k + "}}")
				if err != nil {
					panic(err)
				}
				names[k] = resolvedName
			}
		}

		messages := validationErrorTemplateMessages()

		var ruleKeys []string
		for k := range ruleLists {
			ruleKeys = append(ruleKeys, k)
		}
		sort.Strings(ruleKeys)

		for _, ruleKey := range ruleKeys {
			ruleList := ruleLists[ruleKey]
			var issues []ValidationIssue
			for _, rule := range ruleList {
				ruleIssues, err := s.opts.validator.Validate(items, rule)
				if err != nil {
					panic(newProgrammerError(cls.name, "rule %q failed to compile: %v", ruleKey, err))
				}
				issues = append(issues, ruleIssues...)
			}
			if len(issues) == 0 {
				continue
			}

			for _, issue := range issues {
				s.appendError(ruleKey, formatIssue(issue, names, messages))
			}
			s.validations[key] = false
			return false
		}
	}

	if v, ok := s.validations[key]; ok && !v {
		return false
	}
	s.validations[key] = true
	return true
}

func (s *Service) appendError(ruleKey, msg string) {
	for _, existing := range s.errors[ruleKey] {
		if existing == msg {
			return
		}
	}
	s.errors[ruleKey] = append(s.errors[ruleKey], msg)
}

func formatIssue(issue ValidationIssue, names map[string]string, messages map[string]string) string {
	if issue.RequiredProperty == "" {
		return issue.Message
	}
	full := append(append([]string{}, issue.Path...), issue.RequiredProperty)
	mainKey := full[0]
	subKey := strings.Join(full[1:], "][")
	placeholder := ""
	if subKey != "" {
		placeholder = "[" + subKey + "]"
	}
	name := strings.ReplaceAll(names[mainKey], "[...]", placeholder)
	return strings.ReplaceAll(messages["required"], "{property}", name)
}

// relatedRuleLists selects cls's own rule-list entries whose key equals key
// or is a descendant of it, plus any declared strict ancestor of key.
func (s *Service) relatedRuleLists(key string, cls *Declaration) map[string][]map[string]any {
	bucket := s.decl.allRuleLists[cls]
	out := map[string][]map[string]any{}

	for k, v := range bucket {
		if k == key || strings.HasPrefix(k, key+".") {
			out[k] = append([]map[string]any{}, v...)
		}
	}
	for _, ancestor := range ancestorKeys(key) {
		if v, ok := bucket[ancestor]; ok {
			out[ancestor] = append([]map[string]any{}, v...)
		}
	}
	return out
}

// filterAvailableExpandedRuleLists enforces array-object escalation over
// ruleLists's own keys (Step 2), then expands any ".*" wildcard segment
// against data (Step 3), then prunes by data presence (Step 4).
func (s *Service) filterAvailableExpandedRuleLists(cls *Declaration, data map[string]any, ruleLists map[string][]map[string]any) map[string][]map[string]any {
	for k := range ruleLists {
		for _, ancestor := range ancestorKeys(k) {
			if !s.decl.hasArrayObjectRuleInRuleLists(ancestor) {
				panic(newProgrammerError(cls.name, `"%s" key must be declared as an array-object rule`, ancestor))
			}
		}
	}

	ruleLists = expandWildcards(data, ruleLists)
	ruleLists = prunePresence(data, ruleLists)
	return ruleLists
}

func expandWildcards(data map[string]any, ruleLists map[string][]map[string]any) map[string][]map[string]any {
	for {
		var wildcardKeys []string
		for k := range ruleLists {
			if strings.Contains(k, ".*") {
				wildcardKeys = append(wildcardKeys, k)
			}
		}
		if len(wildcardKeys) == 0 {
			return ruleLists
		}
		sort.Strings(wildcardKeys)

		for _, rKey := range wildcardKeys {
			rules := ruleLists[rKey]
			delete(ruleLists, rKey)

			segs := splitDotted(rKey)
			starIdx := -1
			for i, seg := range segs {
				if seg == "*" {
					starIdx = i
					break
				}
			}
			if starIdx < 0 {
				continue
			}
			prefixSegs := segs[:starIdx]
			suffixSegs := segs[starIdx+1:]

			val, ok := walkPath(data, prefixSegs)
			if !ok {
				continue
			}
			m, isMap := val.(map[string]any)
			if !isMap {
				continue
			}

			for childKey := range m {
				parts := append(append([]string{}, prefixSegs...), childKey)
				parts = append(parts, suffixSegs...)
				newKey := strings.Join(parts, ".")
				ruleLists[newKey] = append([]map[string]any{}, rules...)
			}
		}
	}
}

func prunePresence(data map[string]any, ruleLists map[string][]map[string]any) map[string][]map[string]any {
	for rKey := range ruleLists {
		segs := splitDotted(rKey)

		missingAncestor := false
		for i := 1; i < len(segs); i++ {
			ancestor := strings.Join(segs[:i], ".")
			if _, declared := ruleLists[ancestor]; !declared {
				continue
			}
			if _, exists := walkPath(data, segs[:i]); !exists {
				missingAncestor = true
				break
			}
		}
		if missingAncestor {
			delete(ruleLists, rKey)
			continue
		}

		if _, exists := walkPath(data, segs); exists {
			continue
		}

		var kept []map[string]any
		for _, rule := range ruleLists[rKey] {
			if proj, hasRequired := presentRelatedProjection(rule); hasRequired {
				kept = append(kept, proj)
			}
		}
		ruleLists[rKey] = kept
	}
	return ruleLists
}

// presentRelatedProjection returns a deep copy of rule retaining only the
// structural keywords relevant to presence (required and its containers),
// recursing into properties/allOf/anyOf/oneOf/if/then/else. The second
// result reports whether any "required" keyword survived the projection.
func presentRelatedProjection(rule map[string]any) (map[string]any, bool) {
	hasRequired := false

	var project func(v any) any
	project = func(v any) any {
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		out := map[string]any{}
		for _, kw := range presentRelatedKeywords {
			val, exists := m[kw]
			if !exists {
				continue
			}
			switch kw {
			case "required":
				hasRequired = true
				out[kw] = val
			case "properties":
				props, _ := val.(map[string]any)
				newProps := map[string]any{}
				for pk, pv := range props {
					newProps[pk] = project(pv)
				}
				out[kw] = newProps
			case "allOf", "anyOf", "oneOf":
				arr, _ := val.([]any)
				newArr := make([]any, len(arr))
				for i, item := range arr {
					newArr[i] = project(item)
				}
				out[kw] = newArr
			case "if", "then", "else":
				out[kw] = project(val)
			case "dependentRequired":
				out[kw] = val
			}
		}
		return out
	}

	projected, _ := project(rule).(map[string]any)
	return projected, hasRequired
}
