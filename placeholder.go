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

import "regexp"

var depPlaceholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z][\w.*]*)\s*\}\}`)

// dependencyKeysInRule walks a rule fragment (a JSON-Schema object, as
// decoded into map[string]any/[]any/string) and collects every "{{depKey}}"
// occurrence found in a string leaf, including leaves nested inside arrays.
// Order is not significant to callers; duplicates are possible and are
// deduplicated by the caller where it matters.
func dependencyKeysInRule(rule map[string]any) []string {
	var deps []string
	scanRuleNode(rule, &deps)
	return deps
}

func scanRuleNode(v any, deps *[]string) {
	switch x := v.(type) {
	case map[string]any:
		for _, vv := range x {
			scanRuleNode(vv, deps)
		}
	case []any:
		for _, vv := range x {
			scanRuleNode(vv, deps)
		}
	case string:
		for _, m := range depPlaceholderRe.FindAllStringSubmatch(x, -1) {
			*deps = append(*deps, m[1])
		}
	}
}

// stripDependencyWrappers removes the "{{...}}" wrapper around every
// dependency reference left in a rule after RuleEngine has validated and
// resolved them, so the external validator sees the literal key name as a
// required/property name rather than a template.
func stripDependencyWrappers(rule map[string]any) map[string]any {
	out, _ := stripRuleNode(rule).(map[string]any)
	return out
}

func stripRuleNode(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = stripRuleNode(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = stripRuleNode(vv)
		}
		return out
	case string:
		return depPlaceholderRe.ReplaceAllString(x, "$1")
	default:
		return v
	}
}
