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
	"regexp"
	"strings"
)

var arrayPlaceholderRe = regexp.MustCompile(`\[\.\.\.\]`)

// resolveBindName expands every "{{k[.sub...]}}" reference in name into a
// human-readable string, substituting one occurrence per loop iteration so
// a bind name may itself reference another bind name.
func (s *Service) resolveBindName(name string) (string, error) {
	budget := 0
	return s.resolveBindNameWithBudget(name, &budget)
}

// resolveBindNameWithBudget is resolveBindName's recursive core. budget is a
// single counter shared across every nested call made while resolving one
// top-level name, so a bind-name chain that never bottoms out (including one
// that recurses through a different key every time) is still bounded by
// maxNameDepth in total, not merely within whichever call frame happens to
// hold the loop.
func (s *Service) resolveBindNameWithBudget(name string, budget *int) (string, error) {
	for {
		loc := depPlaceholderRe.FindStringSubmatchIndex(name)
		if loc == nil {
			return name, nil
		}

		*budget++
		if *budget > s.opts.maxNameDepth {
			return "", newProgrammerError(s.decl.name, `bind name %q did not terminate within %d substitutions`, name, s.opts.maxNameDepth)
		}

		key := name[loc[2]:loc[3]]
		mainKey := mainKeyOf(key)
		keySegs := splitDotted(key)

		template, ok := s.names[mainKey]
		if !ok {
			template, ok = s.decl.allBindNames[mainKey]
		}
		if !ok {
			return "", newProgrammerError(s.decl.name, `"%s" name not found`, mainKey)
		}

		replacement, err := s.resolveBindNameWithBudget(template, budget)
		if err != nil {
			return "", err
		}

		name = name[:loc[0]] + replacement + name[loc[1]:]

		if n := len(arrayPlaceholderRe.FindAllString(name, -1)); n > 1 {
			return "", newProgrammerError(s.decl.name, `"%s" has multiple "[...]" placeholders`, name)
		}

		hasArrayObjectRule := s.decl.hasArrayObjectRuleInRuleLists(mainKey)
		hasPlaceholder := arrayPlaceholderRe.MatchString(name)

		if hasArrayObjectRule && !hasPlaceholder {
			return "", newProgrammerError(s.decl.name, `"%s" name requires a "[...]" placeholder`, mainKey)
		}

		if len(keySegs) > 1 {
			replace := "[" + strings.Join(keySegs[1:], "][") + "]"
			name = arrayPlaceholderRe.ReplaceAllString(name, replace)
		}
	}
}

// hasArrayObjectRuleInRuleLists reports whether any rule list declared
// exactly at key (across every trait bucket) describes key as an object via
// nested "properties" matching key's own dotted segments.
func (d *Declaration) hasArrayObjectRuleInRuleLists(key string) bool {
	for _, bucket := range d.allRuleLists {
		if hasArrayObjectRuleInRuleList(bucket[key], key) {
			return true
		}
	}
	return false
}

// hasArrayObjectRuleInRuleList walks each rule's root schema through nested
// "properties" entries named after key's dotted segments, reporting true if
// the schema found at the end of that walk declares "type": "object".
func hasArrayObjectRuleInRuleList(ruleList []map[string]any, key string) bool {
	segs := splitDotted(key)
	for _, rule := range ruleList {
		value := rule
		for i, seg := range segs {
			props, ok := value["properties"].(map[string]any)
			if !ok {
				break
			}
			next, ok := props[seg].(map[string]any)
			if !ok {
				break
			}
			if i == len(segs)-1 {
				if t, ok := next["type"].(string); ok && t == "object" {
					return true
				}
			}
			value = next
		}
	}
	return false
}
