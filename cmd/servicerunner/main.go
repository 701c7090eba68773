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

// Command servicerunner is a demo harness, not a supported entry point: it
// builds one illustrative declaration in Go, optionally layers input
// overrides from a YAML file, runs it, and prints the response envelope as
// JSON. The engine itself exposes no CLI or config-file contract.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	engine "github.com/cappyzawa/service-engine/internal/demo"
)

func main() {
	inputsPath := flag.String("inputs", "", "optional path to a YAML file of input overrides")
	dev := flag.Bool("dev", false, "use a human-readable development logger instead of the default")
	flag.Parse()

	overrides := map[string]any{}
	if *inputsPath != "" {
		raw, err := os.ReadFile(*inputsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read inputs file:", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(raw, &overrides); err != nil {
			fmt.Fprintln(os.Stderr, "parse inputs file:", err)
			os.Exit(1)
		}
	}

	response, err := engine.RunOrderSummary(overrides, *dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal response:", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
