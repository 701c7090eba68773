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

// Package obslog wires a zap production logger into the logr.Logger
// interface engine.Option callers pass as WithLogger, mirroring how a
// controller-runtime-style operator constructs its root logger.
package obslog

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Nop discards everything logged through it; New returns it when the zap
// configuration fails to build.
var Nop = zapr.NewLogger(zap.NewNop())

// New builds a JSON-encoded, info-level production logger suitable for a
// long-running service process. development enables human-readable console
// output and debug-level verbosity instead, for local runs of
// cmd/servicerunner.
func New(development bool) logr.Logger {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.DisableStacktrace = true

	zl, err := cfg.Build()
	if err != nil {
		return Nop
	}
	return zapr.NewLogger(zl)
}
