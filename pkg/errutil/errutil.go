// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

// Package errutil logs errors with their structured context.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error, extracting code and context when it is an oops
// error so operators see the full story without the client ever doing so.
func LogError(logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{"error", oopsErr.Error()}
		if code := oopsErr.Code(); code != "" {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		logger.Error(msg, attrs...)
		return
	}
	logger.Error(msg, "error", err)
}
