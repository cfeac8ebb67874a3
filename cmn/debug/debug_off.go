//go:build !debug

// Package debug provides zero-cost (no-op, release build) assertion helpers.
// Build with -tags debug to turn them into real panics during development.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package debug

func ON() bool { return false }

func Assert(_ bool, _ ...any)            {}
func AssertNoErr(_ error)                {}
func Assertf(_ bool, _ string, _ ...any) {}
