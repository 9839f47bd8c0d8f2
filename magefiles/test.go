//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/sh"
)

const coverProfile = "coverage.out"

// Test runs all tests, including the ones that build the binary.
func Test() error {
	return sh.RunV(binGo, "test", "./...")
}

// TestUnit runs the tests in short mode, skipping the binary build.
func TestUnit() error {
	return sh.RunV(binGo, "test", "-short", "./...")
}

// TestRace runs the short tests with the race detector.
func TestRace() error {
	return sh.RunV(binGo, "test", "-short", "-race", "./...")
}

// Cover writes coverage.out and prints the total statement coverage.
func Cover() error {
	if err := sh.RunV(binGo, "test", "-short", "-coverprofile="+coverProfile, "./..."); err != nil {
		return err
	}
	out, err := sh.Output(binGo, "tool", "cover", "-func="+coverProfile)
	if err != nil {
		return err
	}
	lines := strings.Split(out, "\n")
	fmt.Println(lines[len(lines)-1])
	return nil
}
