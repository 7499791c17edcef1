// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser provides argument parsing for CLI commands.
// It handles these flag formats:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (declared up front, never take a value)
//   - Positional arguments: arguments without flags
//   - "--": everything after it is positional
type ArgParser struct {
	flags      map[string]string // String flags (--key=value)
	boolFlags  map[string]bool   // Boolean flags (--json)
	positional []string          // All positional arguments including the command
	raw        []string          // Original raw arguments
}

// NewArgParser parses raw. Names in boolNames are boolean flags; any other
// flag takes the following argument as its value unless that argument looks
// like a flag.
//
// Example:
//
//	args := NewArgParser([]string{"sleep", "--count", "5", "--json"}, "json")
//	args.Positional(0)       // "sleep"
//	args.Flag("count")       // "5"
//	args.BoolFlag("json")    // true
func NewArgParser(raw []string, boolNames ...string) *ArgParser {
	parser := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0),
		raw:        raw,
	}

	isBool := make(map[string]bool, len(boolNames))
	for _, name := range boolNames {
		isBool[name] = true
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		if arg == "--" {
			parser.positional = append(parser.positional, raw[i+1:]...)
			break
		}

		if !strings.HasPrefix(arg, "-") || arg == "-" {
			parser.positional = append(parser.positional, arg)
			i++
			continue
		}

		// Handle --flag=value format
		if strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			flagName := strings.TrimLeft(parts[0], "-")
			flagValue := parts[1]

			if isBool[flagName] {
				b, err := ParseBoolString(flagValue)
				parser.boolFlags[flagName] = err == nil && b
			} else {
				parser.flags[flagName] = flagValue
			}
			i++
			continue
		}

		flagName := strings.TrimLeft(arg, "-")

		switch {
		case isBool[flagName]:
			parser.boolFlags[flagName] = true
			i++
		case i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-"):
			parser.flags[flagName] = raw[i+1]
			i += 2
		default:
			// A value flag with nothing after it; record it as present
			parser.boolFlags[flagName] = true
			i++
		}
	}

	return parser
}

// Flag returns the value of a string flag, or "" if it was not given.
func (p *ArgParser) Flag(name string) string {
	return p.flags[strings.TrimLeft(name, "-")]
}

// FlagOrDefault returns the flag value or a default if not found.
func (p *ArgParser) FlagOrDefault(name, defaultValue string) string {
	if val := p.Flag(name); val != "" {
		return val
	}
	return defaultValue
}

// FlagIntOrDefault returns the flag as an integer, or defaultValue if the
// flag was not given. A malformed value is an error.
func (p *ArgParser) FlagIntOrDefault(name string, defaultValue int) (int, error) {
	val := p.Flag(name)
	if val == "" {
		if p.HasFlag(name) {
			return 0, NewUsageError("--%s needs a value", name)
		}
		return defaultValue, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, NewUsageError("--%s must be an integer (got: %s)", name, val)
	}
	return n, nil
}

// FlagDurationOrDefault returns the flag as a duration ("500ms", "2s"), or
// defaultValue if the flag was not given. A malformed value is an error.
func (p *ArgParser) FlagDurationOrDefault(name string, defaultValue time.Duration) (time.Duration, error) {
	val := p.Flag(name)
	if val == "" {
		if p.HasFlag(name) {
			return 0, NewUsageError("--%s needs a value", name)
		}
		return defaultValue, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, NewUsageError("--%s must be a duration such as 500ms or 2s (got: %s)", name, val)
	}
	return d, nil
}

// BoolFlag returns the value of a boolean flag.
func (p *ArgParser) BoolFlag(names ...string) bool {
	for _, name := range names {
		if p.boolFlags[strings.TrimLeft(name, "-")] {
			return true
		}
	}
	return false
}

// Positional returns the positional argument at the given index, or "".
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns all positional arguments starting from index.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return []string{}
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// HasFlag returns true if the flag exists (either as string or bool flag).
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, hasString := p.flags[name]
	_, hasBool := p.boolFlags[name]
	return hasString || hasBool
}

// Raw returns the original raw arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// ParseBoolString parses a boolean from various string representations.
// Accepts: true/false, yes/no, y/n, 1/0, on/off (case-insensitive)
func ParseBoolString(s string) (bool, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}
