// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits raw arguments into flags and positionals.
//
// Supported flag formats:
//
//	--flag value     value flag
//	--flag=value     value flag with equals sign
//	--flag           boolean flag (must be declared)
//	--               end of flags; the rest is positional
//
// Boolean flags are declared up front so "--plain what is a limit" keeps the
// question positional instead of swallowing its first word.
type ArgParser struct {
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser parses raw. boolNames lists the flags that never take a value.
func NewArgParser(raw []string, boolNames ...string) *ArgParser {
	known := make(map[string]bool, len(boolNames))
	for _, n := range boolNames {
		known[n] = true
	}

	p := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
		raw:       raw,
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if arg == "--" {
			p.positional = append(p.positional, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			p.positional = append(p.positional, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if k, v, ok := strings.Cut(name, "="); ok {
			if known[k] {
				p.boolFlags[k] = v == "true" || v == "1"
			} else {
				p.flags[k] = v
			}
			continue
		}

		if known[name] {
			p.boolFlags[name] = true
			continue
		}
		if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			p.flags[name] = raw[i+1]
			i++
			continue
		}
		// Undeclared flag at the end or before another flag.
		p.boolFlags[name] = true
	}

	return p
}

// Subcommand returns the first positional argument.
func (p *ArgParser) Subcommand() string {
	if len(p.positional) == 0 {
		return ""
	}
	return p.positional[0]
}

// Flag returns the value of a value flag, or "".
func (p *ArgParser) Flag(name string) string {
	return p.flags[strings.TrimLeft(name, "-")]
}

// FlagOrDefault returns the flag value or def when unset.
func (p *ArgParser) FlagOrDefault(name, def string) string {
	if v := p.Flag(name); v != "" {
		return v
	}
	return def
}

// HasFlag reports whether a value flag was given at all.
func (p *ArgParser) HasFlag(name string) bool {
	_, ok := p.flags[strings.TrimLeft(name, "-")]
	return ok
}

// BoolFlag reports whether a boolean flag is set.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[strings.TrimLeft(name, "-")]
}

// Positional returns the i-th positional argument, or "".
func (p *ArgParser) Positional(i int) string {
	if i < 0 || i >= len(p.positional) {
		return ""
	}
	return p.positional[i]
}

// PositionalFrom returns the positional arguments starting at i.
func (p *ArgParser) PositionalFrom(i int) []string {
	if i >= len(p.positional) {
		return nil
	}
	return p.positional[i:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// Raw returns the unparsed arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}
