// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/studytutor/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

// HandleConfig runs `studytutor config` and returns the process exit code.
func HandleConfig(args Args) int {
	if err := RunConfig(args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("Error:"), err)
		return 1
	}
	return 0
}

// RunConfig executes one config subcommand.
func RunConfig(args Args, out io.Writer) error {
	switch args.Sub {
	case "", "show":
		cfg, err := LoadConfig(args)
		if err != nil {
			return err
		}
		return cfg.Redacted().WriteTOML(out)

	case "get":
		if len(args.Rest) != 1 {
			return errors.New("usage: studytutor config get <section.key>")
		}
		cfg, err := LoadConfig(args)
		if err != nil {
			return err
		}
		v, err := cfg.Redacted().Get(args.Rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, v)
		return nil

	case "set":
		if len(args.Rest) < 2 {
			return errors.New("usage: studytutor config set <section.key> <value>")
		}
		return setConfigValue(args, args.Rest[0], strings.Join(args.Rest[1:], " "), out)

	case "path":
		path, err := configFilePath(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, path)
		return nil

	case "keys":
		for _, k := range config.Keys() {
			fmt.Fprintln(out, k)
		}
		return nil

	default:
		return fmt.Errorf("unknown config subcommand %q (show, get, set, path, keys)", args.Sub)
	}
}

// setConfigValue edits the file only: environment and flag overrides are
// not written back.
func setConfigValue(args Args, key, value string, out io.Writer) error {
	path, err := configFilePath(args)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return err
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}

	shown := value
	if key == "tutor.api_key" {
		shown = cfg.Tutor.APIKeyMasked()
	}
	fmt.Fprintf(out, "%s = %s\n", LabelStyle.Render(key), shown)
	return nil
}

func configFilePath(args Args) (string, error) {
	if args.ConfigFile != "" {
		return args.ConfigFile, nil
	}
	return config.ConfigPath()
}
