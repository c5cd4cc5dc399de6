package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mapexec/internal/config"
	"mapexec/internal/util"
)

func handleConfig(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("config subcommand required: validate | print")
	}
	sub := args[0]
	switch sub {
	case "validate":
		return handleConfigValidate(args[1:])
	case "print":
		return configOp(args[1:], func(e *env) error {
			enc := yaml.NewEncoder(stdout)
			enc.SetIndent(2)
			defer func() { _ = enc.Close() }()
			return enc.Encode(e.cfg)
		})
	default:
		return fmt.Errorf("unknown config subcommand: %s", sub)
	}
}

func configOp(args []string, fn func(*env) error) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := cf.setup()
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}

// handleConfigValidate reports every problem of a config file with a
// suggestion, not just the first one Load stops at.
func handleConfigValidate(args []string) error {
	fs := flag.NewFlagSet("config validate", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := cf.cfgPath
	if path == "" {
		path = config.DefaultPath()
	}
	b, err := os.ReadFile(util.ExpandHome(path))
	if err != nil {
		return fmt.Errorf("config file not found: %s", path)
	}
	var raw config.Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &raw); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	raw.ApplyDefaults()
	problems := raw.ValidateDetailed()
	if len(problems) == 0 {
		if _, err := config.Parse(b); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(stdout, "config: %s is valid\n", path)
		return nil
	}
	for _, p := range problems {
		fmt.Fprintf(stdout, "%s\n", p.Error())
		if p.Suggestion != "" {
			fmt.Fprintf(stdout, "  suggestion: %s\n", p.Suggestion)
		}
	}
	return fmt.Errorf("%s: %d problem(s)", path, len(problems))
}
