package config_test

import "github.com/urfave/cli/v3"

func flagNames(flags []cli.Flag) map[string]bool {
	names := make(map[string]bool)
	for _, flag := range flags {
		switch f := flag.(type) {
		case interface{ Names() []string }:
			if n := f.Names(); len(n) > 0 {
				names[n[0]] = true
			}
		}
	}
	return names
}
