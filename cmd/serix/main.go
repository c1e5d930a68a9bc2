// Command serix generates JSON codec code from resolved unit
// descriptors. Each descriptor is the structural snapshot of one source
// file; serix writes a companion artifact per unit and, for classes
// configured in place, patches the original file.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/serixdev/serix/compiler/gen"
	"github.com/serixdev/serix/compiler/load"
	"github.com/serixdev/serix/compiler/pipeline"
	"github.com/serixdev/serix/pkg/logger"
)

type fileConfig struct {
	Header  string        `yaml:"header"`
	Out     string        `yaml:"out"`
	Cache   string        `yaml:"cache"`
	Options *load.Options `yaml:"options"`
}

var (
	flagConfig   string
	flagOut      string
	flagCache    string
	flagWorkers  int
	flagLogLevel string
	flagDebounce time.Duration
)

func main() {
	root := &cobra.Command{
		Use:           "serix",
		Short:         "JSON codec source generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&flagOut, "out", "", "companion artifact output directory")
	root.PersistentFlags().StringVar(&flagCache, "cache", "", "fragment cache directory")
	root.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "number of concurrently processed units")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	generate := &cobra.Command{
		Use:   "generate [unit globs]",
		Short: "Generate codecs for the given unit descriptors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, units, err := buildPipeline(args)
			if err != nil {
				return err
			}
			report, err := p.Run(cmd.Context(), units)
			if err != nil {
				return err
			}
			for _, u := range report.Units {
				if u.Artifact != "" {
					fmt.Println(u.Artifact)
				}
			}
			return nil
		},
	}

	watch := &cobra.Command{
		Use:   "watch [unit globs]",
		Short: "Regenerate codecs whenever a unit descriptor changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, units, err := buildPipeline(args)
			if err != nil {
				return err
			}
			return p.Watch(cmd.Context(), units, flagDebounce)
		},
	}
	watch.Flags().DurationVar(&flagDebounce, "debounce", 250*time.Millisecond, "delay between a change and the re-run")

	root.AddCommand(generate, watch)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "serix:", err)
		os.Exit(1)
	}
}

func buildPipeline(globs []string) (*pipeline.Pipeline, []string, error) {
	units, err := expandGlobs(globs)
	if err != nil {
		return nil, nil, err
	}

	opts := []gen.Option{}
	if flagConfig != "" {
		fc, err := readConfig(flagConfig)
		if err != nil {
			return nil, nil, err
		}
		if fc.Header != "" {
			opts = append(opts, gen.WithHeader(fc.Header))
		}
		if fc.Out != "" {
			opts = append(opts, gen.WithOutDir(fc.Out))
		}
		if fc.Cache != "" {
			opts = append(opts, gen.WithCacheDir(fc.Cache))
		}
		if fc.Options != nil {
			opts = append(opts, gen.WithGlobalOptions(fc.Options))
		}
	}
	// Flags win over the config file.
	if flagOut != "" {
		opts = append(opts, gen.WithOutDir(flagOut))
	}
	if flagCache != "" {
		opts = append(opts, gen.WithCacheDir(flagCache))
	}

	cfg, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, nil, err
	}
	p := pipeline.New(cfg,
		pipeline.WithWorkers(flagWorkers),
		pipeline.WithLogger(logger.New(flagLogLevel)),
	)
	return p, units, nil
}

func readConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc := &fileConfig{}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return fc, nil
}

func expandGlobs(globs []string) ([]string, error) {
	seen := make(map[string]struct{})
	var units []string
	for _, g := range globs {
		matches, err := filepath.Glob(g)
		if err != nil {
			return nil, fmt.Errorf("bad glob %q: %w", g, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			units = append(units, m)
		}
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("no unit descriptors matched %v", globs)
	}
	sort.Strings(units)
	return units, nil
}
