package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/compiler/gen"
	"github.com/Startitecture/storm-sub007/dialect/sql/sqlgraph"
	"github.com/Startitecture/storm-sub007/schema"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	Config  string
	Verbose bool

	cfg storm.Config
	log *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "stormgen",
		Short: "Generate row types from schema declarations",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			opts.cfg = storm.DefaultConfig()
			if opts.Config == "" {
				return nil
			}
			cfg, err := storm.LoadConfigFile(opts.Config)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "storm configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newGenCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))
	return cmd
}

func newGenCommand(root *rootOptions) *cobra.Command {
	var (
		schemas []string
		pkg     string
		out     string
	)
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate Go row types",
		Long: `Generate one Go file declaring a row type for every row of the given
schema files. Each type implements schema.Definition and schema.Row.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			descs, err := gen.LoadFiles(cmd.Context(), root.cfg.DefaultSchema, schemas...)
			if err != nil {
				return err
			}
			root.log.Debug("schema loaded", "files", len(schemas), "rows", len(descs))
			src, err := gen.Generate(descs, pkg)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err := cmd.OutOrStdout().Write(src)
				return err
			}
			if err := gen.WriteFile(out, src); err != nil {
				return err
			}
			root.log.Info("generated", "file", out, "rows", len(descs), "bytes", len(src))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&schemas, "schema", "s", nil, "schema file (repeatable)")
	cmd.Flags().StringVarP(&pkg, "package", "p", "rows", "package name of the generated file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, stdout when empty")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func newValidateCommand(root *rootOptions) *cobra.Command {
	var schemas []string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate schema files and resolve their relations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			descs, err := gen.LoadFiles(cmd.Context(), root.cfg.DefaultSchema, schemas...)
			if err != nil {
				return err
			}
			return validate(cmd.OutOrStdout(), root.cfg.DefaultSchema, descs)
		},
	}
	cmd.Flags().StringSliceVarP(&schemas, "schema", "s", nil, "schema file (repeatable)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

// validate reports the findings of schema.Validate for every descriptor and
// resolves the join plan of each valid one against the others.
func validate(w io.Writer, defaultSchema string, descs []*schema.Descriptor) error {
	reg := schema.NewRegistry(schema.WithDefaultSchema(defaultSchema))
	for _, d := range descs {
		if err := reg.Add(d); err != nil {
			return err
		}
	}
	resolver := sqlgraph.NewResolver(reg)
	var errs []error
	for _, d := range descs {
		res := schema.Validate(d)
		for _, warn := range res.Warnings {
			fmt.Fprintf(w, "warning: %v\n", warn)
		}
		if res.HasErrors() {
			for _, err := range res.Errors {
				fmt.Fprintf(w, "error: %v\n", err)
			}
			errs = append(errs, res.Err())
			continue
		}
		plan, err := resolver.Resolve(d)
		if err != nil {
			errs = append(errs, err)
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "%s: %d columns, %d joins\n", d.Name, len(d.Columns), len(plan.Joins))
	}
	return storm.NewAggregateError(errs...)
}
