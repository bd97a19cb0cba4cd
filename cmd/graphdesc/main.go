package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/soderlund/graphdesc/pkg/config"
	"github.com/soderlund/graphdesc/pkg/description"
	"github.com/soderlund/graphdesc/pkg/graph"
	"github.com/soderlund/graphdesc/pkg/hcldecl"
	"github.com/soderlund/graphdesc/pkg/inspect"
	"github.com/soderlund/graphdesc/pkg/logging"
	"github.com/soderlund/graphdesc/pkg/output"
	"github.com/soderlund/graphdesc/pkg/watcher"
	"github.com/soderlund/graphdesc/pkg/web"
)

func main() {
	flags := pflag.NewFlagSet("graphdesc", pflag.ExitOnError)
	flags.String("decl", "", "Path to the declaration file (.hcl or .json document)")
	flags.String("format", "", "Declaration format: hcl or json (default: inferred from extension)")
	flags.Bool("dedupe", false, "Collapse duplicate edges instead of keeping declared multiplicity")
	flags.Bool("json", false, "Print the serialized description document instead of a report")
	flags.Bool("web", false, "Serve the description over HTTP")
	flags.Int("port", 8080, "Port for the web server")
	flags.Bool("watch", false, "Rebuild when the declaration file changes (requires --web)")
	flags.CountP("verbose", "v", "Increase log verbosity (-v, -vv)")
	flags.Bool("log-json", false, "Emit logs as JSON")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level := logging.LevelForVerbosity(cfg.Verbosity)
	if cfg.LogJSON {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}

	if cfg.Decl == "" {
		fmt.Fprintln(os.Stderr, "Error: no declaration file given (--decl)")
		os.Exit(2)
	}

	desc, err := load(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case cfg.WebMode:
		serve(cfg, desc)
	case cfg.JSONOut:
		if err := desc.Encode(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		output.PrintReport(cfg.Decl, desc, inspect.Analyze(desc))
	}
}

// load builds a description from the configured declaration source.
func load(cfg *config.Config) (*description.Description, error) {
	format := cfg.Format
	if format == "" {
		if strings.EqualFold(filepath.Ext(cfg.Decl), ".json") {
			format = "json"
		} else {
			format = "hcl"
		}
	}

	switch format {
	case "json":
		f, err := os.Open(cfg.Decl)
		if err != nil {
			return nil, fmt.Errorf("open declaration %s: %w", cfg.Decl, err)
		}
		defer f.Close()
		return description.Decode(f)

	case "hcl":
		decl, err := hcldecl.LoadFile(cfg.Decl)
		if err != nil {
			return nil, err
		}
		var opts []description.Option
		if cfg.Dedupe {
			opts = append(opts, description.WithDuplicatePolicy(graph.Deduplicate))
		}
		return description.Build(decl, opts...)

	default:
		return nil, fmt.Errorf("unknown declaration format %q", format)
	}
}

func serve(cfg *config.Config, desc *description.Description) {
	server := web.NewServer()
	server.SetDescription(desc, cfg.Decl)

	if cfg.Watch {
		w, err := watcher.New(cfg.Decl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := w.Start(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		go rebuildLoop(cfg, server, w)
	}

	if err := server.Start(cfg.Port); err != nil {
		logging.Error("web server failed", "error", err)
		os.Exit(1)
	}
}

func rebuildLoop(cfg *config.Config, server *web.Server, w *watcher.DeclWatcher) {
	for range w.Events() {
		server.PublishStatus("building", "")
		desc, err := load(cfg)
		if err != nil {
			logging.Warn("rebuild failed, keeping previous description", "error", err)
			server.PublishStatus("failed", err.Error())
			continue
		}
		logging.Info("declaration rebuilt",
			"nodes", desc.Len(), "groups", len(desc.Groups()))
		server.SetDescription(desc, cfg.Decl)
	}
}
