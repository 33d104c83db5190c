package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/casewire/casewire/internal/annotate"
	"github.com/casewire/casewire/internal/cite"
	"github.com/casewire/casewire/internal/classify"
	"github.com/casewire/casewire/internal/config"
	"github.com/casewire/casewire/internal/extract"
	"github.com/casewire/casewire/internal/ingest"
	"github.com/casewire/casewire/internal/mcp"
	"github.com/casewire/casewire/internal/registry"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(os.Args[2:])
	case "scan":
		err = runScan(os.Args[2:])
	case "annotate":
		err = runAnnotate(os.Args[2:])
	case "citations":
		err = runCitations(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("casewire %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// commonFlags parses flags shared by every subcommand and returns the
// resolved config plus positional arguments.
func commonFlags(args []string) (config.ResolvedConfig, []string, error) {
	opts := config.ResolveOptions{}
	var rest []string

	flagValue := map[string]*string{
		"--config":  &opts.ConfigPath,
		"--db":      &opts.CLIDBPath,
		"--rules":   &opts.CLIRulesPath,
		"--claims":  &opts.CLIClaimsPath,
		"--workers": &opts.CLIWorkers,
	}
	for i := 0; i < len(args); i++ {
		dst, ok := flagValue[args[i]]
		if !ok {
			rest = append(rest, args[i])
			continue
		}
		if i+1 >= len(args) {
			return config.ResolvedConfig{}, nil, fmt.Errorf("%s requires a value", args[i])
		}
		i++
		*dst = args[i]
	}

	cfg, err := config.ResolveConfig(opts)
	return cfg, rest, err
}

func openRegistry(cfg config.ResolvedConfig) (*registry.Registry, error) {
	reg, err := registry.Open(cfg.DBPath.Value)
	if err != nil {
		return nil, fmt.Errorf("opening registry at %s: %w", cfg.DBPath.Value, err)
	}
	return reg, nil
}

func buildExtractor(cfg config.ResolvedConfig) (*extract.Extractor, error) {
	var opts []extract.Option
	if path := cfg.RulesPath.Value; path != "" {
		rules, err := classify.LoadRules(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, extract.WithDocumentRules(rules))
	}
	return extract.NewExtractor(opts...), nil
}

func buildAnnotator(cfg config.ResolvedConfig) (*annotate.Annotator, error) {
	if path := cfg.ClaimsPath.Value; path != "" {
		rules, err := annotate.LoadClaimRules(path)
		if err != nil {
			return nil, err
		}
		return annotate.New(rules...), nil
	}
	return annotate.New(), nil
}

func runImport(args []string) error {
	cfg, rest, err := commonFlags(args)
	if err != nil {
		return err
	}

	var paths, exhibitPaths, eventPaths []string
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--exhibits":
			if i+1 < len(rest) {
				i++
				exhibitPaths = append(exhibitPaths, rest[i])
			}
		case "--events":
			if i+1 < len(rest) {
				i++
				eventPaths = append(eventPaths, rest[i])
			}
		default:
			if strings.HasPrefix(rest[i], "-") {
				return fmt.Errorf("unknown flag: %s", rest[i])
			}
			paths = append(paths, rest[i])
		}
	}
	if len(paths) == 0 && len(exhibitPaths) == 0 && len(eventPaths) == 0 {
		return fmt.Errorf("usage: casewire import <records.json|records.csv> [--exhibits exhibits.json] [--events events.json]")
	}

	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx := context.Background()
	engine := ingest.NewEngine(reg)
	total := &ingest.Result{}

	for _, path := range paths {
		fmt.Printf("Importing %s...\n", path)
		res, err := engine.ImportFile(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
			continue
		}
		total.Add(res)
	}

	for _, path := range exhibitPaths {
		exhibits, err := ingest.LoadExhibits(path)
		if err != nil {
			return err
		}
		for _, ex := range exhibits {
			if err := reg.AddExhibit(ctx, ex); err != nil {
				return err
			}
		}
		fmt.Printf("Imported %d exhibit(s) from %s\n", len(exhibits), path)
	}

	for _, path := range eventPaths {
		events, err := ingest.LoadGraphEvents(path)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if err := reg.AddGraphEvent(ctx, ev); err != nil {
				return err
			}
		}
		fmt.Printf("Imported %d graph event(s) from %s\n", len(events), path)
	}

	fmt.Print(ingest.FormatResult(total))
	return nil
}

func runScan(args []string) error {
	cfg, _, err := commonFlags(args)
	if err != nil {
		return err
	}

	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	ex, err := buildExtractor(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	docs, err := reg.ListDocuments(ctx)
	if err != nil {
		return err
	}

	started := time.Now()
	graph, err := extract.ScanCorpus(ctx, ex, docs, cfg.WorkerCount())
	if err != nil {
		return err
	}
	entities, relationships := graph.Size()

	scanID, err := reg.RecordScan(ctx, registry.ScanRecord{
		StartedAt:     started,
		FinishedAt:    time.Now(),
		Documents:     len(docs),
		Entities:      entities,
		Relationships: relationships,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Scan %s: %d document(s) → %d entities, %d relationships\n",
		scanID, len(docs), entities, relationships)
	for _, tag := range graph.Tags() {
		fmt.Printf("  tag: %s\n", tag)
	}
	return nil
}

func runAnnotate(args []string) error {
	cfg, rest, err := commonFlags(args)
	if err != nil {
		return err
	}

	write := false
	var paths []string
	for _, arg := range rest {
		switch {
		case arg == "--write" || arg == "-w":
			write = true
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			paths = append(paths, arg)
		}
	}
	if len(paths) != 1 {
		return fmt.Errorf("usage: casewire annotate <narrative.md> [--write]")
	}

	text, err := os.ReadFile(paths[0])
	if err != nil {
		return err
	}

	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	idx, err := buildCitationIndex(cfg, reg)
	if err != nil {
		return err
	}

	ann, err := buildAnnotator(cfg)
	if err != nil {
		return err
	}

	result := ann.Annotate(string(text), idx)
	if write {
		if err := os.WriteFile(paths[0], []byte(result.Text), 0644); err != nil {
			return err
		}
		fmt.Printf("Annotated %s: %d marker(s)\n", paths[0], len(result.References))
		return nil
	}
	fmt.Print(result.Text)
	return nil
}

func runCitations(args []string) error {
	cfg, _, err := commonFlags(args)
	if err != nil {
		return err
	}

	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	idx, err := buildCitationIndex(cfg, reg)
	if err != nil {
		return err
	}

	payload := map[string][]cite.Citation{}
	for _, bucket := range idx.Buckets() {
		payload[bucket] = idx.Citations(bucket)
	}
	data, _ := json.MarshalIndent(payload, "", "  ")
	fmt.Println(string(data))
	return nil
}

func buildCitationIndex(cfg config.ResolvedConfig, reg *registry.Registry) (cite.Index, error) {
	ex, err := buildExtractor(cfg)
	if err != nil {
		return cite.Index{}, err
	}

	ctx := context.Background()
	docs, err := reg.ListDocuments(ctx)
	if err != nil {
		return cite.Index{}, err
	}
	graph, err := extract.ScanCorpus(ctx, ex, docs, cfg.WorkerCount())
	if err != nil {
		return cite.Index{}, err
	}
	exhibits, err := reg.ListExhibits(ctx)
	if err != nil {
		return cite.Index{}, err
	}
	events, err := reg.ListGraphEvents(ctx)
	if err != nil {
		return cite.Index{}, err
	}
	return cite.Build(graph, exhibits, events), nil
}

func runStats(args []string) error {
	cfg, _, err := commonFlags(args)
	if err != nil {
		return err
	}

	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	stats, err := reg.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Documents:    %d\n", stats.Documents)
	fmt.Printf("Exhibits:     %d\n", stats.Exhibits)
	fmt.Printf("Graph events: %d\n", stats.GraphEvents)
	fmt.Printf("Scans:        %d\n", stats.Scans)
	return nil
}

func runServe(args []string) error {
	cfg, _, err := commonFlags(args)
	if err != nil {
		return err
	}

	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	ex, err := buildExtractor(cfg)
	if err != nil {
		return err
	}
	ann, err := buildAnnotator(cfg)
	if err != nil {
		return err
	}

	s := mcp.NewServer(mcp.ServerConfig{
		Registry:  reg,
		Extractor: ex,
		Annotator: ann,
		Version:   version,
		Workers:   cfg.WorkerCount(),
	})
	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Printf(`casewire %s - evidentiary classification and citation-linking engine

Usage:
  casewire <command> [arguments]

Commands:
  import <path>       Import document records (JSON/CSV) into the registry
  scan                Extract every document and build the fact graph
  annotate <file>     Insert citation markers into a narrative document
  citations           Print the citation index as JSON
  stats               Show registry statistics
  serve               Run the MCP server on stdio
  version             Print version

Import Flags:
  --exhibits <path>   Import a JSON list of exhibit records
  --events <path>     Import a JSON list of graph-event records

Annotate Flags:
  -w, --write         Rewrite the file in place

Common Flags:
  --config <path>     Config file (default ~/.casewire/config.yaml)
  --db <path>         Registry database path
  --rules <path>      Document-rule table (YAML)
  --claims <path>     Claim-rule table (YAML)
  --workers <n>       Extraction worker count

Flags:
  -h, --help          Show this help message
  -v, --version       Print version
`, version)
}
