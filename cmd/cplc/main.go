package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cplteam/cplc/internal/compiler"
	"github.com/cplteam/cplc/internal/config"
	"github.com/cplteam/cplc/internal/listing"
	"github.com/cplteam/cplc/internal/parser"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		configPath  = flag.String("config", "", "Path to compiler.toml (default: platform config dir)")
		verbose     = flag.Bool("verbose", false, "Verbose output")
		dumpSymbols = flag.Bool("dump-symbols", false, "Print the final program-scope symbol table to stdout")
		tabWidth    = flag.Int("tab-width", 0, "Override the configured tab width (3-8, 0 = use config)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("cplc %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "cplc: expected exactly 3 positional arguments: input-source listing-file code-file")
		printHelp()
		os.Exit(2)
	}
	sourcePath, listingPath, codePath := args[0], args[1], args[2]

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cplc: %v\n", err)
		os.Exit(2)
	}
	if *tabWidth != 0 {
		cfg.Source.TabWidth = *tabWidth
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "cplc: compiling %s (tab width %d)\n", sourcePath, cfg.TabWidth())
	}

	os.Exit(run(sourcePath, listingPath, codePath, cfg, *dumpSymbols, *verbose))
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// run performs one compile and returns the process exit status: 0 on
// a compile with no errors, 1 when any recovered syntax or semantic
// error suppressed the code file, 2 on a fatal internal failure.
func run(sourcePath, listingPath, codePath string, cfg *config.Config, dumpSymbols, verbose bool) int {
	src, err := os.Open(sourcePath) // #nosec G304 -- user-supplied source path is the CLI's primary input
	if err != nil {
		fmt.Fprintf(os.Stderr, "cplc: %v\n", err)
		return 2
	}
	defer src.Close()

	ctx := compiler.New(src, cfg)
	p := parser.New(ctx)

	if err := p.Compile(); err != nil {
		fmt.Fprintf(os.Stderr, "cplc: fatal: %v\n", err)
		return 2
	}

	lines := ctx.Source.Finish()

	listingFile, err := os.Create(listingPath) // #nosec G304 -- user-supplied output path
	if err != nil {
		fmt.Fprintf(os.Stderr, "cplc: %v\n", err)
		return 2
	}
	defer listingFile.Close()
	if err := listing.Write(listingFile, lines); err != nil {
		fmt.Fprintf(os.Stderr, "cplc: %v\n", err)
		return 2
	}

	codeFile, err := os.Create(codePath) // #nosec G304 -- user-supplied output path
	if err != nil {
		fmt.Fprintf(os.Stderr, "cplc: %v\n", err)
		return 2
	}
	defer codeFile.Close()
	if err := ctx.Code.Flush(codeFile); err != nil {
		fmt.Fprintf(os.Stderr, "cplc: %v\n", err)
		return 2
	}

	if dumpSymbols {
		if err := listing.DumpSymbols(os.Stdout, ctx.Symbols); err != nil {
			fmt.Fprintf(os.Stderr, "cplc: %v\n", err)
			return 2
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "cplc: wrote %s and %s\n", listingPath, codePath)
	}

	if ctx.Code.ErrorsPresent() {
		return 1
	}
	return 0
}

func printHelp() {
	fmt.Println("cplc - a single-pass compiler for the CPL teaching language")
	fmt.Println()
	fmt.Println("Usage: cplc [flags] input-source listing-file code-file")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
