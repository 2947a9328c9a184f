package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/erraggy/reftools"
	"github.com/erraggy/reftools/deref"
	"github.com/erraggy/reftools/internal/cliutil"
	"github.com/erraggy/reftools/internal/mcpserver"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version", "-v", "--version":
		fmt.Printf("reftools v%s\n", reftools.Version())
	case "help", "-h", "--help":
		printUsage()
	case "resolve":
		if err := handleResolve(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "refs":
		if err := handleRefs(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "check":
		if err := handleCheck(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := handleMCP(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if suggestion := suggestCommand(command); suggestion != "" {
			fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", suggestion)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}
}

// resolveFlags contains flags for the resolve command
type resolveFlags struct {
	baseDir       string
	failOnMissing bool
	removeIDs     bool
	mergeProps    bool
	allowCircular bool
	output        string
	format        string
}

func setupResolveFlags() (*flag.FlagSet, *resolveFlags) {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	flags := &resolveFlags{}

	fs.StringVar(&flags.baseDir, "base-dir", "", "directory for relative file references (default: the input file's directory)")
	fs.BoolVar(&flags.failOnMissing, "fail-on-missing", false, "error on unresolvable references instead of leaving them in place")
	fs.BoolVar(&flags.removeIDs, "remove-ids", false, "strip id and $id keys from resolved values")
	fs.BoolVar(&flags.mergeProps, "merge-props", false, "deep-merge a reference's sibling keys over its resolved value")
	fs.BoolVar(&flags.allowCircular, "allow-circular", false, "leave circular references in place instead of erroring")
	fs.StringVar(&flags.output, "o", "", "write output to file instead of stdout")
	fs.StringVar(&flags.format, "format", "yaml", "output format: yaml or json")

	fs.Usage = func() {
		output := fs.Output()
		cliutil.Writef(output, "Usage: reftools resolve [flags] <file>\n\n")
		cliutil.Writef(output, "Resolve every $ref in a YAML or JSON document and print the result.\n")
		cliutil.Writef(output, "Use '-' as the file to read from stdin.\n\n")
		cliutil.Writef(output, "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(output, "\nExamples:\n")
		cliutil.Writef(output, "  reftools resolve schema.yaml\n")
		cliutil.Writef(output, "  reftools resolve --merge-props --remove-ids schema.yaml\n")
		cliutil.Writef(output, "  reftools resolve --fail-on-missing -o resolved.yaml schema.yaml\n")
	}

	return fs, flags
}

func handleResolve(args []string) error {
	fs, flags := setupResolveFlags()

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("resolve command requires exactly one file path")
	}
	if err := validateFormat(flags.format); err != nil {
		return err
	}

	doc, baseDir, err := loadDocument(fs.Arg(0))
	if err != nil {
		return err
	}
	if flags.baseDir != "" {
		baseDir = flags.baseDir
	}

	result, err := deref.ResolveWithResult(doc,
		deref.WithBaseDirectory(baseDir),
		deref.WithFailOnMissing(flags.failOnMissing),
		deref.WithRemoveIDs(flags.removeIDs),
		deref.WithMergeAdditionalProperties(flags.mergeProps),
		deref.WithRemoveCircular(flags.allowCircular),
	)
	if err != nil {
		return err
	}

	for _, missing := range result.Missing {
		fmt.Fprintf(os.Stderr, "Warning: unresolved reference: %s\n", missing)
	}
	if result.Circular {
		fmt.Fprintln(os.Stderr, "Warning: circular references left in place")
	}

	data, err := marshalDocument(result.Document, flags.format)
	if err != nil {
		return err
	}
	return writeOutput(data, flags.output)
}

// refsFlags contains flags for the refs command
type refsFlags struct {
	refType string
	format  string
}

func setupRefsFlags() (*flag.FlagSet, *refsFlags) {
	fs := flag.NewFlagSet("refs", flag.ContinueOnError)
	flags := &refsFlags{}

	fs.StringVar(&flags.refType, "type", "", "only list references of this type (local, file, or a URI scheme)")
	fs.StringVar(&flags.format, "format", "text", "output format: text, yaml, or json")

	fs.Usage = func() {
		output := fs.Output()
		cliutil.Writef(output, "Usage: reftools refs [flags] <file>\n\n")
		cliutil.Writef(output, "List every $ref in a YAML or JSON document without resolving anything.\n\n")
		cliutil.Writef(output, "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(output, "\nExamples:\n")
		cliutil.Writef(output, "  reftools refs schema.yaml\n")
		cliutil.Writef(output, "  reftools refs --type file --format json schema.yaml\n")
	}

	return fs, flags
}

func handleRefs(args []string) error {
	fs, flags := setupRefsFlags()

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("refs command requires exactly one file path")
	}
	if flags.format != "text" {
		if err := validateFormat(flags.format); err != nil {
			return err
		}
	}

	doc, _, err := loadDocument(fs.Arg(0))
	if err != nil {
		return err
	}

	refs := deref.CollectRefs(doc)
	if flags.refType != "" {
		filtered := refs[:0]
		for _, r := range refs {
			if r.Type == flags.refType {
				filtered = append(filtered, r)
			}
		}
		refs = filtered
	}

	if flags.format == "text" {
		for _, r := range refs {
			path := r.Path
			if path == "" {
				path = "(root)"
			}
			cliutil.Writef(os.Stdout, "%-8s %-40s %s\n", r.Type, path, r.Destination)
		}
		cliutil.Writef(os.Stdout, "\n%d reference(s)\n", len(refs))
		return nil
	}

	data, err := marshalDocument(refs, flags.format)
	if err != nil {
		return err
	}
	return writeOutput(data, "")
}

func handleCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.Usage = func() {
		output := fs.Output()
		cliutil.Writef(output, "Usage: reftools check <file>\n\n")
		cliutil.Writef(output, "Check a YAML or JSON document for circular $ref references.\n")
		cliutil.Writef(output, "Exits non-zero when a self reference or reference cycle is found.\n")
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("check command requires exactly one file path")
	}

	doc, _, err := loadDocument(fs.Arg(0))
	if err != nil {
		return err
	}

	if err := deref.CheckCircular(doc); err != nil {
		return err
	}
	cliutil.Writef(os.Stdout, "No circular references found\n")
	return nil
}

func handleMCP() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return mcpserver.Run(ctx)
}

// loadDocument reads and parses a document from a file path, or from stdin
// when the path is "-". It returns the document with the base directory its
// relative file references should resolve against.
func loadDocument(path string) (any, string, error) {
	var (
		data []byte
		err  error
	)
	baseDir := "."
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("reading stdin: %w", err)
		}
		if wd, wdErr := os.Getwd(); wdErr == nil {
			baseDir = wd
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("reading file: %w", err)
		}
		baseDir = filepath.Dir(path)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("parsing document: %w", err)
	}
	return doc, baseDir, nil
}

func validateFormat(format string) error {
	if format != "yaml" && format != "json" {
		return fmt.Errorf("invalid format '%s'. Valid formats: yaml, json", format)
	}
	return nil
}

// marshalDocument serializes a value in the requested output format.
func marshalDocument(v any, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling to json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshaling to yaml: %w", err)
		}
		return data, nil
	}
}

func writeOutput(data []byte, path string) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Printf("Output written to: %s\n", path)
	return nil
}

// suggestCommand returns the closest known command within edit distance 2,
// or "" when nothing is close enough.
func suggestCommand(input string) string {
	commands := []string{"resolve", "refs", "check", "mcp", "version", "help"}
	best := ""
	bestDist := 3
	for _, cmd := range commands {
		if d := levenshtein(input, cmd); d < bestDist {
			best = cmd
			bestDist = d
		}
	}
	return best
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func printUsage() {
	fmt.Println(`reftools - $ref resolution tools for YAML and JSON documents

Usage:
  reftools <command> [options]

Commands:
  resolve     Resolve every $ref in a document and print the result
  refs        List every $ref in a document without resolving
  check       Check a document for circular references
  mcp         Run the MCP server over stdio
  version     Show version information
  help        Show this help message

Examples:
  reftools resolve schema.yaml
  reftools resolve --merge-props --allow-circular schema.yaml
  reftools refs --type file schema.yaml
  reftools check schema.yaml

Run 'reftools <command> --help' for more information on a command.`)
}
