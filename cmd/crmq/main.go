package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/sdsvn/gocrm"
)

type options struct {
	state   string
	crm     string
	name    string
	format  string
	verbose bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	level := zerolog.InfoLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	clientOpts := []gocrm.ClientOption{gocrm.WithLogger(logger)}
	if baseURL := os.Getenv("CRMQ_BASE_URL"); baseURL != "" {
		clientOpts = append(clientOpts, gocrm.WithBaseURL(baseURL))
	}
	client := gocrm.NewClient(clientOpts...)

	if err := run(context.Background(), client, opts, os.Stdout); err != nil {
		var crmErr *gocrm.Error
		if errors.As(err, &crmErr) {
			fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", crmErr.Code, crmErr.Message)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	var asJSON bool

	fs := flag.NewFlagSet("crmq", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.state, "state", "", "Brazilian state code (required)")
	fs.StringVar(&opts.state, "s", "", "shorthand for -state")
	fs.StringVar(&opts.crm, "crm", "", "CRM registration number")
	fs.StringVar(&opts.crm, "c", "", "shorthand for -crm")
	fs.StringVar(&opts.name, "name", "", "doctor's name (partial match)")
	fs.StringVar(&opts.name, "n", "", "shorthand for -name")
	fs.StringVar(&opts.format, "format", "table", "output format: table, json or yaml")
	fs.BoolVar(&asJSON, "json", false, "shorthand for -format json")
	fs.BoolVar(&opts.verbose, "v", false, "log request details to stderr")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "crmq - query Brazilian doctors through the CFM portal API\n\n")
		fmt.Fprintf(stderr, "Usage:\n  crmq -s <UF> [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n  crmq -s RS -c 43327\n  crmq -state SP -name \"João Silva\"\n  crmq -s RS -c 43327 -json\n")
		fmt.Fprintf(stderr, "\nValid states:\n  %s\n", strings.Join(gocrm.ValidStates, ", "))
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if asJSON {
		opts.format = "json"
	}
	if opts.state == "" {
		fmt.Fprintln(stderr, "Error: state (-s, -state) is required.")
		fmt.Fprintln(stderr, "Run crmq -h for usage information.")
		return options{}, errors.New("missing state")
	}
	switch opts.format {
	case "table", "json", "yaml":
	default:
		fmt.Fprintf(stderr, "Error: unknown format %q\n", opts.format)
		return options{}, fmt.Errorf("unknown format %q", opts.format)
	}
	return opts, nil
}

func run(ctx context.Context, client *gocrm.Client, opts options, out io.Writer) error {
	query := client.Query().State(opts.state)
	if opts.crm != "" {
		query.CRM(opts.crm)
	}
	if opts.name != "" {
		query.Name(opts.name)
	}

	result, err := query.Search(ctx)
	if err != nil {
		return err
	}

	switch opts.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(result)
	default:
		return printTable(out, result)
	}
}

func printTable(out io.Writer, result *gocrm.SearchResult) error {
	if len(result.Doctors) == 0 {
		_, err := fmt.Fprintln(out, "No doctors found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCRM\tSTATE\tSTATUS\tSPECIALTY")
	for _, d := range result.Doctors {
		specialty := "-"
		if d.Specialty != nil {
			specialty = *d.Specialty
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Name, d.CRM, d.State, d.Status, specialty)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\nFound %d doctor(s)\n", result.Total)
	return err
}
