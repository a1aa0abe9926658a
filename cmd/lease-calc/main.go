// cmd/lease-calc/main.go
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
	"time"

	"equireal-workers/internal/common/config"
	commonhttp "equireal-workers/internal/common/http"
	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/lease"
	"equireal-workers/internal/lease/document"
	"equireal-workers/internal/lease/scoring"
	"equireal-workers/internal/pipeline"
	gdt "equireal-workers/internal/workers/lease/generate-deal-terms"
	rd "equireal-workers/internal/workers/lease/render-documents"
	sr "equireal-workers/internal/workers/lease/score-risk"
	vbp "equireal-workers/internal/workers/lease/validate-business-profile"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitRejected = 3
)

type options struct {
	profile      string
	strategy     string
	strategySet  bool
	strategyFile string
	configFile   string
	validityDays int
	format       string
	htmlOut      string
	contract     bool
	remote       string
	timeout      time.Duration
	verbose      bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lease-calc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.profile, "profile", "", "Business profile file (.json, .yaml or - for stdin)")
	fs.StringVar(&opts.strategy, "strategy", scoring.StrategyAdditive,
		"Built-in strategy ("+strings.Join(scoring.BuiltinNames(), ", ")+")")
	fs.StringVar(&opts.strategyFile, "strategy-file", "", "YAML strategy file; overrides -strategy")
	fs.StringVar(&opts.configFile, "config", "", "Read lease settings from this config file")
	fs.IntVar(&opts.validityDays, "validity-days", 0, "Proposal validity in days (default 30)")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json or markdown")
	fs.StringVar(&opts.htmlOut, "html", "", "Also write the proposal as an HTML page to this file")
	fs.BoolVar(&opts.contract, "contract", false, "Print the lease agreement after the proposal")
	fs.StringVar(&opts.remote, "remote", "", "Quote through a running API at this base URL instead of locally")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Remote request timeout")
	fs.BoolVar(&opts.verbose, "v", false, "Log pipeline stages to stderr")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "strategy" {
			opts.strategySet = true
		}
	})
	if opts.profile == "" {
		fmt.Fprintln(stderr, "lease-calc: -profile is required")
		fs.Usage()
		return exitUsage
	}
	switch opts.format {
	case "text", "json", "markdown":
	default:
		fmt.Fprintf(stderr, "lease-calc: unknown format %q\n", opts.format)
		return exitUsage
	}

	raw, err := readProfile(opts.profile, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "lease-calc: %v\n", err)
		return exitFailure
	}

	ctx := context.Background()
	var result *pipeline.QuoteResult
	if opts.remote != "" {
		result, err = quoteRemote(ctx, opts, raw)
	} else {
		result, err = quoteLocal(ctx, opts, raw)
	}
	if err != nil {
		return reportError(stderr, err)
	}

	if opts.htmlOut != "" {
		page, err := document.ToHTMLPage("Proposal "+result.ProposalID, result.Proposal)
		if err == nil {
			err = os.WriteFile(opts.htmlOut, []byte(page), 0o644)
		}
		if err != nil {
			fmt.Fprintf(stderr, "lease-calc: write html: %v\n", err)
			return exitFailure
		}
	}

	if err := writeResult(stdout, opts, result); err != nil {
		fmt.Fprintf(stderr, "lease-calc: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func quoteLocal(ctx context.Context, opts options, raw map[string]interface{}) (*pipeline.QuoteResult, error) {
	docOpts := document.Options{ValidityDays: opts.validityDays}
	strategyName, strategyFile := opts.strategy, opts.strategyFile

	if opts.configFile != "" {
		cfg, err := config.LoadFromFile(opts.configFile)
		if err != nil {
			return nil, err
		}
		if strategyFile == "" && !opts.strategySet {
			strategyName, strategyFile = cfg.Lease.Strategy, cfg.Lease.StrategyFile
		}
		if docOpts.ValidityDays == 0 {
			docOpts.ValidityDays = cfg.Lease.ValidityDays
		}
		docOpts.Contact = document.Contact{Email: cfg.Lease.ContactEmail, Phone: cfg.Lease.ContactPhone}
	}

	strategy, err := lease.Load(strategyName, strategyFile)
	if err != nil {
		return nil, err
	}
	engine := lease.NewEngine(strategy, lease.WithDocumentOptions(docOpts))

	var log logger.Logger = logger.NewNoOpLogger()
	if opts.verbose {
		log = logger.NewZapAdapter(logger.NewWithOptions(logger.Options{Level: "debug", Format: "console", Output: "stderr"}))
	}

	pl := pipeline.New(pipeline.Stages{
		Validate: vbp.NewHandler(vbp.LoadConfig(), log),
		Score:    sr.NewHandler(sr.LoadConfig(), engine, nil, log),
		Terms:    gdt.NewHandler(gdt.LoadConfig(), engine, log),
		Render:   rd.NewHandler(rd.LoadConfig(), engine, log),
	}, nil, log)
	return pl.Quote(ctx, raw)
}

func quoteRemote(ctx context.Context, opts options, raw map[string]interface{}) (*pipeline.QuoteResult, error) {
	client := commonhttp.NewClient(strings.TrimRight(opts.remote, "/"), opts.timeout)
	var result pipeline.QuoteResult
	if err := client.PostJSON(ctx, "/api/v1/quotes", raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func reportError(stderr io.Writer, err error) int {
	if fieldErrs, ok := pipeline.IsProfileError(err); ok {
		fmt.Fprintln(stderr, "lease-calc: profile rejected")
		for _, fe := range fieldErrs {
			fmt.Fprintf(stderr, "  %s: %s\n", fe.Field, fe.Message)
		}
		return exitRejected
	}

	var apiErr *commonhttp.APIError
	if errors.As(err, &apiErr) && len(apiErr.ValidationErrors) > 0 {
		fmt.Fprintf(stderr, "lease-calc: profile rejected (%s)\n", apiErr.Code)
		for _, fe := range apiErr.ValidationErrors {
			fmt.Fprintf(stderr, "  %s: %s\n", fe.Field, fe.Message)
		}
		return exitRejected
	}

	fmt.Fprintf(stderr, "lease-calc: %v\n", err)
	return exitFailure
}

func writeResult(w io.Writer, opts options, result *pipeline.QuoteResult) error {
	switch opts.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "markdown":
		fmt.Fprintln(w, result.Proposal)
		if opts.contract {
			fmt.Fprintln(w)
			fmt.Fprintln(w, result.Contract)
		}
		return nil
	default:
		return writeSummary(w, result, opts.contract)
	}
}
