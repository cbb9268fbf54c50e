// This file contains the report subcommand handler.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"studytrack/internal/fsutil"
	"studytrack/internal/reports"
)

// reportHelpText is the help message for the report subcommand.
const reportHelpText = `studytrack report - Summarize study time, tests and targets

USAGE:
    studytrack report [OPTIONS] [DATE]

OPTIONS:
    -d, --daily        Generate daily report (default)
    -w, --weekly       Generate weekly report
    -f, --format FMT   Output format: markdown (default) or json
    -o, --output FILE  Write to file instead of stdout
    -u, --user ID      Report on this user's data instead of the configured one
    -h, --help         Show this help message

ARGUMENTS:
    DATE               Date for report (YYYY-MM-DD). Defaults to today.
                       Weekly reports cover the Sunday-to-Saturday week
                       containing DATE.

DESCRIPTION:
    Totals study time per subject, lists tests taken, compares study time
    with the daily or weekly targets of each study plan, and counts down to
    upcoming exams.

EXAMPLES:
    # Today's report in Markdown
    studytrack report

    # Last week's report as JSON
    studytrack report --weekly --format json 2025-01-05

    # Save to file
    studytrack report --weekly -o ~/reports/week.md
`

// runReport handles the "studytrack report" subcommand.
func runReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)

	dailyFlag := fs.Bool("daily", false, "generate daily report")
	fs.BoolVar(dailyFlag, "d", false, "generate daily report (shorthand)")

	weeklyFlag := fs.Bool("weekly", false, "generate weekly report")
	fs.BoolVar(weeklyFlag, "w", false, "generate weekly report (shorthand)")

	formatFlag := fs.String("format", "markdown", "output format: markdown or json")
	fs.StringVar(formatFlag, "f", "markdown", "output format (shorthand)")

	outputFlag := fs.String("output", "", "write to file instead of stdout")
	fs.StringVar(outputFlag, "o", "", "write to file (shorthand)")

	userFlag := fs.String("user", "", "report on this user's data")
	fs.StringVar(userFlag, "u", "", "report on this user's data (shorthand)")

	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, reportHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(reportHelpText)
		os.Exit(0)
	}

	format, err := reportFormat(*formatFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	date := time.Now()
	if fs.NArg() > 0 {
		parsedDate, err := time.ParseInLocation("2006-01-02", fs.Arg(0), time.Local)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid date %q. Use YYYY-MM-DD format.\n", fs.Arg(0))
			os.Exit(1)
		}
		date = parsedDate
	}

	// --daily wins when both are given.
	weekly := *weeklyFlag && !*dailyFlag

	e := openEnv(*userFlag)
	defer e.close()

	output, err := renderReport(context.Background(), reports.NewGenerator(e.repo), date, weekly, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		e.exit(1)
	}

	if *outputFlag == "" {
		fmt.Print(output)
		return
	}
	if err := os.MkdirAll(filepath.Dir(*outputFlag), 0700); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		e.exit(1)
	}
	if err := fsutil.WriteFileAtomic(*outputFlag, []byte(output), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing to file: %v\n", err)
		e.exit(1)
	}
	e.out.Success("Report written to %s", *outputFlag)
}

// reportFormat normalizes the --format value.
func reportFormat(f string) (string, error) {
	switch f {
	case "markdown", "md":
		return "markdown", nil
	case "json":
		return "json", nil
	default:
		return "", fmt.Errorf("invalid format %q. Use 'markdown' or 'json'", f)
	}
}

// renderReport generates the daily or weekly report for date in format.
func renderReport(ctx context.Context, gen *reports.Generator, date time.Time, weekly bool, format string) (string, error) {
	if weekly {
		report, err := gen.GenerateWeekly(ctx, date)
		if err != nil {
			return "", err
		}
		if format == "json" {
			data, err := reports.FormatWeeklyJSON(report)
			return string(data) + "\n", err
		}
		return reports.FormatWeeklyMarkdown(report), nil
	}

	report, err := gen.GenerateDaily(ctx, date)
	if err != nil {
		return "", err
	}
	if format == "json" {
		data, err := reports.FormatDailyJSON(report)
		return string(data) + "\n", err
	}
	return reports.FormatDailyMarkdown(report), nil
}
