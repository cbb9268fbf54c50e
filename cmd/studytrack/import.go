// This file contains the import subcommand handler.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"studytrack/internal/backup"
)

// importHelpText is the help message for the import subcommand.
const importHelpText = `studytrack import - Import a backup file

USAGE:
    studytrack import [OPTIONS] FILE

OPTIONS:
    --replace      Replace local data instead of merging into it
    --dry-run      Show what would be imported without writing anything
    -u, --user ID  Import into this user's data instead of the configured one
    -h, --help     Show this help message

DESCRIPTION:
    Reads a studytrack export or an older backup layout:

      - versioned envelopes ({"version": ..., "data": {...}})
      - flat objects ({"studySessions": [...], "testScores": [...], ...})
      - a bare array of study sessions

    By default imported records are merged with local ones: local sessions
    and test scores win on ID clashes, local subjects and exam dates are kept
    when present, and imported study plans replace local ones.

EXAMPLES:
    studytrack import ~/Downloads/study-tracker-backup-2025-01-01T10-00-00.json
    studytrack import --dry-run old-backup.json
    studytrack import --replace backup.json
`

// runImport handles the "studytrack import" subcommand.
func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	replaceFlag := fs.Bool("replace", false, "replace local data instead of merging")
	dryRunFlag := fs.Bool("dry-run", false, "preview import without making changes")

	userFlag := fs.String("user", "", "import into this user's data")
	fs.StringVar(userFlag, "u", "", "import into this user's data (shorthand)")

	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, importHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(importHelpText)
		os.Exit(0)
	}

	if fs.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "Error: too many arguments\n\n")
		fmt.Fprintf(os.Stderr, "Usage: studytrack import [OPTIONS] FILE\n")
		os.Exit(1)
	}

	ctx := context.Background()
	e := openEnv(*userFlag)
	defer e.close()
	e.out.DryRun = *dryRunFlag

	codec := e.codec(nil)
	codec.Picker = backup.PathPicker(fs.Arg(0))

	env, err := codec.Import(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing: %s\n", backup.Message(err))
		e.log.Debug("import failed", "err", err)
		e.exit(1)
	}
	if env == nil {
		e.out.Info("Import cancelled.")
		return
	}
	applyImport(ctx, e, codec, env, *replaceFlag, *dryRunFlag)
}

// applyImport merges env into local data unless replace is set, then
// persists it. Shared by import and backup restore.
func applyImport(ctx context.Context, e *env, codec *backup.Codec, env *backup.Envelope, replace, dryRun bool) {
	if env.ExportDate != "" {
		e.out.VerboseLog("backup from %s (format %s)", env.ExportDate, env.Version)
	}

	if !replace {
		existing, err := e.repo.LoadDataset(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading study data: %v\n", err)
			e.exit(1)
		}
		env.Data = backup.Merge(env.Data, existing)
	}

	if dryRun {
		e.out.DryRunMsg("would write the following data:")
		e.summarize(env.Data)
		return
	}

	if err := codec.Persist(ctx, e.repo, env); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving imported data: %v\n", err)
		e.exit(1)
	}
	if replace {
		e.out.Success("Local data replaced")
	} else {
		e.out.Success("Backup merged into local data")
	}
	e.summarize(env.Data)
}
