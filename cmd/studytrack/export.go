// This file contains the export subcommand handler.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"studytrack/internal/backup"
	"studytrack/internal/fsutil"
	"studytrack/internal/recovery"
	"studytrack/internal/storage"
)

// exportHelpText is the help message for the export subcommand.
const exportHelpText = `studytrack export - Write a JSON backup of all study data

USAGE:
    studytrack export [OPTIONS]

OPTIONS:
    -o, --output FILE  Also copy the backup to FILE ("-" for stdout)
    -u, --user ID      Export this user's data instead of the configured one
    -e, --email EMAIL  Email recorded in the backup
    --no-recover       Don't fall back to a storage scan when data is empty
    -h, --help         Show this help message

DESCRIPTION:
    Collects study sessions, test scores, subjects, study plans and exam
    dates into a versioned JSON envelope and writes it to the backups
    directory (~/.studytrack/backups/ by default).

    When the normal reads come back empty, the whole store is scanned for
    data left under old or damaged keys, and whatever is found is exported
    instead. Older exports beyond backup.keep are pruned afterwards.

EXAMPLES:
    # Write a backup to the backups directory
    studytrack export

    # Also copy it somewhere else
    studytrack export -o ~/Dropbox/study.json

    # Pipe it
    studytrack export -o - | gzip > study.json.gz
`

// pathSharer "shares" an export by copying it to a destination path, or to
// stdout for "-". With no destination sharing is unavailable.
type pathSharer struct {
	dest string
}

func (s pathSharer) Available() bool { return s.dest != "" }

func (s pathSharer) Share(_ context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if s.dest == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.dest), 0700); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(s.dest, data, 0600)
}

// runExport handles the "studytrack export" subcommand.
func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	outputFlag := fs.String("output", "", "copy the backup to FILE")
	fs.StringVar(outputFlag, "o", "", "copy the backup to FILE (shorthand)")

	userFlag := fs.String("user", "", "export this user's data")
	fs.StringVar(userFlag, "u", "", "export this user's data (shorthand)")

	emailFlag := fs.String("email", "", "email recorded in the backup")
	fs.StringVar(emailFlag, "e", "", "email recorded in the backup (shorthand)")

	noRecoverFlag := fs.Bool("no-recover", false, "don't fall back to a storage scan")

	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, exportHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(exportHelpText)
		os.Exit(0)
	}

	ctx := context.Background()
	e := openEnv(*userFlag)
	defer e.close()

	// Status lines go to stderr when the backup itself goes to stdout.
	if *outputFlag == "-" {
		e.out.Out = os.Stderr
	}

	ds, err := e.repo.LoadDataset(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading study data: %v\n", err)
		e.exit(1)
	}
	if ds.IsEmpty() && !*noRecoverFlag {
		ds = recoverForExport(ctx, e, ds)
	}

	codec := e.codec(pathSharer{dest: *outputFlag})
	res, err := codec.Export(ctx, ds, e.user(*emailFlag))
	switch {
	case err == nil:
		if *outputFlag != "-" {
			e.out.Success("Backup copied to %s", *outputFlag)
		}
	case errors.Is(err, backup.ErrSharingUnavailable) && res != nil:
		// Nowhere to share to; the file in the backups directory is the result.
	default:
		fmt.Fprintf(os.Stderr, "Error exporting: %s\n", backup.Message(err))
		e.log.Debug("export failed", "err", err)
		if res == nil {
			e.exit(1)
		}
	}

	e.out.Success("Backup written: %s", res.Path)
	if res.SecretKey != "" {
		e.out.VerboseLog("secure copy: %s", res.SecretKey)
	}
	m := res.Envelope.Metadata
	e.out.Info("%d sessions, %d tests, %.1f study hours", m.TotalSessions, m.TotalTests, m.TotalStudyHours)
	e.summarize(res.Envelope.Data)

	if keep := e.cfg.Backup.Keep; keep > 0 {
		removed, err := backup.NewManager(codec.Dir).Prune(keep)
		if err != nil {
			e.out.Warning("Pruning old backups failed: %v", err)
		} else if removed > 0 {
			e.out.VerboseLog("pruned %d old backup(s)", removed)
		}
	}
}

// recoverForExport scans the store when the primary reads were empty and
// returns what it found, or ds unchanged.
func recoverForExport(ctx context.Context, e *env, ds storage.Dataset) storage.Dataset {
	res := recovery.New(e.kv, recovery.Options{Logger: e.log}).RecoverAll(ctx, e.cfg.User.ID)
	if !res.Success {
		for _, msg := range res.Errors {
			e.log.Debug("recovery", "msg", msg)
		}
		return ds
	}
	e.out.Warning("No data under the current keys; exporting data recovered from storage")
	for _, msg := range res.Errors {
		e.out.Warning("%s", msg)
	}
	return res.Data
}
