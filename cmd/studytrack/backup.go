// This file contains the backup subcommand handler.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"studytrack/internal/backup"
)

// backupHelpText is the help message for the backup subcommand.
const backupHelpText = `studytrack backup - Manage exported and secure backups

USAGE:
    studytrack backup list
    studytrack backup prune [N]
    studytrack backup restore [OPTIONS] NAME
    studytrack backup restore [OPTIONS] --latest
    studytrack backup vault [OPTIONS]

ACTIONS:
    list      List exported backups in the backups directory (default)
    prune     Keep only the newest N exports (default: backup.keep)
    restore   Import an exported backup by file name
    vault     List secure backup copies, or restore one with --restore KEY

OPTIONS:
    --latest       Restore the most recent export
    --restore KEY  Restore the secure copy stored under KEY
    --replace      Replace local data instead of merging into it
    --dry-run      Show what would be restored without writing anything
    -u, --user ID  Act for this user instead of the configured one
    -h, --help     Show this help message

DESCRIPTION:
    Every 'studytrack export' leaves a timestamped file in the backups
    directory. Signed-in users with backup.vault enabled also get an
    encrypted copy in the local vault, listed by 'backup vault'.

EXAMPLES:
    studytrack backup
    studytrack backup prune 5
    studytrack backup restore --latest
    studytrack backup vault --restore backup_u1_1735725600000
`

// runBackup handles the "studytrack backup" subcommand.
func runBackup(args []string) {
	action := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("backup "+action, flag.ExitOnError)

	latestFlag := fs.Bool("latest", false, "restore the most recent export")
	restoreFlag := fs.String("restore", "", "restore the secure copy stored under KEY")
	replaceFlag := fs.Bool("replace", false, "replace local data instead of merging")
	dryRunFlag := fs.Bool("dry-run", false, "preview without making changes")

	userFlag := fs.String("user", "", "act for this user")
	fs.StringVar(userFlag, "u", "", "act for this user (shorthand)")

	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, backupHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(backupHelpText)
		os.Exit(0)
	}

	e := openEnv(*userFlag)
	defer e.close()
	e.out.DryRun = *dryRunFlag
	manager := backup.NewManager(e.cfg.ExportDir())
	ctx := context.Background()

	switch action {
	case "list":
		listBackups(e, manager)
	case "prune":
		keep := e.cfg.Backup.Keep
		if fs.NArg() > 0 {
			n, err := strconv.Atoi(fs.Arg(0))
			if err != nil || n < 0 {
				fmt.Fprintf(os.Stderr, "Error: invalid count %q\n", fs.Arg(0))
				e.exit(1)
			}
			keep = n
		}
		removed, err := manager.Prune(keep)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error pruning backups: %v\n", err)
			e.exit(1)
		}
		e.out.Success("Removed %d backup(s), kept the newest %d", removed, keep)
	case "restore":
		restoreBackup(ctx, e, manager, fs.Arg(0), *latestFlag, *replaceFlag, *dryRunFlag)
	case "vault":
		vaultBackups(ctx, e, *restoreFlag, *replaceFlag, *dryRunFlag)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown backup action %q\n\n", action)
		fmt.Fprint(os.Stderr, backupHelpText)
		e.exit(1)
	}
}

// listBackups lists all exported backups.
func listBackups(e *env, manager *backup.Manager) {
	backups, err := manager.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing backups: %v\n", err)
		e.exit(1)
	}

	if len(backups) == 0 {
		fmt.Fprintln(e.out.Out, "No backups available.")
		fmt.Fprintln(e.out.Out, "Run 'studytrack export' to create one.")
		return
	}

	table := e.out.Table([]string{"NAME", "CREATED", "SESSIONS", "TESTS", "SUBJECTS"})
	for _, b := range backups {
		row := []string{
			b.Name,
			formatAge(b.CreatedAt),
			strconv.Itoa(b.Stats["sessions"]),
			strconv.Itoa(b.Stats["tests"]),
			strconv.Itoa(b.Stats["subjects"]),
		}
		if err := table.Append(row); err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering backups: %v\n", err)
			e.exit(1)
		}
	}
	if err := table.Render(); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering backups: %v\n", err)
		e.exit(1)
	}
}

func restoreBackup(ctx context.Context, e *env, manager *backup.Manager, name string, latest, replace, dryRun bool) {
	var (
		info *backup.BackupInfo
		err  error
	)
	switch {
	case latest:
		info, err = manager.Latest()
	case name != "":
		info, err = manager.Get(name)
	default:
		fmt.Fprintf(os.Stderr, "Error: name a backup or pass --latest\n")
		fmt.Fprintf(os.Stderr, "Run 'studytrack backup list' to see available backups.\n")
		e.exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding backup: %v\n", err)
		e.exit(1)
	}

	codec := e.codec(nil)
	codec.Picker = backup.PathPicker(info.Path)
	env, err := codec.Import(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error restoring %s: %s\n", info.Name, backup.Message(err))
		e.exit(1)
	}
	e.out.Info("Restoring %s (%s)", info.Name, formatAge(info.CreatedAt))
	applyImport(ctx, e, codec, env, replace, dryRun)
}

func vaultBackups(ctx context.Context, e *env, key string, replace, dryRun bool) {
	if e.cfg.User.ID == "" {
		fmt.Fprintln(os.Stderr, "Error: secure backups belong to a signed-in user")
		fmt.Fprintln(os.Stderr, "Set user.id in the config, STUDYTRACK_USER, or pass --user.")
		e.exit(1)
	}
	codec := e.codec(nil)
	if codec.Secrets == nil {
		v, err := e.vault()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening vault: %v\n", err)
			e.exit(1)
		}
		codec.Secrets = v
	}

	if key != "" {
		env, err := codec.RestoreVaultBackup(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error restoring %s: %s\n", key, backup.Message(err))
			e.exit(1)
		}
		applyImport(ctx, e, codec, env, replace, dryRun)
		return
	}

	keys := codec.VaultBackups(e.cfg.User.ID)
	if len(keys) == 0 {
		fmt.Fprintln(e.out.Out, "No secure backups stored.")
		return
	}
	table := e.out.Table([]string{"KEY", "CREATED"})
	for _, k := range keys {
		created := "unknown"
		if t, ok := vaultKeyTime(k); ok {
			created = formatAge(t)
		}
		if err := table.Append([]string{k, created}); err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering backups: %v\n", err)
			e.exit(1)
		}
	}
	if err := table.Render(); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering backups: %v\n", err)
		e.exit(1)
	}
}

// vaultKeyTime reads the epoch-millisecond suffix of a secure backup key.
func vaultKeyTime(key string) (time.Time, bool) {
	i := strings.LastIndex(key, "_")
	if i < 0 {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(key[i+1:], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// formatAge returns a human-readable age string.
func formatAge(t time.Time) string {
	d := time.Since(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	}
}
