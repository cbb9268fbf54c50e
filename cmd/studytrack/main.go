// Package main is the entry point for the studytrack command.
// It dispatches subcommands that drive the persisted study timer and the
// backup, import and recovery paths over the local key-value store.
package main

import (
	"flag"
	"fmt"
	"os"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const helpText = `studytrack - Study timer and durable study data for your terminal

USAGE:
    studytrack <command> [ARGS]

COMMANDS:
    timer start          Start a pomodoro (or --countup) timer
    timer status         Show the active timer
    timer pause|resume   Pause or resume the active timer
    timer distraction    Count a distraction against the active timer
    timer stop           Finish the timer and record the study session
    timer watch          Open the live timer view
    timer clear          Drop the active timer without recording it
    export               Write a JSON backup of all study data
    import FILE          Import a backup file (merges by default)
    recover              Scan local storage for recoverable data
    report [DATE]        Daily (or --weekly) study report
    backup list          List exported backup files
    backup prune [N]     Keep only the newest N exports
    backup restore NAME  Import an exported backup by name (or --latest)
    backup vault         List or restore secure backup copies

OPTIONS:
    -h, --help       Show this help message
    -v, --version    Show version information

DESCRIPTION:
    studytrack keeps a single active study timer that survives the process
    being killed: progress is always derived from stored timestamps. Study
    data (sessions, test scores, subjects, plans, exam dates) lives in a
    local key-value store and can be exported, imported and recovered.

DATA STORAGE:
    Data is stored in ~/.studytrack/ by default:
        store.json   - Key-value store (file backend)
        store.db     - Key-value store (sqlite backend)
        backups/     - Exported backup files
        vault/       - Encrypted secure backup copies

CONFIGURATION:
    Optional config file: ~/.config/studytrack/config.yaml
    STUDYTRACK_USER selects the signed-in user (empty for guest).

EXAMPLES:
    # Start a 50 minute focus block on a subject and watch it
    studytrack timer start --minutes 50 --subject anatomy --watch

    # Finish it and record the session
    studytrack timer stop

    # Export everything to a file
    studytrack export -o ~/study-backup.json

    # Import a backup, replacing local data
    studytrack import --replace ~/study-backup.json

    # Check what could be rebuilt from a damaged store
    studytrack recover

    # This week's study report
    studytrack report --weekly
`

func main() {
	// Check for subcommands first (before flag parsing)
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "timer":
			runTimer(os.Args[2:])
			return
		case "export":
			runExport(os.Args[2:])
			return
		case "import":
			runImport(os.Args[2:])
			return
		case "recover":
			runRecover(os.Args[2:])
			return
		case "backup":
			runBackup(os.Args[2:])
			return
		case "report":
			runReport(os.Args[2:])
			return
		}
	}

	showVersion := flag.Bool("version", false, "show version information")
	flag.BoolVar(showVersion, "v", false, "show version information (shorthand)")

	showHelp := flag.Bool("help", false, "show help message")
	flag.BoolVar(showHelp, "h", false, "show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, helpText)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("studytrack version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	if *showHelp {
		fmt.Print(helpText)
		os.Exit(0)
	}

	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unknown command: %v\n\n", flag.Args())
		flag.Usage()
		os.Exit(1)
	}

	fmt.Print(helpText)
}
