// This file contains the recover subcommand handler.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"studytrack/internal/recovery"
)

// recoverHelpText is the help message for the recover subcommand.
const recoverHelpText = `studytrack recover - Rebuild study data from local storage

USAGE:
    studytrack recover [OPTIONS]

OPTIONS:
    --save         Write what was found back under the current keys
    -u, --user ID  Look for this user's data instead of the configured one
    -h, --help     Show this help message

DESCRIPTION:
    Scans every key in the store for study data, including older key
    names and keys that merely look related. Damaged values are skipped,
    records missing required fields are dropped and duplicates are removed.
    Without --save nothing is written.

EXAMPLES:
    studytrack recover
    studytrack recover --save
`

// runRecover handles the "studytrack recover" subcommand.
func runRecover(args []string) {
	fs := flag.NewFlagSet("recover", flag.ExitOnError)

	saveFlag := fs.Bool("save", false, "write recovered data back")

	userFlag := fs.String("user", "", "look for this user's data")
	fs.StringVar(userFlag, "u", "", "look for this user's data (shorthand)")

	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, recoverHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(recoverHelpText)
		os.Exit(0)
	}

	ctx := context.Background()
	e := openEnv(*userFlag)
	defer e.close()

	res := recovery.New(e.kv, recovery.Options{Logger: e.log}).RecoverAll(ctx, e.cfg.User.ID)
	for _, msg := range res.Errors {
		e.out.Warning("%s", msg)
	}
	if !res.Success {
		e.exit(1)
	}

	e.out.Success("Recovered study data")
	e.summarize(res.Data)

	if !*saveFlag {
		e.out.Info("Run 'studytrack recover --save' to write it back.")
		return
	}
	if err := recovery.SaveRecovered(ctx, e.repo, res.Data); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving recovered data: %v\n", err)
		e.exit(1)
	}
	e.out.Success("Recovered data saved")
}
