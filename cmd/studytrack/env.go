// This file wires configuration, logging and storage for the subcommands.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"studytrack/internal/backup"
	"studytrack/internal/config"
	"studytrack/internal/logging"
	"studytrack/internal/notify"
	"studytrack/internal/output"
	"studytrack/internal/secretstore"
	"studytrack/internal/storage"
	"studytrack/internal/timer"
)

// osExit is replaced in tests.
var osExit = os.Exit

// env is everything a subcommand needs, opened once per process.
type env struct {
	cfg  *config.Config
	log  *slog.Logger
	kv   storage.KV
	repo *storage.Storage
	out  *output.UI

	closed bool
}

// openEnv loads config and opens the store. A non-empty user overrides the
// configured one. Failures exit the process.
func openEnv(user string) *env {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if user != "" {
		cfg.User.ID = user
	}

	log := logging.New(cfg.Log, os.Stderr)
	out := output.New()

	kv, err := storage.Open(cfg.Storage.Backend, cfg.StoragePath())
	if err != nil {
		if kv == nil || !errors.Is(err, storage.ErrRecovered) {
			fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
			os.Exit(1)
		}
		out.Warning("%v", err)
		out.Warning("Run 'studytrack recover' to look for data left in the store.")
	}

	repo := storage.New(kv, storage.Scope{UserID: cfg.User.ID})
	repo.SetLogger(log)

	return &env{cfg: cfg, log: log, kv: kv, repo: repo, out: out}
}

func (e *env) close() {
	if e.closed {
		return
	}
	e.closed = true
	if err := e.kv.Close(); err != nil {
		e.log.Warn("close storage", "err", err)
	}
}

// exit closes the store and ends the process. os.Exit skips deferred
// calls, so every exit after openEnv goes through here.
func (e *env) exit(code int) {
	e.close()
	osExit(code)
}

// timerStore builds the process's timer store. Natural completions raise a
// desktop notification when enabled.
func (e *env) timerStore() *timer.Store {
	opts := timer.Options{
		ForegroundPolling: e.cfg.ForegroundPolling(),
		PollInterval:      e.cfg.PollEvery(),
		Logger:            e.log,
	}
	if e.cfg.Timer.Notify {
		n := notify.New()
		opts.OnComplete = func(st timer.State) {
			if err := notify.TimerCompleted(n, st); err != nil {
				e.log.Warn("completion notification", "err", err)
			}
		}
	}
	return timer.New(e.kv, opts)
}

// vault opens the secure backup store.
func (e *env) vault() (*secretstore.Vault, error) {
	return secretstore.Open(e.cfg.VaultDir(), e.cfg.Backup.VaultService, e.cfg.VaultPassphrase())
}

// codec builds a backup codec. The vault is attached only when secure
// copies are enabled; failing to open it disables them with a warning.
func (e *env) codec(sharer backup.Sharer) *backup.Codec {
	c := &backup.Codec{
		Dir:        e.cfg.ExportDir(),
		AppVersion: backup.AppVersion,
		Platform:   e.cfg.Platform,
		Sharer:     sharer,
		Logger:     e.log,
	}
	if !e.cfg.SecretBackups() || e.cfg.User.ID == "" {
		return c
	}
	v, err := e.vault()
	if err != nil {
		e.out.Warning("Secure backups disabled: %v", err)
		return c
	}
	c.Secrets = v
	c.SecretBackups = true
	return c
}

// user returns the signed-in identity, with email from config unless given.
func (e *env) user(email string) backup.User {
	if email == "" {
		email = e.cfg.User.Email
	}
	if e.cfg.User.ID == "" {
		return backup.User{}
	}
	return backup.User{ID: e.cfg.User.ID, Email: email}
}

// summarize prints the per-bucket record counts of ds.
func (e *env) summarize(ds storage.Dataset) {
	if err := e.out.Counts(len(ds.StudySessions), len(ds.TestScores), len(ds.Subjects),
		len(ds.StudyPlans), !ds.ExamDates.IsEmpty()); err != nil {
		e.log.Warn("render summary", "err", err)
	}
}
