// Copyright (c) 2015-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// stagetx inspects and edits staged transactions.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/txstaging/internal/cfgutil"
	"github.com/btcsuite/txstaging/journal"
	"github.com/btcsuite/txstaging/staging"
	"github.com/btcsuite/txstaging/stagingid"
	"github.com/jessevdk/go-flags"
)

const logFilename = "stagetx.log"

var (
	appDataDir        = btcutil.AppDataDir("stagetx", false)
	defaultStagingDir = filepath.Join(appDataDir, "staging")
	defaultLogDir     = filepath.Join(appDataDir, "logs")
	newlineBytes      = []byte{'\n'}
)

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Stderr.Write(newlineBytes)
	os.Exit(1)
}

// Flags shared by every command.
var opts = struct {
	StagingDir  string                  `short:"s" long:"stagingdir" description:"Directory holding the staged transaction journals"`
	LogDir      *cfgutil.ExplicitString `long:"logdir" description:"Also write logs to a rotated file in this directory"`
	DebugLevel  string                  `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical, off} or <subsystem>=<level>,... pairs"`
	LockTimeout time.Duration           `long:"locktimeout" description:"Time to wait for a staged transaction that is open elsewhere"`
}{
	StagingDir:  defaultStagingDir,
	LogDir:      cfgutil.NewExplicitString(defaultLogDir),
	DebugLevel:  "warn",
	LockTimeout: journal.DefaultLockTimeout,
}

// stagingConfig returns the configuration of the staging package built
// from the global flags.
func stagingConfig() *staging.Config {
	return &staging.Config{
		RootDir:     cfgutil.CleanAndExpandPath(opts.StagingDir),
		LockTimeout: opts.LockTimeout,
	}
}

// setupLogging applies the logging flags.  It runs once the flags are
// parsed and before the selected command executes.
func setupLogging() error {
	if err := parseAndSetDebugLevels(opts.DebugLevel); err != nil {
		return err
	}
	if !opts.LogDir.ExplicitlySet() {
		return nil
	}

	logDir := cfgutil.CleanAndExpandPath(opts.LogDir.Value)
	return initLogRotator(filepath.Join(logDir, logFilename))
}

// withStaged opens the staged transaction named by idStr, calls fn and
// closes the staged transaction again.
func withStaged(idStr string, fn func(*staging.StagingTransaction) error) error {
	id, err := stagingid.Parse(idStr)
	if err != nil {
		return err
	}

	st, err := staging.Open(stagingConfig(), id)
	if err != nil {
		return err
	}

	err = fn(st)
	if cErr := st.Close(); cErr != nil && err == nil {
		err = cErr
	}
	return err
}

func newParser() *flags.Parser {
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		if cmd == nil {
			return nil
		}
		return cmd.Execute(args)
	}

	for _, c := range commands {
		_, err := parser.AddCommand(c.name, c.short, c.long, c.data)
		if err != nil {
			fatalf("unable to register command %s: %v", c.name, err)
		}
	}

	return parser
}

func main() {
	defer closeLogRotator()

	// Errors are printed by the parser.
	_, err := newParser().Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return
		}
		log.Debugf("Command failed: %v", err)
		closeLogRotator()
		os.Exit(1)
	}
}
