// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// hellotool decodes, builds and answers TLS 1.3 hello messages.
//
// Usage:
//
//	hellotool parse   [-in file] [-type auto|client|server] [-json]
//	hellotool build   [-config prefs.toml] [-profile id] [-sni host]
//	hellotool respond [-config prefs.toml] [-in file]
//	hellotool profiles
//
// Input is hex (whitespace, colons and a 0x prefix are ignored) or raw
// binary, in any framing: bare message, handshake message or TLS record.
// The log level is taken from -log-level or TLSHELLO_LOG_LEVEL.
package main

import (
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	helloerrors "github.com/mar1xlatino/tlshello/errors"
	"github.com/rs/zerolog"
)

const logLevelEnv = "TLSHELLO_LOG_LEVEL"

// env is what a subcommand runs against.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	rand   io.Reader
	log    zerolog.Logger
}

type command struct {
	name  string
	usage string
	run   func(e *env, args []string) error
}

var commands = []command{
	{"parse", "decode a ClientHello or ServerHello and print its fields and fingerprints", runParse},
	{"build", "build a ClientHello from a profile and print it as a hex record", runBuild},
	{"respond", "negotiate a ServerHello for a ClientHello and print it as a hex record", runRespond},
	{"profiles", "list the built-in ClientHello profiles", runProfiles},
}

func main() {
	os.Exit(run(os.Args[1:], &env{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		rand:   rand.Reader,
	}))
}

// run executes the command line args and returns the exit code.
func run(args []string, e *env) int {
	global := flag.NewFlagSet("hellotool", flag.ContinueOnError)
	global.SetOutput(e.stderr)
	logLevel := global.String("log-level", os.Getenv(logLevelEnv), "log level: debug, info, warn or error")
	global.Usage = func() { usage(e.stderr) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		usage(e.stderr)
		return 2
	}

	e.log = newLogger(e.stderr, *logLevel)
	defer helloerrors.SetLogCallback(nil)

	name, rest := global.Arg(0), global.Args()[1:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(e, rest); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			var herr *helloerrors.Error
			if !errors.As(err, &herr) {
				err = helloerrors.New(name, " failed").Base(err).AtError()
			}
			e.log.WithLevel(zerologLevel(helloerrors.GetSeverity(err))).Err(err).Str("command", name).Msg("failed")
			return 1
		}
		return 0
	}
	fmt.Fprintf(e.stderr, "hellotool: unknown command %q\n", name)
	usage(e.stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: hellotool [-log-level level] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", c.name, c.usage)
	}
}

// newLogger returns a console logger on w and routes the library's log
// messages through it.
func newLogger(w io.Writer, level string) zerolog.Logger {
	severity, known := helloerrors.ParseSeverity(level)
	if !known {
		severity = helloerrors.SeverityWarning
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(zerologLevel(severity)).
		With().Timestamp().Str("app", "hellotool").Logger()
	if level != "" && !known {
		logger.Warn().Str("level", level).Msg("unknown log level, using warn")
	}

	helloerrors.SetLogLevel(severity)
	helloerrors.SetLogCallback(func(s helloerrors.Severity, msg string) {
		logger.WithLevel(zerologLevel(s)).Msg(msg)
	})
	return logger
}

func zerologLevel(s helloerrors.Severity) zerolog.Level {
	switch s {
	case helloerrors.SeverityError:
		return zerolog.ErrorLevel
	case helloerrors.SeverityWarning:
		return zerolog.WarnLevel
	case helloerrors.SeverityInfo:
		return zerolog.InfoLevel
	case helloerrors.SeverityDebug:
		return zerolog.DebugLevel
	}
	return zerolog.NoLevel
}
