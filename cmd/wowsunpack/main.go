/*

A simple CLI app to parse and display information about a World of
Warships replay passed as a CLI argument.

Schema data (entity definitions and constant tables) is out of scope
for this module (see schema package doc); this binary resolves one via
schema.Lookup, populated by whatever schema-data package the caller
blank-imports alongside this one. As a main package it cannot be
imported; a working binary is a copy of this main that also adds
`_ "yourmodule/wowsschema126"` (or similar) to its imports.

*/
package main

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	flags "github.com/jessevdk/go-flags"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/icza/wowsreplay/replay"
	"github.com/icza/wowsreplay/schema"
	"github.com/icza/wowsreplay/wowsparser"
)

const (
	appName    = "wowsunpack"
	appVersion = "v0.1.0"
	appHome    = "https://github.com/icza/wowsreplay"
)

const (
	ExitCodeMissingArguments         = 1
	ExitCodeFailedToParseReplay      = 2
	ExitCodeFailedToCreateOutputFile = 3
	ExitCodeNoSchemaRegistered       = 4
)

const validReplayHashes = "valid values are 'sha1', 'sha256', 'sha512', 'md5'"

type options struct {
	Version bool `short:"v" long:"version" description:"print version info and exit"`

	SchemaName string  `long:"schema" default:"12.6.0" description:"name a registered schema.Provider resolves against"`
	Period     float64 `long:"period" default:"40" description:"snapshot cadence in seconds, 0 disables periodic snapshots"`
	Strict     bool    `long:"strict" description:"abort on the first per-packet recoverable error instead of skipping it"`
	Verbose    bool    `long:"verbose" description:"log every skipped/recovered packet at debug level"`

	ReplayHash string `long:"hash" description:"print the hash of the raw replay file too; valid values are sha1, sha256, sha512, md5"`

	OutFile string `short:"o" long:"outfile" description:"optional output file name, defaults to stdout"`
	Compact bool   `long:"compact" description:"force compact (non-indented) JSON output even on a TTY"`

	Args struct {
		ReplayFile string `positional-arg-name:"replayfile" description:".wowsreplay file to parse"`
	} `positional-args:"yes"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = appName

	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(ExitCodeMissingArguments)
	}

	if opts.Version {
		printVersion()
		return
	}

	if opts.Args.ReplayFile == "" {
		parser.WriteHelp(os.Stderr)
		os.Exit(ExitCodeMissingArguments)
	}

	prov, ok := schema.Lookup(opts.SchemaName)
	if !ok {
		fmt.Printf("No schema.Provider registered under %q.\n", opts.SchemaName)
		fmt.Println("Build a binary that blank-imports a schema-data package calling schema.Register in its init.")
		os.Exit(ExitCodeNoSchemaRegistered)
	}

	logger := zerolog.Nop()
	if opts.Verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	start := time.Now()
	r, err := wowsparser.ParseFileConfig(opts.Args.ReplayFile, wowsparser.Config{
		Schema: prov,
		Period: float32(opts.Period),
		Strict: opts.Strict,
		Logger: logger,
	})
	if err != nil {
		fmt.Printf("Failed to parse replay: %v\n", err)
		os.Exit(ExitCodeFailedToParseReplay)
	}
	elapsed := time.Since(start)

	var destination = os.Stdout
	if opts.OutFile != "" {
		foutput, err := os.Create(opts.OutFile)
		if err != nil {
			fmt.Printf("Failed to create output file: %v\n", err)
			os.Exit(ExitCodeFailedToCreateOutputFile)
		}
		defer func() {
			if err := foutput.Close(); err != nil {
				panic(err)
			}
		}()
		destination = foutput
	}

	// custom holds any data we want alongside replay.Replay in the
	// output that isn't part of the decoded model itself.
	custom := map[string]any{
		"ParseDuration": elapsed.String(),
		"SnapshotCount": humanize.Comma(int64(len(r.Data.Snapshots))),
		"PlayerCount":   humanize.Comma(int64(len(r.Data.Players))),
	}

	if opts.ReplayHash != "" {
		hasher, err := hasherFor(opts.ReplayHash)
		if err != nil {
			fmt.Println(err)
			os.Exit(ExitCodeMissingArguments)
		}
		raw, err := os.ReadFile(opts.Args.ReplayFile)
		if err != nil {
			fmt.Printf("Failed to re-read replay for hashing: %v\n", err)
		} else {
			hasher.Write(raw)
			custom["ReplayHash"] = hex.EncodeToString(hasher.Sum(nil))
		}
	}

	enc := json.NewEncoder(destination)
	if pretty(opts, destination) {
		enc.SetIndent("", "  ")
	}

	valueToEncode := any(struct {
		*replay.Replay
		Custom map[string]any
	}{r, custom})

	if err := enc.Encode(valueToEncode); err != nil {
		fmt.Printf("Failed to encode output: %v\n", err)
	}
}

func hasherFor(name string) (hash.Hash, error) {
	switch strings.ToLower(name) {
	case "md5":
		return md5.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("invalid hash %q: %s", name, validReplayHashes)
	}
}

func pretty(opts options, destination *os.File) bool {
	if opts.Compact {
		return false
	}
	return isatty.IsTerminal(destination.Fd()) || isatty.IsCygwinTerminal(destination.Fd())
}

func printVersion() {
	fmt.Println(appName, "version:", appVersion)
	fmt.Println("Platform:", runtime.GOOS, runtime.GOARCH)
	fmt.Println("Built with:", runtime.Version())
	fmt.Println("Home page:", appHome)
}
