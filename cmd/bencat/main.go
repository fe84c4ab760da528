package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/meow-io/go-bencode/config"
	"github.com/meow-io/go-bencode/transcode"
)

const usage = `usage: bencat [flags] <command> args

commands:
  validate FILE...  check that each file holds exactly one valid bencode value
  dump FILE         list the tokens of a file with their positions
  copy IN OUT       re-encode IN through a reader and writer into OUT
  keys FILE         list the keys of a top-level dictionary with their value positions`

var errUsage = errors.New(usage)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("bencat", flag.ContinueOnError)
	debug := fs.Bool("debug", os.Getenv("DEBUG") == "1", "log at debug level")
	skipDuplicates := fs.Bool("skip-duplicates", false, "keep the first of repeated dictionary keys instead of failing")
	workers := fs.Int("workers", 4, "files validated at once")
	maxSize := fs.Int64("max-size", 64<<20, "largest file accepted, in bytes")
	logDir := fs.String("log-dir", "", "directory for bencat.log; no log file when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 1 {
		return errUsage
	}

	c := config.NewConfig(
		config.WithDebug(*debug),
		config.WithRootDir(*logDir),
		config.WithSkipDuplicateKeys(*skipDuplicates),
		config.WithWorkers(*workers),
		config.WithMaxFileSize(*maxSize),
	)
	log := c.Logger(rest[0])
	defer func() { _ = log.Sync() }()

	command, files := rest[0], rest[1:]
	switch command {
	case "validate":
		if len(files) == 0 {
			return errUsage
		}
		if err := transcode.ValidateFiles(context.Background(), c, log, files); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%d valid\n", len(files))
		return nil
	case "dump":
		if len(files) != 1 {
			return errUsage
		}
		data, err := transcode.ReadFile(c, files[0])
		if err != nil {
			return err
		}
		return dump(stdout, data, c.SkipDuplicateKeys)
	case "copy":
		if len(files) != 2 {
			return errUsage
		}
		data, err := transcode.ReadFile(c, files[0])
		if err != nil {
			return err
		}
		out, err := transcode.Recode(data)
		if err != nil {
			return err
		}
		log.Debugf("copied %d bytes from %s to %s", len(out), files[0], files[1])
		return os.WriteFile(files[1], out, 0o644)
	case "keys":
		if len(files) != 1 {
			return errUsage
		}
		data, err := transcode.ReadFile(c, files[0])
		if err != nil {
			return err
		}
		d, err := transcode.Keys(data, c.SkipDuplicateKeys)
		if err != nil {
			return err
		}
		for _, k := range d.Keys() {
			pos, _ := d.PositionOf(k)
			fmt.Fprintf(stdout, "%d\t%s\n", pos, quote([]byte(k)))
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}
