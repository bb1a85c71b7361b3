package utils

import (
	"errors"
	"flag"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/0xRadioAc7iv/caskdb/internal"
)

// HandleCLIInputs parses the server flags. When -config is given the file is
// loaded first and any flag set explicitly on the command line overrides it.
func HandleCLIInputs(args []string) (*internal.ServerConfig, error) {
	fs := flag.NewFlagSet("bitcask", flag.ContinueOnError)

	configPath := fs.String("config", "", "Path to a YAML config file")
	directoryPath := fs.String("dir", internal.DefaultDirectoryPath, "Directory Path to be used for this instance")
	maxDatafileSizeInMB := fs.Int("dfsize", internal.DefaultDataFileSizeMB, "Max Datafile Size (in MB)")
	port := fs.Int("port", internal.DEFAULT_PORT, "Port to use for the TCP Server")
	syncOnWrite := fs.Bool("sync-on-write", false, "fsync every record before acknowledging it")
	logLevel := fs.String("log-level", internal.DefaultLogLevel, "Log level (trace, debug, info, warn, error)")
	metricsAddr := fs.String("metrics-addr", "", "Address to serve Prometheus metrics on (disabled if empty)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := internal.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := internal.LoadServerConfig(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *configPath == "" || set["dir"] {
		cfg.DirectoryPath = *directoryPath
	}
	if *configPath == "" || set["dfsize"] {
		cfg.DataFileSizeMB = *maxDatafileSizeInMB
	}
	if *configPath == "" || set["port"] {
		cfg.Port = *port
	}
	if *configPath == "" || set["sync-on-write"] {
		cfg.SyncOnWrite = *syncOnWrite
	}
	if *configPath == "" || set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if *configPath == "" || set["metrics-addr"] {
		cfg.MetricsAddr = *metricsAddr
	}

	return cfg, cfg.Validate()
}

// SplitStringIntoCommandAndArguments splits a CLI line into a command, key
// and value using shell quoting rules, so `set greeting "hello world"` keeps
// the value in one piece.
func SplitStringIntoCommandAndArguments(line string) (cmd, key, value string, err error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return "", "", "", err
	}

	switch len(words) {
	case 0:
		return "", "", "", errors.New("empty command")
	case 1:
		return words[0], "", "", nil
	case 2:
		return words[0], words[1], "", nil
	case 3:
		return words[0], words[1], words[2], nil
	default:
		return words[0], words[1], strings.Join(words[2:], " "), nil
	}
}
