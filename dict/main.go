// Command dict is a client for DICT dictionary servers (RFC 2229).
//
// Usage:
//
//	dict hello                      Define "hello" in all databases
//	dict -d wn hello                Define "hello" in WordNet only
//	dict -m -s prefix hel           List words starting with "hel"
//	dict --dbs                      List the server's databases
//	dict                            Start the interactive REPL
//
// Server, database and strategy defaults come from the config file
// ($XDG_CONFIG_HOME/dict/config.toml), the DICT_SERVER environment
// variable and command-line flags, in increasing order of precedence.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/koostia/DICT-Client/dictprotocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	// version is the current version of the dict CLI.
	version = "0.3.0"

	// appName is the application name.
	appName = "dict"
)

// fullTitle returns the application name with version.
func fullTitle() string {
	return fmt.Sprintf("%s v%s", appName, version)
}

// welcomeBanner returns the banner displayed when the REPL starts.
func welcomeBanner(addr, greeting string) string {
	return fmt.Sprintf(`%s - DICT protocol client
Connected to %s
%s

Type a word to look it up, '.help' for commands, '.quit' to exit.
`, fullTitle(), addr, greeting)
}

// arguments holds parsed command-line arguments. Empty strings and zero
// values mean "not given", so config file values apply.
type arguments struct {
	host       string
	port       int
	server     string
	configPath string
	database   string
	strategy   string
	info       string
	timeout    time.Duration
	timeoutSet bool // --timeout was given, possibly as 0

	match       bool
	listDBs     bool
	listStrats  bool
	debug       bool
	showHelp    bool
	showVersion bool

	words []string
}

// oneShot reports whether the arguments ask for a single lookup instead
// of the REPL.
func (a arguments) oneShot() bool {
	return len(a.words) > 0 || a.listDBs || a.listStrats || a.info != ""
}

// parseArguments parses argv (without the program name).
func parseArguments(argv []string) (arguments, error) {
	var args arguments
	remaining := argv

	next := func(flag string) (string, error) {
		if len(remaining) == 0 {
			return "", fmt.Errorf("%s requires an argument", flag)
		}
		v := remaining[0]
		remaining = remaining[1:]
		return v, nil
	}

	for len(remaining) > 0 {
		arg := remaining[0]
		remaining = remaining[1:]

		var err error
		switch arg {
		case "--host":
			args.host, err = next(arg)

		case "--port", "-p":
			var v string
			if v, err = next(arg); err == nil {
				args.port, err = strconv.Atoi(v)
				if err != nil || args.port <= 0 || args.port > 65535 {
					err = fmt.Errorf("invalid port %q", v)
				}
			}

		case "--server":
			args.server, err = next(arg)

		case "--config", "-c":
			args.configPath, err = next(arg)

		case "--database", "-d":
			args.database, err = next(arg)

		case "--strategy", "-s":
			args.strategy, err = next(arg)

		case "--info", "-i":
			args.info, err = next(arg)

		case "--timeout":
			var v string
			if v, err = next(arg); err == nil {
				args.timeout, err = time.ParseDuration(v)
				if err != nil || args.timeout < 0 {
					err = fmt.Errorf("invalid timeout %q", v)
				}
				args.timeoutSet = err == nil
			}

		case "--match", "-m":
			args.match = true

		case "--dbs":
			args.listDBs = true

		case "--strats":
			args.listStrats = true

		case "--debug":
			args.debug = true

		case "--help", "-h":
			args.showHelp = true

		case "--version", "-v":
			args.showVersion = true

		case "--":
			args.words = append(args.words, remaining...)
			remaining = nil

		default:
			if strings.HasPrefix(arg, "-") && arg != "-" {
				err = fmt.Errorf("unknown argument: %s", arg)
			} else {
				args.words = append(args.words, arg)
			}
		}
		if err != nil {
			return arguments{}, err
		}
	}

	return args, nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `USAGE: dict [options] [word...]

OPTIONS:
  --host <host>           DICT server host (default: dict.org)
  --port, -p <port>       DICT server port (default: 2628)
  --server <host[:port]>  Server address in one argument
  --config, -c <path>     Config file (.toml, .yaml or .yml)
  --database, -d <db>     Database to search ("*" all, "!" first match)
  --strategy, -s <strat>  Match strategy (default: "." server default)
  --match, -m             Match the word instead of defining it
  --dbs                   List the server's databases
  --strats                List the server's match strategies
  --info, -i <db>         Show information about a database
  --timeout <duration>    Per-request timeout, e.g. 10s (0 disables)
  --debug                 Log protocol traffic to stderr
  --help, -h              Show this help
  --version, -v           Show version

ENVIRONMENT:
  DICT_SERVER             Server address, host[:port]
  DICT_LOG_LEVEL          trace, debug, info, warn, error or off

EXAMPLES:
  dict hello                      Define "hello" in all databases
  dict -d wn "ice cream"          Define a phrase in WordNet
  dict -m -s prefix hel           Words starting with "hel"
  dict --server localhost:2628    Start the REPL against a local dictd
`)
}

func printError(w io.Writer, message string) {
	fmt.Fprintf(w, "Error: %s\n", message)
}

// setupSignalHandler runs cleanup and exits when SIGINT or SIGTERM arrives.
func setupSignalHandler(cleanup func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println()
		cleanup()
		os.Exit(0)
	}()
}

// connectClient builds a client from the resolved configuration and
// connects it.
func connectClient(cfg Config, logger zerolog.Logger, metrics *dictprotocol.Metrics) (*dictprotocol.Client, error) {
	client := dictprotocol.NewClient()
	client.SetLogger(logger)
	client.SetMetrics(metrics)
	client.SetTimeout(cfg.Server.Timeout.Duration)

	ctx, cancel := context.WithTimeout(context.Background(), dictprotocol.ConnectionTimeout)
	defer cancel()

	if err := client.ConnectWithContext(ctx, cfg.Server.Host, cfg.Server.Port); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", serverAddr(cfg.Server.Host, cfg.Server.Port), err)
	}
	return client, nil
}

// run is main without the process exit, returning the exit code.
func run(argv []string, stdout, stderr io.Writer) int {
	args, err := parseArguments(argv)
	if err != nil {
		printError(stderr, err.Error())
		printUsage(stderr)
		return 2
	}

	if args.showHelp {
		printUsage(stdout)
		return 0
	}
	if args.showVersion {
		fmt.Fprintln(stdout, fullTitle())
		return 0
	}

	cfg, err := resolveConfig(args)
	if err != nil {
		printError(stderr, err.Error())
		return 2
	}

	logger := newLogger(stderr, resolveLevel(cfg.Log.Level, args.debug))
	reg := prometheus.NewRegistry()
	metrics := dictprotocol.NewMetrics(reg)

	client, err := connectClient(cfg, logger, metrics)
	if err != nil {
		printError(stderr, err.Error())
		return 1
	}

	r := newREPL(client, cfg, stdout, stderr)
	r.gatherer = reg
	r.addr = client.Addr()
	r.greeting = client.Greeting()

	if args.oneShot() {
		defer client.Close()
		if err := runOnce(r, args); err != nil {
			printError(stderr, describeError(err))
			return 1
		}
		return 0
	}

	editor := NewLineEditor(cfg.History.File, cfg.History.Size)
	cleanup := func() {
		editor.Close()
		client.Close()
	}
	setupSignalHandler(cleanup)

	if editor.IsInteractive() {
		fmt.Fprint(stdout, welcomeBanner(r.addr, r.greeting))
	}
	runREPL(r, editor)
	cleanup()
	return 0
}

// runOnce performs the lookup requested on the command line.
func runOnce(r *repl, args arguments) error {
	switch {
	case args.listDBs:
		return r.showDatabases()
	case args.listStrats:
		return r.showStrategies()
	case args.info != "":
		return r.showInfo(args.info)
	case args.match:
		return r.match(strings.Join(args.words, " "), "", "")
	default:
		return r.define(strings.Join(args.words, " "), "")
	}
}

// describeError renders err for the terminal, showing the server's own
// text when there is one.
func describeError(err error) string {
	var de *dictprotocol.Error
	if errors.As(err, &de) && de.Code != 0 {
		switch de.Kind {
		case dictprotocol.KindInvalidDatabase:
			return fmt.Sprintf("invalid database (%d %s); use .db to list databases", de.Code, de.Detail)
		case dictprotocol.KindInvalidStrategy:
			return fmt.Sprintf("invalid strategy (%d %s); use .strat to list strategies", de.Code, de.Detail)
		}
	}
	return err.Error()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
