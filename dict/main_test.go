package main

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/koostia/DICT-Client/dictprotocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv keeps the user's config file and environment out of a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv(envServer, "")
	t.Setenv(EnvLogLevel, "off")
}

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want arguments
	}{
		{name: "empty", argv: nil, want: arguments{}},
		{
			name: "words",
			argv: []string{"ice", "cream"},
			want: arguments{words: []string{"ice", "cream"}},
		},
		{
			name: "server flags",
			argv: []string{"--host", "localhost", "-p", "2629", "--timeout", "5s"},
			want: arguments{host: "localhost", port: 2629, timeout: 5 * time.Second, timeoutSet: true},
		},
		{
			name: "zero timeout",
			argv: []string{"--timeout", "0", "hello"},
			want: arguments{timeoutSet: true, words: []string{"hello"}},
		},
		{
			name: "lookup flags",
			argv: []string{"-d", "wn", "-s", "prefix", "-m", "hel"},
			want: arguments{database: "wn", strategy: "prefix", match: true, words: []string{"hel"}},
		},
		{
			name: "listing flags",
			argv: []string{"--dbs", "--strats", "-i", "wn"},
			want: arguments{listDBs: true, listStrats: true, info: "wn"},
		},
		{
			name: "double dash keeps flag-like words",
			argv: []string{"--", "-v", "--dbs"},
			want: arguments{words: []string{"-v", "--dbs"}},
		},
		{
			name: "misc",
			argv: []string{"--server", "dict.org:2628", "-c", "/tmp/x.toml", "--debug", "-h", "-v"},
			want: arguments{server: "dict.org:2628", configPath: "/tmp/x.toml", debug: true, showHelp: true, showVersion: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArguments(tt.argv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArgumentsErrors(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		msg  string
	}{
		{name: "unknown flag", argv: []string{"--frobnicate"}, msg: "unknown argument"},
		{name: "missing value", argv: []string{"--host"}, msg: "requires an argument"},
		{name: "bad port", argv: []string{"-p", "http"}, msg: "invalid port"},
		{name: "port out of range", argv: []string{"-p", "70000"}, msg: "invalid port"},
		{name: "bad timeout", argv: []string{"--timeout", "soon"}, msg: "invalid timeout"},
		{name: "negative timeout", argv: []string{"--timeout", "-1s"}, msg: "invalid timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArguments(tt.argv)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestOneShot(t *testing.T) {
	assert.False(t, arguments{}.oneShot())
	assert.False(t, arguments{database: "wn", match: true}.oneShot())
	assert.True(t, arguments{words: []string{"x"}}.oneShot())
	assert.True(t, arguments{listDBs: true}.oneShot())
	assert.True(t, arguments{listStrats: true}.oneShot())
	assert.True(t, arguments{info: "wn"}.oneShot())
}

func TestRunHelpAndVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"--help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "USAGE: dict")

	stdout.Reset()
	assert.Equal(t, 0, run([]string{"-v"}, &stdout, &stderr))
	assert.Equal(t, fullTitle()+"\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRunBadArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"--nope"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Error: unknown argument: --nope")
	assert.Contains(t, stderr.String(), "USAGE:")
}

// runAgainst runs the CLI against ms with extra arguments.
func runAgainst(t *testing.T, ms *mockDictd, argv ...string) (int, string, string) {
	t.Helper()
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	full := append([]string{"--host", "127.0.0.1", "-p", strconv.Itoa(ms.port())}, argv...)
	code := run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunDefine(t *testing.T) {
	ms := startMockDictd(t)

	code, out, errOut := runAgainst(t, ms, "hello")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "From wn (WordNet (r) 3.0 (2006)):")
	assert.Contains(t, out, "    n 1: an expression of greeting")
	assert.Contains(t, out, "1 definition(s) found.")

	assert.Equal(t, []string{"DEFINE * hello", "QUIT"}, ms.commands())
}

func TestRunDefinePhraseInDatabase(t *testing.T) {
	ms := startMockDictd(t)

	code, out, _ := runAgainst(t, ms, "-d", "wn", "ice", "cream")
	require.Equal(t, 0, code)
	assert.Equal(t, "No definitions found for \"ice cream\".\n", out)
	assert.Equal(t, `DEFINE wn "ice cream"`, ms.commands()[0])
}

func TestRunMatch(t *testing.T) {
	ms := startMockDictd(t)

	code, out, _ := runAgainst(t, ms, "-m", "-s", "prefix", "hel")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "hell")
	assert.Equal(t, "MATCH * prefix hel", ms.commands()[0])
}

func TestRunListings(t *testing.T) {
	ms := startMockDictd(t)

	code, out, _ := runAgainst(t, ms, "--dbs")
	require.Equal(t, 0, code)
	assert.Equal(t,
		"  gcide  The Collaborative International Dictionary of English v.0.48\n"+
			"  wn     WordNet (r) 3.0 (2006)\n",
		out)

	code, out, _ = runAgainst(t, ms, "--strats")
	require.Equal(t, 0, code)
	assert.Equal(t, "  exact   Match headwords exactly\n  prefix  Match prefixes\n", out)

	code, out, _ = runAgainst(t, ms, "-i", "wn")
	require.Equal(t, 0, code)
	assert.Equal(t, "WordNet 3.0\nPrinceton University\n", out)
}

func TestRunInvalidDatabase(t *testing.T) {
	ms := startMockDictd(t)

	code, out, errOut := runAgainst(t, ms, "-i", "nosuch")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Error: invalid database (550")
}

func TestRunRejectsMultiLineWord(t *testing.T) {
	ms := startMockDictd(t)

	code, out, errOut := runAgainst(t, ms, "hello\r\nSHOW DB")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "invalid argument")
	assert.Equal(t, []string{"QUIT"}, ms.commands())
}

func TestRunConnectionRefused(t *testing.T) {
	isolateEnv(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	var stdout, stderr bytes.Buffer
	code := run([]string{"--host", "127.0.0.1", "-p", strconv.Itoa(port), "hello"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), fmt.Sprintf("connect to 127.0.0.1:%d", port))
}

func TestDescribeError(t *testing.T) {
	err := &dictprotocol.Error{Kind: dictprotocol.KindInvalidStrategy, Code: 551, Detail: "invalid strategy"}
	assert.Equal(t, "invalid strategy (551 invalid strategy); use .strat to list strategies", describeError(err))

	plain := fmt.Errorf("nothing to define")
	assert.Equal(t, "nothing to define", describeError(plain))
}

func TestWelcomeBanner(t *testing.T) {
	banner := welcomeBanner("dict.org:2628", "220 dict.org ready")
	assert.Contains(t, banner, fullTitle())
	assert.Contains(t, banner, "Connected to dict.org:2628")
	assert.Contains(t, banner, "220 dict.org ready")
}
