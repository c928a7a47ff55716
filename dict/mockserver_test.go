package main

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// mockDictd is a minimal DICT server on a loopback port that answers
// from a fixed word list, the way dictd formats its replies.
type mockDictd struct {
	listener net.Listener

	mu          sync.Mutex
	connections []net.Conn
	received    []string

	wg sync.WaitGroup
}

func startMockDictd(t *testing.T) *mockDictd {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ms := &mockDictd{listener: listener}
	ms.wg.Add(1)
	go ms.acceptLoop()

	t.Cleanup(ms.stop)
	return ms
}

func (ms *mockDictd) port() int {
	return ms.listener.Addr().(*net.TCPAddr).Port
}

func (ms *mockDictd) commands() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.received...)
}

func (ms *mockDictd) acceptLoop() {
	defer ms.wg.Done()

	for {
		conn, err := ms.listener.Accept()
		if err != nil {
			return
		}

		ms.mu.Lock()
		ms.connections = append(ms.connections, conn)
		ms.mu.Unlock()

		ms.wg.Add(1)
		go ms.handleConnection(conn)
	}
}

func (ms *mockDictd) handleConnection(conn net.Conn) {
	defer ms.wg.Done()
	defer conn.Close()

	if _, err := io.WriteString(conn, "220 mock.test dictd 1.12.1 <auth.mime> <7.7@mock.test>\r\n"); err != nil {
		return
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cmd := strings.TrimSuffix(scanner.Text(), "\r")

		ms.mu.Lock()
		ms.received = append(ms.received, cmd)
		ms.mu.Unlock()

		if _, err := io.WriteString(conn, dictdReply(cmd)); err != nil {
			return
		}
		if cmd == "QUIT" {
			return
		}
	}
}

func (ms *mockDictd) stop() {
	ms.listener.Close()

	ms.mu.Lock()
	for _, conn := range ms.connections {
		conn.Close()
	}
	ms.connections = nil
	ms.mu.Unlock()

	ms.wg.Wait()
}

func crlf(ls ...string) string {
	return strings.Join(ls, "\r\n") + "\r\n"
}

func dictdReply(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return crlf("500 syntax error, command not recognized")
	}

	switch strings.ToUpper(fields[0]) {
	case "QUIT":
		return crlf("221 bye")

	case "SHOW":
		switch {
		case len(fields) == 2 && fields[1] == "DB":
			return crlf(
				"110 2 databases present",
				`wn "WordNet (r) 3.0 (2006)"`,
				`gcide "The Collaborative International Dictionary of English v.0.48"`,
				".",
				"250 ok",
			)
		case len(fields) == 2 && fields[1] == "STRAT":
			return crlf(
				"111 2 strategies present",
				`exact "Match headwords exactly"`,
				`prefix "Match prefixes"`,
				".",
				"250 ok",
			)
		case len(fields) == 3 && fields[1] == "INFO":
			if fields[2] != "wn" {
				return crlf("550 invalid database, use \"SHOW DB\" for list of databases")
			}
			return crlf(
				"112 database information follows",
				"WordNet 3.0",
				"",
				"Princeton University",
				".",
				"250 ok",
			)
		}

	case "DEFINE":
		if len(fields) < 3 {
			break
		}
		db, word := fields[1], strings.Trim(strings.Join(fields[2:], " "), `"`)
		if db != "*" && db != "!" && db != "wn" && db != "gcide" {
			return crlf("550 invalid database, use \"SHOW DB\" for list of databases")
		}
		if word != "hello" {
			return crlf("552 no match [d/m/c = 0/0/0; 0.000r 0.000u 0.000s]")
		}
		return crlf(
			"150 1 definitions retrieved",
			`151 "hello" wn "WordNet (r) 3.0 (2006)"`,
			"hello",
			"    n 1: an expression of greeting",
			".",
			"250 ok [d/m/c = 1/0/12; 0.000r 0.000u 0.000s]",
		)

	case "MATCH":
		if len(fields) != 4 {
			break
		}
		if fields[2] != "." && fields[2] != "prefix" && fields[2] != "exact" {
			return crlf("551 invalid strategy, use \"SHOW STRAT\" for a list of strategies")
		}
		if !strings.HasPrefix("hello", fields[3]) {
			return crlf("552 no match")
		}
		return crlf(
			"152 2 matches found",
			`wn "hello"`,
			`gcide "hell"`,
			".",
			"250 ok",
		)
	}

	return crlf("500 syntax error, command not recognized")
}
