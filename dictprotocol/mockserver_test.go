package dictprotocol

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// hangup, returned by a mock handler on its own or at the end of a reply,
// closes the connection after writing whatever precedes it.
const hangup = "\x00hangup"

// silent, returned by a mock handler, sends nothing and keeps the
// connection open.
const silent = ""

// mockServer is a scripted DICT server listening on a loopback TCP port.
type mockServer struct {
	listener net.Listener

	// greeting is written as soon as a client connects. Empty means the
	// server says nothing; hangup closes the connection immediately.
	greeting string

	// handler is called with each command line (terminator stripped) and
	// returns the raw text to send back, including line terminators.
	handler func(cmd string) string

	mu          sync.Mutex
	connections []net.Conn
	received    []string

	wg sync.WaitGroup
}

func startMockServer(t *testing.T, greeting string, handler func(cmd string) string) *mockServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	if handler == nil {
		handler = defaultMockHandler
	}

	ms := &mockServer{
		listener: listener,
		greeting: greeting,
		handler:  handler,
	}

	ms.wg.Add(1)
	go ms.acceptLoop()

	t.Cleanup(ms.stop)
	return ms
}

func (ms *mockServer) host() string {
	return "127.0.0.1"
}

func (ms *mockServer) port() int {
	return ms.listener.Addr().(*net.TCPAddr).Port
}

func (ms *mockServer) commands() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.received...)
}

func (ms *mockServer) acceptLoop() {
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

func (ms *mockServer) handleConnection(conn net.Conn) {
	defer ms.wg.Done()
	defer conn.Close()

	if ms.greeting == hangup {
		return
	}
	if ms.greeting != "" {
		if _, err := io.WriteString(conn, ms.greeting); err != nil {
			return
		}
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cmd := strings.TrimSuffix(scanner.Text(), "\r")

		ms.mu.Lock()
		ms.received = append(ms.received, cmd)
		ms.mu.Unlock()

		reply := ms.handler(cmd)
		if reply == silent {
			continue
		}
		text, closeAfter := strings.CutSuffix(reply, hangup)
		if _, err := io.WriteString(conn, text); err != nil {
			return
		}
		if closeAfter {
			return
		}
	}
}

func (ms *mockServer) stop() {
	ms.listener.Close()

	ms.mu.Lock()
	for _, conn := range ms.connections {
		conn.Close()
	}
	ms.connections = nil
	ms.mu.Unlock()

	ms.wg.Wait()
}

// lines joins server lines with CRLF, terminating the last one too.
func lines(ls ...string) string {
	return strings.Join(ls, "\r\n") + "\r\n"
}

const greeting = "220 dict.test dictd 1.12.1 <auth.mime> <1.2@dict.test>\r\n"

func defaultMockHandler(cmd string) string {
	switch {
	case cmd == "QUIT":
		return lines("221 bye [d/m/c = 0/0/0; 0.000r 0.000u 0.000s]")
	case cmd == "SHOW DB":
		return lines(
			"110 2 databases present",
			`wn "WordNet (r) 3.0 (2006)"`,
			`foldoc "The Free On-line Dictionary of Computing (30 December 2018)"`,
			".",
			"250 ok",
		)
	case cmd == "SHOW STRAT":
		return lines(
			"111 3 strategies present",
			`exact "Match headwords exactly"`,
			`prefix "Match prefixes"`,
			`soundex "Match using SOUNDEX algorithm"`,
			".",
			"250 ok",
		)
	default:
		return lines("500 unknown command")
	}
}

// connect starts a client against ms and closes it when the test ends.
func connect(t *testing.T, ms *mockServer) *Client {
	t.Helper()
	c := NewClient()
	require.NoError(t, c.Connect(ms.host(), ms.port()))
	t.Cleanup(func() { c.Close() })
	return c
}
