// =============================================================================
// client.go - DICT session
// =============================================================================
//
// Connection lifecycle, one request at a time over a single buffered
// reader, and the five lookup operations.
//
// =============================================================================

package dictprotocol

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Dialer opens the byte-stream transport to a server. *net.Dialer
// satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type sessionState int

const (
	stateDisconnected sessionState = iota
	stateConnected
	stateClosed
)

// Client is a DICT protocol session over one TCP connection.
//
// A Client moves from disconnected to connected on a successful
// handshake and to closed on Close or on a transport failure. Closed is
// terminal; a new Client is needed to talk to the server again.
//
// Thread Safety:
// Requests are serialised, so a Client is safe for concurrent use. The
// protocol has no request identifiers, so concurrent callers simply take
// turns on the connection.
type Client struct {
	// mu guards the fields below it.
	mu       sync.Mutex
	state    sessionState
	conn     net.Conn
	reader   *lineReader
	addr     string
	greeting string

	// opMu is held for the whole write-then-read of one request.
	opMu sync.Mutex
	// trailerPending is set after a data reply; the "." and "250 ok"
	// lines real servers append are discarded before the next reply.
	// Guarded by opMu.
	trailerPending bool

	id      string
	dialer  Dialer
	timeout time.Duration
	logger  zerolog.Logger
	metrics *Metrics
}

// NewClient creates a new, unconnected DICT client.
func NewClient() *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		dialer: &net.Dialer{Timeout: ConnectionTimeout},
		logger: zerolog.Nop(),
	}
}

// Dial creates a client and connects it to host:port. A port of zero or
// less selects DefaultPort.
func Dial(ctx context.Context, host string, port int) (*Client, error) {
	c := NewClient()
	if err := c.ConnectWithContext(ctx, host, port); err != nil {
		return nil, err
	}
	return c, nil
}

// SetLogger sets the logger used for session events. Entries carry the
// session ID.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger.With().Str("session", c.id).Logger()
}

// SetMetrics attaches Prometheus metrics. A nil value disables them.
func (c *Client) SetMetrics(m *Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

// SetDialer replaces the transport dialer. It must be called before Connect.
func (c *Client) SetDialer(d Dialer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialer = d
}

// SetTimeout bounds each request's I/O with a socket deadline. Zero
// disables the deadline.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// ID returns the session identifier used in log entries.
func (c *Client) ID() string {
	return c.id
}

// IsConnected returns true if the session is connected.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateConnected
}

// Addr returns the server address of the session.
func (c *Client) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// Greeting returns the text of the server's 220 banner.
func (c *Client) Greeting() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.greeting
}

// Connect connects to a DICT server and reads its greeting.
func (c *Client) Connect(host string, port int) error {
	return c.ConnectWithContext(context.Background(), host, port)
}

// ConnectWithContext connects to a DICT server with a context bounding the
// dial and the greeting. Any failure leaves the client closed.
func (c *Client) ConnectWithContext(ctx context.Context, host string, port int) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	switch c.state {
	case stateConnected:
		c.mu.Unlock()
		return &Error{Kind: KindAlreadyConnected, Detail: c.addr}
	case stateClosed:
		c.mu.Unlock()
		return newNotConnectedError("session closed")
	}
	if port <= 0 {
		port = DefaultPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := c.dialer
	timeout := c.timeout
	logger := c.logger
	c.addr = addr
	c.mu.Unlock()

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		c.markClosed()
		logger.Debug().Err(err).Str("addr", addr).Msg("dial failed")
		return newHandshakeError("dial "+addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	} else if timeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
	}

	reader := newLineReader(conn)
	st, err := reader.ReadStatus()
	if err != nil {
		_ = conn.Close()
		c.markClosed()
		logger.Debug().Err(err).Str("addr", addr).Msg("greeting failed")
		return newHandshakeError("read greeting", err)
	}
	if st.Code != CodeGreeting {
		_ = conn.Close()
		c.markClosed()
		logger.Debug().Int("code", st.Code).Str("addr", addr).Msg("greeting rejected")
		return &Error{Kind: KindHandshakeFailed, Code: st.Code, Detail: st.Detail}
	}
	_ = conn.SetReadDeadline(time.Time{})

	c.mu.Lock()
	if c.state == stateClosed {
		// Close ran while the dial or greeting was pending.
		c.mu.Unlock()
		_ = conn.Close()
		logger.Debug().Str("addr", addr).Msg("closed during connect")
		return newNotConnectedError("session closed")
	}
	c.state = stateConnected
	c.conn = conn
	c.reader = reader
	c.greeting = st.Detail
	c.mu.Unlock()

	logger.Debug().Str("addr", addr).Str("greeting", st.Detail).Msg("connected")
	return nil
}

// Close sends QUIT and releases the connection. It is idempotent and
// never fails; shutdown errors are logged at debug level and dropped.
//
// If another request is in flight, QUIT is skipped and the connection is
// closed underneath it, which makes the pending read fail.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state != stateConnected {
		c.state = stateClosed
		c.mu.Unlock()
		return nil
	}
	c.state = stateClosed
	conn := c.conn
	reader := c.reader
	logger := c.logger
	c.mu.Unlock()

	if c.opMu.TryLock() {
		if err := c.quit(conn, reader); err != nil {
			logger.Debug().Err(err).Msg("quit failed")
		}
		c.opMu.Unlock()
	} else {
		logger.Debug().Msg("request in flight, closing without QUIT")
	}

	if err := conn.Close(); err != nil {
		logger.Debug().Err(err).Msg("close failed")
	}
	logger.Debug().Msg("closed")
	return nil
}

func (c *Client) quit(conn net.Conn, reader *lineReader) error {
	_ = conn.SetDeadline(time.Now().Add(QuitTimeout))
	if _, err := io.WriteString(conn, NewQuitCommand().FormatLine()); err != nil {
		return err
	}
	st, err := c.readReply(reader)
	if err != nil {
		return err
	}
	if st.Code != CodeClosing {
		return newStatusError(KindServerError, st)
	}
	return nil
}

func (c *Client) markClosed() {
	c.mu.Lock()
	c.state = stateClosed
	c.mu.Unlock()
}

// teardown closes the connection after an error that leaves the reply
// framing unknown.
func (c *Client) teardown(cause error) {
	c.mu.Lock()
	conn := c.conn
	wasConnected := c.state == stateConnected
	c.state = stateClosed
	logger := c.logger
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if wasConnected {
		logger.Debug().Err(cause).Msg("connection torn down")
	}
}

// replyHandler consumes the reply that follows a status line.
type replyHandler func(lr *lineReader, st Status) error

// roundTrip sends cmd and hands the reply to handle while holding the
// request lock.
func (c *Client) roundTrip(cmd Command, handle replyHandler) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.state != stateConnected {
		c.mu.Unlock()
		return newNotConnectedError("")
	}
	conn := c.conn
	reader := c.reader
	timeout := c.timeout
	logger := c.logger
	metrics := c.metrics
	c.mu.Unlock()

	name := cmd.Name()
	start := time.Now()
	metrics.observeCommand(name)

	if timeout > 0 {
		_ = conn.SetDeadline(start.Add(timeout))
		defer conn.SetDeadline(time.Time{})
	}

	err := c.exchange(conn, reader, cmd, handle, logger, metrics)
	metrics.observeDone(name, start, err)
	if err != nil {
		logger.Debug().Err(err).Str("command", name).Msg("request failed")
		if fatal(err) {
			c.teardown(err)
		}
	}
	return err
}

func (c *Client) exchange(conn net.Conn, reader *lineReader, cmd Command, handle replyHandler, logger zerolog.Logger, metrics *Metrics) error {
	if _, err := io.WriteString(conn, cmd.FormatLine()); err != nil {
		return &Error{Kind: KindUnexpectedEndOfStream, Detail: "write " + cmd.Name(), Err: err}
	}

	st, err := c.readReply(reader)
	if err != nil {
		return err
	}
	metrics.observeReply(st.Code)
	logger.Debug().Str("command", cmd.Name()).Int("code", st.Code).Msg("reply")

	return handle(reader, st)
}

// readReply reads the status line answering the current command,
// discarding the trailer of the previous data reply first.
func (c *Client) readReply(reader *lineReader) (Status, error) {
	for {
		line, err := reader.ReadLine()
		if err != nil {
			return Status{}, err
		}
		if c.trailerPending {
			if line == "" || line == BlockTerminator {
				continue
			}
			if strings.HasPrefix(line, strconv.Itoa(CodeOK)) {
				if st, err := ParseStatus(line); err == nil && st.Code == CodeOK {
					c.trailerPending = false
					continue
				}
			}
		}
		c.trailerPending = false
		return ParseStatus(line)
	}
}

// Define retrieves all definitions of word from db. A 552 reply yields an
// empty, non-nil slice.
func (c *Client) Define(word string, db Database) ([]Definition, error) {
	var defs []Definition
	err := c.roundTrip(NewDefineCommand(db, word), func(lr *lineReader, st Status) error {
		switch st.Code {
		case CodeDefinitionsRetrieved:
			n, err := st.Count()
			if err != nil {
				return err
			}
			defs = make([]Definition, 0, presize(n))
			for i := 0; i < n; i++ {
				def, err := readDefinition(lr, word)
				if err != nil {
					return err
				}
				defs = append(defs, def)
			}
			c.trailerPending = true
			return nil
		case CodeNoMatch:
			defs = []Definition{}
			return nil
		case CodeInvalidDatabase:
			return newStatusError(KindInvalidDatabase, st)
		default:
			return newStatusError(KindServerError, st)
		}
	})
	if err != nil {
		return nil, err
	}
	return defs, nil
}

// readDefinition reads one "151 word db description" header and the text
// block that follows it.
func readDefinition(lr *lineReader, word string) (Definition, error) {
	line, err := lr.ReadLine()
	if err != nil {
		return Definition{}, err
	}
	fields := splitFields(line, 4)
	if len(fields) < 3 || fields[0] != strconv.Itoa(CodeDefinition) {
		return Definition{}, newViolationError("expected definition header, got %q", line)
	}

	def := Definition{Word: word, Database: fields[2]}
	if len(fields) == 4 {
		def.DatabaseDescription = unquote(fields[3])
	}

	body, err := lr.ReadBlock(true)
	if err != nil {
		return Definition{}, err
	}
	def.Body = body
	return def, nil
}

// Match returns the words in db that match word under strategy, in server
// order with duplicates removed. A 552 reply yields an empty slice.
func (c *Client) Match(word string, strategy MatchingStrategy, db Database) ([]string, error) {
	var matches []string
	err := c.roundTrip(NewMatchCommand(db, strategy, word), func(lr *lineReader, st Status) error {
		switch st.Code {
		case CodeMatchesFound:
			n, err := st.Count()
			if err != nil {
				return err
			}
			lines, err := lr.ReadEntries(n)
			if err != nil {
				return err
			}
			c.trailerPending = true
			matches = make([]string, 0, presize(n))
			seen := make(map[string]struct{}, presize(n))
			for _, line := range lines {
				_, w, err := splitEntry(line)
				if err != nil {
					return err
				}
				if _, dup := seen[w]; dup {
					continue
				}
				seen[w] = struct{}{}
				matches = append(matches, w)
			}
			return nil
		case CodeNoMatch:
			matches = []string{}
			return nil
		case CodeInvalidDatabase:
			return newStatusError(KindInvalidDatabase, st)
		case CodeInvalidStrategy:
			return newStatusError(KindInvalidStrategy, st)
		default:
			return newStatusError(KindServerError, st)
		}
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// ListDatabases returns the server's databases keyed by name.
func (c *Client) ListDatabases() (map[string]Database, error) {
	var dbs map[string]Database
	err := c.roundTrip(NewShowDatabasesCommand(), func(lr *lineReader, st Status) error {
		switch st.Code {
		case CodeDatabasesPresent:
			n, err := st.Count()
			if err != nil {
				return err
			}
			lines, err := lr.ReadEntries(n)
			if err != nil {
				return err
			}
			c.trailerPending = true
			dbs = make(map[string]Database, presize(n))
			for _, line := range lines {
				name, desc, err := splitEntry(line)
				if err != nil {
					return err
				}
				dbs[name] = Database{Name: name, Description: desc}
			}
			return nil
		case CodeNoDatabases:
			return newStatusError(KindNoDatabasesAvailable, st)
		default:
			return newStatusError(KindServerError, st)
		}
	})
	if err != nil {
		return nil, err
	}
	return dbs, nil
}

// ListStrategies returns the server's match strategies in server order
// with duplicates removed.
func (c *Client) ListStrategies() ([]MatchingStrategy, error) {
	var strats []MatchingStrategy
	err := c.roundTrip(NewShowStrategiesCommand(), func(lr *lineReader, st Status) error {
		switch st.Code {
		case CodeStrategiesPresent:
			n, err := st.Count()
			if err != nil {
				return err
			}
			lines, err := lr.ReadEntries(n)
			if err != nil {
				return err
			}
			c.trailerPending = true
			strats = make([]MatchingStrategy, 0, presize(n))
			seen := make(map[MatchingStrategy]struct{}, presize(n))
			for _, line := range lines {
				name, desc, err := splitEntry(line)
				if err != nil {
					return err
				}
				s := MatchingStrategy{Name: name, Description: desc}
				if _, dup := seen[s]; dup {
					continue
				}
				seen[s] = struct{}{}
				strats = append(strats, s)
			}
			return nil
		case CodeNoStrategies:
			return newStatusError(KindNoStrategiesAvailable, st)
		default:
			return newStatusError(KindServerError, st)
		}
	})
	if err != nil {
		return nil, err
	}
	return strats, nil
}

// DescribeDatabase returns the server's free-text information about db,
// with blank lines removed.
func (c *Client) DescribeDatabase(db Database) (string, error) {
	var info string
	err := c.roundTrip(NewShowInfoCommand(db), func(lr *lineReader, st Status) error {
		switch st.Code {
		case CodeDatabaseInfo:
			lines, err := lr.ReadBlock(false)
			if err != nil {
				return err
			}
			c.trailerPending = true
			info = strings.Join(lines, "\n")
			return nil
		case CodeInvalidDatabase:
			return newStatusError(KindInvalidDatabase, st)
		default:
			return newStatusError(KindServerError, st)
		}
	})
	if err != nil {
		return "", err
	}
	return info, nil
}
