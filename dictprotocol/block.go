package dictprotocol

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// lineReader reads protocol lines from the session's single buffered
// reader. It is never reconstructed while the connection lives, so bytes
// buffered past one reply stay available to the next.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	if br, ok := r.(*bufio.Reader); ok {
		return &lineReader{r: br}
	}
	return &lineReader{r: bufio.NewReaderSize(r, 4096)}
}

// ReadLine returns the next line without its "\n" or "\r\n" terminator.
// A stream that ends before a full line is UnexpectedEndOfStream.
func (lr *lineReader) ReadLine() (string, error) {
	var buf []byte
	for {
		chunk, err := lr.r.ReadSlice('\n')
		if len(buf)+len(chunk) > MaxLineLength {
			return "", newViolationError("line exceeds %d bytes", MaxLineLength)
		}
		buf = append(buf, chunk...)
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return "", newEOFError(io.ErrUnexpectedEOF)
		}
		return "", newEOFError(err)
	}

	line := string(buf[:len(buf)-1])
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// ReadStatus reads and parses one status line.
func (lr *lineReader) ReadStatus() (Status, error) {
	line, err := lr.ReadLine()
	if err != nil {
		return Status{}, err
	}
	return ParseStatus(line)
}

// ReadBlock reads lines up to a line that is exactly ".". The terminator
// is consumed and not returned. When keepBlank is false, empty lines are
// dropped; otherwise they are kept as empty strings. No other line is
// altered, so a ".." line is returned as "..".
func (lr *lineReader) ReadBlock(keepBlank bool) ([]string, error) {
	lines := []string{}
	for {
		line, err := lr.ReadLine()
		if err != nil {
			return nil, err
		}
		if line == BlockTerminator {
			return lines, nil
		}
		if line == "" && !keepBlank {
			continue
		}
		lines = append(lines, line)
	}
}

// ReadEntries reads exactly n lines. Count-governed lists end when the
// declared number of entries has been read, not at a terminator.
func (lr *lineReader) ReadEntries(n int) ([]string, error) {
	lines := make([]string, 0, presize(n))
	for i := 0; i < n; i++ {
		line, err := lr.ReadLine()
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}
