package listener

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

const clearScreen = "\x1b[H\x1b[2J"

// terminal adapts a raw connection for line-based spectators: input line
// endings are normalised to \n and output \n is sent as \r\n.
type terminal struct {
	rw io.ReadWriter
}

func newTerminal(rw io.ReadWriter) *terminal {
	return &terminal{rw: rw}
}

func (t *terminal) Read(p []byte) (int, error) {
	n, err := t.rw.Read(p)
	if n > 0 {
		// Telnet sends \r\n, a raw ssh session just \r.
		data := bytes.ReplaceAll(p[:n], []byte("\r\n"), []byte("\n"))
		data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
		n = copy(p, data)
	}
	return n, err
}

func (t *terminal) Write(p []byte) (int, error) {
	if _, err := t.rw.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (t *terminal) writeString(s string) error {
	_, err := io.WriteString(t, s)
	return err
}

// redraw replaces the screen contents with frame.
func (t *terminal) redraw(frame string) error {
	return t.writeString(clearScreen + frame)
}

// lines streams trimmed input lines until the connection closes or done is
// closed.
func (t *terminal) lines(out chan<- string, done <-chan struct{}) error {
	defer close(out)
	sc := bufio.NewScanner(t)
	for sc.Scan() {
		select {
		case out <- strings.TrimSpace(sc.Text()):
		case <-done:
			return nil
		}
	}
	return sc.Err()
}
