package decoder

import "bytes"

// ConsoleSize bounds the console transcript.
const ConsoleSize = 4096

// Console is a bounded transcript of everything received. When a line would
// not fit, the older half of the transcript is dropped at a line boundary.
type Console struct {
	buf []byte
}

// Append adds line and a newline. Lines longer than the whole transcript are
// cut to fit.
func (c *Console) Append(line string) {
	if len(c.buf)+len(line)+1 > ConsoleSize {
		c.trim()
	}
	if room := ConsoleSize - len(c.buf) - 1; len(line) > room {
		line = line[:room]
	}
	c.buf = append(c.buf, line...)
	c.buf = append(c.buf, '\n')
}

func (c *Console) trim() {
	half := len(c.buf) / 2
	i := bytes.IndexByte(c.buf[half:], '\n')
	if i < 0 {
		c.buf = c.buf[:0]
		return
	}
	n := copy(c.buf, c.buf[half+i+1:])
	c.buf = c.buf[:n]
}

// Len returns the transcript size in bytes.
func (c *Console) Len() int { return len(c.buf) }

// Clear empties the transcript.
func (c *Console) Clear() { c.buf = c.buf[:0] }

func (c *Console) String() string { return string(c.buf) }
