package inventory

// Credentials is an append-only log of captured portal submissions, bounded
// by CredentialsBudget bytes. Lines that would not fit are dropped whole;
// nothing already stored is evicted.
type Credentials struct {
	buf   []byte
	lines int
}

// Append adds line plus a newline if it fits. It reports whether it did.
func (c *Credentials) Append(line string) bool {
	// one byte stays spare, the log is shown in a fixed-size text view
	if len(c.buf)+len(line)+1 >= CredentialsBudget {
		return false
	}
	c.buf = append(c.buf, line...)
	c.buf = append(c.buf, '\n')
	c.lines++
	return true
}

// Clear empties the log before a new evil-twin or AP session.
func (c *Credentials) Clear() {
	c.buf = c.buf[:0]
	c.lines = 0
}

// Len returns the log size in bytes.
func (c *Credentials) Len() int { return len(c.buf) }

// Count returns the number of stored lines.
func (c *Credentials) Count() int { return c.lines }

func (c *Credentials) String() string { return string(c.buf) }
