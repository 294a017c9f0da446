package protocol

// Wire control bytes.
const (
	STX      = 0x02 // start of a binary frame
	ETX      = 0x03 // end of a binary frame
	FieldSep = 0x1D // field separator inside frame bodies
)

// RxBufferSize is the capacity of the receive accumulation buffer. Bytes past
// it are dropped until the message ends.
const RxBufferSize = 256

// Mode says how a message was delimited on the wire.
type Mode int

const (
	ModeFramed Mode = iota // STX tag body ETX
	ModeLegacy             // newline-terminated text
)

func (m Mode) String() string {
	if m == ModeFramed {
		return "framed"
	}
	return "legacy"
}

// Message is one complete unit delivered by the Framer.
//
// For framed messages Tag is the first byte after STX and Body the rest.
// For legacy lines Tag is zero and Body holds the whole line.
type Message struct {
	Mode Mode
	Tag  byte
	Body string
}

// Framer turns a byte stream into messages. It handles binary frames and
// legacy newline-terminated lines on the same stream. Not safe for
// concurrent use; the owner serialises calls.
type Framer struct {
	buf     [RxBufferSize]byte
	n       int
	inFrame bool
	dropped int
}

// NewFramer returns an empty framer.
func NewFramer() *Framer {
	return &Framer{}
}

// InFrame reports whether the framer is between an STX and its ETX.
func (f *Framer) InFrame() bool {
	return f.inFrame
}

// Dropped returns how many bytes were discarded because the buffer was full.
func (f *Framer) Dropped() int {
	return f.dropped
}

// Reset discards any partial message.
func (f *Framer) Reset() {
	f.n = 0
	f.inFrame = false
}

// Feed consumes one byte. It returns a message and true when b completes one.
func (f *Framer) Feed(b byte) (Message, bool) {
	switch {
	case b == STX:
		// A frame start always wins over a half-received legacy line.
		f.n = 0
		f.inFrame = true
		return Message{}, false

	case f.inFrame && b == ETX:
		msg := f.frameMessage()
		f.n = 0
		f.inFrame = false
		return msg, true

	case f.inFrame:
		f.push(b)
		return Message{}, false

	case b == '\n':
		if f.n == 0 {
			return Message{}, false
		}
		// CR is a control byte and never reaches the buffer, so CRLF
		// endings need no extra handling.
		msg := Message{Mode: ModeLegacy, Body: string(f.buf[:f.n])}
		f.n = 0
		return msg, true

	case b >= 0x20 || b == '\t':
		f.push(b)
	}
	return Message{}, false
}

// FeedBytes runs Feed over p and returns all completed messages.
func (f *Framer) FeedBytes(p []byte) []Message {
	var out []Message
	for _, b := range p {
		if msg, ok := f.Feed(b); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (f *Framer) push(b byte) {
	// The last slot stays empty: at most RxBufferSize-1 payload bytes.
	if f.n < RxBufferSize-1 {
		f.buf[f.n] = b
		f.n++
		return
	}
	f.dropped++
}

func (f *Framer) frameMessage() Message {
	if f.n == 0 {
		return Message{Mode: ModeFramed}
	}
	return Message{Mode: ModeFramed, Tag: f.buf[0], Body: string(f.buf[1:f.n])}
}

// EncodeFramed wraps a modern-dialect command in STX/ETX.
func EncodeFramed(cmd string) []byte {
	out := make([]byte, 0, len(cmd)+2)
	out = append(out, STX)
	out = append(out, cmd...)
	return append(out, ETX)
}

// EncodeLine terminates a legacy-dialect command with a newline.
func EncodeLine(cmd string) []byte {
	out := make([]byte, 0, len(cmd)+1)
	out = append(out, cmd...)
	return append(out, '\n')
}
