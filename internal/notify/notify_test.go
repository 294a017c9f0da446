package notify

import (
	"bytes"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Kind
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, nil, b}
	m.Notify(New(ScanStarted, "scan"))

	assert.Equal(t, []Kind{ScanStarted}, a.kinds())
	assert.Equal(t, []Kind{ScanStarted}, b.kinds())
}

func TestBellOnlyRingsForCredentials(t *testing.T) {
	var buf bytes.Buffer
	b := Bell{W: &buf}
	b.Notify(New(ScanStarted, ""))
	assert.Empty(t, buf.String())
	b.Notify(New(CredentialCaptured, "user|pass"))
	assert.Equal(t, "\a", buf.String())
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	Log{Logger: l}.Notify(New(AttackStarted, "deauth %d", 3))
	assert.Contains(t, buf.String(), "event=attack-start")
	assert.Contains(t, buf.String(), "deauth 3")
}

func TestAsyncDeliversInOrder(t *testing.T) {
	r := &recorder{}
	a := NewAsync(r, 8)
	a.Notify(New(ScanStarted, ""))
	a.Notify(New(ScanFinished, ""))
	a.Close()

	require.Equal(t, []Kind{ScanStarted, ScanFinished}, r.kinds())

	// after close events are dropped
	a.Notify(New(AttackStarted, ""))
	a.Close()
	assert.Len(t, r.kinds(), 2)
}

func TestAsyncDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	r := &recorder{}
	a := NewAsync(Func(func(e Event) {
		<-block
		r.Notify(e)
	}), 1)

	for i := 0; i < 10; i++ {
		a.Notify(New(AttackStarted, "%d", i))
	}
	close(block)
	a.Close()

	assert.LessOrEqual(t, len(r.kinds()), 2)
	assert.NotEmpty(t, r.kinds())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "credential", CredentialCaptured.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
