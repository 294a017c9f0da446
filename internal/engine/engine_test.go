package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaminmoo/bw16-tool/internal/config"
	"github.com/vitaminmoo/bw16-tool/internal/encoder"
	"github.com/vitaminmoo/bw16-tool/internal/firmware"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
	"github.com/vitaminmoo/bw16-tool/internal/store"
	"github.com/vitaminmoo/bw16-tool/internal/transport"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Transport = "sim"
	cfg.Serial.ReadTimeout = 5 * time.Millisecond
	cfg.Detect = config.DetectConfig{
		BootWait:       60 * time.Millisecond,
		InfoWait:       60 * time.Millisecond,
		LegacyInfoWait: 30 * time.Millisecond,
		PingWait:       30 * time.Millisecond,
		HelpWait:       30 * time.Millisecond,
		ATWait:         30 * time.Millisecond,
	}
	cfg.Scan = config.ScanConfig{
		PollInterval: 5 * time.Millisecond,
		PollCount:    100,
		ListWait:     80 * time.Millisecond,
		ClientWait:   80 * time.Millisecond,
		BLEWait:      60 * time.Millisecond,
		BLEListWait:  60 * time.Millisecond,
	}
	cfg.Write = config.WriteConfig{MaxFailures: 3, Cooldown: time.Minute}
	cfg.Attack.MAC = "02:00:00:00:00:01"
	return cfg
}

// recorder collects notifications.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Notify(e notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) has(k notify.Kind, detail string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Kind == k && (detail == "" || e.Detail == detail) {
			return true
		}
	}
	return false
}

func newSimEngine(t *testing.T, cfg config.Config, opts ...Option) *Engine {
	t.Helper()
	p := transport.NewPipe(cfg.Serial.ReadTimeout)
	go func() { _ = transport.Simulate(p.Device()) }()

	e, err := New(p, cfg, opts...)
	require.NoError(t, err)
	e.Start()
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// newScriptedEngine connects an engine to a device that answers each
// message the host writes with handle.
func newScriptedEngine(t *testing.T, cfg config.Config, handle func(d *transport.DeviceEnd, m protocol.Message), opts ...Option) (*Engine, *transport.DeviceEnd) {
	t.Helper()
	p := transport.NewPipe(cfg.Serial.ReadTimeout)
	d := p.Device()
	go func() {
		_ = d.Serve(func(m protocol.Message) { handle(d, m) })
	}()

	e, err := New(p, cfg, opts...)
	require.NoError(t, err)
	e.Start()
	t.Cleanup(func() { _ = e.Close() })
	return e, d
}

func TestDetect_BootBanner(t *testing.T) {
	e := newSimEngine(t, testConfig())

	res, err := e.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, firmware.Native, res.Profile)
	assert.Equal(t, transport.SimVersion, res.Version)
	assert.Equal(t, []firmware.Phase{firmware.PhaseAwaitingBoot, firmware.PhaseResolved}, res.Phases)
	assert.True(t, res.Capabilities.Has(firmware.CapTargetedDeauth))

	got, ok := e.Detection()
	assert.True(t, ok)
	assert.Equal(t, res.Profile, got.Profile)
}

func TestDetect_RerunProbesInfo(t *testing.T) {
	e := newSimEngine(t, testConfig())
	ctx := context.Background()

	_, err := e.Detect(ctx)
	require.NoError(t, err)

	// The banner is not repeated, so the second run resolves on the info reply.
	res, err := e.Detect(ctx)
	require.NoError(t, err)
	assert.Equal(t, firmware.Native, res.Profile)
	assert.Equal(t, []firmware.Phase{firmware.PhaseAwaitingBoot, firmware.PhaseProbingModern, firmware.PhaseResolved}, res.Phases)
}

func TestForceProfile_Config(t *testing.T) {
	cfg := testConfig()
	cfg.Detect.ForceProfile = "evil"
	e := newSimEngine(t, cfg)

	res, err := e.EnsureDetected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, firmware.LegacyVariantA, res.Profile)
	assert.Equal(t, []firmware.Phase{firmware.PhaseResolved}, res.Phases)

	err = e.BLESpam(context.Background(), protocol.SpamAll)
	assert.ErrorIs(t, err, encoder.ErrUnsupported)
}

func TestReadyRetriesUnidentifiedFirmware(t *testing.T) {
	var awake atomic.Bool
	handle := func(d *transport.DeviceEnd, m protocol.Message) {
		if !awake.Load() || m.Mode != protocol.ModeFramed {
			return
		}
		switch m.Tag {
		case 'i':
			_ = d.SendFrame('i', "V:2.1|N:0")
		case 's':
			_ = d.SendFrame('s', "SCANNING")
			_ = d.SendFrame('s', "DONE:0")
		}
	}
	e, _ := newScriptedEngine(t, testConfig(), handle)
	ctx := context.Background()

	res, err := e.EnsureDetected(ctx)
	require.NoError(t, err)
	require.Equal(t, firmware.Unknown, res.Profile)

	awake.Store(true)
	_, err = e.Scan(ctx)
	require.NoError(t, err)

	res, ok := e.Detection()
	assert.True(t, ok)
	assert.Equal(t, firmware.Native, res.Profile)
	assert.Equal(t, "2.1", res.Version)
}

func TestReadyKeepsForcedUnknown(t *testing.T) {
	e, _ := newScriptedEngine(t, testConfig(), func(d *transport.DeviceEnd, m protocol.Message) {
		_ = d.SendFrame('i', "V:2.1|N:0")
	})
	e.ForceProfile(firmware.Unknown)

	res, err := e.EnsureDetected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, firmware.Unknown, res.Profile)
	assert.Equal(t, []firmware.Phase{firmware.PhaseResolved}, res.Phases)
}

func TestNew_BadForceProfile(t *testing.T) {
	cfg := testConfig()
	cfg.Detect.ForceProfile = "nonsense"
	_, err := New(transport.NewPipe(time.Millisecond), cfg)
	assert.Error(t, err)
}

func TestScan(t *testing.T) {
	rec := &recorder{}
	e := newSimEngine(t, testConfig(), WithNotifier(rec))

	n, err := e.Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, n)

	snap := e.Snapshot()
	assert.True(t, snap.Detected)
	assert.True(t, snap.Status.ScanFinished)

	nets := snap.Inventory.Networks
	// Networks with clients first, then by signal.
	assert.Equal(t, "HomeNet", nets[0].SSID)
	assert.Equal(t, "Office-5G", nets[1].SSID)
	assert.Equal(t, "CoffeeShop", nets[2].SSID)
	assert.True(t, nets[3].Hidden)
	assert.True(t, nets[1].Is5GHz)
	assert.Equal(t, 2, nets[0].ClientCount())
	assert.Equal(t, 1, nets[1].ClientCount())

	// Back-references follow the sort.
	require.Len(t, snap.Inventory.Clients, 3)
	for _, c := range snap.Inventory.ClientsOf(1) {
		assert.Equal(t, "B8:27:EB:07:08:09", c.MAC)
	}
	assert.EqualValues(t, 1, snap.Inventory.Clients[2].Network)

	require.Eventually(t, func() bool {
		return rec.has(notify.ScanStarted, "wifi") && rec.has(notify.ScanFinished, "4 networks")
	}, waitFor, tick)

	assert.NotZero(t, snap.Counters.BytesRX)
	assert.NotZero(t, snap.Counters.BytesTX)
	assert.Contains(t, snap.Console, "[s] DONE:4")
}

func TestDeauthToggle(t *testing.T) {
	e := newSimEngine(t, testConfig())
	ctx := context.Background()
	_, err := e.Scan(ctx)
	require.NoError(t, err)

	on, err := e.Deauth(ctx, 0)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, e.Snapshot().Inventory.Networks[0].DeauthActive)

	on, err = e.Deauth(ctx, 0)
	require.NoError(t, err)
	assert.False(t, on)
	require.Eventually(t, func() bool {
		return !e.Snapshot().Inventory.Networks[0].DeauthActive
	}, waitFor, tick)

	_, err = e.Deauth(ctx, 42)
	assert.ErrorIs(t, err, ErrNoSuchNetwork)
}

func TestDeauthClient(t *testing.T) {
	e := newSimEngine(t, testConfig())
	ctx := context.Background()
	_, err := e.Scan(ctx)
	require.NoError(t, err)

	require.NoError(t, e.DeauthClient(ctx, 0, 1))
	assert.True(t, e.Snapshot().Inventory.Networks[0].DeauthActive)

	err = e.DeauthClient(ctx, 0, 5)
	assert.ErrorIs(t, err, ErrNoSuchClient)
	err = e.DeauthClient(ctx, 9, 0)
	assert.ErrorIs(t, err, ErrNoSuchNetwork)
}

func TestKick(t *testing.T) {
	e := newSimEngine(t, testConfig())
	ctx := context.Background()

	require.NoError(t, e.Kick(ctx, "3C:22:FB:01:02:03"))
	require.Eventually(t, func() bool {
		return e.Snapshot().Status.KickTarget == "3C:22:FB:01:02:03"
	}, waitFor, tick)

	err := e.Kick(ctx, "not-a-mac")
	assert.ErrorIs(t, err, encoder.ErrInvalidArgument)
}

func TestEvilTwinAndStopAll(t *testing.T) {
	rec := &recorder{}
	e := newSimEngine(t, testConfig(), WithNotifier(rec))
	ctx := context.Background()
	_, err := e.Scan(ctx)
	require.NoError(t, err)

	require.NoError(t, e.EvilTwin(ctx, 0))
	require.Eventually(t, func() bool {
		s := e.Snapshot().Status
		return s.APActive && s.Portal == 1
	}, waitFor, tick)

	require.NoError(t, e.Beacon(ctx, encoder.BeaconRandom, ""))
	on, err := e.ToggleMonitor(ctx)
	require.NoError(t, err)
	assert.True(t, on)
	require.Eventually(t, func() bool {
		s := e.Snapshot().Status
		return s.BeaconActive && s.MonitorActive
	}, waitFor, tick)

	require.NoError(t, e.StopAll(ctx))
	s := e.Snapshot().Status
	assert.False(t, s.BeaconActive)
	assert.False(t, s.MonitorActive)
	require.Eventually(t, func() bool { return rec.has(notify.AttackStopped, "all") }, waitFor, tick)
}

func TestCreateAP_Validation(t *testing.T) {
	e := newSimEngine(t, testConfig())
	ctx := context.Background()

	err := e.CreateAP(ctx, encoder.APConfig{SSID: ""})
	assert.ErrorIs(t, err, encoder.ErrInvalidArgument)

	require.NoError(t, e.CreateAP(ctx, encoder.APConfig{SSID: "Lab", Password: "secret123", Portal: 2}))
	require.Eventually(t, func() bool {
		s := e.Snapshot().Status
		return s.APActive && s.Portal == 2
	}, waitFor, tick)
}

func TestBLEScan(t *testing.T) {
	e := newSimEngine(t, testConfig())
	ctx := context.Background()

	n, err := e.BLEScan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	devs := e.Snapshot().Inventory.BLE
	assert.Equal(t, "AirPods", devs[0].Name)
	assert.Equal(t, -80, devs[1].RSSI)

	require.NoError(t, e.BLESpam(ctx, protocol.SpamFastPair))
	require.Eventually(t, func() bool { return e.Snapshot().Status.BLESpamActive }, waitFor, tick)
	require.NoError(t, e.BLEStop(ctx))
	require.Eventually(t, func() bool { return !e.Snapshot().Status.BLESpamActive }, waitFor, tick)
}

func TestToggleAdvanced(t *testing.T) {
	rec := &recorder{}
	e := newSimEngine(t, testConfig(), WithNotifier(rec))
	ctx := context.Background()

	on, err := e.ToggleAdvanced(ctx, protocol.AttackJammer)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, e.Snapshot().Status.Advanced[protocol.AttackJammer])

	on, err = e.ToggleAdvanced(ctx, protocol.AttackJammer)
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, e.Snapshot().Status.Advanced[protocol.AttackJammer])

	require.Eventually(t, func() bool {
		return rec.has(notify.AttackStarted, "jammer") && rec.has(notify.AttackStopped, "jammer")
	}, waitFor, tick)

	require.NoError(t, e.RogueBaseline(ctx))
}

func TestInfoAndLED(t *testing.T) {
	e := newSimEngine(t, testConfig())
	ctx := context.Background()

	info, err := e.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, transport.SimVersion, info.Version)
	assert.Equal(t, 4, info.Networks)
	assert.Equal(t, 2, info.BLECount)

	require.NoError(t, e.LED(ctx, protocol.LEDBLE))
	require.NoError(t, e.LEDColor(ctx, 10, 20, 30))
	require.NoError(t, e.SendRaw(ctx, "Z"))
	require.Eventually(t, func() bool {
		return strings.Contains(e.Snapshot().Console, "[e] UNKNOWN:Z\n")
	}, waitFor, tick)

	assert.Contains(t, e.TakeConsole(), "UNKNOWN:Z")
	assert.Empty(t, e.Snapshot().Console)
}

func TestCredentialsAudited(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	rec := &recorder{}
	e, d := newScriptedEngine(t, testConfig(), func(*transport.DeviceEnd, protocol.Message) {},
		WithAudit(st), WithNotifier(rec))

	e.ForceProfile(firmware.Native)
	require.NoError(t, d.SendFrame('C', "user=alice pass=hunter2"))

	require.Eventually(t, func() bool {
		lines, _ := st.Credentials()
		return len(lines) == 1
	}, waitFor, tick)
	assert.Contains(t, e.Snapshot().Inventory.Credentials, "user=alice pass=hunter2")
	assert.True(t, rec.has(notify.CredentialCaptured, "user=alice pass=hunter2"))

	require.NoError(t, e.SendRaw(context.Background(), "i"))
	lines, err := st.AuditLog()
	require.NoError(t, err)
	var sawDetect, sawTX bool
	for _, l := range lines {
		sawDetect = sawDetect || strings.Contains(l, "DETECT Gattrose-NG")
		sawTX = sawTX || strings.Contains(l, "TX [i]")
	}
	assert.True(t, sawDetect)
	assert.True(t, sawTX)
}

func TestCredentialsSavedWhileNotifierStalls(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	release := make(chan struct{})
	stalled := notify.Func(func(notify.Event) { <-release })
	e, d := newScriptedEngine(t, testConfig(), func(*transport.DeviceEnd, protocol.Message) {},
		WithAudit(st), WithNotifier(stalled))
	t.Cleanup(func() { close(release) })

	e.ForceProfile(firmware.Native)
	const n = notifyQueue * 2
	for i := 0; i < n; i++ {
		require.NoError(t, d.SendFrame('C', fmt.Sprintf("user%d|pw", i)))
	}

	require.Eventually(t, func() bool {
		lines, _ := st.Credentials()
		return len(lines) == n
	}, waitFor, tick)
}

func TestLegacyScanAndDeauth(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)
	handle := func(d *transport.DeviceEnd, m protocol.Message) {
		mu.Lock()
		lines = append(lines, m.Body)
		mu.Unlock()
		switch m.Body {
		case "SCAN":
			_ = d.SendLine("SCAN:OK")
		case "LIST":
			_ = d.SendLine("AP:1:Cafe:00:11:22:33:44:55:6:4194308:-60")
			_ = d.SendLine("AP:2:Lab:00:11:22:33:44:66:11:0:-40")
		}
	}
	cfg := testConfig()
	cfg.Detect.ForceProfile = "evil"
	e, _ := newScriptedEngine(t, cfg, handle)
	ctx := context.Background()

	n, err := e.Scan(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	nets := e.Snapshot().Inventory.Networks
	assert.Equal(t, "Lab", nets[0].SSID)
	assert.Equal(t, "00:11:22:33:44:55", nets[1].BSSID)
	assert.Equal(t, "WPA2-AES", nets[1].Security)

	on, err := e.Deauth(ctx, 1)
	require.NoError(t, err)
	assert.True(t, on)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lines) > 0 && lines[len(lines)-1] == "DEAUTH 1"
	}, waitFor, tick)
	mu.Lock()
	got := append([]string(nil), lines...)
	mu.Unlock()
	assert.Equal(t, []string{"SCAN", "LIST", "APMAC 02:00:00:00:00:01", "REASON 2", "PORTAL 1", "DEAUTH 1"}, got)

	// This firmware has no monitor mode.
	on, err = e.ToggleMonitor(ctx)
	assert.ErrorIs(t, err, encoder.ErrUnsupported)
	assert.False(t, on)
}

// failingPort rejects every write.
type failingPort struct{}

func (failingPort) Read(p []byte) (int, error) {
	time.Sleep(time.Millisecond)
	return 0, nil
}
func (failingPort) Write(p []byte) (int, error) { return 0, errors.New("link down") }
func (failingPort) Close() error                { return nil }

func TestWriteBreakerOpens(t *testing.T) {
	e, err := New(failingPort{}, testConfig())
	require.NoError(t, err)
	e.Start()
	defer e.Close()
	e.ForceProfile(firmware.Native)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err := e.SendRaw(ctx, "i")
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	err = e.SendRaw(ctx, "i")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen.String(), e.Snapshot().Link)
}

func TestClosed(t *testing.T) {
	e := newSimEngine(t, testConfig())
	e.ForceProfile(firmware.Native)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err := e.Scan(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}
