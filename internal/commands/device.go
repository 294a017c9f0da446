package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vitaminmoo/bw16-tool/internal/engine"
	"github.com/vitaminmoo/bw16-tool/internal/firmware"
	"github.com/vitaminmoo/bw16-tool/internal/transport"
)

// Ports lists serial ports, USB adapters first.
func Ports(w io.Writer) error {
	ports, err := transport.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "No serial ports found.")
		return nil
	}
	def, _ := transport.DefaultPort()
	for _, p := range ports {
		if p == def {
			fmt.Fprintf(w, "  %s  %s\n", p, good.Sprint("(default)"))
		} else {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	return nil
}

// Detect identifies the firmware and prints the result.
func Detect(ctx context.Context, e *engine.Engine, w io.Writer) error {
	res, err := e.Detect(ctx)
	PrintDetection(w, res)
	return err
}

// PrintDetection prints a detection result.
func PrintDetection(w io.Writer, res firmware.Result) {
	heading.Fprintln(w, "Firmware")
	fmt.Fprintf(w, "  Profile:  %s\n", profileColor(res.Profile))
	if res.Version != "" {
		fmt.Fprintf(w, "  Version:  %s\n", res.Version)
	}
	if res.Banner != "" {
		fmt.Fprintf(w, "  Banner:   %s\n", res.Banner)
	}
	fmt.Fprintf(w, "  Features: %s\n", capList(res.Capabilities))
	if len(res.Phases) > 0 {
		phases := make([]string, len(res.Phases))
		for i, p := range res.Phases {
			phases[i] = p.String()
		}
		dim.Fprintf(w, "  Path:     %s\n", strings.Join(phases, " → "))
	}
}

func profileColor(p firmware.Profile) string {
	switch p {
	case firmware.Native:
		return good.Sprint(p)
	case firmware.Unknown:
		return bad.Sprint(p)
	}
	return warn.Sprint(p)
}

func capList(c firmware.Capabilities) string {
	list := c.List()
	if len(list) == 0 {
		return dim.Sprint("none")
	}
	names := make([]string, len(list))
	for i, cp := range list {
		names[i] = cp.String()
	}
	return strings.Join(names, ", ")
}

// Info asks the device for a status report and prints it alongside the
// link counters.
func Info(ctx context.Context, e *engine.Engine, w io.Writer) error {
	info, err := e.Info(ctx)
	if err != nil {
		return err
	}
	snap := e.Snapshot()

	PrintDetection(w, snap.Detection)
	fmt.Fprintln(w)
	heading.Fprintln(w, "Device")
	if info.Version != "" {
		fmt.Fprintf(w, "  Version:   %s\n", info.Version)
	}
	fmt.Fprintf(w, "  Networks:  %d\n", info.Networks)
	fmt.Fprintf(w, "  Clients:   %d\n", info.Clients)
	fmt.Fprintf(w, "  Channel:   %d\n", info.Channel)
	fmt.Fprintf(w, "  Deauths:   %d\n", info.DeauthCount)
	fmt.Fprintf(w, "  Beacon:    %s\n", onOff(info.BeaconActive))
	fmt.Fprintf(w, "  AP:        %s\n", onOff(info.APActive))
	fmt.Fprintf(w, "  BLE:       %d\n", info.BLECount)
	fmt.Fprintln(w)
	PrintLink(w, snap)
	return nil
}

// PrintLink prints the link counters and breaker state.
func PrintLink(w io.Writer, snap engine.Snapshot) {
	heading.Fprintln(w, "Link")
	fmt.Fprintf(w, "  RX:        %s\n", humanize.Bytes(snap.Counters.BytesRX))
	fmt.Fprintf(w, "  TX:        %s\n", humanize.Bytes(snap.Counters.BytesTX))
	if snap.Counters.Dropped > 0 {
		fmt.Fprintf(w, "  Dropped:   %s\n", warn.Sprintf("%d", snap.Counters.Dropped))
	}
	state := snap.Link
	if state != "closed" {
		state = bad.Sprint(state)
	}
	fmt.Fprintf(w, "  Circuit:   %s\n", state)
}

// PrintStatus prints the running-operation flags.
func PrintStatus(w io.Writer, snap engine.Snapshot) {
	st := snap.Status
	heading.Fprintln(w, "Status")
	fmt.Fprintf(w, "  Scanning:  %s\n", onOff(st.Scanning || st.BLEScanning))
	fmt.Fprintf(w, "  Monitor:   %s\n", onOff(st.MonitorActive))
	fmt.Fprintf(w, "  Beacon:    %s\n", onOff(st.BeaconActive))
	fmt.Fprintf(w, "  AP:        %s\n", onOff(st.APActive))
	fmt.Fprintf(w, "  BLE spam:  %s\n", onOff(st.BLESpamActive))
	if st.KickTarget != "" {
		fmt.Fprintf(w, "  Kick:      %s\n", st.KickTarget)
	}
}

// Send writes raw console text and echoes what came back within wait.
func Send(ctx context.Context, e *engine.Engine, w io.Writer, text string, wait time.Duration) error {
	e.ClearConsole()
	if err := e.SendRaw(ctx, text); err != nil {
		return err
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return ctx.Err()
	}
	fmt.Fprint(w, e.Snapshot().Console)
	return nil
}

// Console streams the receive transcript until d elapses or ctx ends. A
// zero duration runs until ctx ends.
func Console(ctx context.Context, e *engine.Engine, w io.Writer, d time.Duration) error {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for {
		// Drain each tick so trimming never hides lines.
		if out := e.TakeConsole(); out != "" {
			fmt.Fprint(w, out)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}
}
