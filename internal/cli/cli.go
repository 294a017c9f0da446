package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitaminmoo/bw16-tool/internal/commands"
	"github.com/vitaminmoo/bw16-tool/internal/config"
	"github.com/vitaminmoo/bw16-tool/internal/encoder"
	"github.com/vitaminmoo/bw16-tool/internal/engine"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
	"github.com/vitaminmoo/bw16-tool/internal/store"
	"github.com/vitaminmoo/bw16-tool/internal/tui"
)

// CLI is the root command structure for bw16.
type CLI struct {
	Verbose   bool   `short:"v" help:"Enable verbose debug output"`
	Config    string `type:"path" help:"Config file (default ~/.bw16/config.yaml)"`
	Transport string `help:"Link to use: serial, ble or sim (default: from config)"`
	Port      string `short:"p" help:"Serial port (default: first USB serial port)"`
	Baud      int    `help:"Serial baud rate"`
	BLE       bool   `name:"ble" help:"Connect over the BLE UART bridge"`
	Profile   string `help:"Skip detection and assume this firmware profile"`

	// Default command - TUI
	Tui TuiCmd `cmd:"" default:"withargs" help:"Launch interactive TUI (default)"`

	Ports   PortsCmd   `cmd:"" help:"List serial ports"`
	Detect  DetectCmd  `cmd:"" help:"Identify the firmware on the peripheral"`
	Info    InfoCmd    `cmd:"" help:"Show device status and link counters"`
	Scan    ScanCmd    `cmd:"" help:"Scan for WiFi networks and clients"`
	Deauth  DeauthCmd  `cmd:"" help:"Toggle deauth on a network, or deauth one client"`
	Kick    KickCmd    `cmd:"" help:"Deauth a station by MAC"`
	Evil    EvilCmd    `cmd:"" help:"Clone a network behind a captive portal"`
	AP      APCmd      `cmd:"" name:"ap" help:"Start an access point with a captive portal"`
	Beacon  BeaconCmd  `cmd:"" help:"Beacon spam"`
	Monitor MonitorCmd `cmd:"" help:"Toggle monitor mode"`
	Stop    StopCmd    `cmd:"" help:"Stop everything running on the peripheral"`
	Ble     BleCmd     `cmd:"" name:"ble" help:"BLE operations"`
	LED     LEDCmd     `cmd:"" name:"led" help:"Set the status LED"`
	Attack  AttackCmd  `cmd:"" help:"Toggle an advanced attack"`
	Send    SendCmd    `cmd:"" help:"Send raw text to the peripheral and print the reply"`
	Console ConsoleCmd `cmd:"" help:"Stream everything the peripheral sends"`
	Store   StoreCmd   `cmd:"" help:"Saved scans, credentials and audit log"`
	Reasons ReasonsCmd `cmd:"" help:"List deauth reason codes"`
	Portals PortalsCmd `cmd:"" help:"List captive portal templates"`
}

// load reads the config file and applies flag overrides.
func (c *CLI) load() (config.Config, error) {
	config.SetVerbose(c.Verbose)

	path := c.Config
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if c.Transport != "" {
		cfg.Transport = c.Transport
	}
	if c.BLE {
		cfg.Transport = "ble"
	}
	if c.Port != "" {
		cfg.Serial.Port = c.Port
	}
	if c.Baud > 0 {
		cfg.Serial.Baud = c.Baud
	}
	if c.Profile != "" {
		cfg.Detect.ForceProfile = c.Profile
	}
	return cfg, cfg.Validate()
}

// connect loads the config and opens a session.
func (c *CLI) connect(opts ...engine.Option) (*commands.Session, config.Config, error) {
	cfg, err := c.load()
	if err != nil {
		return nil, cfg, err
	}
	s, err := commands.Connect(cfg, opts...)
	return s, cfg, err
}

func (c *CLI) openStore() (*store.Store, error) {
	cfg, err := c.load()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// interruptible returns a context cancelled by SIGINT or SIGTERM.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// session runs fn against a fresh session and closes it afterwards.
func (c *CLI) session(fn func(ctx context.Context, s *commands.Session, cfg config.Config) error) error {
	s, cfg, err := c.connect()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptible()
	defer cancel()
	return fn(ctx, s, cfg)
}

// --- TUI Command ---

type TuiCmd struct{}

func (cmd *TuiCmd) Run(globals *CLI) error {
	s, cfg, err := globals.connect(engine.WithNotifier(notify.Bell{W: os.Stderr}))
	if err != nil {
		return err
	}
	defer s.Close()
	return tui.Run(s.Engine, tui.NewOptions(cfg, s.Store, s.Sighting()))
}

// --- Device Commands ---

type PortsCmd struct{}

func (cmd *PortsCmd) Run(globals *CLI) error {
	config.SetVerbose(globals.Verbose)
	return commands.Ports(os.Stdout)
}

type DetectCmd struct{}

func (cmd *DetectCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.Detect(ctx, s.Engine, os.Stdout)
	})
}

type InfoCmd struct{}

func (cmd *InfoCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.Info(ctx, s.Engine, os.Stdout)
	})
}

type SendCmd struct {
	Text string        `arg:"" help:"Text to send (framed firmware: tag then body, e.g. 'i')"`
	Wait time.Duration `default:"1s" help:"How long to collect the reply"`
}

func (cmd *SendCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.Send(ctx, s.Engine, os.Stdout, cmd.Text, cmd.Wait)
	})
}

type ConsoleCmd struct {
	Duration time.Duration `short:"d" help:"Stop after this long (default: until interrupted)"`
}

func (cmd *ConsoleCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.Console(ctx, s.Engine, os.Stdout, cmd.Duration)
	})
}

// --- WiFi Commands ---

type ScanCmd struct {
	Save bool `help:"Save the result to the store"`
}

func (cmd *ScanCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.Scan(ctx, s, os.Stdout, cmd.Save)
	})
}

type DeauthCmd struct {
	Network  int           `arg:"" help:"Network index from the scan list"`
	Client   int           `short:"c" default:"-1" help:"Client slot within the network (default: broadcast)"`
	Reason   int           `short:"r" default:"-1" help:"802.11 reason code (default: from config)"`
	Duration time.Duration `short:"d" help:"Stop the broadcast deauth after this long"`
}

func (cmd *DeauthCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.Deauth(ctx, s.Engine, os.Stdout, cmd.Network, commands.DeauthOptions{
			Client:   cmd.Client,
			Reason:   cmd.Reason,
			Duration: cmd.Duration,
		})
	})
}

type KickCmd struct {
	MAC string `arg:"" help:"Station MAC address"`
}

func (cmd *KickCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.Kick(ctx, s.Engine, os.Stdout, cmd.MAC)
	})
}

type EvilCmd struct {
	Network int `arg:"" help:"Network index from the scan list"`
	Portal  int `default:"-1" help:"Captive portal template (see 'bw16 portals')"`
}

func (cmd *EvilCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.EvilTwin(ctx, s.Engine, os.Stdout, cmd.Network, cmd.Portal)
	})
}

type APCmd struct {
	SSID     string `arg:"" help:"Network name"`
	Password string `help:"WPA2 password (default: open)"`
	Channel  int    `help:"Channel (default: from config)"`
	Portal   int    `default:"-1" help:"Captive portal template (default: from config)"`
}

func (cmd *APCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, cfg config.Config) error {
		portal := cmd.Portal
		if portal < 0 {
			portal = cfg.Attack.Portal
		}
		return commands.AP(ctx, s.Engine, os.Stdout, encoder.APConfig{
			SSID:     cmd.SSID,
			Password: cmd.Password,
			Channel:  cmd.Channel,
			Portal:   portal,
		})
	})
}

type BeaconCmd struct {
	Mode string `arg:"" enum:"random,rickroll,custom,stop" help:"random, rickroll, custom or stop"`
	SSID string `arg:"" optional:"" help:"SSID for custom mode"`
}

func (cmd *BeaconCmd) Run(globals *CLI) error {
	if cmd.Mode == "custom" && cmd.SSID == "" {
		return fmt.Errorf("custom beacon mode needs an SSID")
	}
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.Beacon(ctx, s.Engine, os.Stdout, cmd.Mode, cmd.SSID)
	})
}

type MonitorCmd struct{}

func (cmd *MonitorCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.Monitor(ctx, s.Engine, os.Stdout)
	})
}

type StopCmd struct{}

func (cmd *StopCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.Stop(ctx, s.Engine, os.Stdout)
	})
}

type AttackCmd struct {
	Name string `arg:"" enum:"jammer,probe,karma,pmkid,handshake,rogue-monitor,rogue-baseline" help:"jammer, probe, karma, pmkid, handshake, rogue-monitor or rogue-baseline"`
}

func (cmd *AttackCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.Attack(ctx, s.Engine, os.Stdout, cmd.Name)
	})
}

// --- BLE Commands ---

type BleCmd struct {
	Scan BleScanCmd `cmd:"" help:"Scan for BLE devices"`
	Spam BleSpamCmd `cmd:"" help:"Flood BLE advertisements"`
	Stop BleStopCmd `cmd:"" help:"Stop BLE scan and spam"`
}

type BleScanCmd struct{}

func (cmd *BleScanCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.BLEScan(ctx, s.Engine, os.Stdout)
	})
}

type BleSpamCmd struct {
	Kind string `arg:"" default:"all" help:"random, fastpair, swiftpair, airtag or all"`
}

func (cmd *BleSpamCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.BLESpam(ctx, s.Engine, os.Stdout, cmd.Kind)
	})
}

type BleStopCmd struct{}

func (cmd *BleStopCmd) Run(globals *CLI) error {
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.BLEStop(ctx, s.Engine, os.Stdout)
	})
}

type LEDCmd struct {
	Effect string  `arg:"" optional:"" help:"off, wifi, ble or attack"`
	RGB    []uint8 `name:"rgb" sep:"," help:"Solid colour as r,g,b"`
}

func (cmd *LEDCmd) Run(globals *CLI) error {
	if cmd.Effect == "" && len(cmd.RGB) == 0 {
		return fmt.Errorf("give an effect or --rgb")
	}
	return globals.session(func(ctx context.Context, s *commands.Session, _ config.Config) error {
		return commands.LED(ctx, s.Engine, os.Stdout, cmd.Effect, cmd.RGB)
	})
}

// --- Reference tables ---

type ReasonsCmd struct{}

func (cmd *ReasonsCmd) Run(globals *CLI) error {
	cfg, err := globals.load()
	if err != nil {
		return err
	}
	commands.Reasons(os.Stdout, cfg.Attack.Reason)
	return nil
}

type PortalsCmd struct{}

func (cmd *PortalsCmd) Run(globals *CLI) error {
	cfg, err := globals.load()
	if err != nil {
		return err
	}
	commands.Portals(os.Stdout, cfg.Attack.Portal)
	return nil
}

// --- Store Commands ---

type StoreCmd struct {
	List  StoreListCmd  `cmd:"" help:"List saved scans"`
	Show  StoreShowCmd  `cmd:"" help:"Show a saved scan"`
	Creds StoreCredsCmd `cmd:"" help:"Show captured credentials"`
	Audit StoreAuditCmd `cmd:"" help:"Show the audit log"`
}

type StoreListCmd struct{}

func (cmd *StoreListCmd) Run(globals *CLI) error {
	s, err := globals.openStore()
	if err != nil {
		return err
	}
	return commands.StoreList(os.Stdout, s)
}

type StoreShowCmd struct {
	Hash string `arg:"" help:"Scan hash (full or prefix)"`
	JSON bool   `name:"json" help:"Print the raw record"`
}

func (cmd *StoreShowCmd) Run(globals *CLI) error {
	s, err := globals.openStore()
	if err != nil {
		return err
	}
	return commands.StoreShow(os.Stdout, s, cmd.Hash, cmd.JSON)
}

type StoreCredsCmd struct{}

func (cmd *StoreCredsCmd) Run(globals *CLI) error {
	s, err := globals.openStore()
	if err != nil {
		return err
	}
	return commands.StoreCreds(os.Stdout, s)
}

type StoreAuditCmd struct {
	Tail int `short:"n" default:"50" help:"Number of lines (0 for all)"`
}

func (cmd *StoreAuditCmd) Run(globals *CLI) error {
	s, err := globals.openStore()
	if err != nil {
		return err
	}
	return commands.StoreAudit(os.Stdout, s, cmd.Tail)
}
