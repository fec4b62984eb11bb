// Command estimator runs the OFDM channel-estimator monitor against a real
// or simulated radio front-end.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/venkat-chanest/ofdm-chanest/internal/config"
	"github.com/venkat-chanest/ofdm-chanest/internal/monitor"
	"github.com/venkat-chanest/ofdm-chanest/internal/mqtttelemetry"
	"github.com/venkat-chanest/ofdm-chanest/internal/radio"
	"github.com/venkat-chanest/ofdm-chanest/internal/server"
	"github.com/venkat-chanest/ofdm-chanest/internal/telemetry"
	"github.com/venkat-chanest/ofdm-chanest/internal/training"
	"github.com/venkat-chanest/ofdm-chanest/internal/tui"
)

// version is set via ldflags at build time.
var version = "dev"

// mqttFlags are embedded by commands that can fan reports out to an MQTT
// broker in addition to their primary sink.
type mqttFlags struct {
	MQTTHost     string `help:"MQTT broker host to publish reports to (disabled if empty)." default:""`
	MQTTPort     int    `help:"MQTT broker port." default:"1883"`
	MQTTTopic    string `help:"MQTT topic for published reports." default:"ofdm-chanest/reports"`
	MQTTClientID string `help:"MQTT client ID." default:"ofdm-estimator"`
}

// connect dials the configured broker, returning a nil Publisher (and no
// error) when MQTTHost is unset.
func (f mqttFlags) connect() (*mqtttelemetry.Publisher, error) {
	if f.MQTTHost == "" {
		return nil, nil
	}
	return mqtttelemetry.Connect(mqtttelemetry.Config{
		Host:     f.MQTTHost,
		Port:     f.MQTTPort,
		ClientID: f.MQTTClientID,
		Topic:    f.MQTTTopic,
	})
}

type runCmd struct {
	Config        string `arg:"" name:"config" help:"Path to the YAML estimator config." type:"existingfile"`
	ReportDir     string `help:"Directory to write channel reports to." default:"./reports"`
	Device        string `help:"Serial device for an IQ front-end; falls back to the default audio front-end if empty." default:""`
	Baud          int    `help:"Serial baud rate, used only with --device." default:"115200"`
	WaitForDevice bool   `help:"Wait for --device to appear via udev before opening it." default:"true" negatable:""`
	Transmit      bool   `help:"Also transmit the preamble pattern over the same front-end."`
	PTTChip       string `help:"GPIO chip for PTT keying while transmitting (e.g. gpiochip0); disabled if empty." default:""`
	PTTLine       int    `help:"GPIO line offset for PTT keying." default:"17"`
	mqttFlags
}

func (c *runCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	store, err := cfg.BuildStore()
	if err != nil {
		return err
	}

	fe, err := c.openFrontend()
	if err != nil {
		return err
	}
	defer fe.Close()

	writer, err := telemetry.NewWriter(c.ReportDir, "report-%Y%m%d-%H%M%S.rs")
	if err != nil {
		return err
	}

	pub, err := c.mqttFlags.connect()
	if err != nil {
		return fmt.Errorf("connect mqtt: %w", err)
	}
	if pub != nil {
		defer pub.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	var closed atomic.Bool
	mc := cfg.MonitorConfig(store)

	if c.Transmit {
		go func() {
			if err := monitor.RunTx(ctx, fe, mc, &closed); err != nil && ctx.Err() == nil {
				log.Error("transmitter stopped", "err", err)
			}
		}()
	}

	return monitor.RunRx(ctx, fe, mc, func(phi float32, eq training.SubcarrierVector) {
		report := telemetry.NewReport(phi, eq)
		path, err := writer.Write(report)
		if err != nil {
			log.Error("write report", "err", err)
			return
		}
		log.Info("wrote channel report", "path", path)
		if pub != nil {
			if err := pub.Publish(report); err != nil {
				log.Error("publish mqtt report", "err", err)
			}
		}
	}, &closed)
}

// openFrontend opens either the serial IQ front-end named by --device
// (optionally waiting for it to appear via udev first) or, when --device
// is unset, the default audio front-end. When --ptt-chip is set, the
// chosen front-end is wrapped to key the GPIO line around every transmit.
func (c *runCmd) openFrontend() (radio.Frontend, error) {
	var fe radio.Frontend

	if c.Device != "" {
		device := c.Device
		if c.WaitForDevice {
			waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			found, err := radio.WaitForTTY(waitCtx)
			cancel()
			if err != nil {
				log.Warn("udev wait for serial device failed, opening configured path directly", "err", err)
			} else if found != "" {
				device = found
			}
		}
		sfe, err := radio.NewSerialFrontend(device, c.Baud)
		if err != nil {
			return nil, fmt.Errorf("open serial front-end: %w", err)
		}
		fe = sfe
	} else {
		afe, err := radio.NewAudioFrontend(48000)
		if err != nil {
			return nil, fmt.Errorf("open audio front-end: %w", err)
		}
		fe = afe
	}

	if c.PTTChip != "" {
		ptt, err := radio.NewGPIOPTT(c.PTTChip, c.PTTLine)
		if err != nil {
			return nil, fmt.Errorf("open ptt gpio: %w", err)
		}
		fe = radio.NewPTTFrontend(fe, ptt)
	}

	return fe, nil
}

type simulateCmd struct {
	Config    string  `arg:"" name:"config" help:"Path to the YAML estimator config." type:"existingfile"`
	MaxCFO    float32 `help:"Simulated carrier frequency offset, radians/sample." default:"0.05"`
	Multipath bool    `help:"Enable a synthetic two-tap multipath channel."`
	Seed      int64   `help:"Random seed for the simulator." default:"1"`
}

func (c *simulateCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	store, err := cfg.BuildStore()
	if err != nil {
		return err
	}

	simCfg := radio.SimulatorConfig{
		SampRate: 20_000_000,
		MaxCFO:   c.MaxCFO,
	}
	if c.Multipath {
		simCfg.Multipath = []radio.MultipathTap{{Delay: 2e-6, Gain: complex(0.1, 0.1)}}
	}

	rng := rand.New(rand.NewSource(c.Seed))
	txFE, rxFE := radio.NewSimulatorPair(simCfg, rng)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	var closed atomic.Bool

	mc := cfg.MonitorConfig(store)

	errCh := make(chan error, 2)
	go func() { errCh <- monitor.RunTx(ctx, txFE, mc, &closed) }()
	go func() {
		errCh <- monitor.RunRx(ctx, rxFE, mc, func(phi float32, eq training.SubcarrierVector) {
			log.Info("channel estimate received", "cfo", phi, "subcarriers", len(eq))
		}, &closed)
	}()

	return <-errCh
}

type serveCmd struct {
	Config    string `arg:"" name:"config" help:"Path to the YAML estimator config." type:"existingfile"`
	ReportDir string `help:"Directory to write channel reports to." default:"./reports"`
	Addr      string `help:"Dashboard listen address." default:":8089"`
	Advertise bool   `help:"Announce the dashboard over DNS-SD." default:"true" negatable:""`
	StaticDir string `help:"Directory of dashboard static assets." default:""`
	mqttFlags
}

func (c *serveCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	store, err := cfg.BuildStore()
	if err != nil {
		return err
	}

	fe, err := radio.NewAudioFrontend(48000)
	if err != nil {
		return fmt.Errorf("open audio front-end: %w", err)
	}
	defer fe.Close()

	writer, err := telemetry.NewWriter(c.ReportDir, "report-%Y%m%d-%H%M%S.rs")
	if err != nil {
		return err
	}

	pub, err := c.mqttFlags.connect()
	if err != nil {
		return fmt.Errorf("connect mqtt: %w", err)
	}
	if pub != nil {
		defer pub.Close()
	}

	handlers := server.NewHandlers(c.ReportDir, writer)
	srv := server.NewServer(c.Addr, handlers, c.StaticDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Advertise {
		_, portStr, err := net.SplitHostPort(c.Addr)
		if err == nil {
			if port, err := strconv.Atoi(portStr); err == nil {
				if err := server.Advertise(ctx, "OFDM Channel Estimator", port); err != nil {
					log.Warn("DNS-SD advertise failed", "err", err)
				}
			}
		}
	}

	var closed atomic.Bool
	mc := cfg.MonitorConfig(store)

	errCh := make(chan error, 2)
	go func() { errCh <- srv.ListenAndServe(ctx) }()
	go func() {
		errCh <- monitor.RunRx(ctx, fe, mc, func(phi float32, eq training.SubcarrierVector) {
			report := telemetry.NewReport(phi, eq)
			if _, err := writer.Write(report); err != nil {
				log.Error("write report", "err", err)
				return
			}
			handlers.OnReport(report)
			if pub != nil {
				if err := pub.Publish(report); err != nil {
					log.Error("publish mqtt report", "err", err)
				}
			}
		}, &closed)
	}()

	return <-errCh
}

type watchCmd struct {
	Config    string  `arg:"" name:"config" help:"Path to the YAML estimator config." type:"existingfile"`
	MaxCFO    float32 `help:"Simulated carrier frequency offset, radians/sample." default:"0.05"`
	Multipath bool    `help:"Enable a synthetic two-tap multipath channel."`
	Seed      int64   `help:"Random seed for the simulator." default:"1"`
}

func (c *watchCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	store, err := cfg.BuildStore()
	if err != nil {
		return err
	}

	simCfg := radio.SimulatorConfig{SampRate: 20_000_000, MaxCFO: c.MaxCFO}
	if c.Multipath {
		simCfg.Multipath = []radio.MultipathTap{{Delay: 2e-6, Gain: complex(0.1, 0.1)}}
	}
	rng := rand.New(rand.NewSource(c.Seed))
	txFE, rxFE := radio.NewSimulatorPair(simCfg, rng)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	var closed atomic.Bool
	mc := cfg.MonitorConfig(store)

	msgCh := make(chan tea.Msg, 64)
	program := tea.NewProgram(tui.NewModel(msgCh), tea.WithAltScreen())

	go func() {
		if err := monitor.RunTx(ctx, txFE, mc, &closed); err != nil && ctx.Err() == nil {
			msgCh <- tui.StatusMsg{Level: "error", Message: err.Error()}
		}
	}()
	go func() {
		err := monitor.RunRx(ctx, rxFE, mc, func(phi float32, eq training.SubcarrierVector) {
			msgCh <- tui.ReportMsg{Report: telemetry.NewReport(phi, eq), At: time.Now()}
		}, &closed)
		if err != nil && ctx.Err() == nil {
			msgCh <- tui.StatusMsg{Level: "error", Message: err.Error()}
		}
	}()

	_, err = program.Run()
	return err
}

type devicesCmd struct{}

func (c *devicesCmd) Run() error {
	devices, err := radio.ListDevices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		fmt.Printf("%-32s in:%d out:%d rate:%.0f\n", d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
	}
	return nil
}

type radiosCmd struct {
	Model int      `help:"Hamlib rig model number (see \"rigctl -l\")." default:"1"`
	Ports []string `arg:"" name:"port" help:"Serial ports to probe." optional:""`
}

func (c *radiosCmd) Run() error {
	ports := c.Ports
	if len(ports) == 0 {
		ports = []string{"/dev/ttyUSB0", "/dev/ttyACM0"}
	}
	for _, r := range radio.ProbeRigs(c.Model, ports) {
		if r.Reached {
			fmt.Printf("%-16s model:%d reachable\n", r.Port, r.Model)
		} else {
			fmt.Printf("%-16s model:%d unreachable (%s)\n", r.Port, r.Model, r.Err)
		}
	}
	return nil
}

type cli struct {
	Version  bool        `short:"v" help:"Show version and exit."`
	Run      runCmd      `cmd:"" help:"Run the monitor against a real radio front-end."`
	Simulate simulateCmd `cmd:"" help:"Run the monitor against a simulated channel."`
	Serve    serveCmd    `cmd:"" help:"Run the monitor and serve a live dashboard."`
	Watch    watchCmd    `cmd:"" help:"Run a simulated channel with a live terminal dashboard."`
	Devices  devicesCmd  `cmd:"" help:"List available audio devices."`
	Radios   radiosCmd   `cmd:"" help:"Probe serial ports for a reachable Hamlib rig."`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("estimator"),
		kong.Description("OFDM channel estimator monitor."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if c.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := ctx.Run(); err != nil {
		log.Fatal(err)
	}
}
