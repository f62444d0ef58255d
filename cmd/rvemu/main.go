// Command rvemu interprets a flat RV32IMA_Zicsr_Zifencei kernel image,
// optionally with a Device Tree Blob, to the point of a SYSCON
// poweroff/reboot or a fatal trap.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/schollz/progressbar/v3"

	"github.com/tinyrange/rvemu/internal/bus"
	"github.com/tinyrange/rvemu/internal/dtb"
	"github.com/tinyrange/rvemu/internal/hart"
	"github.com/tinyrange/rvemu/internal/kernel"
	"github.com/tinyrange/rvemu/internal/machine"
	"github.com/tinyrange/rvemu/internal/monitor"
)

// config is the set of knobs controllable from a built-in default, a
// -config YAML file, or a flag, in increasing order of precedence.
type config struct {
	MemorySize  uint64 `yaml:"memory_size"`
	PageOffset  uint32 `yaml:"page_offset"`
	DTB         string `yaml:"dtb"`
	Debug       bool   `yaml:"debug"`
	Quiet       bool   `yaml:"quiet"`
	Cycles      uint64 `yaml:"cycles"`
	Interactive bool   `yaml:"interactive"`
	Monitor     bool   `yaml:"monitor"`
}

func defaultConfig() config {
	return config{
		MemorySize: 128 * 1024 * 1024,
		PageOffset: machine.DefaultPageOffset,
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	memorySize := flag.Uint64("m", 0, "Memory size in bytes")
	flag.Uint64Var(memorySize, "memory-size", 0, "Memory size in bytes")
	pageOffset := flag.Uint64("o", 0, "Guest physical address RAM and the kernel start at")
	flag.Uint64Var(pageOffset, "page-offset", 0, "Guest physical address RAM and the kernel start at")
	dtbPath := flag.String("d", "", "Path to a Device Tree Blob")
	flag.StringVar(dtbPath, "dtb", "", "Path to a Device Tree Blob")
	debug := flag.Bool("e", false, "Enable debug logging")
	flag.BoolVar(debug, "debug", false, "Enable debug logging")
	quiet := flag.Bool("q", false, "Only log errors")
	flag.BoolVar(quiet, "quiet", false, "Only log errors")
	configPath := flag.String("config", "", "Optional YAML config file overlaid under flags")
	cycles := flag.Uint64("cycles", 0, "Stop after this many cycles (0 = unbounded)")
	interactive := flag.Bool("interactive", false, "Put the terminal in raw mode for the guest console")
	showMonitor := flag.Bool("monitor", false, "Draw a live register/CSR dashboard above the console")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <executable> [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Interpret a flat RV32IMA_Zicsr_Zifencei kernel image.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		return 1
	}
	executablePath := flag.Arg(0)

	cfg := defaultConfig()
	if *configPath != "" {
		if err := loadConfigFile(*configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "rvemu: %v\n", err)
			return 1
		}
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["m"] || set["memory-size"] {
		cfg.MemorySize = *memorySize
	}
	if set["o"] || set["page-offset"] {
		cfg.PageOffset = uint32(*pageOffset)
	}
	if set["d"] || set["dtb"] {
		cfg.DTB = *dtbPath
	}
	if set["e"] || set["debug"] {
		cfg.Debug = *debug
	}
	if set["q"] || set["quiet"] {
		cfg.Quiet = *quiet
	}
	if set["cycles"] {
		cfg.Cycles = *cycles
	}
	if set["interactive"] {
		cfg.Interactive = *interactive
	}
	if set["monitor"] {
		cfg.Monitor = *showMonitor
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	if cfg.Quiet {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	exitCode, err := boot(cfg, executablePath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rvemu: %v\n", err)
		return 1
	}
	return exitCode
}

func loadConfigFile(path string, cfg *config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func boot(cfg config, executablePath string, logger *slog.Logger) (int, error) {
	f, err := os.Open(executablePath)
	if err != nil {
		return 1, fmt.Errorf("open executable: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return 1, fmt.Errorf("stat executable: %w", err)
	}

	bar := progressbar.DefaultBytes(stat.Size(), "loading kernel")
	img, err := kernel.Load(f, stat.Size())
	if err != nil {
		return 1, fmt.Errorf("load kernel: %w", err)
	}
	bar.Add64(stat.Size())
	bar.Close()

	var out *os.File = os.Stdout
	var restore func()
	if cfg.Interactive && term.IsTerminal(int(out.Fd())) {
		oldState, err := term.MakeRaw(int(out.Fd()))
		if err != nil {
			return 1, fmt.Errorf("set terminal raw mode: %w", err)
		}
		restore = func() { term.Restore(int(out.Fd()), oldState) }
		defer restore()
	}

	m := machine.New(int(cfg.MemorySize), cfg.PageOffset, out, logger)

	if err := m.LoadKernel(img); err != nil {
		return 1, err
	}

	var dtbAddr uint32
	if cfg.DTB != "" {
		data, err := os.ReadFile(cfg.DTB)
		if err != nil {
			return 1, fmt.Errorf("read dtb: %w", err)
		}
		if _, err := dtb.Parse(data); err != nil {
			return 1, err
		}
		dtbAddr, err = m.LoadDTB(data)
		if err != nil {
			return 1, err
		}
	}

	m.SetupBootRegisters(m.Bus.PageOffset(), dtbAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var mon machine.Monitor
	if cfg.Monitor {
		mon = monitor.New(out)
	}

	result, err := m.Run(ctx, cfg.Cycles, mon)
	if err != nil {
		var fatal *hart.FatalError
		if errors.As(err, &fatal) {
			m.Hart.DumpRegisters(os.Stderr)
			return fatal.Code, nil
		}
		return 1, err
	}

	switch result.Action {
	case bus.SysconActionPoweroff, bus.SysconActionReboot:
		return 0, nil
	default:
		return result.ExitCode, nil
	}
}

