package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/attilagyurman/anenji-local-modbus/internal/config"
	"github.com/attilagyurman/anenji-local-modbus/internal/modbus"
	"github.com/attilagyurman/anenji-local-modbus/internal/netutil"
	"github.com/attilagyurman/anenji-local-modbus/internal/profiles"
	"github.com/attilagyurman/anenji-local-modbus/internal/rendezvous"
	"github.com/attilagyurman/anenji-local-modbus/internal/report"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type options struct {
	configPath string
	localIP    string
	raw        string
	template   string
	args       []string
	verbose    bool
}

func newFlagSet(v *viper.Viper, opts *options, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("anenji-scan", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "optional YAML config file")
	fs.StringVar(&opts.localIP, "local-ip", "", "address the datalogger should connect back to")
	fs.StringVar(&opts.raw, "raw", "", "send this hex frame verbatim instead of building one")
	fs.StringVar(&opts.template, "template", "", "command template with {ARGn} and {CRC} placeholders")
	fs.StringArrayVar(&opts.args, "arg", nil, "template argument, repeat for {ARG2}, {ARG3}, ...")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "development logging")

	fs.Uint8("unit-id", 1, "Modbus unit id")
	fs.String("format", "table", "output format: table, json or yaml")
	fs.String("profile", "", "register profile (JSON or YAML) used to label readings")
	fs.String("signed-mode", "compatible", "signed conversion: compatible or corrected")
	fs.Bool("strict-crc", false, "reject responses with a bad checksum")
	fs.Duration("accept-timeout", 0, "give up waiting for the datalogger after this long (0 waits forever)")
	fs.Duration("read-timeout", 0, "give up waiting for the response after this long (0 waits forever)")

	// Flags überschreiben Datei und Environment
	for key, name := range map[string]string{
		"modbus.unit_id":           "unit-id",
		"output.format":            "format",
		"output.profile":           "profile",
		"modbus.signed_mode":       "signed-mode",
		"modbus.strict_crc":        "strict-crc",
		"handshake.accept_timeout": "accept-timeout",
		"handshake.read_timeout":   "read-timeout",
	} {
		v.BindPFlag(key, fs.Lookup(name))
	}

	return fs
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(argv []string, stdout, stderr io.Writer) int {
	v := viper.New()
	var opts options
	fs := newFlagSet(v, &opts, stderr)
	if err := fs.Parse(argv); err != nil {
		return 1
	}

	inv, err := parsePositional(fs.Args(), opts.raw == "" && opts.template == "")
	if err != nil {
		fmt.Fprintln(stderr, usage)
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}

	// Logger initialisieren
	logger, err := newLogger(opts.verbose)
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return 1
	}
	defer logger.Sync()

	cfg, err := config.Load(v, opts.configPath)
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		return 1
	}

	printer := report.NewPrinter(report.Format(cfg.Output.Format), stdout)
	fail := func(msg string, err error) int {
		logger.Error(msg, zap.Error(err))
		printer.PrintError(errorCode(err), err)
		return 1
	}

	var profile *profiles.Profile
	if cfg.Output.Profile != "" {
		loader, err := profiles.NewLoader()
		if err != nil {
			return fail("Failed to create profile loader", err)
		}
		profile, err = loader.Load(cfg.Output.Profile)
		if err != nil {
			return fail("Failed to load register profile", err)
		}
	}

	request, err := buildRequest(cfg, inv, &opts)
	if err != nil {
		return fail("Failed to build request", err)
	}

	localIP := inv.LocalIP
	if localIP == "" {
		localIP = opts.localIP
	}
	if localIP == "" {
		localIP = netutil.LocalIP()
	}

	logger.Info("Request built", zap.String("frame", modbus.FormatHex(request)))
	if cfg.Output.Format == string(report.FormatTable) {
		fmt.Fprintf(stdout, "MODBUS command to send (hex): %s\n", modbus.FormatHex(request))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := rendezvous.NewSession(inv.DeviceIP, localIP, cfg.Handshake.Rendezvous(), logger)
	result, err := session.Exchange(ctx, request)
	if err != nil {
		return fail("Handshake failed", err)
	}

	parseOpts, err := cfg.Modbus.ParseOptions()
	if err != nil {
		return fail("Invalid parser options", err)
	}
	resp, err := modbus.DecodeResponse(result.Response, modbus.StartAddress(request), parseOpts)
	if err != nil {
		logger.Debug("Raw response", zap.String("frame", modbus.FormatHex(result.Response)))
		return fail("Failed to parse response", err)
	}
	if !resp.ChecksumOK {
		logger.Warn("Response checksum mismatch", zap.String("frame", modbus.FormatHex(result.Response)))
	}

	out := report.Build(request, resp, profile)
	out.SessionID = result.SessionID
	out.Device = inv.DeviceIP
	if err := printer.Print(out); err != nil {
		logger.Error("Failed to print report", zap.Error(err))
		return 1
	}

	return 0
}

func buildRequest(cfg *config.Config, inv *invocation, opts *options) ([]byte, error) {
	switch {
	case opts.raw != "":
		return modbus.ParseHex(opts.raw)
	case opts.template != "":
		return modbus.BuildTemplate(opts.template, opts.args)
	default:
		return modbus.BuildRequest(cfg.Modbus.UnitID, cfg.Modbus.FunctionCode,
			inv.StartRegister, inv.RegisterCount, nil)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
