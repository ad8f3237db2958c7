// Command vellum compiles manuscript transcriptions written in the Vellum
// DSL to TEI/Menota XML, and round-trips existing XML documents through
// editable DSL text.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/Vellum/internal/config"
	"github.com/FocuswithJustin/Vellum/internal/logging"
)

const version = "0.4.0"

// CLI defines the command-line interface for vellum.
type CLI struct {
	// Global flags
	Config    string `name:"config" short:"c" help:"YAML config file (default: ./vellum.yaml or ~/.config/vellum/config.yaml)" type:"path"`
	EnvFile   string `name:"env-file" help:"dotenv file with VELLUM_* overrides" default:".env" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`

	Compile  CompileCmd  `cmd:"" help:"Compile DSL text to TEI/Menota XML"`
	Import   ImportCmd   `cmd:"" help:"Import an XML document into a round-trip session"`
	Flatten  FlattenCmd  `cmd:"" help:"Print the editable DSL text of a session"`
	Patch    PatchCmd    `cmd:"" help:"Apply edited DSL text to a session and write the document"`
	Validate ValidateCmd `cmd:"" help:"Check well-formedness and schema element names"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// app is bound into every command's Run method.
type app struct {
	cfg *config.AppConfig
	out io.Writer
}

// setup loads configuration and initializes logging from the global flags.
func (c *CLI) setup(stdout, stderr io.Writer) (*app, error) {
	if err := config.LoadEnvFile(c.EnvFile); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", c.EnvFile, err)
	}

	var cfg *config.AppConfig
	var err error
	if c.Config == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(c.Config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	logging.SetOutput(stderr)
	logging.InitLogger(level, format)

	return &app{cfg: cfg, out: stdout}, nil
}

// run parses args and executes the selected command.
func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("vellum"),
		kong.Description("Vellum - manuscript transcription compiler and round-trip editor"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	a, err := cli.setup(stdout, stderr)
	if err != nil {
		return err
	}
	return ctx.Run(a)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "vellum: %v\n", err)
		os.Exit(1)
	}
}
