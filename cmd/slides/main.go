// poncho-slides: генерация, просмотр и экспорт презентаций.
//
// Использование:
//
//	slides [flags] view <deck.json|deck.yaml>
//	slides [flags] generate <topic...>
//	slides [flags] template <name> <topic...>
//	slides [flags] export <deck.json|deck.yaml>
//	slides [flags] exports
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ilkoid/poncho-slides/pkg/app"
	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// cliFlags — общие флаги всех подкоманд.
type cliFlags struct {
	configPath string
	template   string
	out        string
	format     string
	remote     string
	theme      string
	model      string
	fullscreen bool
	view       bool
	debug      bool
}

var errUsage = errors.New("usage")

func main() {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to config.yaml")
	flag.StringVar(&f.template, "template", "", "Preferred template for generate (business, education, product_launch)")
	flag.StringVar(&f.out, "out", "", "Write the generated deck JSON to this file instead of stdout")
	flag.StringVar(&f.format, "format", "pdf", "Export format: pdf or txt")
	flag.StringVar(&f.remote, "remote", "", "Remote control address, e.g. :8090 (overrides remote.addr)")
	flag.StringVar(&f.theme, "theme", "", "Override the deck theme in the viewer")
	flag.StringVar(&f.model, "model", "", "Model definition for generate (overrides models.default_chat)")
	flag.BoolVar(&f.fullscreen, "fullscreen", false, "Start the viewer in fullscreen (alternate screen)")
	flag.BoolVar(&f.view, "view", false, "Open the viewer after generate/template")
	flag.BoolVar(&f.debug, "debug", false, "Verbose logging")
	flag.Usage = usage
	flag.Parse()

	if err := run(f, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			usage()
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: slides [flags] <command> [args]

Commands:
  view <deck>               Show a deck (JSON or YAML) in the terminal viewer
  generate <topic...>       Generate a deck with the configured LLM
  template <name> <topic>   Expand a built-in template for a topic
  export <deck>             Export a deck to PDF (or -format txt)
  exports                   List exports uploaded to S3

Flags:
`)
	flag.PrintDefaults()
}

func run(f cliFlags, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	// 1. Конфигурация
	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: f.configPath})
	if err != nil {
		return err
	}
	if f.debug {
		cfg.App.Debug = true
	}
	if f.remote != "" {
		cfg.Remote.Addr = f.remote
	}
	if f.theme != "" {
		if !deck.Theme(f.theme).Valid() {
			return fmt.Errorf("unknown theme '%s' (known: %v)", f.theme, deck.Themes())
		}
		cfg.Viewer.Theme = f.theme
	}
	if f.fullscreen {
		cfg.Viewer.AltScreen = true
	}
	if f.model != "" {
		if _, ok := cfg.GetChatModel(f.model); !ok {
			return fmt.Errorf("unknown model '%s' (defined: %s)", f.model, strings.Join(cfg.ModelNames(), ", "))
		}
		cfg.Models.DefaultChat = f.model
	}

	// 2. Логгер: TUI занимает stdout, поэтому всё в файл
	if err := utils.InitLoggerIn(cfg.App.LogDir); err != nil {
		log.Printf("Warning: failed to init logger: %v", err)
	}
	utils.SetDebug(cfg.App.Debug)

	ctx, shutdown := utils.SetupGracefulShutdownWithContext()
	defer shutdown()

	if cfgPath == "" {
		utils.Info("No config file found, using defaults")
	} else {
		utils.Info("Config loaded", "path", cfgPath)
	}

	// 3. Компоненты
	comps, err := app.Initialize(cfg)
	if err != nil {
		return err
	}
	defer comps.Close()

	cmd, rest := args[0], args[1:]
	utils.Info("Command started", "command", cmd, "args", strings.Join(rest, " "))

	switch cmd {
	case "view":
		if len(rest) != 1 {
			return errUsage
		}
		return cmdView(ctx, comps, rest[0])
	case "generate":
		if len(rest) == 0 {
			return errUsage
		}
		return cmdGenerate(ctx, comps, f, strings.Join(rest, " "))
	case "template":
		if len(rest) < 2 {
			return errUsage
		}
		return cmdTemplate(ctx, comps, f, rest[0], strings.Join(rest[1:], " "))
	case "export":
		if len(rest) != 1 {
			return errUsage
		}
		return cmdExport(ctx, comps, f.format, rest[0])
	case "exports":
		return cmdExports(ctx, comps)
	default:
		return fmt.Errorf("%w: unknown command '%s'", errUsage, cmd)
	}
}

