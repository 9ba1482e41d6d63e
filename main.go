// ABOUTME: Entry point for the crmgrid CLI, TUI, web UI and MCP server
// ABOUTME: Loads config, opens the database and preferences, then routes the command
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/harperreed/crmgrid/applog"
	"github.com/harperreed/crmgrid/charm"
	"github.com/harperreed/crmgrid/cli"
	"github.com/harperreed/crmgrid/config"
	"github.com/harperreed/crmgrid/db"
	"github.com/harperreed/crmgrid/prefs"
)

const version = "0.2.0"

type commandFunc func(ctx context.Context, app *cli.App, args []string) error

var commands = map[string]commandFunc{
	"list":    cli.ListCommand,
	"add":     cli.AddCommand,
	"update":  cli.UpdateCommand,
	"delete":  cli.DeleteCommand,
	"action":  cli.ActionCommand,
	"export":  cli.ExportCommand,
	"import":  cli.ImportCommand,
	"columns": cli.ColumnsCommand,
	"views":   cli.ViewsCommand,
	"config":  cli.ConfigCommand,
	"sync":    cli.SyncCommand,
	"viz":     cli.VizCommand,
	"web":     cli.WebCommand,
	"tui": func(ctx context.Context, app *cli.App, _ []string) error {
		return cli.TUICommand(ctx, app)
	},
	"mcp": func(ctx context.Context, app *cli.App, _ []string) error {
		return cli.MCPCommand(ctx, app)
	},
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/crmgrid/config.json)")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/crmgrid/crmgrid.db)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("crmgrid version %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	logger := applog.Stderr(cfg.LogLevel)
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		os.Exit(0)
	}

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", "path", cfg.DBPath, "err", err)
	}
	defer func() { _ = database.Close() }()

	if *initOnly {
		logger.Info("database initialized", "path", cfg.DBPath)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command, commandArgs := args[0], args[1:]
	charmClient, store := openPrefs(cfg, logger)

	if command == "charm" {
		if charmClient == nil {
			logger.Fatal("charm is not available")
		}
		if err := charm.Command(charmClient, commandArgs, os.Stdout); err != nil {
			logger.Fatal("charm command failed", "err", err)
		}
		return
	}

	run, ok := commands[command]
	if !ok {
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	app := &cli.App{
		Client:     db.NewClient(database, cfg.Owner),
		Prefs:      store,
		Config:     cfg,
		ConfigPath: *configPath,
		Logger:     logger,
		Out:        os.Stdout,
		In:         os.Stdin,
	}
	if err := run(ctx, app, commandArgs); err != nil {
		logger.Error(err.Error(), "command", command)
		stop()
		_ = database.Close()
		os.Exit(1)
	}
}

// openPrefs opens the Charm KV store. When it cannot be reached, preferences
// fall back to process memory and last only for this run.
func openPrefs(cfg config.Config, logger *log.Logger) (*charm.Client, prefs.Store) {
	client, err := charm.Open(charm.Config{Host: cfg.CharmHost, AutoSync: cfg.AutoSync})
	if err != nil {
		logger.Warn("preferences will not persist", "err", err)
		return nil, prefs.NewMemory()
	}
	return client, prefs.NewKVStore(client)
}

func printUsage() {
	fmt.Printf(`crmgrid v%s - CRM list views for the terminal, the browser and agents

USAGE:
  crmgrid [global flags] <command> [args] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/crmgrid/config.json)
  --db-path <path>       Database path (default: ~/.local/share/crmgrid/crmgrid.db)
  --init                 Initialize database and exit

MODULES:
  meetings, contacts, leads, accounts, deals, tasks

RECORD COMMANDS:
  crmgrid list <module>           List one page
    --query <text>                  Free-text search
    --filter key=value              Filter (repeatable), e.g. status=new
    --from/--to <YYYY-MM-DD>        Date range
    --sort <column> [--desc]        Sort
    --page <n> --size <n>           Paging (sizes 10, 25, 50, 100)
    --view <id>                     Start from a saved view

  crmgrid add <module> key=value...        Create a record
  crmgrid update <module> <id> key=value.. Update fields of a record
  crmgrid delete <module> [--yes] [--linked] <id>...
                                           Delete records (--linked: lead notifications and tasks)
  crmgrid action <module> <id> [action] [key=value...]
                                           List or run row actions, e.g. convert_deal

DATA:
  crmgrid export <module> [--output file] [--query] [--filter] [--sort]
  crmgrid import <module> <file.csv>

PREFERENCES:
  crmgrid columns <module> [show|toggle <field>|move <field> <delta>|reset]
  crmgrid views <module> [list|save <name> key=value...|delete <id>]
  crmgrid charm [status|sync|wipe --confirm]
  crmgrid config [show|path|get <key>|set <key> <value>]

GOOGLE SYNC:
  crmgrid sync init                 Authenticate with Google
  crmgrid sync calendar [--initial] Import calendar events as meetings
  crmgrid sync contacts             Import Google contacts
  crmgrid sync status               Show sync state

SURFACES:
  crmgrid tui                       Terminal UI
  crmgrid web [--port 8080]         Web UI
  crmgrid mcp                       MCP server on stdio (for Claude Desktop)

VISUALIZATION:
  crmgrid viz dashboard
  crmgrid viz graph <pipeline|accounts|contact <id>> [--format dot|svg] [--output file]

EXAMPLES:
  crmgrid list leads --filter status=new --filter owner=sam --sort lead_name
  crmgrid add tasks title="Call Ada" priority=high
  crmgrid action leads <id> convert_deal amount=12000
  crmgrid export contacts --output contacts.csv

`, version)
}
