package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	serveradapter "github.com/evanschultz/tackboard/internal/adapters/server"
	servercommon "github.com/evanschultz/tackboard/internal/adapters/server/common"
	"github.com/evanschultz/tackboard/internal/adapters/storage/sqlite"
	"github.com/evanschultz/tackboard/internal/app"
	"github.com/evanschultz/tackboard/internal/config"
	"github.com/evanschultz/tackboard/internal/domain"
	"github.com/evanschultz/tackboard/internal/drag"
	"github.com/evanschultz/tackboard/internal/platform"
	"github.com/evanschultz/tackboard/internal/tui"
)

// version is set at build time via ldflags.
var version = "dev"

// program is the subset of tea.Program the TUI flow needs.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program; tests swap it for a fake.
var programFactory = func(ctx context.Context, m tea.Model) program {
	return tea.NewProgram(m, tea.WithContext(ctx))
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

// configWatcher follows config file edits.
var configWatcher = config.Watch

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds persistent flag values shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	boardID    string
}

// run builds the command tree and executes args through fang.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// newRootCommand assembles tack and its subcommands.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("TACK_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultApp := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("TACK_APP_NAME")); envApp != "" {
		defaultApp = envApp
	}

	root := &cobra.Command{
		Use:   "tack",
		Short: "A terminal kanban board with drag-and-drop cards",
		Long: `tack opens a kanban board in the terminal. Long-press a card with the mouse and
drag it to another column or slot; dragging near the screen edges scrolls the board.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, stderr, "tui", func(ctx context.Context, env *runtimeEnv) error {
				return runTUI(ctx, env, opts.boardID)
			})
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", defaultApp, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	flags.StringVar(&opts.boardID, "board", "", "board id (defaults to the first active board)")

	root.AddCommand(
		newPathsCommand(opts, stdout),
		newServeCommand(opts, stderr),
		newMoveCommand(opts, stdout, stderr),
		newBoardCommand(opts, stdout, stderr),
	)
	return root
}

// newPathsCommand prints resolved config and data locations.
func newPathsCommand(opts *rootOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data, and log paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", resolveConfigPath(opts, paths))
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(stdout, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

// newServeCommand starts the HTTP and MCP surfaces.
func newServeCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, stderr, "serve", func(ctx context.Context, env *runtimeEnv) error {
				if strings.TrimSpace(bind) != "" {
					env.cfg.Server.Bind = bind
				}
				return runServe(ctx, env)
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (overrides server.bind)")
	return cmd
}

// newMoveCommand moves one card from the command line.
func newMoveCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		itemID  string
		groupID string
		order   int
	)
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move a card to a slot in a column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, stderr, "move", func(ctx context.Context, env *runtimeEnv) error {
				res, err := env.svc.MoveItem(ctx, domain.MoveCommand{ItemID: itemID, TargetGroupID: groupID, TargetOrder: order})
				if err != nil {
					return fmt.Errorf("move item %q: %w", itemID, err)
				}
				if !res.Applied {
					_, _ = fmt.Fprintf(stdout, "no card %s; nothing moved\n", itemID)
					return nil
				}
				_, _ = fmt.Fprintf(stdout, "moved %s to %s at %d (%d renumbered)\n", res.Item.ID, res.Item.GroupID, res.Item.Order, len(res.Changed))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&itemID, "item", "", "card id")
	cmd.Flags().StringVar(&groupID, "group", "", "destination column id")
	cmd.Flags().IntVar(&order, "order", 0, "destination slot index, counted before the move")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

// newBoardCommand prints one board's columns and cards.
func newBoardCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Print a board's columns and cards in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, stderr, "board", func(ctx context.Context, env *runtimeEnv) error {
				boardID := strings.TrimSpace(opts.boardID)
				if boardID == "" {
					board, err := env.svc.EnsureDefaultBoard(ctx)
					if err != nil {
						return fmt.Errorf("resolve default board: %w", err)
					}
					boardID = board.ID
				}
				state, err := env.svc.BoardState(ctx, boardID)
				if err != nil {
					return fmt.Errorf("load board %q: %w", boardID, err)
				}
				writeBoardText(stdout, state)
				return nil
			})
		},
	}
}

// runtimeEnv carries the resolved config, logger, and service for one command.
type runtimeEnv struct {
	cfg        config.Config
	configPath string
	logger     *runtimeLogger
	repo       *sqlite.Repository
	svc        *app.Service
}

// withRuntime resolves config and storage, runs fn, then closes everything it opened.
func withRuntime(ctx context.Context, opts *rootOptions, stderr io.Writer, command string, fn func(context.Context, *runtimeEnv) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
	if err != nil {
		return err
	}
	configPath := resolveConfigPath(opts, paths)
	dbPath, dbOverridden := resolveDBPath(opts, paths)

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// TUI owns the terminal; runtime logs go to the dev-file sink only.
		logger.SetConsoleEnabled(false)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.consoleActive() {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("sqlite close failed", "db_path", cfg.Database.Path, "err", closeErr)
		}
	}()
	logger.Debug("sqlite repository ready", "db_path", cfg.Database.Path)

	svc := app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{
		GroupTemplates:        groupTemplates(cfg.Board),
		AutoCreateBoardGroups: true,
	})

	logger.Info("command flow start", "command", command)
	if err := fn(ctx, &runtimeEnv{cfg: cfg, configPath: configPath, logger: logger, repo: repo, svc: svc}); err != nil {
		logger.Error("command flow failed", "command", command, "err", err)
		return err
	}
	logger.Info("command flow complete", "command", command)
	return nil
}

// runTUI runs the board program and streams [drag] config edits into it.
func runTUI(ctx context.Context, env *runtimeEnv, boardID string) error {
	ctx, cancel := context.WithCancel(ctx)
	watchDone := make(chan struct{})
	defer func() {
		cancel()
		<-watchDone
	}()

	updates := make(chan tui.RuntimeConfig, 1)
	go func() {
		defer close(watchDone)
		err := configWatcher(ctx, env.configPath, env.cfg, func(cfg config.Config) {
			env.logger.Info("config reloaded", "path", env.configPath)
			publishLatest(updates, toTUIRuntimeConfig(cfg.Drag))
		}, func(err error) {
			env.logger.Warn("config watch", "err", err)
		})
		if err != nil {
			env.logger.Warn("config watcher unavailable", "path", env.configPath, "err", err)
		}
	}()

	m := tui.NewModel(
		env.svc,
		tui.WithRuntimeConfig(toTUIRuntimeConfig(env.cfg.Drag)),
		tui.WithLogger(env.logger.primary()),
		tui.WithBoardID(boardID),
		tui.WithConfigUpdates(updates),
	)
	if _, err := programFactory(ctx, m).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui program: %w", err)
	}
	return nil
}

// runServe runs the HTTP+MCP server alongside a config watcher that applies logging.level edits.
func runServe(ctx context.Context, env *runtimeEnv) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serveCommandRunner(ctx, serveradapter.Config{
			Bind:    env.cfg.Server.Bind,
			APIPath: env.cfg.Server.APIEndpoint,
			MCPPath: env.cfg.Server.MCPEndpoint,
			Name:    "tackboard",
			Version: version,
		}, serveradapter.Dependencies{
			Boards: servercommon.NewAppServiceAdapter(env.svc),
			Ready:  env.repo.Ping,
			Logger: env.logger.primary(),
		})
	})
	g.Go(func() error {
		err := configWatcher(ctx, env.configPath, env.cfg, func(cfg config.Config) {
			if err := env.logger.SetLevel(cfg.Logging.Level); err != nil {
				env.logger.Warn("config reload ignored", "err", err)
				return
			}
			env.logger.Info("config reloaded", "path", env.configPath, "log_level", cfg.Logging.Level)
		}, func(err error) {
			env.logger.Warn("config watch", "err", err)
		})
		if err != nil {
			// The server keeps running without live reload.
			env.logger.Warn("config watcher unavailable", "path", env.configPath, "err", err)
		}
		return nil
	})
	return g.Wait()
}

// publishLatest replaces any unread value in ch with v.
func publishLatest(ch chan tui.RuntimeConfig, v tui.RuntimeConfig) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// toTUIRuntimeConfig maps the [drag] section onto TUI runtime settings.
func toTUIRuntimeConfig(d config.DragConfig) tui.RuntimeConfig {
	return tui.RuntimeConfig{
		Tuning: drag.Tuning{
			Padding:           d.Padding,
			MinDragDistance:   d.MinDragDistance,
			Cooldown:          d.Cooldown(),
			LeftEdge:          d.LeftEdge,
			RightEdge:         d.RightEdge,
			ColumnWidth:       d.ColumnWidth,
			CardWidth:         d.CardWidth,
			CardHalfHeight:    d.CardHalfHeight,
			AnimationDuration: d.Animation(),
			MeasureDelay:      d.MeasureDelay(),
			NotifyHz:          d.NotifyHz,
		},
		ArmDelay: d.ArmDelay(),
	}
}

// groupTemplates maps configured default groups onto service templates.
func groupTemplates(board config.BoardConfig) []app.GroupTemplate {
	out := make([]app.GroupTemplate, 0, len(board.Groups))
	for idx, group := range board.Groups {
		out = append(out, app.GroupTemplate{ID: group.ID, Title: group.Title, Order: idx})
	}
	return out
}

// writeBoardText prints columns and cards with their slot indexes.
func writeBoardText(w io.Writer, state app.BoardState) {
	_, _ = fmt.Fprintf(w, "%s (%s)\n", state.Board.Name, state.Board.ID)
	for _, group := range state.Groups {
		_, _ = fmt.Fprintf(w, "\n%s [%s] %d\n", group.Title, group.ID, len(group.Items))
		if len(group.Items) == 0 {
			_, _ = fmt.Fprintln(w, "  (empty)")
		}
		for _, item := range group.Items {
			_, _ = fmt.Fprintf(w, "  %d. %s [%s]\n", item.Order, item.Title, item.ID)
		}
	}
}

// resolveConfigPath applies --config, then TACK_CONFIG, then the platform default.
func resolveConfigPath(opts *rootOptions, paths platform.Paths) string {
	if path := strings.TrimSpace(opts.configPath); path != "" {
		return path
	}
	if envPath := strings.TrimSpace(os.Getenv("TACK_CONFIG")); envPath != "" {
		return envPath
	}
	return paths.ConfigPath
}

// resolveDBPath applies --db, then TACK_DB_PATH, then the platform default.
func resolveDBPath(opts *rootOptions, paths platform.Paths) (string, bool) {
	if path := strings.TrimSpace(opts.dbPath); path != "" {
		return path, true
	}
	if envPath := strings.TrimSpace(os.Getenv("TACK_DB_PATH")); envPath != "" {
		return envPath, true
	}
	return paths.DBPath, false
}

// parseBoolEnv reads one boolean environment variable.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
