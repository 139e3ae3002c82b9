package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/hylla/fomo/internal/adapters/remote"
	"github.com/hylla/fomo/internal/adapters/storage/sqlite"
	"github.com/hylla/fomo/internal/app"
	"github.com/hylla/fomo/internal/config"
	"github.com/hylla/fomo/internal/domain"
	"github.com/hylla/fomo/internal/platform"
	"github.com/hylla/fomo/internal/tui"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

type program interface {
	Run() (tea.Model, error)
}

var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// cliState holds the persistent flag values shared by every command.
type cliState struct {
	configPath string
	serverURL  string
	cachePath  string
	appName    string
	devMode    bool
	stdout     io.Writer
	stderr     io.Writer
}

// run builds the command tree and executes it through fang.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCmd(&cliState{stdout: stdout, stderr: stderr})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

func newRootCmd(state *cliState) *cobra.Command {
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("FOMO_DEV_MODE"); ok {
		defaultDevMode = envDev
	}

	cmd := &cobra.Command{
		Use:          "fomo",
		Short:        "Terminal board client with drag-and-drop reordering",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		Example: strings.TrimSpace(`
  # Open the board
  fomo --server http://localhost:8000

  # Print the board as markdown
  fomo board --markdown

  # Move task 42 to the top of group 7
  fomo move --task 42 --group 7 --position 1
`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), state)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&state.configPath, "config", "", "path to config TOML")
	flags.StringVar(&state.serverURL, "server", "", "board server base url")
	flags.StringVar(&state.cachePath, "cache", "", "path to the sqlite cache")
	flags.StringVar(&state.appName, "app", envOr("FOMO_APP_NAME", platform.DefaultAppName), "application name for config/data path resolution")
	flags.BoolVar(&state.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	cmd.AddCommand(newPathsCmd(state))
	cmd.AddCommand(newBoardCmd(state))
	cmd.AddCommand(newMoveCmd(state))
	cmd.AddCommand(newReorderGroupCmd(state))
	cmd.AddCommand(newLogCmd(state))
	return cmd
}

func newPathsCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved config and cache paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := state.paths()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(state.stdout, "app: %s\n", state.appName)
			_, _ = fmt.Fprintf(state.stdout, "dev_mode: %t\n", state.devMode)
			_, _ = fmt.Fprintf(state.stdout, "config: %s\n", state.resolveConfigPath(paths))
			_, _ = fmt.Fprintf(state.stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(state.stdout, "cache: %s\n", state.resolveCachePath(paths))
			return nil
		},
	}
}

func newBoardCmd(state *cliState) *cobra.Command {
	var (
		asMarkdown bool
		asJSON     bool
		offline    bool
		style      string
	)
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Load and print the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asMarkdown && asJSON {
				return errors.New("--markdown and --json are mutually exclusive")
			}
			return state.withRuntime(cmd.Context(), "board", func(ctx context.Context, rt *runtime) error {
				snap, err := rt.svc.ExportSnapshot(ctx, offline)
				if err != nil {
					return err
				}
				switch {
				case asJSON:
					encoded, err := json.MarshalIndent(snap, "", "  ")
					if err != nil {
						return fmt.Errorf("encode snapshot json: %w", err)
					}
					_, err = fmt.Fprintln(state.stdout, string(encoded))
					return err
				case asMarkdown:
					out, err := glamour.Render(app.BoardMarkdown(snap.Board()), style)
					if err != nil {
						return fmt.Errorf("render board markdown: %w", err)
					}
					_, err = io.WriteString(state.stdout, out)
					return err
				default:
					return writeBoardText(state.stdout, snap.Board())
				}
			})
		},
	}
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "render the board as markdown")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the board snapshot as json")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the cached board instead of the server")
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style for --markdown (dark, light, notty)")
	return cmd
}

func newMoveCmd(state *cliState) *cobra.Command {
	var (
		taskID   string
		groupID  string
		position int
	)
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move one task to a group at a 1-based position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(taskID) == "" {
				return errors.New("--task is required")
			}
			return state.withRuntime(cmd.Context(), "move", func(ctx context.Context, rt *runtime) error {
				counts, err := rt.svc.MoveTask(ctx, strings.TrimSpace(taskID), strings.TrimSpace(groupID), position)
				if err != nil {
					return fmt.Errorf("move task %s: %w", taskID, err)
				}
				_, _ = fmt.Fprintf(state.stdout, "moved task %s to %s at %d\n", taskID, containerLabel(groupID), position)
				writeCounts(state.stdout, counts)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "task id")
	cmd.Flags().StringVar(&groupID, "group", "", "destination group id (empty for the inbox)")
	cmd.Flags().IntVar(&position, "position", 1, "1-based position in the destination")
	return cmd
}

func newReorderGroupCmd(state *cliState) *cobra.Command {
	var (
		groupID string
		order   int
	)
	cmd := &cobra.Command{
		Use:   "reorder-group",
		Short: "Move one group to a 1-based order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(groupID) == "" {
				return errors.New("--group is required")
			}
			return state.withRuntime(cmd.Context(), "reorder-group", func(ctx context.Context, rt *runtime) error {
				counts, err := rt.svc.ReorderGroup(ctx, strings.TrimSpace(groupID), order)
				if err != nil {
					return fmt.Errorf("reorder group %s: %w", groupID, err)
				}
				_, _ = fmt.Fprintf(state.stdout, "moved group %s to %d\n", groupID, order)
				writeCounts(state.stdout, counts)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "", "group id")
	cmd.Flags().IntVar(&order, "order", 1, "1-based group order")
	return cmd
}

func newLogCmd(state *cliState) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the local move journal, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return state.withRuntime(cmd.Context(), "log", func(ctx context.Context, rt *runtime) error {
				events, err := rt.svc.MoveEvents(ctx, limit)
				if err != nil {
					return fmt.Errorf("list move events: %w", err)
				}
				if len(events) == 0 {
					_, _ = fmt.Fprintln(state.stdout, "no moves recorded")
					return nil
				}
				for _, event := range events {
					writeMoveEvent(state.stdout, event)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows (0 for all)")
	return cmd
}

// runtime is the wired service stack for one command invocation.
type runtime struct {
	cfg    config.Config
	logger *runtimeLogger
	svc    *app.Service
	close  func()
}

func (s *cliState) paths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: s.appName,
		DevMode: s.devMode,
	})
}

func (s *cliState) resolveConfigPath(paths platform.Paths) string {
	if path := strings.TrimSpace(s.configPath); path != "" {
		return path
	}
	return envOr("FOMO_CONFIG", paths.ConfigPath)
}

func (s *cliState) resolveCachePath(paths platform.Paths) string {
	if path := strings.TrimSpace(s.cachePath); path != "" {
		return path
	}
	return envOr("FOMO_CACHE_PATH", paths.CachePath)
}

// withRuntime opens the runtime for one command and logs its start and outcome.
func (s *cliState) withRuntime(ctx context.Context, command string, fn func(context.Context, *runtime) error) error {
	rt, err := s.open(command)
	if err != nil {
		return err
	}
	defer rt.close()
	rt.logger.Info("command flow start", "command", command)
	if err := fn(ctx, rt); err != nil {
		rt.logger.Error("command flow failed", "command", command, "err", err)
		return err
	}
	rt.logger.Info("command flow complete", "command", command)
	return nil
}

// open resolves config, logging, the remote client, and the optional cache.
func (s *cliState) open(command string) (*runtime, error) {
	paths, err := s.paths()
	if err != nil {
		return nil, err
	}
	configPath := s.resolveConfigPath(paths)
	cachePath := s.resolveCachePath(paths)

	cfg, err := config.Load(configPath, config.Default(cachePath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if server := strings.TrimSpace(envOr("FOMO_SERVER", "")); server != "" {
		cfg.Server.BaseURL = server
	}
	if server := strings.TrimSpace(s.serverURL); server != "" {
		cfg.Server.BaseURL = server
	}
	if strings.TrimSpace(s.cachePath) != "" || strings.TrimSpace(os.Getenv("FOMO_CACHE_PATH")) != "" {
		cfg.Cache.Path = cachePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	timeout, err := cfg.ServerTimeout()
	if err != nil {
		return nil, err
	}

	logger, err := newRuntimeLogger(s.stderr, s.appName, s.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// The board owns the terminal; runtime logs go to the dev file only.
		logger.SetConsoleEnabled(false)
	}
	closers := []func(){func() {
		if closeErr := logger.Close(); closeErr != nil && logger.shouldLogToSink(logger.consoleSink) {
			_, _ = fmt.Fprintf(s.stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	logger.Info("startup configuration resolved", "app", s.appName, "dev_mode", s.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "cache_path", cfg.Cache.Path)
	logger.Info("configuration loaded", "server", cfg.Server.BaseURL, "cache_enabled", cfg.Cache.Enabled, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	client, err := remote.New(remote.Config{
		BaseURL:   cfg.Server.BaseURL,
		BoardPath: cfg.Server.BoardPath,
		UserAgent: cfg.Server.UserAgent,
		Timeout:   timeout,
		Logger:    logger,
	})
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("configure remote client: %w", err)
	}

	var repo app.Repository
	if cfg.Cache.Enabled {
		logger.Info("opening sqlite cache", "cache_path", cfg.Cache.Path)
		sqliteRepo, err := sqlite.Open(cfg.Cache.Path)
		if err != nil {
			logger.Error("sqlite open failed", "cache_path", cfg.Cache.Path, "err", err)
			closeAll()
			return nil, fmt.Errorf("open sqlite cache: %w", err)
		}
		closers = append(closers, func() {
			if closeErr := sqliteRepo.Close(); closeErr != nil {
				logger.Warn("sqlite close failed", "cache_path", cfg.Cache.Path, "err", closeErr)
			}
		})
		repo = sqliteRepo
	}

	svc := app.NewService(client, repo, uuid.NewString, time.Now, app.ServiceConfig{Logger: logger})
	logger.Debug("application service initialized", "source", svc.Source())
	return &runtime{cfg: cfg, logger: logger, svc: svc, close: closeAll}, nil
}

func runTUI(ctx context.Context, state *cliState) error {
	return state.withRuntime(ctx, "tui", func(_ context.Context, rt *runtime) error {
		m := tui.NewModel(
			rt.svc,
			tui.WithBoardConfig(tui.BoardConfig{
				ShowDetail:   rt.cfg.Board.ShowDetail,
				DimCompleted: rt.cfg.Board.DimCompleted,
			}),
			tui.WithLogger(rt.logger),
			tui.WithSource(rt.svc.Source()),
		)
		rt.logger.Info("starting tui program loop")
		if _, err := programFactory(m).Run(); err != nil {
			return fmt.Errorf("run tui program: %w", err)
		}
		return nil
	})
}

func writeBoardText(w io.Writer, board domain.Board) error {
	write := func(name string, count int, tasks []domain.Task) {
		_, _ = fmt.Fprintf(w, "%s (%d)\n", name, count)
		for i, task := range tasks {
			mark := " "
			if task.Completed {
				mark = "x"
			}
			_, _ = fmt.Fprintf(w, "  %d. [%s] %s  #%s\n", i+1, mark, task.Title, task.ID)
		}
	}
	write("Inbox", board.InboxCount, board.TasksForGroup(domain.InboxID))
	for _, group := range board.SortedGroups() {
		write(group.Name+"  #"+group.ID, group.TaskCount, board.TasksForGroup(group.ID))
	}
	return nil
}

func writeCounts(w io.Writer, counts *domain.Counts) {
	if counts == nil {
		return
	}
	if counts.HasInbox {
		_, _ = fmt.Fprintf(w, "inbox: %d\n", counts.Inbox)
	}
	for id, n := range counts.Groups {
		_, _ = fmt.Fprintf(w, "group %s: %d\n", id, n)
	}
}

func writeMoveEvent(w io.Writer, event domain.MoveEvent) {
	line := fmt.Sprintf("%s  %-5s %s  %s -> %s @%d  %s",
		event.At.Format(time.RFC3339),
		event.Kind,
		event.ItemID,
		containerLabel(event.FromContainer),
		containerLabel(event.ToContainer),
		event.Position,
		event.Outcome,
	)
	if event.Reason != "" {
		line += " (" + event.Reason + ")"
	}
	_, _ = fmt.Fprintln(w, line)
}

func containerLabel(id string) string {
	if strings.TrimSpace(id) == "" {
		return "inbox"
	}
	return id
}

func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

// parseBoolEnv parses input into a normalized form.
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
