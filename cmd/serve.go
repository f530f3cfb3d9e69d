package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/theirongolddev/allot/internal/cli"
	"github.com/theirongolddev/allot/internal/config"
	"github.com/theirongolddev/allot/internal/daemon"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// serveState is written next to the history database while `allot serve`
// runs, so that status and stop can find it.
type serveState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	Budget    string    `json:"budget"`
	StartedAt time.Time `json:"started_at"`
}

var (
	flagServeAddr         string
	flagServeInterval     time.Duration
	flagServeEventsBuffer int
	flagServeStateFile    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the budget projection over HTTP/SSE, following file changes",
	Long: "Polls the budget document and serves /healthz, /v1/status, /v1/projection,\n" +
		"/v1/events and /v1/stream. Edits made by other allot commands or by hand show\n" +
		"up as events and, with history on, as revisions.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the served budget and its over-budget state",
	Args:  cobra.NoArgs,
	RunE:  runServeStatus,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running server",
	Args:  cobra.NoArgs,
	RunE:  runServeStop,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.PersistentFlags().DurationVar(&flagServeInterval, "interval", 0, "Polling interval (default from config)")
	serveCmd.PersistentFlags().StringVar(&flagServeStateFile, "state-file", "", "Runtime state file (default in the data dir)")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	serveCmd.AddCommand(serveStatusCmd, serveStopCmd)
	rootCmd.AddCommand(serveCmd)
}

// serveAddr resolves --addr against the [serve] config section.
func serveAddr() string {
	if flagServeAddr != "" {
		return flagServeAddr
	}
	if cfg.Serve.Addr != "" {
		return cfg.Serve.Addr
	}
	return config.DefaultConfig().Serve.Addr
}

func serveInterval() time.Duration {
	if flagServeInterval > 0 {
		return flagServeInterval
	}
	if cfg.Serve.IntervalSec > 0 {
		return time.Duration(cfg.Serve.IntervalSec) * time.Second
	}
	return time.Duration(config.DefaultConfig().Serve.IntervalSec) * time.Second
}

func serveStatePath() string {
	if flagServeStateFile != "" {
		return flagServeStateFile
	}
	return filepath.Join(config.DataDir(), "serve.json")
}

func runServe(_ *cobra.Command, _ []string) error {
	statePath := serveStatePath()
	if st, err := readServeState(statePath); err == nil {
		if processAlive(st.PID) {
			return fmt.Errorf("already serving %s at http://%s (pid %d)", st.Budget, st.Addr, st.PID)
		}
		log.Debug().Int("pid", st.PID).Msg("removing stale serve state")
	}

	st := serveState{PID: os.Getpid(), Addr: serveAddr(), Budget: budgetPath(), StartedAt: time.Now()}
	if err := writeServeState(statePath, st); err != nil {
		return err
	}
	defer func() { _ = os.Remove(statePath) }()

	h, err := openHistory()
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable")
	}
	if h != nil {
		defer func() { _ = h.Close() }()
	}

	interval := serveInterval()
	svc := daemon.New(daemon.Config{
		BudgetPath:   st.Budget,
		Interval:     interval,
		Addr:         st.Addr,
		EventsBuffer: flagServeEventsBuffer,
		History:      h,
	})

	fmt.Printf("  Serving %s on http://%s (every %s)\n", st.Budget, st.Addr, interval)
	fmt.Println("  Stop with Ctrl+C or `allot serve stop`.")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(cmd *cobra.Command, _ []string) error {
	st, err := readServeState(serveStatePath())
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Println("  Not serving.")
		return nil
	}
	if err != nil {
		return err
	}
	if !processAlive(st.PID) {
		_ = os.Remove(serveStatePath())
		fmt.Printf("  Not serving (stale state for pid %d removed).\n", st.PID)
		return nil
	}

	status, err := fetchStatus(cmd.Context(), st.Addr)
	if err != nil {
		fmt.Printf("  pid %d is running but http://%s is unreachable: %v\n", st.PID, st.Addr, err)
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SERVING  %s", status.BudgetPath)))
	fmt.Println()
	fmt.Print(cli.RenderTable(statusTable(status, time.Now())))
	return nil
}

func fetchStatus(ctx context.Context, addr string) (daemon.Status, error) {
	var st daemon.Status
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	err = json.NewDecoder(resp.Body).Decode(&st)
	return st, err
}

// statusTable lays the served budget out the way `allot show` summarizes it,
// followed by the poller's health.
func statusTable(st daemon.Status, now time.Time) cli.Table {
	s := st.Summary
	t := cli.Table{Headers: []string{"Budget", "Value"}}
	add := func(k, v string) { t.Rows = append(t.Rows, []string{k, v}) }

	add("Mode", s.Mode)
	add("Grand total", cli.FormatAmount(s.GrandTotal))
	add("Subtotal", cli.FormatAmount(s.Subtotal))
	if !s.ComputedGrandTotal.Equal(s.GrandTotal) {
		add("Computed total", cli.FormatAmount(s.ComputedGrandTotal)+" ("+cli.FormatDelta(s.ComputedGrandTotal, s.GrandTotal)+")")
	}
	add("Locked", cli.FormatAmount(s.LockedAmount))
	add("Remaining", cli.FormatAmount(s.RemainingAmount))
	add("Categories / fees", strconv.Itoa(s.Categories)+" / "+strconv.Itoa(s.Fees))
	if s.OverBudget {
		add("Over budget", "short by "+cli.FormatAmount(s.Shortfall))
	} else {
		add("Over budget", "no")
	}

	t.Rows = append(t.Rows, []string{"---"})
	add("Uptime", cli.FormatDuration(int64(now.Sub(st.StartedAt).Seconds())))
	add("Polls", strconv.FormatInt(st.PollCount, 10)+" every "+strconv.Itoa(st.PollIntervalSec)+"s")
	if st.LastChangeAt.IsZero() {
		add("Last change", "none yet")
	} else {
		add("Last change", cli.FormatDuration(int64(now.Sub(st.LastChangeAt).Seconds()))+" ago")
	}
	add("Subscribers", strconv.Itoa(st.SubscriberCount))
	if st.LastError != "" {
		add("Last error", st.LastError)
	}
	return t
}

func runServeStop(_ *cobra.Command, _ []string) error {
	path := serveStatePath()
	st, err := readServeState(path)
	if err != nil || !processAlive(st.PID) {
		_ = os.Remove(path)
		return errors.New("not serving")
	}

	proc, err := os.FindProcess(st.PID)
	if err != nil {
		return fmt.Errorf("find server process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal server process: %w", err)
	}
	for deadline := time.Now().Add(8 * time.Second); time.Now().Before(deadline); time.Sleep(150 * time.Millisecond) {
		if !processAlive(st.PID) {
			_ = os.Remove(path)
			fmt.Printf("  Stopped serving %s (pid %d)\n", st.Budget, st.PID)
			return nil
		}
	}
	return fmt.Errorf("server (pid %d) did not exit in time", st.PID)
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func writeServeState(path string, st serveState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readServeState(path string) (serveState, error) {
	var st serveState
	data, err := os.ReadFile(path) //nolint:gosec // state path is configured by the local user
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}
