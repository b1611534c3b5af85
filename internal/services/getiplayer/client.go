package getiplayer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"iplayercast/internal/catalog"
	"iplayercast/internal/config"
	"iplayercast/internal/logging"
	"iplayercast/internal/services"
)

const defaultModes = "best"

// ErrStart marks executor failures where the process never started.
var ErrStart = errors.New("start command")

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithClock overrides the clock used to stamp newly listed programmes.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a logger that receives tool output at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Timeouts bounds each kind of invocation. Zero disables the limit.
type Timeouts struct {
	Search   time.Duration
	Download time.Duration
	Refresh  time.Duration
}

// Client wraps get_iplayer CLI interactions.
type Client struct {
	binary   string
	modes    string
	timeouts Timeouts
	exec     Executor
	now      func() time.Time
	logger   *slog.Logger
}

// New constructs a get_iplayer client.
func New(binary, modes string, timeouts Timeouts, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("get_iplayer binary required")
	}
	modes = strings.TrimSpace(modes)
	if modes == "" {
		modes = defaultModes
	}
	client := &Client{
		binary:   binary,
		modes:    modes,
		timeouts: timeouts,
		exec:     commandExecutor{},
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig builds a client from the fetch section of cfg.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	return New(cfg.Fetch.Binary, cfg.Fetch.Modes, Timeouts{
		Search:   cfg.SearchTimeout(),
		Download: cfg.DownloadTimeout(),
		Refresh:  cfg.RefreshTimeout(),
	}, opts...)
}

// Binary returns the configured executable.
func (c *Client) Binary() string {
	return c.binary
}

// Refresh updates the tool's programme cache.
func (c *Client) Refresh(ctx context.Context) error {
	args := []string{"--type=all", "--quiet"}
	return c.run(ctx, "refresh", c.timeouts.Refresh, args, c.debugLine)
}

// Search lists programmes matching term. Results are pending, carry no
// filename and are stamped with the client clock.
func (c *Client) Search(ctx context.Context, term string) ([]catalog.Programme, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, services.Wrap(services.ErrConfiguration, "search", "validate", "empty search term", nil)
	}
	args := []string{
		"--type=all",
		"--nocopyright",
		"--listformat=" + listFormat,
		term,
	}
	var lines []string
	if err := c.run(ctx, "search", c.timeouts.Search, args, func(line string) {
		lines = append(lines, line)
	}); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "search", "parse", fmt.Sprintf("no output for %q", term), nil)
	}
	if !recognisedOutput(lines) {
		logging.WarnWithContext(c.logger, "get_iplayer output carried no listing lines", "search_output_unrecognised",
			logging.String("term", term),
			logging.Int("lines", len(lines)),
			logging.String("first_line", lines[0]),
			logging.String(logging.FieldErrorHint, "check that the installed get_iplayer honours --listformat"),
			logging.String(logging.FieldImpact, "search treated as returning no programmes"),
		)
	}
	return parseListing(lines, c.now()), nil
}

// Download fetches pid into stagingDir using pid as the file prefix. When tag
// is false the tool is told not to write media metadata.
func (c *Client) Download(ctx context.Context, pid, stagingDir string, tag bool) error {
	pid = strings.TrimSpace(pid)
	if pid == "" {
		return errors.New("pid required")
	}
	if strings.TrimSpace(stagingDir) == "" {
		return errors.New("staging directory required")
	}
	args := []string{
		"--output=" + strings.TrimRight(stagingDir, "/") + "/",
		"--file-prefix=" + pid,
		"--type=all",
		"--pid=" + pid,
		"--force",
		"--modes=" + c.modes,
		"--quiet",
	}
	if !tag {
		args = append(args, "--no-tag")
	}
	return c.run(ctx, "download", c.timeouts.Download, args, c.debugLine)
}

func (c *Client) debugLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	c.logger.Debug("get_iplayer output", logging.String("line", line))
}

func (c *Client) run(ctx context.Context, operation string, timeout time.Duration, args []string, onStdout func(string)) error {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	err := c.exec.Run(runCtx, c.binary, args, onStdout)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	switch {
	case errors.Is(err, ErrStart):
		return services.Wrap(services.ErrToolUnavailable, operation, "start", c.binary, err)
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrExternalTool, operation, "run",
			fmt.Sprintf("%s exceeded %s", c.binary, timeout),
			fmt.Errorf("%w: %w", services.ErrTimeout, err))
	default:
		return services.Wrap(services.ErrExternalTool, operation, "run", c.binary, err)
	}
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %w", ErrStart, err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
				// Nothing drains the pipe from here on, so the child would block.
				_ = cmd.Process.Kill()
			})
		}
	}

	// Listing output arrives on stdout; stderr only carries diagnostics.
	forwardStdout := func(line string) {
		if onStdout == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onStdout(line)
	}
	var stderrTail []string
	forwardStderr := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		if strings.TrimSpace(line) == "" {
			return
		}
		stderrTail = append(stderrTail, line)
		if len(stderrTail) > 5 {
			stderrTail = stderrTail[1:]
		}
	}

	wg.Add(2)
	go scan(stdout, forwardStdout)
	go scan(stderr, forwardStderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		if len(stderrTail) > 0 {
			return fmt.Errorf("wait command: %w (%s)", err, strings.Join(stderrTail, "; "))
		}
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
