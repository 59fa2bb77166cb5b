// Package console is an interactive terminal host for the control core.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Versifine/laneshift/internal/input"
	"github.com/Versifine/laneshift/internal/loop"
	"github.com/Versifine/laneshift/internal/motion"
	"golang.org/x/term"
)

const (
	defaultRefreshInterval = 50 * time.Millisecond
	trackWidth             = 25

	mouseOn  = "\x1b[?1002h\x1b[?1006h"
	mouseOff = "\x1b[?1002l\x1b[?1006l"
)

type Options struct {
	// RefreshInterval paces pulse expiry and the status line.
	RefreshInterval time.Duration
	In              io.Reader
	Out             io.Writer
	Logger          *slog.Logger
}

type Console struct {
	runner   *loop.Runner
	source   *input.Source
	terminal *Terminal
	in       io.Reader
	out      io.Writer
	refresh  time.Duration
	log      *slog.Logger

	mu          sync.Mutex
	commandMode bool
	commandBuf  []rune
	statusWidth int
	fps         fpsMeter
	stop        context.CancelFunc
}

func NewConsole(runner *loop.Runner, source *input.Source, terminal *Terminal, opts Options) *Console {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = defaultRefreshInterval
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Console{
		runner:   runner,
		source:   source,
		terminal: terminal,
		in:       opts.In,
		out:      opts.Out,
		refresh:  opts.RefreshInterval,
		log:      opts.Logger.With("component", "console"),
	}
}

// Start runs the console until ctx is cancelled, :quit or Ctrl-C. When In is
// a terminal it is switched to raw mode and mouse reporting is enabled.
func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return errors.New("console is nil")
	}
	if c.runner == nil {
		return errors.New("console runner is nil")
	}
	if c.source == nil {
		return errors.New("console input source is nil")
	}
	if c.terminal == nil {
		return errors.New("console terminal is nil")
	}

	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("set terminal raw mode: %w", err)
		}
		fmt.Fprint(c.out, mouseOn)
		defer func() {
			fmt.Fprint(c.out, mouseOff)
			_ = term.Restore(fd, oldState)
			fmt.Fprint(c.out, "\r\n")
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.stop = cancel
	c.mu.Unlock()

	fmt.Fprint(c.out, "[console] started (A/D or arrows pulse, mouse drag, : commands, Ctrl-C quits)\r\n")
	c.renderStatusLine()

	runDone := make(chan error, 1)
	go func() { runDone <- c.runner.Run(ctx) }()
	go c.refreshLoop(ctx)

	// A blocked read cannot be interrupted, so it runs on its own goroutine
	// and Start returns as soon as ctx is done.
	tokens := make(chan token)
	readErr := make(chan error, 1)
	go c.readLoop(ctx, bufio.NewReader(c.in), tokens, readErr)

	for {
		select {
		case <-ctx.Done():
			<-runDone
			return nil
		case tok := <-tokens:
			c.handleToken(tok, time.Now())
		case err := <-readErr:
			stopped := ctx.Err() != nil
			cancel()
			<-runDone
			if stopped || errors.Is(err, io.EOF) {
				return nil
			}
			c.log.Error("Console input failed", "error", err)
			return fmt.Errorf("read console input: %w", err)
		}
	}
}

func (c *Console) readLoop(ctx context.Context, reader *bufio.Reader, tokens chan<- token, readErr chan<- error) {
	for {
		tok, err := readToken(reader)
		if err != nil {
			readErr <- err
			return
		}
		select {
		case tokens <- tok:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Console) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.runner.Do(func() { c.terminal.Expire(now) })
			c.renderStatusLine()
		}
	}
}

func (c *Console) quit() {
	c.mu.Lock()
	stop := c.stop
	c.mu.Unlock()
	c.runner.Do(c.terminal.ReleaseAll)
	c.log.Info("Console quit requested")
	if stop != nil {
		stop()
	}
}

func (c *Console) handleToken(tok token, now time.Time) {
	if c.isCommandMode() {
		switch tok.kind {
		case tokenKey:
			// Arrow keys are not editable input.
			if len(tok.key) == 1 {
				c.handleCommandByte(tok.key[0])
			}
		case tokenByte:
			c.handleCommandByte(tok.b)
		}
		return
	}

	switch tok.kind {
	case tokenKey:
		c.runner.Do(func() { c.terminal.Press(tok.key, now) })
	case tokenMouse:
		c.runner.Do(func() { c.terminal.Mouse(tok.mouse) })
	case tokenByte:
		switch tok.b {
		case ':':
			c.enterCommandMode()
			return
		case 3: // Ctrl-C
			c.quit()
			return
		}
	}
	c.renderStatusLine()
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	fmt.Fprint(c.out, "\r\n:")
}

func (c *Console) handleCommandByte(b byte) {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		fmt.Fprint(c.out, "\r\n")
		if cmd != "" {
			c.executeCommand(cmd)
		}
		c.renderStatusLine()
		return
	case 27: // ESC cancels command mode
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		fmt.Fprint(c.out, "\r\n[console] command cancelled\r\n")
		c.renderStatusLine()
		return
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s ", buf)
		fmt.Fprintf(c.out, "\r:%s", buf)
		return
	default:
		if b < 32 || b > 126 {
			return
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s", buf)
	}
}

func (c *Console) executeCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "help":
		c.printHelp()
	case "state":
		c.printState()
	case "lane":
		if len(parts) != 2 {
			fmt.Fprint(c.out, "[console] usage: :lane <index>\r\n")
			return
		}
		lane, err := strconv.Atoi(parts[1])
		if err != nil {
			fmt.Fprint(c.out, "[console] invalid lane index\r\n")
			return
		}
		var got int
		c.runner.WithController(func(ctrl *motion.Controller) {
			ctrl.SetTargetLane(lane)
			got = ctrl.Snapshot().TargetLane
		})
		fmt.Fprintf(c.out, "[console] target lane %d\r\n", got)
	case "pause":
		if err := c.runner.Pause(); err != nil {
			fmt.Fprintf(c.out, "[console] %v\r\n", err)
		}
	case "resume":
		if err := c.runner.Resume(); err != nil {
			fmt.Fprintf(c.out, "[console] %v\r\n", err)
		}
	case "touch", "move":
		if len(parts) != 3 {
			fmt.Fprintf(c.out, "[console] usage: :%s <id> <x>\r\n", parts[0])
			return
		}
		x, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			fmt.Fprintf(c.out, "[console] invalid %s args\r\n", parts[0])
			return
		}
		contact := input.Contact{ID: parts[1], X: x}
		if parts[0] == "touch" {
			c.runner.Do(func() { c.terminal.TouchStart(contact) })
		} else {
			c.runner.Do(func() { c.terminal.TouchMove(contact) })
		}
	case "release":
		if len(parts) != 2 {
			fmt.Fprint(c.out, "[console] usage: :release <id>\r\n")
			return
		}
		c.runner.Do(func() { c.terminal.TouchEnd(input.Contact{ID: parts[1]}) })
	case "quit", "q":
		c.quit()
	default:
		fmt.Fprintf(c.out, "[console] unknown command: %s\r\n", parts[0])
	}
}

func (c *Console) printState() {
	st := c.runner.Status()
	fmt.Fprintf(c.out, "[console] phase=%s ticks=%d lane=%d target_x=%.3f pos=%.3f vel=%.3f\r\n",
		st.Phase, st.Ticks, st.Motion.TargetLane, st.Motion.TargetX, st.Motion.Position, st.Motion.Velocity)

	var keys []string
	var touches map[string]input.TouchRecord
	c.runner.Do(func() {
		keys = c.source.HeldKeys()
		touches = c.source.Touches()
	})
	fmt.Fprintf(c.out, "[console] held=%v touches=%d\r\n", keys, len(touches))
	for _, tr := range c.runner.History() {
		fmt.Fprintf(c.out, "  %s -> %s\r\n", tr.From, tr.To)
	}
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, "[console] keys:\r\n")
	fmt.Fprint(c.out, "  A/D, Arrow Left/Right: pulse movement (~180ms, held by auto-repeat)\r\n")
	fmt.Fprint(c.out, "  Mouse drag: touch contact \"mouse\"\r\n")
	fmt.Fprint(c.out, "  Ctrl-C: quit\r\n")
	fmt.Fprint(c.out, "  : enter command mode\r\n")
	fmt.Fprint(c.out, "[console] commands:\r\n")
	fmt.Fprint(c.out, "  :lane <index>\r\n")
	fmt.Fprint(c.out, "  :touch <id> <x>\r\n")
	fmt.Fprint(c.out, "  :move <id> <x>\r\n")
	fmt.Fprint(c.out, "  :release <id>\r\n")
	fmt.Fprint(c.out, "  :pause\r\n")
	fmt.Fprint(c.out, "  :resume\r\n")
	fmt.Fprint(c.out, "  :state\r\n")
	fmt.Fprint(c.out, "  :quit\r\n")
	fmt.Fprint(c.out, "  :help\r\n")
}

func (c *Console) renderStatusLine() {
	c.mu.Lock()
	if c.commandMode {
		c.mu.Unlock()
		return
	}
	width := c.statusWidth
	c.mu.Unlock()

	var lanes []float64
	var bounds motion.Bounds
	c.runner.WithController(func(ctrl *motion.Controller) {
		lanes = ctrl.LanePositions()
		bounds = ctrl.Bounds()
	})
	st := c.runner.Status()

	c.mu.Lock()
	fps := c.fps.sample(st.Ticks, time.Now())
	c.mu.Unlock()

	line := statusLine(st, fps, lanes, bounds)
	padding := ""
	if width > len(line) {
		padding = strings.Repeat(" ", width-len(line))
	}
	fmt.Fprintf(c.out, "\r%s%s", line, padding)

	c.mu.Lock()
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()
}

// fpsMeter turns the runner's tick counter into ticks per second, refreshed
// once per fpsWindow.
type fpsMeter struct {
	start time.Time
	ticks uint64
	fps   float64
}

const fpsWindow = time.Second

func (m *fpsMeter) sample(ticks uint64, now time.Time) float64 {
	if m.start.IsZero() || ticks < m.ticks {
		m.start, m.ticks = now, ticks
		return m.fps
	}
	elapsed := now.Sub(m.start)
	if elapsed < fpsWindow {
		return m.fps
	}
	m.fps = float64(ticks-m.ticks) / elapsed.Seconds()
	m.start, m.ticks = now, ticks
	return m.fps
}

func statusLine(st loop.Status, fps float64, lanes []float64, bounds motion.Bounds) string {
	return fmt.Sprintf("[%s %s X:%+.2f V:%+.2f LANE:%d FPS:%.0f | L:%s R:%s %s]",
		strings.ToUpper(string(st.Phase)),
		RenderTrack(lanes, bounds, st.Motion.Position, trackWidth),
		st.Motion.Position,
		st.Motion.Velocity,
		st.Motion.TargetLane,
		fps,
		boolLabel(st.Intent.Left),
		boolLabel(st.Intent.Right),
		st.Intent.Modality,
	)
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}

func boolLabel(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
