package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bitperfect/internal/app/notification"
	"github.com/osa030/bitperfect/internal/app/playback"
	"github.com/osa030/bitperfect/internal/domain/audio"
	"github.com/osa030/bitperfect/internal/infra/config"
	"github.com/osa030/bitperfect/internal/infra/player"
)

// action is a parsed interactive command.
type action int

const (
	actionToggle action = iota
	actionStop
	actionForward
	actionBackward
	actionSeek
	actionVolume
	actionSync
	actionHelp
	actionQuit
)

type command struct {
	action action
	value  float64 // seconds for seek, percent for volume
}

var errUnknownCommand = errors.New("unknown command")

// parseCommand parses one line of interactive input.
func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{action: actionToggle}, nil
	}

	withValue := func(a action) (command, error) {
		if len(fields) != 2 {
			return command{}, errors.Newf("%s needs one numeric argument", fields[0])
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return command{}, errors.Wrapf(err, "invalid %s argument", fields[0])
		}
		return command{action: a, value: v}, nil
	}

	switch fields[0] {
	case "p", "pause", "play":
		return command{action: actionToggle}, nil
	case "s", "stop":
		return command{action: actionStop}, nil
	case "f", "ff", "forward":
		return command{action: actionForward}, nil
	case "b", "rew", "back":
		return command{action: actionBackward}, nil
	case "seek":
		return withValue(actionSeek)
	case "vol", "volume":
		return withValue(actionVolume)
	case "sync":
		return command{action: actionSync}, nil
	case "h", "help", "?":
		return command{action: actionHelp}, nil
	case "q", "quit", "exit":
		return command{action: actionQuit}, nil
	default:
		return command{}, errors.Wrapf(errUnknownCommand, "%q", fields[0])
	}
}

// checkAudio fails fast when the binary cannot open an audio output.
func checkAudio(available bool) error {
	if !available {
		return errors.Wrap(player.ErrAudioUnavailable, "rebuild with CGO_ENABLED=1")
	}
	return nil
}

func runPlay(cfg *config.Config, path string, syncOnLoad bool) error {
	if err := checkAudio(player.AudioAvailable); err != nil {
		return err
	}

	rates, err := newRates(cfg)
	if err != nil {
		return err
	}

	engine := newEngine(cfg, rates, syncOnLoad)
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := engine.LoadFile(ctx, path); err != nil {
		return err
	}
	if err := engine.Play(); err != nil {
		return err
	}

	printHelp(os.Stdout)
	printStatus(os.Stdout, engine.Status())

	hub := notification.NewManager(0)
	defer hub.Close()
	display := make(notification.ChanStream, 64)
	hub.Subscribe(display)
	hub.Subscribe(eventLog{})
	go func() {
		hub.Run(ctx, engine.Events())
		close(display)
	}()

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			zlog.Info().Msg("Received shutdown signal...")
			return nil

		case n, ok := <-display:
			if !ok {
				return nil
			}
			ev := n.Event
			switch ev.Type {
			case playback.EventFinished:
				printStatus(os.Stdout, engine.Status())
				fmt.Println()
				return nil
			case playback.EventHardwareRateChanged:
				zlog.Info().Msgf("device rate is now %s", formatRate(ev.HardwareRate))
			}
			printStatus(os.Stdout, engine.Status())

		case line, ok := <-lines:
			if !ok {
				// stdin closed, keep playing until the end
				lines = nil
				continue
			}
			quit, err := execute(ctx, engine, line)
			if err != nil {
				fmt.Fprintf(os.Stdout, "\n%v\n", err)
			}
			if quit {
				fmt.Println()
				return nil
			}
			printStatus(os.Stdout, engine.Status())
		}
	}
}

// execute applies one interactive command and reports whether to quit.
func execute(ctx context.Context, engine *playback.Engine, line string) (bool, error) {
	cmd, err := parseCommand(line)
	if err != nil {
		return false, err
	}

	switch cmd.action {
	case actionToggle:
		return false, engine.TogglePlayPause()
	case actionStop:
		engine.Stop()
	case actionForward:
		return false, engine.SkipForward()
	case actionBackward:
		return false, engine.SkipBackward()
	case actionSeek:
		return false, engine.Seek(cmd.value)
	case actionVolume:
		engine.SetVolume(cmd.value / 100)
	case actionSync:
		return false, engine.SynchronizeSampleRates(ctx)
	case actionHelp:
		printHelp(os.Stdout)
	case actionQuit:
		return true, nil
	}
	return false, nil
}

// eventLog writes every notification to the debug log.
type eventLog struct{}

func (eventLog) Send(n notification.Notification) error {
	zlog.Debug().Msgf("event: seq=%d type=%s state=%s time=%.2f rate=%.0f",
		n.SequenceNo, n.Event.Type, n.Event.State, n.Event.Time, n.Event.HardwareRate)
	return nil
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands: [enter]/p toggle  s stop  f/b skip  seek <sec>  vol <0-100>  sync  q quit")
}

func printStatus(w io.Writer, s playback.Status) {
	fmt.Fprintf(w, "\r%s\033[K", formatStatus(s))
}

// formatStatus renders the one-line display.
func formatStatus(s playback.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s / %s", stateLabel(s.State), formatClock(s.CurrentTime), formatClock(s.Duration))
	if s.FileName != "" {
		fmt.Fprintf(&b, "  %s", s.FileName)
	}
	if s.FileSampleRate > 0 {
		fmt.Fprintf(&b, "  %s", formatRate(s.FileSampleRate))
	}
	if s.HardwareSampleRate > 0 {
		fmt.Fprintf(&b, "  device %s", formatRate(s.HardwareSampleRate))
	}
	if s.SampleRateMismatch {
		b.WriteString(" (MISMATCH)")
	}
	fmt.Fprintf(&b, "  vol %d%%", int(s.Volume*100+0.5))
	return b.String()
}

func stateLabel(s audio.State) string {
	if err := s.Err(); err != nil {
		return "error: " + err.Error()
	}
	return s.Kind().String()
}

// formatClock renders seconds as m:ss.
func formatClock(sec float64) string {
	total := int(max(0, sec))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// formatRate renders a rate as kHz, keeping fractional rates like 44.1.
func formatRate(hz float64) string {
	return strconv.FormatFloat(hz/1000, 'f', -1, 64) + " kHz"
}
