package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // MIDI driver.

	"github.com/verte-zerg/bpmcheck/internal/gamepad"
	"github.com/verte-zerg/bpmcheck/internal/input"
	"github.com/verte-zerg/bpmcheck/internal/midiin"
	"github.com/verte-zerg/bpmcheck/internal/model"
	"github.com/verte-zerg/bpmcheck/internal/tui"
)

const (
	sourceGamepad = "gamepad"
	sourceMIDI    = "midi"
)

// sources holds the device readers feeding the running program.
type sources struct {
	keyboard *input.KeyboardDevice
	midi     *midiin.Listener
	pollDone chan struct{}
}

// startSources opens the optional device inputs. Every reader hands events to
// the program with Send so tracker state is only touched by the update loop.
func startSources(ctx context.Context, program *tea.Program, cfg model.Config, pads gamepad.Source) (*sources, error) {
	s := &sources{}

	if cfg.KeyboardPath != "" {
		kd, err := input.OpenKeyboard(cfg.KeyboardPath, func(kp input.KeyPress) {
			program.Send(tui.KeyDeviceMsg{Press: kp})
		})
		if err != nil {
			return nil, err
		}
		s.keyboard = kd
		slog.Info("keyboard device opened", "path", cfg.KeyboardPath)
	}

	if cfg.MIDIPort != "" {
		l, err := midiin.Listen(cfg.MIDIPort, cfg.MIDIChannel, func(h midiin.Hit) {
			slog.Debug("midi hit", "channel", h.Channel, "note", h.Note, "velocity", h.Velocity)
			program.Send(tui.TapMsg{Source: sourceMIDI, At: h.At})
		})
		if err != nil {
			s.close()
			return nil, err
		}
		s.midi = l
		slog.Info("midi input opened", "port", l.Port(), "channel", cfg.MIDIChannel)
	}

	if pads != nil {
		poller := gamepad.NewPoller(pads, cfg.FrameRate)
		s.pollDone = make(chan struct{})
		go func() {
			defer close(s.pollDone)
			poller.Run(ctx, func(p gamepad.Press, at time.Time) {
				slog.Debug("gamepad press", "pad", p.Pad, "button", p.Button)
				program.Send(tui.TapMsg{Source: sourceGamepad, At: at})
			})
		}()
		slog.Info("gamepad polling started", "interval", poller.Interval())
	}

	return s, nil
}

// close stops every reader. The gamepad poller stops with its context, which
// the caller cancels first.
func (s *sources) close() {
	if s.keyboard != nil {
		if err := s.keyboard.Close(); err != nil {
			slog.Debug("keyboard close failed", "err", err)
		}
		s.keyboard = nil
	}
	if s.midi != nil {
		if err := s.midi.Close(); err != nil {
			slog.Debug("midi close failed", "err", err)
		}
		s.midi = nil
		midiin.CloseDriver()
	}
	if s.pollDone != nil {
		<-s.pollDone
		s.pollDone = nil
	}
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List MIDI inputs, joysticks and keyboards",
		Args:  cobra.NoArgs,
		RunE:  runDevicesCmd,
	}
}

func runDevicesCmd(cmd *cobra.Command, _ []string) error {
	defer midiin.CloseDriver()

	joysticks, err := gamepad.ListJoysticks()
	if err != nil {
		return err
	}
	keyboards, err := input.ListKeyboards()
	if err != nil {
		return err
	}
	ports := midiin.InPorts()

	out := cmd.OutOrStdout()
	if err := writeDeviceList(out, "MIDI inputs", ports); err != nil {
		return err
	}
	if err := writeDeviceList(out, "Joysticks", joysticks); err != nil {
		return err
	}
	if err := writeDeviceList(out, "Keyboards", keyboards); err != nil {
		return err
	}
	if len(ports)+len(joysticks)+len(keyboards) == 0 {
		logErrln("No input devices found. Terminal keys and the mouse still work.")
	}
	return nil
}

func writeDeviceList(w io.Writer, title string, names []string) error {
	if _, err := fmt.Fprintf(w, "%s:\n", title); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(names) == 0 {
		names = []string{"(none)"}
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "  %s\n", name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
