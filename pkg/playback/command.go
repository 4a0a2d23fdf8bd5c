package playback

import (
	"fmt"
	"strings"
)

// Command is an operator request executed on the simulation thread.
type Command string

const (
	CommandPlay         Command = "play"
	CommandPause        Command = "pause"
	CommandToggle       Command = "toggle"
	CommandStepBack     Command = "step-back"
	CommandStepForward  Command = "step-forward"
	CommandJumpBack     Command = "jump-back"
	CommandJumpForward  Command = "jump-forward"
	CommandReset        Command = "reset"
	CommandClearForward Command = "clear-forward"
)

var commands = map[Command]struct{}{
	CommandPlay:         {},
	CommandPause:        {},
	CommandToggle:       {},
	CommandStepBack:     {},
	CommandStepForward:  {},
	CommandJumpBack:     {},
	CommandJumpForward:  {},
	CommandReset:        {},
	CommandClearForward: {},
}

func ParseCommand(s string) (Command, error) {
	cmd := Command(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := commands[cmd]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
	return cmd, nil
}

// Execute runs cmd against the controller.
func (c *Controller) Execute(cmd Command) error {
	switch cmd {
	case CommandPlay:
		return c.Play()
	case CommandPause:
		return c.Pause()
	case CommandToggle:
		return c.TogglePlay()
	case CommandStepBack:
		return c.StepBack()
	case CommandStepForward:
		return c.StepForward()
	case CommandJumpBack:
		return c.JumpBack()
	case CommandJumpForward:
		return c.JumpForward()
	case CommandReset:
		return c.Reset()
	case CommandClearForward:
		c.ClearForward()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, string(cmd))
	}
}
