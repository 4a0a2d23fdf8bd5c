package playback

import "errors"

var (
	ErrAlreadyPlaying = errors.New("already playing")
	ErrNotPlaying     = errors.New("not playing")
	ErrUnknownCommand = errors.New("unknown command")
	ErrAttached       = errors.New("controller is already attached")
	ErrDetached       = errors.New("controller is not attached")
)
