package cli

import "errors"

var (
	// ErrAborted is returned when the user declines a confirmation prompt.
	ErrAborted = errors.New("operation aborted by user")

	// ErrNoAURHelper is returned when an AUR operation is requested but no
	// helper binary is installed.
	ErrNoAURHelper = errors.New("no AUR helper installed (yay, paru, trizen or aurman)")

	// ErrOperationFailed is returned when a session ends in failure; the
	// details have already been printed from the event stream.
	ErrOperationFailed = errors.New("operation failed")
)
