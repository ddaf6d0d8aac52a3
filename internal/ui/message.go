package ui

import (
	"github.com/desertthunder/imx/internal/mirror"
)

// snapshotMsg delivers a fresh listing snapshot to the TUI.
type snapshotMsg mirror.Snapshot

// feedStoppedMsg reports that the background feed loop exited.
type feedStoppedMsg struct {
	err error
}

// submitDoneMsg reports the outcome of a delete submission.
type submitDoneMsg struct {
	err error
}

// refreshDoneMsg reports the outcome of a manual refresh.
type refreshDoneMsg struct {
	err error
}
