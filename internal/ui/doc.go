// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing and deleting fleet images:
//  1. [ListView] : Browse the live listing, toggle selections, watch deletions land
//  2. [ConfirmView] : Review the selected batch before submitting
//  3. [ResultView] : Display the submission outcome, including rejected ids
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Listing state lives in a [mirror.View]; every state change produces a snapshot that
// flows to the TUI through a buffered channel, so rendering never blocks ingestion.
// The [tasks.ImageFeed] runs alongside the program, paging and pumping deletion
// events into the same view the TUI reads from.
//
// Keyboard navigation uses vim-style bindings (j/k, space, d, y/n, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
