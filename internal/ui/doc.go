// Package ui implements the interactive wizard as a terminal interface
// using bubbletea's Elm architecture.
//
// The TUI walks the three pages of a [wizard.Session]:
//  1. Credentials : Enter the portal URL, username, and password
//  2. Selecting : Tick categories per content type, pick the filter mode
//  3. Result : Save or open the generated playlist, download the guide
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Backend calls run as commands bracketed by a session Begin/Finish pair,
// so a completion that arrives after the user navigated away carries a
// stale ticket and is dropped instead of mutating the session.
//
// Keyboard navigation uses vim-style bindings (j/k, space, tab, enter, esc, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
