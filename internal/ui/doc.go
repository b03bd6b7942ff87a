// Package ui implements an interactive terminal viewer for the yard using bubbletea's Elm architecture.
//
// The TUI provides four views over the entity store:
//  1. [ListView] : Browse and filter container records
//  2. [DetailView] : Inspect the selected container
//  3. [GridView] : See yard occupancy laid out by row and column
//  4. [SearchView] : Look up a container by its number
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving store results via the
// [Msg] union type. Store reads run as commands so rendering never blocks on the database.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, g, s, r, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
