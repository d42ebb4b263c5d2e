// Package cli implements the interactive journal terminal client.
//
// The CLI is a two-level REPL: a root loop for account and entry-list
// commands (register, login, new, open, exit) and an entry loop that
// edits one open entry through a session (title, body, status, photo,
// save, back). Autosave runs while the entry loop is open; conflict
// prompts interrupt it when a save detects a newer server version.
package cli
