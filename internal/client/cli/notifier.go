package cli

import (
	"bufio"
	"fmt"
	"io"
)

// terminalNotifier renders session messages in the terminal. Alerts block
// until the user presses Enter, mirroring a modal acknowledgment dialog;
// notices print and move on.
type terminalNotifier struct {
	reader *bufio.Reader
	w      io.Writer

	// onNavigate is invoked when a conflict fork asks the UI to open a
	// different entry.
	onNavigate func(entryID string)
}

func (n *terminalNotifier) Notice(msg string) {
	fmt.Fprintln(n.w, "* "+msg)
}

func (n *terminalNotifier) Alert(msg string) {
	fmt.Fprintln(n.w, "! "+msg)
	fmt.Fprint(n.w, "  (press Enter to continue) ")
	_, _ = n.reader.ReadString('\n')
}

func (n *terminalNotifier) SaveError(msg string) {
	fmt.Fprintln(n.w, "save failed: "+msg)
}

func (n *terminalNotifier) NavigateAway(entryID string) {
	fmt.Fprintf(n.w, "saved as new entry %s\n", entryID)
	if n.onNavigate != nil {
		n.onNavigate(entryID)
	}
}
