package outwriter

import (
	"os"

	"golang.org/x/term"
)

// GetMaxMessageWidth calculates the maximum width of the condition column in
// console output based on the terminal width.
func GetMaxMessageWidth(override int) int {
	termWidth := override
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// CI runners have no terminal
			termWidth = 120
		} else {
			termWidth = detectedWidth
		}
	}

	// Gate and status columns with borders and padding
	available := termWidth - 40
	if available < 20 {
		return 20
	}
	if available > 100 {
		return 100
	}
	return available
}
