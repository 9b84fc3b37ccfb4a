package ui

import (
	"fmt"
	"strings"
)

// RunErrorCount and RunWarningCount track errors/warnings during a run.
var RunErrorCount int
var RunWarningCount int

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Printf("%s%s%s %s%s\n", ColorGreen, SymbolCheck, ColorReset, msg, ColorReset)
}

// PrintError prints an error message and increments the error counter.
func PrintError(msg string) {
	RunErrorCount++
	fmt.Printf("%s%s%s %s%s\n", ColorRed, SymbolCross, ColorReset, msg, ColorReset)
}

// PrintInfo prints an info message.
func PrintInfo(msg string) {
	fmt.Printf("%s%s%s %s%s\n", ColorBlue, SymbolInfo, ColorReset, msg, ColorReset)
}

// PrintWarning prints a warning message and increments the warning counter.
func PrintWarning(msg string) {
	RunWarningCount++
	fmt.Printf("%s%s%s %s%s\n", ColorYellow, SymbolWarning, ColorReset, msg, ColorReset)
}

// PrintDownload prints a download message.
func PrintDownload(msg string) {
	fmt.Printf("%s%s%s %s%s\n", ColorCyan, SymbolDownload, ColorReset, msg, ColorReset)
}

// PrintMusic prints a music message.
func PrintMusic(msg string) {
	fmt.Printf("%s%s%s %s%s\n", ColorGreen, SymbolMusic, ColorReset, msg, ColorReset)
}

// PrintHeader prints a section header with an underline.
func PrintHeader(title string) {
	fmt.Printf("\n%s%s%s%s\n", ColorBold, ColorCyan, title, ColorReset)
	fmt.Printf("%s%s%s\n", ColorCyan, strings.Repeat("─", len([]rune(title))), ColorReset)
}

// PrintSection prints a sub-section title.
func PrintSection(title string) {
	fmt.Printf("%s%s%s\n", ColorBold, title, ColorReset)
}

// PrintList prints items as a bulleted list in the given color.
func PrintList(items []string, color string) {
	for _, item := range items {
		fmt.Printf("  %s%s%s %s\n", color, BulletArrow, ColorReset, item)
	}
}

// PrintRunSummary prints the end-of-run error/warning tally.
func PrintRunSummary() {
	fmt.Println()
	switch {
	case RunErrorCount > 0:
		fmt.Printf("%s%s%s Finished with %d error(s), %d warning(s).%s\n",
			ColorRed, SymbolCross, ColorReset, RunErrorCount, RunWarningCount, ColorReset)
	case RunWarningCount > 0:
		fmt.Printf("%s%s%s Finished with %d warning(s).%s\n",
			ColorYellow, SymbolWarning, ColorReset, RunWarningCount, ColorReset)
	default:
		PrintSuccess("Finished.")
	}
}
