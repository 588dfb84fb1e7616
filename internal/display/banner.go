package display

import (
	"fmt"
	"os"

	"github.com/backmassage/motionbench/internal/term"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner() {
	fmt.Fprint(os.Stdout, term.Magenta)
	fmt.Fprint(os.Stdout, `                 _   _             _                     _
 _ __ ___   ___ | |_(_) ___  _ __ | |__   ___ _ __   ___| |__
| '_ `+"`"+` _ \ / _ \| __| |/ _ \| '_ \| '_ \ / _ \ '_ \ / __| '_ \
| | | | | | (_) | |_| | (_) | | | | |_) |  __/ | | | (__| | | |
|_| |_| |_|\___/ \__|_|\___/|_| |_|_.__/ \___|_| |_|\___|_| |_|
`)
	fmt.Fprintln(os.Stdout, term.NC)
}
