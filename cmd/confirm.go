package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const firmwareNote = `!!! IMPORTANT NOTE !!!
Do not interrupt the firmware update process. Disconnecting the camera or
its power supply during the update may leave it unusable.
`

var assumeYes bool

// confirm asks prompt on out and reports whether the answer read from in
// starts with y. Anything else, including EOF, declines.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
