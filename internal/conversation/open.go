package conversation

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenWithDefaultHandler hands a local file path or URL to the host OS's
// default opener. Fire-and-forget: the command is started, not waited on,
// and failures of the opened application are not surfaced.
func OpenWithDefaultHandler(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", target, err)
	}
	return nil
}
