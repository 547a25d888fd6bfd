//go:build windows

package lockfile

import "golang.org/x/sys/windows"

// isProcessRunning checks if a process with the given PID is running.
// os.FindProcess always succeeds on Windows, so this opens a query handle
// and checks the exit code instead (still-active processes report
// windows.STILL_ACTIVE).
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var exitCode uint32
	if err := windows.GetExitCodeProcess(h, &exitCode); err != nil {
		return false
	}
	return exitCode == 259 // STILL_ACTIVE
}
