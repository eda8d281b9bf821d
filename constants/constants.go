package constants

import "os"

const (
	AppName = "cloudctl"

	DefaultEndpoint = "https://api.cloud.example/v1"
	DefaultProfile  = "default"
	DefaultFormat   = "table"
	DefaultPerPage  = 25
	MaxPerPage      = 50

	EnvConfig   = "CLOUDCTL_CONFIG"
	EnvProfile  = "CLOUDCTL_PROFILE"
	EnvEndpoint = "CLOUDCTL_ENDPOINT"
	EnvToken    = "CLOUDCTL_TOKEN"
	EnvFormat   = "CLOUDCTL_FORMAT"
	EnvTimeout  = "CLOUDCTL_TIMEOUT"
	EnvRetries  = "CLOUDCTL_RETRIES"
	EnvNoColor  = "NO_COLOR"
)

const (
	ExitOK      = 0
	ExitError   = 1
	ExitUsage   = 2
	ExitAborted = 130
)

// Version is overridden at build time with -ldflags "-X".
var Version = "dev"

func isCharDevice(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}

	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

var inTerm = isCharDevice(os.Stdout)

var stderrInTerm = isCharDevice(os.Stderr)

var stdinInTerm = isCharDevice(os.Stdin)

var stdinUsed = func() bool {
	if fi, err := os.Stdin.Stat(); err != nil {
		return false
	} else if fi.Mode()&os.ModeNamedPipe != 0 {
		return true
	} else {
		return false
	}
}()

func InTerm() bool {
	return inTerm
}

func StderrInTerm() bool {
	return stderrInTerm
}

// Interactive reports whether the user can answer prompts.
func Interactive() bool {
	return stdinInTerm && stderrInTerm
}

func StdinUsed() bool {
	return stdinUsed
}
