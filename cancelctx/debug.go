package cancelctx

import (
	"fmt"
	"os"
	"strings"
)

// Debug logs the message if the DEBUG environment variable contains "gocontext"
func Debug(message string) {
	defer func() {
		if r := recover(); r != nil {
			// Handle panic, do nothing
		}
	}()

	if isDebugMode() {
		fmt.Println(message)
	}
}

// isDebugMode checks if the DEBUG environment variable contains "gocontext"
func isDebugMode() bool {
	debugEnv, debugEnvExists := os.LookupEnv("DEBUG")
	if debugEnvExists && strings.Contains(debugEnv, "gocontext") {
		return true
	}

	return false
}
