package tools

import (
	"fmt"
	"log"
	"os"
	"time"
)

var isEnabled = true
var printTimestamp = true

// progress messages go to stderr
var logger = log.New(os.Stderr, "", 0)

func EnableLogger() {
	isEnabled = true
}

func DisableLogger() {
	isEnabled = false
}

func EnableLoggerTimestamp() {
	printTimestamp = true
}

func DisableLoggerTimestamp() {
	printTimestamp = false
}

// LogOutput prints progress messages unless the logger is disabled
func LogOutput(val ...interface{}) {
	if !isEnabled {
		return
	}
	if printTimestamp {
		logger.Print("[" + time.Now().Format("2006-01-02 15.04:05.000") + "] " + fmt.Sprintln(val...))
		return
	}
	logger.Print(fmt.Sprintln(val...))
}
