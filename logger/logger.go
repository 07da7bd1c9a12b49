package logger

import (
	"Wendigo/constants"
	"Wendigo/utils"
	"fmt"
	"log"
	"strings"
	"time"
)

var (
	lastLogType   string
	lineCounter   int64
	currentHeader string
)

const (
	HeaderSession = "  CHECKED |  RATE/s | PUZZLE |  COMP |  UNCMP |  RAM  | FIND"
)

func PrintSeparator(logType string) {
	separator := strings.Repeat("─", constants.LineLength)
	fmt.Printf("%s%s\n", logType, separator)
}

func Banner() {
	fmt.Printf(`

 __      __              .___.__
/  \    /  \ ____   ____ |   |  |   ____   ____    🧩 Puzzle Hunter 🧩
\   \/\/   // __ \ /    \| __ |  | / ___\ /  _ \   ₿ range searcher ₿
 \        /\  ___/|   |  \ /_/ |  |/ /_/  >  <_> )
  \__/\  /  \___  >___|  /____ |__/\___  / \____/
       \/       \/     \/     \/  /_____/

`)
}

// LogError standardizes error logging with line wrapping
func LogError(logger *log.Logger, prefix string, err error, context string) {
	var message string
	if context != "" {
		message = fmt.Sprintf("%s %s: %v", prefix, context, err)
	} else {
		message = fmt.Sprintf("%s Error: %v", prefix, err)
	}

	maxLen := constants.LineLength - len(prefix) - 1

	if len(message) > constants.LineLength {
		lines := utils.SplitMessage(message, maxLen, prefix)
		for _, line := range lines {
			logger.Print(line)
		}
	} else {
		logger.Print(message)
	}
}

// LogDebug standardizes debug logging
func LogDebug(logger *log.Logger, prefix string, format string, args ...interface{}) {
	if constants.DebugMode && format != "" {
		fmt.Printf("%s%s\n", prefix, fmt.Sprintf(format, args...))
	}
}

// LogStatus standardizes status/info logging with line wrapping
func LogStatus(logger *log.Logger, prefix string, message string, args ...interface{}) {
	if logger == nil {
		logger = log.Default()
	}

	msg := fmt.Sprintf(message, args...)
	fullMessage := fmt.Sprintf("%s%s", prefix, msg)

	maxLen := constants.LineLength - len(prefix) - 1

	if len(fullMessage) > constants.LineLength {
		lines := utils.SplitMessage(fullMessage, maxLen, prefix)
		for _, line := range lines {
			logger.Print(line)
		}
	} else {
		logger.Print(fullMessage)
	}
}

// LogHeaderStatus prints a separator before the status line
func LogHeaderStatus(logger *log.Logger,
	prefix string,
	message string,
	args ...interface{}) {

	if logger == nil {
		logger = log.Default()
	}
	msg := fmt.Sprintf(message, args...)
	maxLen := constants.LineLength - len(prefix) - 1
	if len(msg) > maxLen {
		msg = msg[:maxLen-1]
	}
	PrintSeparator(prefix)
	logger.Printf("%s%s", prefix, msg)
}

func logWithTypeChange(logger *log.Logger, logType string, message string) {
	lineCounter++

	if lastLogType != logType || lineCounter%42 == 0 {
		var header string
		switch logType {
		case constants.LogDB, constants.LogStats:
			header = HeaderSession
		}

		if header != "" && header != currentHeader {
			PrintSeparator(constants.LogHeadr)
			logger.Printf("%s %s", constants.LogHeadr, header)
			PrintSeparator(constants.LogHeadr)
			currentHeader = header
		}

		if lastLogType != logType {
			lineCounter = 0
		}
	}

	logger.Print(message)
	lastLogType = logType

	if lineCounter >= 42 {
		lineCounter = 0
	}
}

// LogSessionStats prints one columnar line per completed session.
func LogSessionStats(
	logger *log.Logger,
	checked uint64,
	rate float64,
	puzzle int,
	compressed uint64,
	uncompressed uint64,
	memGB float64,
	found uint64,
) {
	rateInK := rate / 1000

	message := fmt.Sprintf("[%s] %9s | %6.1fk | #%-5d | %5d | %6d | %4.1fG | %d",
		time.Now().Format("15:04:05"),
		utils.FormatWithCommas(int(checked)),
		rateInK,
		puzzle,
		compressed,
		uncompressed,
		memGB,
		found)

	logWithTypeChange(logger, constants.LogStats, message)
}
