package constants

import (
	"runtime"
	"time"
)

// Package-level toggles. DebugMode gates LogDebug output everywhere.
var (
	DebugMode  bool
	LineLength = 65 // max line length for wrapped log output
)

// Scheduler defaults. All of these can be overridden by flags; a flag
// that fails to parse falls back to the value here.
var (
	NumWorkers       = runtime.NumCPU()
	SessionDuration  = 600 * time.Second // one solving session
	LaunchInterval   = 60 * time.Second  // gap between sessions
	StatsInterval    = 24 * time.Hour    // periodic stats updates
	SendStatsUpdates = true
	OutcomeBuffer    = 4096 // bounded outcome channel per session
	JoinGracePeriod  = 10 * time.Second
	DefaultMinBits   = 14
)

// File paths
const (
	PuzzleFile     = "unsolved_puzzles.json"
	SolutionDBPath = ".wendigo/solutions.db"
	SolutionLog    = "solutions.log"
)

// Solution store retry policy. Losing a solved key record is the one
// failure this program cannot afford, so writes retry with backoff.
const (
	StoreRetryInitial = 500 * time.Millisecond
	StoreRetryMax     = 10
)

// Telegram environment variables
const (
	EnvBotToken   = "TELEGRAM_BOT_TOKEN"
	EnvChatID     = "TELEGRAM_CHAT_ID"
	EnvPuzzleFile = "PUZZLES_FILE"
)

// Headers and text-based variables
var (
	LogStart = "[⌛️ START] "
	LogStats = "[📝 STATS] "
	LogHeadr = "[〰️ HEADR] "
	LogWarn  = "[⏰ ALARM] "
	LogError = "[❌ ERROR] "
	LogDebug = "[🔍 DEBUG] "
	LogCheck = "[✨ CHECK] "
	LogRetry = "[🔄 RETRY] "
	LogMem   = "[🧠 -MEM-] "
	LogInfo  = "[🔝  INFO] "
	LogDB    = "[📁 -DATA] "
	LogBot   = "[🤖  -BOT] "

	// Status emojis for consistent usage
	EmojiFound   = "✨"
	EmojiKey     = "🔑"
	EmojiBitcoin = "₿"
	EmojiSuccess = "✅"
	EmojiError   = "❌"
	EmojiRocket  = "🚀"
	EmojiWarning = "⚠️"
)
