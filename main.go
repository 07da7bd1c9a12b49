package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"Wendigo/bot"
	"Wendigo/constants"
	"Wendigo/control"
	"Wendigo/logger"
	"Wendigo/notify"
	"Wendigo/puzzles"
	"Wendigo/scheduler"
	"Wendigo/store"
	"Wendigo/utils"
)

var localLog *log.Logger

func main() {
	localLog = log.New(os.Stdout, "", 0)

	cfg, opts := setupFlags()
	if opts.debugMode {
		constants.DebugMode = true
		logger.LogStatus(localLog, constants.LogDebug, "Debug mode enabled")
	}

	fmt.Print("\033[H\033[2J\n")
	logger.Banner()

	logger.LogHeaderStatus(localLog, constants.LogInfo,
		"Workers:   %-10d Session:    %s",
		cfg.Workers, cfg.SessionDuration)
	logger.LogStatus(localLog, constants.LogInfo,
		"Interval:  %-10s Stats:      %s",
		cfg.LaunchInterval,
		utils.BoolToEnabledDisabled(cfg.SendStats))
	logger.LogStatus(localLog, constants.LogInfo,
		"DebugMode: %-10s Bot:        %s",
		utils.BoolToEnabledDisabled(opts.debugMode),
		utils.BoolToEnabledDisabled(!opts.noBot))

	// Puzzle set. Nothing works without it.
	puzzleFile := opts.puzzleFile
	if env := os.Getenv(constants.EnvPuzzleFile); env != "" {
		puzzleFile = env
	}
	collection, err := puzzles.Load(puzzleFile)
	if err != nil {
		logger.LogError(localLog, constants.LogError, err, "Puzzle load failed")
		os.Exit(1)
	}
	logger.LogStatus(localLog, constants.LogInfo,
		"Loaded %d puzzles from %s", collection.Len(), puzzleFile)

	// Solution store. Also fatal: running without a place to persist
	// a solved key would make any find unrecoverable.
	limits := utils.CalculateMemoryLimits()
	solutionStore, err := store.Open(opts.dbPath, opts.solutionLog, limits, localLog)
	if err != nil {
		logger.LogError(localLog, constants.LogError, err, "Solution store open failed")
		os.Exit(1)
	}
	defer solutionStore.Close()

	// Telegram is optional; the search runs fine without it.
	notifier, err := notify.NewTelegram(localLog)
	if err != nil {
		logger.LogStatus(localLog, constants.LogWarn,
			"Telegram disabled: %v", err)
		notifier = nil
	} else if err := notifier.TestConnection(); err != nil {
		logger.LogError(localLog, constants.LogError, err,
			"Telegram connection test failed, continuing without it")
		notifier = nil
	}

	// With an interactive bot the operator starts the solver; in
	// headless mode it starts immediately. --run overrides.
	botEnabled := notifier != nil && !opts.noBot
	running := opts.autoRun || !botEnabled

	state := control.NewState(collection.Len(), running)
	if stats, ok, err := solutionStore.LoadCheckpoint(); err != nil {
		logger.LogError(localLog, constants.LogError, err,
			"Checkpoint load failed, starting counters from zero")
	} else if ok {
		state.RestoreStats(stats)
		logger.LogStatus(localLog, constants.LogDB,
			"Restored counters: %s keys checked previously",
			utils.FormatWithCommas(int(stats.TotalChecked)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	setupGracefulShutdown(cancel)

	var notifierCap scheduler.Notifier
	if notifier != nil {
		notifierCap = notifier
	}

	if botEnabled {
		controlBot := bot.New(notifier, state, cfg, localLog)
		go controlBot.Run(ctx)
	}

	sched := scheduler.New(cfg, collection, state, notifierCap, solutionStore, localLog)
	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		logger.LogError(localLog, constants.LogError, err, "Scheduler exited")
	}

	printFinalStats(state)
	logger.LogStatus(localLog, constants.LogWarn, "Shutdown complete.")
}

type startupOptions struct {
	debugMode   bool
	noBot       bool
	autoRun     bool
	puzzleFile  string
	dbPath      string
	solutionLog string
}

func setupFlags() (scheduler.Config, startupOptions) {
	cfg := scheduler.DefaultConfig()
	var opts startupOptions

	duration := flag.Int("duration",
		int(constants.SessionDuration.Seconds()), "Session duration in seconds")
	interval := flag.Int("interval",
		int(constants.LaunchInterval.Seconds()), "Seconds between sessions")
	workers := flag.Int("workers", constants.NumWorkers, "Worker count per session")
	minBits := flag.Int("min-bits", constants.DefaultMinBits, "Minimum puzzle bits (0 = no bound)")
	maxBits := flag.Int("max-bits", 0, "Maximum puzzle bits (0 = no bound)")
	minReward := flag.Float64("min-reward", 0, "Minimum reward in BTC (negative = no bound)")
	sendStats := flag.Bool("stats", constants.SendStatsUpdates, "Send periodic stats updates")
	statsHours := flag.Float64("stats-hours",
		constants.StatsInterval.Hours(), "Hours between stats updates")

	flag.BoolVar(&opts.debugMode, "debug", false, "Enable debug mode")
	flag.BoolVar(&opts.noBot, "no-bot", false, "Disable the interactive bot")
	flag.BoolVar(&opts.autoRun, "run", false, "Start solving immediately")
	flag.StringVar(&opts.puzzleFile, "puzzles", constants.PuzzleFile, "Puzzle JSON file")
	flag.StringVar(&opts.dbPath, "db", constants.SolutionDBPath, "Solution database path")
	flag.StringVar(&opts.solutionLog, "log", constants.SolutionLog, "Append-only solution log")

	flag.Usage = func() {
		logger.PrintSeparator(constants.LogStart)
		localLog.Printf("%s %s Wendigo Commands:",
			constants.LogStart, constants.EmojiBitcoin)
		localLog.Printf("%s --run        : Start solving immediately", constants.LogStart)
		localLog.Printf("%s --duration   : Session duration in seconds", constants.LogStart)
		localLog.Printf("%s --interval   : Seconds between sessions", constants.LogStart)
		localLog.Printf("%s --workers    : Worker count per session", constants.LogStart)
		localLog.Printf("%s --min-bits   : Skip puzzles below this", constants.LogStart)
		localLog.Printf("%s --max-bits   : Skip puzzles above this", constants.LogStart)
		localLog.Printf("%s --min-reward : Skip puzzles below this reward", constants.LogStart)
		localLog.Printf("%s --no-bot     : Disable the interactive bot", constants.LogStart)
		localLog.Printf("%s --debug      : Enable Debug Mode", constants.LogStart)
		logger.PrintSeparator(constants.LogStart)
	}

	flag.Parse()

	cfg.SessionDuration = time.Duration(*duration) * time.Second
	cfg.LaunchInterval = time.Duration(*interval) * time.Second
	cfg.Workers = *workers
	cfg.SendStats = *sendStats
	cfg.StatsInterval = time.Duration(*statsHours * float64(time.Hour))

	cfg.MinBits = nil
	if *minBits > 0 {
		cfg.MinBits = minBits
	}
	cfg.MaxBits = nil
	if *maxBits > 0 {
		cfg.MaxBits = maxBits
	}
	cfg.MinReward = nil
	if *minReward >= 0 {
		cfg.MinReward = minReward
	}

	applyEnvOverrides(&cfg)
	return cfg, opts
}

// applyEnvOverrides lets deployments tune intervals without flags.
// Anything that fails to parse keeps the existing value.
func applyEnvOverrides(cfg *scheduler.Config) {
	if v := os.Getenv("SESSION_DURATION_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.SessionDuration = time.Duration(secs) * time.Second
		} else {
			logger.LogStatus(localLog, constants.LogWarn,
				"Invalid SESSION_DURATION_SECONDS %q, keeping %s",
				v, cfg.SessionDuration)
		}
	}
	if v := os.Getenv("CHECK_INTERVAL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.LaunchInterval = time.Duration(secs) * time.Second
		} else {
			logger.LogStatus(localLog, constants.LogWarn,
				"Invalid CHECK_INTERVAL_SECONDS %q, keeping %s",
				v, cfg.LaunchInterval)
		}
	}
}

func setupGracefulShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		sig := <-sigChan
		signal.Stop(sigChan)

		fmt.Print("\r\033[K")
		logger.LogHeaderStatus(localLog, constants.LogWarn,
			"Received signal %v, initiating shutdown...", sig)
		logger.PrintSeparator(constants.LogWarn)
		cancel()
	}()
}

func printFinalStats(state *control.State) {
	stats := state.Stats()
	uptime := state.UptimeHours()

	logger.LogHeaderStatus(localLog, constants.LogStats, "Final statistics")
	logger.LogStatus(localLog, constants.LogStats,
		"Keys checked: %s", utils.FormatWithCommas(int(stats.TotalChecked)))
	logger.LogStatus(localLog, constants.LogStats,
		"Matches:      %d", stats.MatchesFound)
	logger.LogStatus(localLog, constants.LogStats,
		"Uptime:       %.2f hours", uptime)
	if uptime > 0 {
		logger.LogStatus(localLog, constants.LogStats,
			"Average rate: %.0f keys/hour",
			float64(stats.TotalChecked)/uptime)
	}
	if stats.HaveCurrentPuzzle {
		logger.LogStatus(localLog, constants.LogStats,
			"Last puzzle:  #%d", stats.CurrentPuzzle)
	}
	logger.PrintSeparator(constants.LogStats)
}
