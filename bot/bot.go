package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Wendigo/constants"
	"Wendigo/control"
	"Wendigo/logger"
	"Wendigo/notify"
	"Wendigo/scheduler"
	"Wendigo/utils"
)

const pollTimeout = 30 // seconds, Telegram long-poll window

// Bot is the interactive control surface: it long-polls Telegram for
// operator commands and adapts them onto the shared control state.
// It is the only external writer of the run flag.
type Bot struct {
	notifier *notify.Telegram
	state    *control.State
	cfg      scheduler.Config
	client   *http.Client
	log      *log.Logger
}

func New(notifier *notify.Telegram,
	state *control.State,
	cfg scheduler.Config,
	localLog *log.Logger) *Bot {

	return &Bot{
		notifier: notifier,
		state:    state,
		cfg:      cfg,
		// Timeout must outlast the long-poll window.
		client: &http.Client{Timeout: (pollTimeout + 10) * time.Second},
		log:    localLog,
	}
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

type updatesResponse struct {
	OK     bool     `json:"ok"`
	Result []update `json:"result"`
}

// Run polls for commands until ctx is cancelled. Poll failures back
// off and continue; the bot must never take the search down with it.
func (b *Bot) Run(ctx context.Context) {
	logger.LogStatus(b.log, constants.LogBot, "Interactive bot started")

	var offset int64
	for {
		updates, err := b.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.LogError(b.log, constants.LogError, err, "Bot poll failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil {
				continue
			}
			if strconv.FormatInt(u.Message.Chat.ID, 10) != b.notifier.ChatID {
				logger.LogDebug(b.log, constants.LogDebug,
					"Ignoring command from foreign chat %d", u.Message.Chat.ID)
				continue
			}

			reply := b.HandleCommand(u.Message.Text)
			if reply == "" {
				continue
			}
			if err := b.sendReply(reply); err != nil {
				logger.LogError(b.log, constants.LogError, err,
					"Bot reply failed")
			}
		}
	}
}

func (b *Bot) getUpdates(ctx context.Context, offset int64) ([]update, error) {
	url := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=%d",
		b.notifier.APIBase, b.notifier.Token, offset, pollTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("telegram api %s: %s", resp.Status, string(detail))
	}

	var parsed updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram api returned ok=false")
	}
	return parsed.Result, nil
}

func (b *Bot) sendReply(text string) error {
	return b.notifier.NotifyRaw(text)
}

// HandleCommand maps one operator command to a reply, mutating only
// the run flag. Unknown text is ignored.
func (b *Bot) HandleCommand(text string) string {
	cmd := strings.ToLower(strings.TrimSpace(text))
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i] // strip @botname suffix
	}

	switch cmd {
	case "/start":
		b.state.SetRunning(true)
		logger.LogStatus(b.log, constants.LogBot, "Solver started via bot")
		return "🚀 Solver started"

	case "/stop":
		b.state.SetRunning(false)
		logger.LogStatus(b.log, constants.LogBot, "Solver stopped via bot")
		return "⏹ Solver stopped"

	case "/status":
		return b.statusText()

	case "/stats":
		return b.statsText()

	case "/config":
		return b.configText()

	case "/help":
		return helpText()
	}

	return ""
}

func (b *Bot) statusText() string {
	snap := b.state.Snapshot()
	running := "paused"
	if snap.Running {
		running = "running"
	}
	return fmt.Sprintf(
		"*Wendigo status*\n\n"+
			"• Solver: %s\n"+
			"• Keys checked: %s\n"+
			"• Matches: %d\n"+
			"• Puzzles loaded: %d",
		running,
		utils.FormatWithCommas(int(snap.Stats.TotalChecked)),
		snap.Stats.MatchesFound,
		snap.TotalPuzzles)
}

func (b *Bot) statsText() string {
	snap := b.state.Snapshot()
	uptime := time.Since(snap.StartTime).Hours()

	rate := 0.0
	if uptime > 0 {
		rate = float64(snap.Stats.TotalChecked) / uptime
	}

	puzzleInfo := "none yet"
	if snap.Stats.HaveCurrentPuzzle {
		puzzleInfo = fmt.Sprintf("#%d", snap.Stats.CurrentPuzzle)
	}

	return fmt.Sprintf(
		"*Wendigo statistics*\n\n"+
			"• Keys checked: %s\n"+
			"• Matches: %d (compressed %d, uncompressed %d)\n"+
			"• Current puzzle: %s\n"+
			"• Uptime: %.2f hours\n"+
			"• Rate: %.0f keys/hour",
		utils.FormatWithCommas(int(snap.Stats.TotalChecked)),
		snap.Stats.MatchesFound,
		snap.Stats.CompressedHits,
		snap.Stats.UncompressedHits,
		puzzleInfo,
		uptime,
		rate)
}

func (b *Bot) configText() string {
	minBits := "none"
	if b.cfg.MinBits != nil {
		minBits = strconv.Itoa(*b.cfg.MinBits)
	}
	maxBits := "none"
	if b.cfg.MaxBits != nil {
		maxBits = strconv.Itoa(*b.cfg.MaxBits)
	}
	minReward := "none"
	if b.cfg.MinReward != nil {
		minReward = fmt.Sprintf("%g BTC", *b.cfg.MinReward)
	}

	return fmt.Sprintf(
		"*Wendigo configuration*\n\n"+
			"• Session: %s every %s\n"+
			"• Workers: %d\n"+
			"• Min bits: %s\n"+
			"• Max bits: %s\n"+
			"• Min reward: %s\n"+
			"• Stats updates: %s",
		b.cfg.SessionDuration,
		b.cfg.LaunchInterval,
		b.cfg.Workers,
		minBits,
		maxBits,
		minReward,
		utils.BoolToEnabledDisabled(b.cfg.SendStats))
}

func helpText() string {
	return "*Wendigo commands*\n\n" +
		"/start - start the solver\n" +
		"/stop - pause the solver\n" +
		"/status - current run state\n" +
		"/stats - detailed statistics\n" +
		"/config - active configuration\n" +
		"/help - this message"
}
