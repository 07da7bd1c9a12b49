package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"Wendigo/checker"
	"Wendigo/constants"
	"Wendigo/logger"
	"Wendigo/puzzles"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram delivers best-effort notifications through the Bot API.
// Every send can fail; callers log and move on.
type Telegram struct {
	Token   string
	ChatID  string
	APIBase string
	client  *http.Client
	log     *log.Logger
}

// NewTelegram builds a notifier from environment credentials. Missing
// credentials are an error the caller treats as "run without
// notifications", never as fatal.
func NewTelegram(localLog *log.Logger) (*Telegram, error) {
	token := os.Getenv(constants.EnvBotToken)
	if token == "" {
		return nil, fmt.Errorf("%s not set", constants.EnvBotToken)
	}
	chatID := os.Getenv(constants.EnvChatID)
	if chatID == "" {
		return nil, fmt.Errorf("%s not set", constants.EnvChatID)
	}
	return NewTelegramWithCredentials(token, chatID, localLog), nil
}

func NewTelegramWithCredentials(token, chatID string, localLog *log.Logger) *Telegram {
	return &Telegram{
		Token:   token,
		ChatID:  chatID,
		APIBase: defaultAPIBase,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     localLog,
	}
}

func (t *Telegram) NotifyStartup(puzzleCount int) error {
	msg := fmt.Sprintf(
		"%s *Wendigo started*\n\n"+
			"• %d puzzles eligible\n"+
			"• Searching for private keys\n"+
			"• Will notify on any match",
		constants.EmojiRocket, puzzleCount)
	return t.send(msg)
}

func (t *Telegram) NotifyStats(stats checker.Stats, uptimeHours float64) error {
	puzzleInfo := "none yet"
	if stats.HaveCurrentPuzzle {
		puzzleInfo = fmt.Sprintf("#%d", stats.CurrentPuzzle)
	}

	rate := 0.0
	if uptimeHours > 0 {
		rate = float64(stats.TotalChecked) / uptimeHours
	}

	msg := fmt.Sprintf(
		"📊 *Wendigo statistics*\n\n"+
			"• Keys checked: %d\n"+
			"• Current puzzle: %s\n"+
			"• Uptime: %.2f hours\n"+
			"• Rate: %.0f keys/hour",
		stats.TotalChecked, puzzleInfo, uptimeHours, rate)
	return t.send(msg)
}

func (t *Telegram) NotifyError(message string) error {
	return t.send(fmt.Sprintf("%s *Wendigo error*\n\n```\n%s\n```",
		constants.EmojiError, message))
}

func (t *Telegram) NotifySolved(o *checker.Outcome, p *puzzles.Puzzle) error {
	return t.send(FormatSolved(o, p))
}

// FormatSolved renders the solved-puzzle message. Split out so the
// content can be verified without a network.
func FormatSolved(o *checker.Outcome, p *puzzles.Puzzle) string {
	return fmt.Sprintf(
		"🎉 *PUZZLE %d SOLVED* 🎉\n\n"+
			"*Bits:* %d\n"+
			"*Reward:* %g BTC\n\n"+
			"*Target address:*\n`%s`\n\n"+
			"*Private key (hex):*\n`%s`\n\n"+
			"*Matched variant:* %s\n\n"+
			"%s Secure this key immediately.",
		o.PuzzleNumber,
		p.Bits,
		p.RewardBTC,
		o.TargetAddress,
		o.PrivateKeyHex,
		o.MatchVariant,
		constants.EmojiWarning)
}

// NotifyRaw sends a pre-formatted message as-is. The interactive bot
// uses it for command replies.
func (t *Telegram) NotifyRaw(text string) error {
	return t.send(text)
}

// TestConnection sends a throwaway status message so a bad token or
// chat id surfaces at startup instead of on the first solve.
func (t *Telegram) TestConnection() error {
	return t.send("🧪 Wendigo connection test")
}

func (t *Telegram) send(text string) error {
	payload := map[string]interface{}{
		"chat_id":                  t.ChatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBase, t.Token)
	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram api %s: %s", resp.Status, string(detail))
	}

	logger.LogDebug(t.log, constants.LogDebug, "Telegram notification sent")
	return nil
}
