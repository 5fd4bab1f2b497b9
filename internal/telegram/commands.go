package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aiprotips/tipsbot/internal/live"
	"github.com/aiprotips/tipsbot/internal/pkg/models"
	"github.com/aiprotips/tipsbot/internal/planner"
	"github.com/aiprotips/tipsbot/internal/templates"
)

// messageLimit is Telegram's hard cap minus formatting headroom.
const messageLimit = 4000

// Previewer builds a plan without persisting it.
type Previewer interface {
	PlanDay(ctx context.Context, date string) (*planner.DayPlan, error)
}

// Scheduler plans a date for real (persist + queue) or replans it,
// replacing its open slips and queue.
type Scheduler interface {
	PlanOnce(ctx context.Context, date string) (*planner.DayPlan, error)
	Regenerate(ctx context.Context, date string) (*planner.DayPlan, error)
}

// CommandStore is the persistence slice the command handlers need.
type CommandStore interface {
	SlipsByDate(ctx context.Context, date string) ([]*models.Slip, error)
	QueuedByDate(ctx context.Context, date string) ([]*models.QueueItem, error)
	CancelMessage(ctx context.Context, shortID int64) (bool, error)
	CancelSlipByCode(ctx context.Context, code string) (int64, error)
	CancelSlipsByDate(ctx context.Context, date string) ([]int64, error)
	CancelMessagesForSlips(ctx context.Context, slipIDs []int64) (int64, error)
	SlipCodesForFixture(ctx context.Context, fixtureID int64) ([]string, error)
}

// Watchlister exposes today's watched favorites.
type Watchlister interface {
	Watchlist() []live.WatchEntry
}

// Commands is the operator command loop. Only the configured admin is
// served; everyone else is refused.
type Commands struct {
	bot     *tgbotapi.BotAPI
	adminID int64
	store   CommandStore
	preview Previewer
	sched   Scheduler
	watch   Watchlister
	loc     *time.Location
	log     *slog.Logger
}

func NewCommands(sink *Sink, adminID int64, store CommandStore, preview Previewer, sched Scheduler, watch Watchlister, loc *time.Location, log *slog.Logger) *Commands {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Commands{
		bot:     sink.Bot(),
		adminID: adminID,
		store:   store,
		preview: preview,
		sched:   sched,
		watch:   watch,
		loc:     loc,
		log:     log,
	}
}

// Run receives updates until the context is cancelled.
func (c *Commands) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)
	c.log.Info("command loop started", "admin_id", c.adminID)

	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			c.log.Info("command loop stopped")
			return
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			if update.Message.From == nil || update.Message.From.ID != c.adminID {
				c.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			c.handle(ctx, update.Message)
		}
	}
}

func (c *Commands) handle(ctx context.Context, msg *tgbotapi.Message) {
	parts := strings.Fields(strings.TrimSpace(msg.Text))
	if len(parts) == 0 {
		return
	}
	command := strings.ToLower(parts[0])
	args := parts[1:]
	chatID := msg.Chat.ID
	today := time.Now().In(c.loc).Format("2006-01-02")

	switch command {
	case "/start", "/help":
		c.reply(chatID, helpText)
	case "/ping":
		c.reply(chatID, "pong")
	case "/plan":
		c.handlePreview(ctx, chatID, today)
	case "/plan_publish":
		c.handlePlanPublish(ctx, chatID, today)
	case "/today":
		c.handleToday(ctx, chatID, today)
	case "/queue":
		c.handleQueue(ctx, chatID, today)
	case "/preview_today":
		c.handlePreviewToday(ctx, chatID, today)
	case "/regen":
		c.handleRegen(ctx, chatID, today)
	case "/cancel":
		c.handleCancel(ctx, chatID, args)
	case "/cancel_all":
		c.handleCancelAll(ctx, chatID, today)
	case "/watchlist":
		c.handleWatchlist(chatID)
	case "/which":
		c.handleWhich(ctx, chatID, args)
	default:
		c.reply(chatID, "Unknown command. Use /help.")
	}
}

const helpText = `<b>Operator commands</b>

/plan - dry-run plan for today (nothing is saved)
/plan_publish - plan today for real: persist slips and queue the posts
/today - slips persisted for today
/queue - still-queued messages for today
/preview_today - bodies of today's still-queued posts
/regen - cancel today's open slips and replan
/cancel &lt;id|code&gt; - cancel a queued message by number or a slip by code
/cancel_all - cancel all of today's open slips and queued messages
/watchlist - favorites being watched live
/which &lt;fixture_id&gt; - open slips containing a fixture
/ping - liveness check`

func (c *Commands) handlePreview(ctx context.Context, chatID int64, date string) {
	plan, err := c.preview.PlanDay(ctx, date)
	if err != nil {
		c.reply(chatID, fmt.Sprintf("Preview failed: %v", err))
		return
	}
	if plan.Empty() {
		c.reply(chatID, fmt.Sprintf("Dry run %s: nothing publishable (%d candidates skipped).", date, len(plan.Skips)))
		return
	}

	var bodies []string
	for _, slip := range plan.Slips {
		bodies = append(bodies, templates.SlipMessage(slip, c.loc))
	}
	c.replyChunked(chatID, fmt.Sprintf("Dry run %s: %d slip(s)\n\n%s", date, len(plan.Slips), strings.Join(bodies, "\n\n")))
}

func (c *Commands) handlePlanPublish(ctx context.Context, chatID int64, date string) {
	plan, err := c.sched.PlanOnce(ctx, date)
	if err != nil {
		c.reply(chatID, fmt.Sprintf("Planning failed: %v", err))
		return
	}
	c.reply(chatID, fmt.Sprintf("Planned %s: %d slip(s) persisted and queued.", date, len(plan.Slips)))
}

func (c *Commands) handlePreviewToday(ctx context.Context, chatID int64, date string) {
	items, err := c.store.QueuedByDate(ctx, date)
	if err != nil {
		c.reply(chatID, fmt.Sprintf("Lookup failed: %v", err))
		return
	}
	if len(items) == 0 {
		c.reply(chatID, "Nothing queued for today.")
		return
	}
	var parts []string
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("#%d at %s\n%s",
			it.ShortID, it.SendAt.In(c.loc).Format("15:04"), it.Body))
	}
	c.replyChunked(chatID, strings.Join(parts, "\n\n"))
}

func (c *Commands) handleToday(ctx context.Context, chatID int64, date string) {
	slips, err := c.store.SlipsByDate(ctx, date)
	if err != nil {
		c.reply(chatID, fmt.Sprintf("Lookup failed: %v", err))
		return
	}
	c.replyChunked(chatID, templates.MorningReport(date, slips, c.loc))
}

func (c *Commands) handleQueue(ctx context.Context, chatID int64, date string) {
	items, err := c.store.QueuedByDate(ctx, date)
	if err != nil {
		c.reply(chatID, fmt.Sprintf("Lookup failed: %v", err))
		return
	}
	if len(items) == 0 {
		c.reply(chatID, "Queue is empty.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Queued for %s</b>\n", date)
	for _, it := range items {
		fmt.Fprintf(&b, "#%d %s at %s (attempts %d)\n",
			it.ShortID, it.Kind, it.SendAt.In(c.loc).Format("15:04"), it.Attempts)
	}
	c.replyChunked(chatID, b.String())
}

func (c *Commands) handleRegen(ctx context.Context, chatID int64, date string) {
	plan, err := c.sched.Regenerate(ctx, date)
	if err != nil {
		c.reply(chatID, fmt.Sprintf("Regeneration failed: %v", err))
		return
	}
	c.reply(chatID, fmt.Sprintf("Replanned %s: %d slip(s).", date, len(plan.Slips)))
}

func (c *Commands) handleCancel(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		c.reply(chatID, "Usage: /cancel <message id or slip code>")
		return
	}
	arg := strings.ToUpper(args[0])

	if shortID, err := strconv.ParseInt(arg, 10, 64); err == nil {
		ok, err := c.store.CancelMessage(ctx, shortID)
		if err != nil {
			c.reply(chatID, fmt.Sprintf("Cancel failed: %v", err))
			return
		}
		if !ok {
			c.reply(chatID, fmt.Sprintf("No queued message #%d.", shortID))
			return
		}
		c.reply(chatID, fmt.Sprintf("Message #%d cancelled.", shortID))
		return
	}

	slipID, err := c.store.CancelSlipByCode(ctx, arg)
	if err != nil {
		c.reply(chatID, fmt.Sprintf("No open slip with code %s.", arg))
		return
	}
	if _, err := c.store.CancelMessagesForSlips(ctx, []int64{slipID}); err != nil {
		c.reply(chatID, fmt.Sprintf("Slip %s cancelled, but its queue cleanup failed: %v", arg, err))
		return
	}
	c.reply(chatID, fmt.Sprintf("Slip %s cancelled together with its queued message.", arg))
}

func (c *Commands) handleCancelAll(ctx context.Context, chatID int64, date string) {
	ids, err := c.store.CancelSlipsByDate(ctx, date)
	if err != nil {
		c.reply(chatID, fmt.Sprintf("Cancel failed: %v", err))
		return
	}
	n, err := c.store.CancelMessagesForSlips(ctx, ids)
	if err != nil {
		c.reply(chatID, fmt.Sprintf("Slips cancelled, but queue cleanup failed: %v", err))
		return
	}
	c.reply(chatID, fmt.Sprintf("Cancelled %d slip(s) and %d queued message(s) for %s.", len(ids), n, date))
}

func (c *Commands) handleWatchlist(chatID int64) {
	entries := c.watch.Watchlist()
	if len(entries) == 0 {
		c.reply(chatID, "No favorites on watch today.")
		return
	}
	var b strings.Builder
	b.WriteString("<b>Watched favorites</b>\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%d: %s 🆚 %s — %s @ %.2f\n", e.FixtureID, e.Home, e.Away, e.Favorite, e.Price)
	}
	c.replyChunked(chatID, b.String())
}

func (c *Commands) handleWhich(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		c.reply(chatID, "Usage: /which <fixture_id>")
		return
	}
	fixtureID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		c.reply(chatID, "Fixture id must be a number.")
		return
	}
	codes, err := c.store.SlipCodesForFixture(ctx, fixtureID)
	if err != nil {
		c.reply(chatID, fmt.Sprintf("Lookup failed: %v", err))
		return
	}
	if len(codes) == 0 {
		c.reply(chatID, fmt.Sprintf("Fixture %d is not on any open slip.", fixtureID))
		return
	}
	c.reply(chatID, fmt.Sprintf("Fixture %d is on: %s", fixtureID, strings.Join(codes, ", ")))
}

func (c *Commands) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := c.bot.Send(msg); err != nil {
		c.log.Error("command reply failed", "error", err)
	}
}

// replyChunked splits long replies on line boundaries under the
// Telegram length cap.
func (c *Commands) replyChunked(chatID int64, text string) {
	for len(text) > messageLimit {
		cut := strings.LastIndex(text[:messageLimit], "\n")
		if cut <= 0 {
			cut = messageLimit
		}
		c.reply(chatID, text[:cut])
		text = text[cut:]
	}
	if strings.TrimSpace(text) != "" {
		c.reply(chatID, text)
	}
}
