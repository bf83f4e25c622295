package bot

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/domain"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/images"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/plate"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/queue"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/repo"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/scrape"
)

// maintenanceEndHour closes the portal's nightly window: midnight to 6am
// Singapore time.
const maintenanceEndHour = 6

// Scraper runs one portal lookup. Satisfied by *scrape.Session.
type Scraper interface {
	Lookup(ctx context.Context, chatID int64, plate string, progress func(string)) (*scrape.Result, error)
}

// ImageResolver serves cached photo variants. Satisfied by *images.Cache.
type ImageResolver interface {
	Resolve(ctx context.Context, name string, mode images.Mode, previousIndex int) (*images.Resolution, error)
}

// Task is one queued lookup.
type Task struct {
	ChatID int64
	Plate  string
	Force  bool
}

// Orchestrator classifies incoming chat traffic and drives lookups through
// the single-concurrency scrape queue. Cached records answer immediately;
// everything that must touch the portal waits its turn.
type Orchestrator struct {
	db     *gorm.DB
	chat   ChatClient
	scrape Scraper
	images ImageResolver
	conv   *Conversations
	lane   *queue.Requests[Task]
	loc    *time.Location
	now    func() time.Time
	log    zerolog.Logger
}

// NewOrchestrator builds the orchestrator and starts its queue worker. The
// worker stops when ctx is cancelled.
func NewOrchestrator(ctx context.Context, db *gorm.DB, chat ChatClient, scraper Scraper, imgs ImageResolver, log zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		db:     db,
		chat:   chat,
		scrape: scraper,
		images: imgs,
		conv:   NewConversations(),
		now:    time.Now,
		log:    log,
	}
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		loc = time.FixedZone("SGT", 8*3600)
	}
	o.loc = loc
	o.lane = queue.NewRequests(ctx, 64, o.process)
	return o
}

// Wait blocks until the queue worker has exited.
func (o *Orchestrator) Wait() { o.lane.Wait() }

// HandleText processes one free-text message: slash commands are ignored,
// known brand names get a photo, anything plate-shaped gets a lookup.
func (o *Orchestrator) HandleText(ctx context.Context, chatID int64, text string) {
	input := strings.TrimSpace(text)
	if input == "" || strings.HasPrefix(input, "/") {
		return
	}

	if brand, ok := plate.ResolveBrand(input); ok {
		o.chat.Typing(chatID)
		o.sendCarPhoto(ctx, chatID, brand)
		return
	}

	if !plate.IsPlate(input) {
		o.reply(chatID, ErrMalformedInput.Error())
		return
	}

	o.lookup(ctx, chatID, plate.Normalize(input), false)
}

// HandleCallback processes one inline-button press.
func (o *Orchestrator) HandleCallback(ctx context.Context, chatID int64, data string) {
	action, err := ParseAction(data)
	if err != nil {
		o.log.Debug().Err(err).Msg("ignoring callback")
		return
	}

	switch action.Kind {
	case ActionUpdate:
		// Callback payloads are client-supplied; the key must re-earn its
		// canonical form before it can reach the queue or the record table.
		if !plate.IsPlate(action.Key) {
			o.log.Debug().Str("key", action.Key).Msg("ignoring update with invalid plate")
			return
		}
		o.lookup(ctx, chatID, plate.Normalize(action.Key), true)
	case ActionAnother:
		res, err := o.images.Resolve(ctx, action.Key, images.AnotherRandom, action.Index)
		if err != nil {
			o.log.Debug().Err(err).Str("key", action.Key).Msg("variant resample failed")
			return
		}
		o.pushPhoto(chatID, action.Key, res)
	case ActionHD:
		res, err := o.images.Resolve(ctx, action.Key, images.ForceHD, action.Index)
		if err != nil {
			o.log.Debug().Err(err).Str("key", action.Key).Msg("hd resolve failed")
			return
		}
		if err := o.chat.SendPhoto(chatID, res.URL, res.Caption, nil); err != nil {
			o.log.Warn().Err(err).Msg("hd photo send failed")
		}
	}
}

// lookup answers from the cached record when allowed, and otherwise places
// the plate in the scrape queue.
func (o *Orchestrator) lookup(ctx context.Context, chatID int64, normalized string, force bool) {
	if o.inMaintenance() {
		o.reply(chatID, ErrMaintenance.Error())
		return
	}
	o.chat.Typing(chatID)

	if !force {
		car, err := repo.FindCar(ctx, o.db, normalized)
		if err != nil {
			o.log.Error().Err(err).Str("plate", normalized).Msg("record lookup failed")
		}
		if car != nil {
			o.sendCarResult(ctx, chatID, car, true)
			return
		}
	}

	if !o.conv.Begin(chatID, normalized) {
		o.reply(chatID, ErrBusy.Error())
		return
	}
	if n := o.lane.Len(); n > 0 {
		if id, err := o.chat.Send(chatID, fmt.Sprintf("Queue no: %d", n), nil); err == nil {
			o.conv.SetStatus(chatID, normalized, id)
		}
	}
	o.lane.Enqueue(Task{ChatID: chatID, Plate: normalized, Force: force})
}

// process runs one queued lookup to a terminal state. Always called from the
// single queue worker.
func (o *Orchestrator) process(ctx context.Context, task Task) {
	defer o.conv.End(task.ChatID, task.Plate)

	o.progress(task.ChatID, task.Plate, fmt.Sprintf("Searching for %s...", task.Plate))
	res, err := o.scrape.Lookup(ctx, task.ChatID, task.Plate, func(status string) {
		o.progress(task.ChatID, task.Plate, status)
	})
	if err != nil {
		o.progress(task.ChatID, task.Plate, capitalize(err.Error()))
		return
	}

	now := o.now().UTC()
	if err := repo.UpsertCar(ctx, o.db, task.Plate, res.CarMake, res.RoadTaxExpiry, now); err != nil {
		o.log.Error().Err(err).Str("plate", task.Plate).Msg("record upsert failed")
	}

	car := &domain.Car{License: task.Plate, CarMake: res.CarMake, Tax: res.RoadTaxExpiry, LastUpdated: now}
	o.sendCarResult(ctx, task.ChatID, car, false)
}

// sendCarResult delivers the record text, then best-effort photo enrichment.
// Cached records carry a refresh button; a result fresh off the portal has
// nothing newer to offer. Enrichment failure never degrades the answer.
func (o *Orchestrator) sendCarResult(ctx context.Context, chatID int64, car *domain.Car, cached bool) {
	text := fmt.Sprintf("Your car make: %s", car.CarMake)
	if car.Tax != "" {
		text += fmt.Sprintf("\nRoad tax expiry: %s", car.Tax)
	}
	text += fmt.Sprintf("\nLast updated: %s", humanize.Time(car.LastUpdated))

	var rows [][]Button
	if cached {
		rows = [][]Button{{{Label: "Force Update", Data: updateData(car.License)}}}
	}
	if id, ok := o.conv.Status(chatID, car.License); ok {
		if err := o.chat.Edit(chatID, id, text, rows); err != nil {
			o.log.Warn().Err(err).Msg("result edit failed")
		}
	} else if _, err := o.chat.Send(chatID, text, rows); err != nil {
		o.log.Warn().Err(err).Msg("result send failed")
	}

	o.sendCarPhoto(ctx, chatID, car.CarMake)
}

// sendCarPhoto serves the default variant for name, swallowing failures.
func (o *Orchestrator) sendCarPhoto(ctx context.Context, chatID int64, name string) {
	res, err := o.images.Resolve(ctx, name, images.Default, 0)
	if err != nil {
		o.log.Debug().Err(err).Str("name", name).Msg("photo enrichment skipped")
		return
	}
	o.pushPhoto(chatID, name, res)
}

func (o *Orchestrator) pushPhoto(chatID int64, key string, res *images.Resolution) {
	rows := [][]Button{{
		{Label: "Get Another", Data: anotherData(key, res.Index)},
		{Label: "Force HD", Data: hdData(key, res.Index)},
	}}
	if err := o.chat.SendPhoto(chatID, res.URL, res.Caption, rows); err != nil {
		o.log.Warn().Err(err).Str("key", key).Msg("photo send failed")
	}
}

// progress edits the lookup's status message in place, creating it on first
// use.
func (o *Orchestrator) progress(chatID int64, key, text string) {
	if id, ok := o.conv.Status(chatID, key); ok {
		if err := o.chat.Edit(chatID, id, text, nil); err == nil {
			return
		}
	}
	if id, err := o.chat.Send(chatID, text, nil); err == nil {
		o.conv.SetStatus(chatID, key, id)
	}
}

func (o *Orchestrator) reply(chatID int64, text string) {
	if _, err := o.chat.Send(chatID, capitalize(text), nil); err != nil {
		o.log.Warn().Err(err).Msg("reply send failed")
	}
}

func (o *Orchestrator) inMaintenance() bool {
	return o.now().In(o.loc).Hour() < maintenanceEndHour
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
