package notify

import (
	"context"
	"sort"
	"sync"

	"tombola/internal/models"

	"github.com/google/logger"
	"golang.org/x/sync/errgroup"
)

// MailSender delivers rendered emails.
type MailSender interface {
	SendMail(ctx context.Context, msg Message) error
}

// TextSender delivers text messages.
type TextSender interface {
	SendText(ctx context.Context, phone, message string) error
}

// Report summarizes a notification run by player display name.
type Report struct {
	Sent    []string
	Skipped []string
	Failed  []string
}

type report struct {
	mu sync.Mutex
	Report
}

func (r *report) add(list *[]string, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*list = append(*list, name)
}

func (r *report) result() Report {
	sort.Strings(r.Sent)
	sort.Strings(r.Skipped)
	sort.Strings(r.Failed)
	return r.Report
}

// Dispatcher notifies every selected player of their target.
type Dispatcher struct {
	Roster  *models.Roster
	Lottery models.Lottery
	Match   Matcher
	// Concurrency bounds in-flight sends; zero means 4.
	Concurrency int
}

// SendEmails renders tpl for each selected player with an address and sends
// it. Per-player failures are logged and reported, never returned.
func (d *Dispatcher) SendEmails(ctx context.Context, tpl *MailTemplate, sender MailSender) (Report, error) {
	return d.dispatch(ctx, "email", func(p *models.Player) bool { return p.Email != "" },
		func(ctx context.Context, c Context) error {
			msg, err := tpl.Render(c)
			if err != nil {
				return err
			}
			if msg.To == "" {
				msg.To = c.Player.DisplayName + " <" + c.Player.Email + ">"
			}
			return sender.SendMail(ctx, msg)
		})
}

// SendTexts renders tpl for each selected player with a phone number and
// sends it.
func (d *Dispatcher) SendTexts(ctx context.Context, tpl *TextTemplate, sender TextSender) (Report, error) {
	return d.dispatch(ctx, "sms", func(p *models.Player) bool { return p.Phone != "" },
		func(ctx context.Context, c Context) error {
			message, err := tpl.Render(c)
			if err != nil {
				return err
			}
			return sender.SendText(ctx, c.Player.Phone, message)
		})
}

func (d *Dispatcher) dispatch(
	ctx context.Context,
	channel string,
	reachable func(*models.Player) bool,
	send func(context.Context, Context) error,
) (Report, error) {
	players := d.Roster.SortedByDisplayName()

	limit := d.Concurrency
	if limit <= 0 {
		limit = 4
	}
	var g errgroup.Group
	g.SetLimit(limit)

	r := &report{}
	for _, player := range players {
		if d.Match != nil && !d.Match(player.DisplayName) {
			continue
		}
		if !reachable(player) {
			logger.Warningf("%s: player %s has no contact", channel, player.DisplayName)
			r.add(&r.Skipped, player.DisplayName)
			continue
		}

		c := Context{Player: player, Players: players}
		if targetID, ok := d.Lottery[player.ID]; ok {
			c.Target, _ = d.Roster.Get(targetID)
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := send(ctx, c); err != nil {
				logger.Errorf("%s: failed sending to %s: %v", channel, c.Player.DisplayName, err)
				r.add(&r.Failed, c.Player.DisplayName)
				return nil
			}
			logger.Infof("%s sent to %s", channel, c.Player.DisplayName)
			r.add(&r.Sent, c.Player.DisplayName)
			return nil
		})
	}

	err := g.Wait()
	return r.result(), err
}
