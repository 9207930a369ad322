package alerts

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/stlalpha/specmech/internal/bus"
	"github.com/stlalpha/specmech/internal/logging"
)

// Bot schedules and runs a fixed set of Alerts, each on its own
// interval, reporting to cmd.
type Bot struct {
	cmd    bus.Command
	cron   *cron.Cron
	mu     sync.Mutex
	states map[string]*rollingState
}

// New returns a Bot that will schedule alerts against cmd when
// Start is called.
func New(cmd bus.Command) *Bot {
	return &Bot{cmd: cmd, states: map[string]*rollingState{}}
}

// Start schedules every alert and begins running them; it returns
// once all are registered and the cron scheduler is running. Each
// alert other than a *HeartbeatAlert is force-emitted once at its
// resting (false) value before the first check, matching the "reset"
// behavior of a freshly constructed alert.
func (b *Bot) Start(alerts []Alert) {
	b.cron = cron.New(cron.WithSeconds())

	for _, a := range alerts {
		a := a
		if _, ok := a.(*HeartbeatAlert); !ok {
			st := newRollingState()
			b.mu.Lock()
			b.states[a.Keyword()] = st
			b.mu.Unlock()
			emit(b.cmd, a.Keyword(), false, false, true)
		}

		spec := fmt.Sprintf("@every %ds", a.IntervalSeconds())
		if _, err := b.cron.AddFunc(spec, func() { b.runOne(a) }); err != nil {
			logging.Error("alerts: failed to schedule %s: %v", a.Keyword(), err)
		}
	}

	b.cron.Start()
}

// Stop stops the scheduler and waits for any in-flight check to
// finish.
func (b *Bot) Stop() {
	if b.cron == nil {
		return
	}
	ctx := b.cron.Stop()
	<-ctx.Done()
}

func (b *Bot) runOne(a Alert) {
	ctx := context.Background()

	if hb, ok := a.(*HeartbeatAlert); ok {
		b.cmd.Keyword(bus.SeverityDebug, hb.Keyword(), hb.Now().Unix())
		return
	}

	raw, err := a.Check(ctx)
	if err != nil {
		b.cmd.Warning("%s", checkErr(a.Keyword(), err))
		return
	}

	b.mu.Lock()
	st := b.states[a.Keyword()]
	b.mu.Unlock()
	if st == nil {
		return
	}

	changed := st.sample(raw)
	emit(b.cmd, a.Keyword(), st.value, changed, false)
}
