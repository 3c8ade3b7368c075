package narration

import (
	"fmt"
	"log/slog"

	"github.com/roach88/cauldron/internal/config"
	"github.com/roach88/cauldron/internal/event"
)

// Rule maps an event to a voice line. Ingredient and Checkpoint narrow the
// match when set.
type Rule struct {
	Kind       event.Kind
	Ingredient string
	Checkpoint *int
	Line       Line
}

// Matches reports whether e triggers r.
func (r Rule) Matches(e event.Event) bool {
	if r.Kind != e.Kind {
		return false
	}
	if r.Ingredient != "" && r.Ingredient != e.Ingredient {
		return false
	}
	if r.Checkpoint != nil && *r.Checkpoint != e.Checkpoint {
		return false
	}
	return true
}

// RulesFrom converts configured lines into rules, in order.
func RulesFrom(lines []config.Line) ([]Rule, error) {
	rules := make([]Rule, 0, len(lines))
	for i, l := range lines {
		kind, err := event.ParseKind(l.On)
		if err != nil {
			return nil, fmt.Errorf("narration line %d: %w", i, err)
		}
		before, length, after := l.Timing()
		rules = append(rules, Rule{
			Kind:       kind,
			Ingredient: l.Ingredient,
			Checkpoint: l.Checkpoint,
			Line: Line{
				Clip:          l.Clip,
				Duration:      length,
				DelayBefore:   before,
				DelayAfter:    after,
				BlockMovement: l.BlockMovement,
			},
		})
	}
	return rules, nil
}

// Narrator enqueues lines for matching bus events until closed.
type Narrator struct {
	bus    *event.Bus
	queue  *Queue
	rules  []Rule
	sub    event.SubscriptionID
	closed bool
	logger *slog.Logger
}

// NewNarrator subscribes to bus. Every rule matching an event enqueues its
// line, in rule order.
func NewNarrator(bus *event.Bus, queue *Queue, rules []Rule, logger *slog.Logger) *Narrator {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Narrator{
		bus:    bus,
		queue:  queue,
		rules:  append([]Rule(nil), rules...),
		logger: logger,
	}
	n.sub = bus.SubscribeAll(n.handle)
	return n
}

func (n *Narrator) handle(e event.Event) {
	for _, r := range n.rules {
		if !r.Matches(e) {
			continue
		}
		if n.queue.Enqueue(r.Line) {
			n.logger.Debug("voice line queued", "clip", r.Line.Clip, "event", e.Kind.String(), "seq", e.Seq)
		}
	}
}

// Queue returns the narrator's queue.
func (n *Narrator) Queue() *Queue { return n.queue }

// Close unsubscribes from the bus. Lines already queued keep playing.
func (n *Narrator) Close() {
	if n.closed {
		return
	}
	n.bus.Unsubscribe(n.sub)
	n.closed = true
}
