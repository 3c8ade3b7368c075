package narration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cauldron/internal/config"
	"github.com/roach88/cauldron/internal/event"
)

func intPtr(i int) *int { return &i }

func TestRulesFrom(t *testing.T) {
	rules, err := RulesFrom([]config.Line{
		{On: "ingredient_added", Ingredient: "dried_worm", Clip: "vo_worm", Duration: 2.5, DelayBefore: 0.5, BlockMovement: true},
		{On: "checkpoint_reached", Checkpoint: intPtr(1), Clip: "vo_cp1", Duration: 1},
	})
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, event.IngredientAdded, rules[0].Kind)
	assert.Equal(t, Line{
		Clip:          "vo_worm",
		Duration:      2500 * time.Millisecond,
		DelayBefore:   500 * time.Millisecond,
		BlockMovement: true,
	}, rules[0].Line)
	assert.Equal(t, 1, *rules[1].Checkpoint)

	_, err = RulesFrom([]config.Line{{On: "simmer", Clip: "x"}})
	assert.Error(t, err)
}

func TestRule_Matches(t *testing.T) {
	worm := Rule{Kind: event.IngredientAdded, Ingredient: "dried_worm"}
	anyIngredient := Rule{Kind: event.IngredientAdded}
	second := Rule{Kind: event.CheckpointReached, Checkpoint: intPtr(1)}

	assert.True(t, worm.Matches(event.Event{Kind: event.IngredientAdded, Ingredient: "dried_worm"}))
	assert.False(t, worm.Matches(event.Event{Kind: event.IngredientAdded, Ingredient: "dragons_tooth"}))
	assert.True(t, anyIngredient.Matches(event.Event{Kind: event.IngredientAdded, Ingredient: "dragons_tooth"}))
	assert.False(t, anyIngredient.Matches(event.Event{Kind: event.PotionFinished}))
	assert.True(t, second.Matches(event.Event{Kind: event.CheckpointReached, Checkpoint: 1}))
	assert.False(t, second.Matches(event.Event{Kind: event.CheckpointReached, Checkpoint: 0}))
}

func TestNarrator_QueuesMatchingLines(t *testing.T) {
	bus := event.NewBus()
	q, sp, _ := newTestQueue()
	n := NewNarrator(bus, q, []Rule{
		{Kind: event.IngredientAdded, Ingredient: "dried_worm", Line: Line{Clip: "vo_worm"}},
		{Kind: event.CheckpointReached, Checkpoint: intPtr(0), Line: Line{Clip: "vo_first"}},
		{Kind: event.PotionFinished, Line: Line{Clip: "vo_done"}},
	}, discardLogger())

	bus.Publish(event.Event{Kind: event.IngredientAdded, Ingredient: "firebloom_petals"})
	bus.Publish(event.Event{Kind: event.IngredientAdded, Ingredient: "dried_worm"})
	bus.Publish(event.Event{Kind: event.CheckpointReached, Checkpoint: 0})
	bus.Publish(event.Event{Kind: event.CheckpointReached, Checkpoint: 1})
	bus.Publish(event.Event{Kind: event.PotionFinished})

	assert.Equal(t, 3, q.Len())
	assert.Same(t, q, n.Queue())

	for i := 0; i < 3; i++ {
		q.Step(step)
	}
	assert.Equal(t, []string{"vo_worm", "vo_first", "vo_done"}, sp.played)
}

func TestNarrator_Close(t *testing.T) {
	bus := event.NewBus()
	q, _, _ := newTestQueue()
	n := NewNarrator(bus, q, []Rule{{Kind: event.PotionFinished, Line: Line{Clip: "vo_done"}}}, discardLogger())
	require.Equal(t, 1, bus.Len())

	n.Close()
	n.Close()

	bus.Publish(event.Event{Kind: event.PotionFinished})
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, bus.Len())
}
