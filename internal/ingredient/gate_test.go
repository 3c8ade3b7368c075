package ingredient

import (
	"io"
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cauldron/internal/geom"
)

type recorder struct {
	added    []string
	rejected map[string]RejectReason
	finished int
	removed  []string
}

func newRecorder() *recorder { return &recorder{rejected: map[string]RejectReason{}} }

func (r *recorder) IngredientAdded(obj *Object) { r.added = append(r.added, obj.ID) }
func (r *recorder) IngredientRejected(obj *Object, reason RejectReason) {
	r.rejected[obj.ID] = reason
}
func (r *recorder) PotionFinished()    { r.finished++ }
func (r *recorder) Remove(obj *Object) { r.removed = append(r.removed, obj.ID) }

var testBounds = geom.NewBounds(mgl64.Vec3{-1, 0, -1}, mgl64.Vec3{1, 1, 1})

func newTestGate(t *testing.T, required int, rec *recorder, opts ...GateOption) *Gate {
	t.Helper()
	opts = append([]GateOption{
		WithListener(rec),
		WithRemover(rec),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	g, err := NewGate(testBounds, required, opts...)
	require.NoError(t, err)
	return g
}

func inside(id string, typ Type) *Object {
	return &Object{ID: id, Type: typ, Position: mgl64.Vec3{0, 0.5, 0}}
}

// enter delivers obj with the cauldron at the world origin.
func enter(g *Gate, obj *Object) (bool, Type) {
	if obj == nil {
		return g.OnZoneEnter(nil, mgl64.Vec3{})
	}
	return g.OnZoneEnter(obj, obj.Position)
}

func TestNewGate_Validation(t *testing.T) {
	_, err := NewGate(testBounds, 0)
	assert.Error(t, err)

	_, err = NewGate(geom.Bounds{Min: mgl64.Vec3{1, 1, 1}}, 1)
	assert.Error(t, err)
}

func TestOnZoneEnter_Idempotent(t *testing.T) {
	rec := newRecorder()
	g := newTestGate(t, 3, rec)
	obj := inside("worm-1", DriedWorm)

	ok, typ := enter(g, obj)
	assert.True(t, ok)
	assert.Equal(t, DriedWorm, typ)
	assert.True(t, obj.Processed())

	ok, _ = enter(g, obj)
	assert.False(t, ok)

	assert.Equal(t, 1, g.Added())
	assert.Equal(t, []string{"worm-1"}, rec.added)
	assert.Equal(t, []string{"worm-1"}, rec.removed)
	assert.Equal(t, ReasonAlreadyProcessed, rec.rejected["worm-1"])
}

func TestOnZoneEnter_FinishedExactlyOnce(t *testing.T) {
	rec := newRecorder()
	g := newTestGate(t, 3, rec)

	for i, id := range []string{"a", "b", "c", "d", "e"} {
		ok, _ := enter(g, inside(id, FirebloomPetals))
		require.True(t, ok)
		if i < 2 {
			assert.False(t, g.Brew().Finished)
		}
	}

	assert.Equal(t, 1, rec.finished)
	assert.Equal(t, BrewState{Added: 5, Required: 3, Finished: true}, g.Brew())
	assert.Len(t, rec.added, 5)
}

func TestOnZoneEnter_Rejections(t *testing.T) {
	rec := newRecorder()
	g := newTestGate(t, 2, rec, WithAcceptedTypes(DriedWorm, DragonsTooth))

	outside := &Object{ID: "far", Type: DriedWorm, Position: mgl64.Vec3{5, 0.5, 0}}
	untagged := &Object{ID: "rock", Position: mgl64.Vec3{0, 0.5, 0}}
	wrong := inside("petal", FirebloomPetals)

	for _, obj := range []*Object{outside, untagged, wrong} {
		ok, _ := enter(g, obj)
		assert.False(t, ok, obj.ID)
		assert.False(t, obj.Processed(), obj.ID)
	}

	assert.Equal(t, map[string]RejectReason{
		"far":   ReasonOutOfBounds,
		"rock":  ReasonUntagged,
		"petal": ReasonUnknownType,
	}, rec.rejected)
	assert.Equal(t, 0, g.Added())
	assert.Empty(t, rec.removed)

	ok, _ := enter(g, inside("tooth", DragonsTooth))
	assert.True(t, ok)
}

func TestOnZoneEnter_BoundsFollowTheCauldron(t *testing.T) {
	rec := newRecorder()
	g := newTestGate(t, 2, rec)
	frame := geom.NewFrame(mgl64.Vec3{2, 0.8, -1}, 30)

	inPot := &Object{ID: "in-pot", Type: DriedWorm, Position: frame.ToWorld(mgl64.Vec3{0, 0.5, 0})}
	atOrigin := &Object{ID: "at-origin", Type: DriedWorm, Position: mgl64.Vec3{0, 0.5, 0}}
	corner := &Object{ID: "corner", Type: DriedWorm, Position: frame.ToWorld(mgl64.Vec3{0.9, 0.5, 0.9})}

	ok, _ := g.OnZoneEnter(inPot, frame.ToLocal(inPot.Position))
	assert.True(t, ok)
	ok, _ = g.OnZoneEnter(atOrigin, frame.ToLocal(atOrigin.Position))
	assert.False(t, ok)
	ok, _ = g.OnZoneEnter(corner, frame.ToLocal(corner.Position))
	assert.True(t, ok, "a corner of the rotated box is still inside")

	assert.Equal(t, []string{"in-pot", "corner"}, rec.added)
	assert.Equal(t, ReasonOutOfBounds, rec.rejected["at-origin"])
}

func TestOnZoneEnter_NilObject(t *testing.T) {
	g := newTestGate(t, 1, newRecorder())
	ok, typ := enter(g, nil)
	assert.False(t, ok)
	assert.Equal(t, Type(""), typ)
}

func TestOnZoneEnter_NoListener(t *testing.T) {
	g, err := NewGate(testBounds, 1, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	ok, _ := enter(g, inside("x", DriedWorm))
	assert.True(t, ok)
	assert.True(t, g.Brew().Finished)
}

func TestParseType(t *testing.T) {
	for _, typ := range KnownTypes {
		got, err := ParseType(string(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	_, err := ParseType("eye_of_newt")
	assert.Error(t, err)
}
