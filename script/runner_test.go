package script

import (
	"context"
	"testing"

	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/undo"
	"github.com/milk9111/worldedit/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Discard()
}

func setup(t *testing.T) (*world.Level, *undo.History, *world.NPC) {
	t.Helper()
	l := world.NewLevel(nil, "", 64, 64)
	npc := world.NewNPC(l.Sequence(), "npc.png", 32, 32)
	require.True(t, l.AddEntity(npc))
	return l, undo.NewHistory(l, 0), npc
}

func TestRunEditsAreOneUndoStep(t *testing.T) {
	_, h, npc := setup(t)
	r := NewRunner(h)

	src := `
if entity.kind() != "npc" { abort("wrong kind") }
entity.set("image", "guard.png")
entity.set("script", "say hello")
entity.move(16, 0)
entity.move(16, 8)
`
	require.NoError(t, r.Run(context.Background(), "edit", []byte(src), npc))
	assert.Equal(t, "guard.png", npc.Image)
	assert.Equal(t, "say hello", npc.Script)
	assert.Equal(t, 64.0, npc.X())
	assert.Equal(t, 40.0, npc.Y())
	assert.Equal(t, 1, h.Len())

	require.True(t, h.Undo())
	assert.Equal(t, "npc.png", npc.Image)
	assert.Equal(t, "", npc.Script)
	assert.Equal(t, 32.0, npc.X())
	assert.Equal(t, 32.0, npc.Y())
}

func TestRunReadsProperties(t *testing.T) {
	_, h, npc := setup(t)
	r := NewRunner(h)

	src := `
x := entity.get("x")
if x != 32.0 { abort("x") }
names := entity.properties()
if len(names) != 8 { abort("names") }
bad := entity.get("colour")
if !is_error(bad) { abort("expected error value") }
r := entity.set("version", 9)
if !is_error(r) { abort("expected rejected version") }
`
	require.NoError(t, r.Run(context.Background(), "read", []byte(src), npc))
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, world.NPCVersion, npc.Version)
}

func TestRunAt(t *testing.T) {
	l, h, npc := setup(t)
	sign := world.NewSign(l.Sequence(), 200, 200, "old")
	require.True(t, l.AddEntity(sign))
	r := NewRunner(h)

	src := `
s := at(210, 205)
s.set("text", "new")
s.resize(64, 16)
if !is_undefined(at(900, 900)) { abort("hit nothing") }
`
	require.NoError(t, r.Run(context.Background(), "at", []byte(src), nil))
	assert.Equal(t, "new", sign.Text)
	assert.Equal(t, 64, sign.Width())
	assert.Equal(t, "npc.png", npc.Image)
}

func TestRunErrors(t *testing.T) {
	_, h, npc := setup(t)
	r := NewRunner(h)

	err := r.Run(context.Background(), "syntax", []byte("entity.set("), npc)
	assert.ErrorContains(t, err, "script syntax")

	err = r.Run(context.Background(), "runtime", []byte(`entity.set("image", "a.png"); abort("stop")`), npc)
	assert.ErrorContains(t, err, "aborted: stop")
	assert.Equal(t, "a.png", npc.Image, "edits before the failure are kept")
	require.True(t, h.Undo())
	assert.Equal(t, "npc.png", npc.Image)
}

func TestRunStdlib(t *testing.T) {
	_, h, npc := setup(t)
	r := NewRunner(h)
	src := `
text := import("text")
entity.set("image", text.to_upper("npc.png"))
`
	require.NoError(t, r.Run(context.Background(), "stdlib", []byte(src), npc))
	assert.Equal(t, "NPC.PNG", npc.Image)
}
