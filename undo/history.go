package undo

import (
	"github.com/milk9111/worldedit/logger"
	"github.com/milk9111/worldedit/world"
	"github.com/sirupsen/logrus"
)

// DefaultLimit is the number of entries kept when no limit is configured.
const DefaultLimit = 200

// History is the undo and redo stacks for one world. It is used from the
// owner goroutine only.
type History struct {
	w     world.World
	undo  []Command
	redo  []Command
	limit int

	// clean is the undo depth that matches the saved state, or -1 when
	// that state can no longer be reached.
	clean int
	// merge allows the top entry to absorb the next push.
	merge  bool
	macros []*Group

	detach func()
}

// NewHistory returns an empty history. A limit of 0 keeps everything.
// On an Overworld the history keeps levels its entries depend on from
// being unloaded; a forced unload of such a level clears the history.
func NewHistory(w world.World, limit int) *History {
	h := &History{w: w, limit: max(limit, 0)}
	if ow, ok := w.(*world.Overworld); ok {
		h.detach = ow.AddUnloadGuard(h.guardUnload)
	}
	return h
}

// Close unregisters the history from its world.
func (h *History) Close() {
	if h.detach != nil {
		h.detach()
		h.detach = nil
	}
}

func (h *History) guardUnload(l *world.Level, force bool) bool {
	if !h.References(l) {
		return true
	}
	if !force {
		return false
	}
	logger.Log.WithField("level", l.Name()).Warn("undo: history cleared by forced unload")
	h.Clear()
	return true
}

// References reports whether any undo, redo or open macro entry depends
// on l.
func (h *History) References(l *world.Level) bool {
	for _, stack := range [][]Command{h.undo, h.redo} {
		for _, c := range stack {
			if touches(c, l) {
				return true
			}
		}
	}
	for _, g := range h.macros {
		if touches(g, l) {
			return true
		}
	}
	return false
}

func (h *History) World() world.World { return h.w }
func (h *History) Len() int           { return len(h.undo) }
func (h *History) RedoLen() int       { return len(h.redo) }
func (h *History) CanUndo() bool      { return len(h.undo) > 0 && len(h.macros) == 0 }
func (h *History) CanRedo() bool      { return len(h.redo) > 0 && len(h.macros) == 0 }

// Push applies c and records it. When the previous entry belongs to the
// same gesture and can absorb c, the two become one entry; an entry that
// merges back to its starting state is dropped.
func (h *History) Push(c Command) {
	if c == nil {
		return
	}
	c.Redo(h.w)

	if n := len(h.macros); n > 0 {
		h.macros[n-1].add(c, h.merge)
		h.merge = true
		return
	}

	h.dropRedo()
	if h.merge && h.mergeTop(c) {
		return
	}
	h.undo = append(h.undo, c)
	h.merge = true
	h.evict()
}

func (h *History) mergeTop(c Command) bool {
	n := len(h.undo)
	if n == 0 {
		return false
	}
	top, ok := h.undo[n-1].(Merger)
	if !ok || !top.MergeWith(c) {
		return false
	}
	release(c)
	if h.clean == n {
		h.clean = -1
	}
	if top.Obsolete() {
		h.undo = h.undo[:n-1]
		release(top)
		logger.Log.WithFields(logrus.Fields{"depth": len(h.undo)}).Debug("undo: merged command became a no-op")
	}
	return true
}

func (h *History) dropRedo() {
	if len(h.redo) == 0 {
		return
	}
	if h.clean > len(h.undo) {
		h.clean = -1
	}
	for _, c := range h.redo {
		release(c)
	}
	h.redo = nil
}

func (h *History) evict() {
	if h.limit == 0 || len(h.undo) <= h.limit {
		return
	}
	extra := len(h.undo) - h.limit
	for _, c := range h.undo[:extra] {
		release(c)
	}
	h.undo = append(h.undo[:0:0], h.undo[extra:]...)
	if h.clean >= 0 {
		h.clean -= extra
		if h.clean < 0 {
			h.clean = -1
		}
	}
}

// SetLimit changes the number of kept entries, evicting the oldest.
func (h *History) SetLimit(n int) {
	h.limit = max(n, 0)
	h.evict()
}

func (h *History) Undo() bool {
	if !h.CanUndo() {
		return false
	}
	n := len(h.undo) - 1
	c := h.undo[n]
	h.undo = h.undo[:n]
	c.Undo(h.w)
	h.redo = append(h.redo, c)
	h.merge = false
	return true
}

func (h *History) Redo() bool {
	if !h.CanRedo() {
		return false
	}
	n := len(h.redo) - 1
	c := h.redo[n]
	h.redo = h.redo[:n]
	c.Redo(h.w)
	h.undo = append(h.undo, c)
	h.merge = false
	return true
}

// Checkpoint ends the current gesture; the next push starts a new entry.
func (h *History) Checkpoint() { h.merge = false }

// BeginMacro opens a group. Commands pushed until the matching EndMacro
// form one entry. Macros nest.
func (h *History) BeginMacro(name string) {
	h.macros = append(h.macros, &Group{Name: name})
	h.merge = false
}

// EndMacro closes the innermost group. Empty groups are discarded.
func (h *History) EndMacro() {
	n := len(h.macros)
	if n == 0 {
		return
	}
	g := h.macros[n-1]
	h.macros = h.macros[:n-1]
	h.merge = false
	if len(g.Commands) == 0 {
		return
	}
	if n > 1 {
		h.macros[n-2].add(g, false)
		return
	}
	h.dropRedo()
	h.undo = append(h.undo, g)
	h.evict()
}

// SetClean marks the current state as saved.
func (h *History) SetClean() {
	h.clean = len(h.undo)
	h.merge = false
}

func (h *History) IsClean() bool { return h.clean == len(h.undo) && len(h.macros) == 0 }

// Clear drops every entry and releases what they own. The current state
// becomes the clean state.
func (h *History) Clear() {
	for _, c := range h.undo {
		release(c)
	}
	for _, c := range h.redo {
		release(c)
	}
	for _, g := range h.macros {
		release(g)
	}
	h.undo, h.redo, h.macros = nil, nil, nil
	h.clean = 0
	h.merge = false
}
