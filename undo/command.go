// Package undo records world mutations as commands that can be undone and
// redone, and coalesces continuous gestures into single history entries.
package undo

import "github.com/milk9111/worldedit/world"

// Command is one undoable mutation. Redo applies the new state and Undo
// restores the old one exactly; both are safe to repeat in alternation.
type Command interface {
	Redo(w world.World)
	Undo(w world.World)
}

// Merger is implemented by commands that absorb a directly following
// command with the same identity, such as successive moves during a drag.
type Merger interface {
	Command
	// MergeWith folds next into the receiver and reports whether it did.
	// next has already been applied.
	MergeWith(next Command) bool
	// Obsolete reports whether the command no longer changes anything.
	Obsolete() bool
}

// Releaser is implemented by commands that own entities while those are
// not in the world. History calls Release when it drops the command.
type Releaser interface {
	Release()
}

func release(c Command) {
	if r, ok := c.(Releaser); ok {
		r.Release()
	}
}

// Group applies its commands in order and undoes them in reverse.
type Group struct {
	Name     string
	Commands []Command
}

func (g *Group) Redo(w world.World) {
	for _, c := range g.Commands {
		c.Redo(w)
	}
}

func (g *Group) Undo(w world.World) {
	for i := len(g.Commands) - 1; i >= 0; i-- {
		g.Commands[i].Undo(w)
	}
}

func (g *Group) Release() {
	for _, c := range g.Commands {
		release(c)
	}
}

func (g *Group) add(c Command, merge bool) {
	if n := len(g.Commands); merge && n > 0 {
		if m, ok := g.Commands[n-1].(Merger); ok && m.MergeWith(c) {
			release(c)
			if m.Obsolete() {
				g.Commands = g.Commands[:n-1]
				release(m)
			}
			return
		}
	}
	g.Commands = append(g.Commands, c)
}
