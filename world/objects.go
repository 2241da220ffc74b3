package world

import "slices"

const (
	NPCSize       = 48
	SignWidth     = 32
	SignHeight    = 16
	ChestSize     = 32
	BaddySize     = 32
	ObjectSize    = 32
	NPCVersionOld = 1
	NPCVersion    = 2
)

type NPC struct {
	Object
	Image   string
	Script  string
	Version int
}

func NewNPC(seq *Sequence, image string, x, y float64) *NPC {
	return &NPC{Object: newObject(seq, x, y, NPCSize, NPCSize, 0), Image: image, Version: NPCVersion}
}

func (n *NPC) Kind() Kind { return KindNPC }
func (n *NPC) Release()   { n.release() }

func (n *NPC) Clone(seq *Sequence) Entity {
	out := *n
	out.Object = n.clone(seq)
	return &out
}

// Link warps the player to NextLevel. NextX and NextY are kept as text
// since they may name a script variable instead of a number.
type Link struct {
	Object
	NextLevel string
	NextX     string
	NextY     string
}

func NewLink(seq *Sequence, x, y float64, w, h int, next, nextX, nextY string) *Link {
	return &Link{Object: newObject(seq, x, y, w, h, 0), NextLevel: next, NextX: nextX, NextY: nextY}
}

func (l *Link) Kind() Kind { return KindLink }
func (l *Link) Release()   { l.release() }

func (l *Link) Clone(seq *Sequence) Entity {
	out := *l
	out.Object = l.clone(seq)
	return &out
}

type Sign struct {
	Object
	Text string
}

func NewSign(seq *Sequence, x, y float64, text string) *Sign {
	return &Sign{Object: newObject(seq, x, y, SignWidth, SignHeight, 0), Text: text}
}

func (s *Sign) Kind() Kind { return KindSign }
func (s *Sign) Release()   { s.release() }

func (s *Sign) Clone(seq *Sequence) Entity {
	out := *s
	out.Object = s.clone(seq)
	return &out
}

// Chest holds an item; SignIndex names the level sign shown on opening.
type Chest struct {
	Object
	Item      string
	SignIndex int
}

func NewChest(seq *Sequence, x, y float64, item string, signIndex int) *Chest {
	return &Chest{Object: newObject(seq, x, y, ChestSize, ChestSize, 0), Item: item, SignIndex: signIndex}
}

func (c *Chest) Kind() Kind { return KindChest }
func (c *Chest) Release()   { c.release() }

func (c *Chest) Clone(seq *Sequence) Entity {
	out := *c
	out.Object = c.clone(seq)
	return &out
}

// Baddy is an enemy spawn. Verses are the attack, hurt and defeat lines.
type Baddy struct {
	Object
	BaddyType int
	Verses    [3]string
}

func NewBaddy(seq *Sequence, x, y float64, typ int) *Baddy {
	return &Baddy{Object: newObject(seq, x, y, BaddySize, BaddySize, 0), BaddyType: typ}
}

func (b *Baddy) Kind() Kind { return KindBaddy }
func (b *Baddy) Release()   { b.release() }

func (b *Baddy) Clone(seq *Sequence) Entity {
	out := *b
	out.Object = b.clone(seq)
	return &out
}

// ObjectInstance places an object class with positional parameters.
type ObjectInstance struct {
	Object
	ClassName string
	Params    []string
}

func NewObjectInstance(seq *Sequence, class string, x, y float64, params ...string) *ObjectInstance {
	return &ObjectInstance{
		Object:    newObject(seq, x, y, ObjectSize, ObjectSize, 0),
		ClassName: class,
		Params:    slices.Clone(params),
	}
}

func (o *ObjectInstance) Kind() Kind { return KindObjectInstance }
func (o *ObjectInstance) Release()   { o.release() }

func (o *ObjectInstance) Clone(seq *Sequence) Entity {
	out := *o
	out.Object = o.clone(seq)
	out.Params = slices.Clone(o.Params)
	return &out
}
