package graph

// Channel exposes one side of a stereo node as a mono node
// Its cell is written by the parent during the parent's evaluation
type Channel struct {
	*Base
	parent Node
}

func newChannel(s Scheduler, parent Node, kind string) *Channel {
	c := &Channel{parent: parent}
	c.Base = NewBase(s, c, kind)
	c.FixAR()
	return c
}

// Parent returns the stereo node the channel belongs to
func (c *Channel) Parent() Node {
	return c.parent
}

// Evaluate drives the parent for tick and returns this channel's cell
func (c *Channel) Evaluate(tick uint64) Cell {
	if c.Advance(tick) {
		Pull(c.parent, tick)
	}
	return c.cell
}
