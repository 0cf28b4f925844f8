package main

// registerStackPrimitives installs the stack-shuffling words whose whole
// job is to look at the tail of the opcode list already compiled and
// collapse a push-then-consume pattern instead of emitting a generic
// runtime operation.
func registerStackPrimitives(c *Compiler) {
	c.defPrimitive("dup", PDup)
	registerPrimitive(PDup, primDup)
	c.defPrimitive("drop", PDrop)
	registerPrimitive(PDrop, primDrop)
	c.defPrimitive(">w", PToW)
	registerPrimitive(PToW, primToW)
	c.defPrimitive("w>", PFromW)
	registerPrimitive(PFromW, primFromW)
	c.defPrimitive(">r", PToR)
	registerPrimitive(PToR, primToR)
	c.defPrimitive("r>", PFromR)
	registerPrimitive(PFromR, primFromR)
}

// primDrop discards the top of the data stack. If it was just pushed by
// the previous opcode, the push is rewound entirely instead of being
// compiled and immediately popped.
func primDrop(c *Compiler, self *Entity) error {
	if last, ok := c.LastInstruction(); ok && last.Op == OpPush {
		c.Rewind()
		return nil
	}
	c.AddInstruction(OpPopW)
	return nil
}

// primDup duplicates the top of the data stack. A just-pushed static
// value is simply pushed again rather than round-tripped through the
// runtime stack.
func primDup(c *Compiler, self *Entity) error {
	if last, ok := c.LastInstruction(); ok && last.Op == OpPush {
		c.AddInstruction(OpPush, last.Args[0])
		return nil
	}
	c.AddInstruction(OpDup)
	return nil
}

// primToW pops the top byte of the data stack into W.
func primToW(c *Compiler, self *Entity) error {
	if last, ok := c.LastInstruction(); ok && last.Op == OpPush {
		c.Rewind()
		c.AddInstruction(IMovlw, last.Args[0])
		return nil
	}
	if last, ok := c.LastInstruction(); ok && last.Op == OpFetch && ramAddr(last.Args[0]) {
		c.Rewind()
		c.AddInstruction(IMovf, last.Args[0], DstW, accessBitFor(last.Args[0]))
		return nil
	}
	c.popW()
	return nil
}

func primFromW(c *Compiler, self *Entity) error {
	c.pushW()
	return nil
}

func primToR(c *Compiler, self *Entity) error {
	c.AddInstruction(IMovff, c.ref("POSTDEC0"), c.ref("PREINC2"))
	c.AddInstruction(IMovff, c.ref("POSTDEC0"), c.ref("PREINC2"))
	return nil
}

func primFromR(c *Compiler, self *Entity) error {
	c.AddInstruction(IMovff, c.ref("POSTDEC2"), c.ref("PREINC0"))
	c.AddInstruction(IMovff, c.ref("POSTDEC2"), c.ref("PREINC0"))
	return nil
}
