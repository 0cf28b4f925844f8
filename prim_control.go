package main

// registerControlPrimitives installs the control-flow vocabulary. All of
// it works by stashing Label entities on the compile-time data stack:
// `begin` drops a backward target, `if`/`ahead`/`while` drop a forward
// one that the matching `then`/`repeat` resolves by emitting a LABEL
// opcode at the current position.
func registerControlPrimitives(c *Compiler) {
	c.defPrimitive("begin", PBegin)
	registerPrimitive(PBegin, primBegin)
	c.defPrimitive("again", PAgain)
	registerPrimitive(PAgain, primAgain)
	c.defPrimitive("until", PUntil)
	registerPrimitive(PUntil, primUntil)
	c.defPrimitive("while", PWhile)
	registerPrimitive(PWhile, primWhile)
	c.defPrimitive("repeat", PRepeat)
	registerPrimitive(PRepeat, primRepeat)
	c.defPrimitive("if", PIf)
	registerPrimitive(PIf, primIf)
	c.defPrimitive("?if", PQIf)
	registerPrimitive(PQIf, primIf)
	c.defPrimitive("else", PElse)
	registerPrimitive(PElse, primElse)
	c.defPrimitive("then", PThen)
	registerPrimitive(PThen, primThen)
	c.defPrimitive("ahead", PAhead)
	registerPrimitive(PAhead, primAhead)
	c.defPrimitive("[[", PEarlyOpen)
	registerPrimitive(PEarlyOpen, primEarlyOpen)
	c.defPrimitive("]]", PEarlyClose)
	registerPrimitive(PEarlyClose, primEarlyClose)
	c.defPrimitive("cfor", PCFor)
	registerPrimitive(PCFor, primCFor)
	c.defPrimitive("cnext", PCNext)
	registerPrimitive(PCNext, primCNext)
	c.defPrimitive("switchw", PSwitchW)
	registerPrimitive(PSwitchW, primSwitchW)
	c.defPrimitive("casew", PCaseW)
	registerPrimitive(PCaseW, primCaseW)
	c.defPrimitive("defaultw", PDefaultW)
	registerPrimitive(PDefaultW, primDefaultW)
	c.defPrimitive("endcasew", PEndCaseW)
	registerPrimitive(PEndCaseW, primEndCaseW)
	c.defPrimitive("endswitchw", PEndSwitchW)
	registerPrimitive(PEndSwitchW, primEndSwitchW)
	c.defPrimitive("recurse", PRecurse)
	registerPrimitive(PRecurse, primRecurse)
	c.defPrimitive("exit", PExit)
	registerPrimitive(PExit, primExit)
}

func (c *Compiler) popLabel() (EntityID, error) {
	it, err := c.CtPop()
	if err != nil {
		return NoEntity, err
	}
	if it.Kind != ItemEntity {
		return NoEntity, c.Error("expected a label on the control-flow stack")
	}
	return it.Entity, nil
}

func primBegin(c *Compiler, self *Entity) error {
	lbl := c.NewLabel()
	c.AddInstruction(Label, Ref{Entity: lbl.ID, Dict: c.Dict})
	c.CtPush(itemEntity(lbl.ID))
	return nil
}

func primAgain(c *Compiler, self *Entity) error {
	target, err := c.popLabel()
	if err != nil {
		return err
	}
	c.AddInstruction(IGoto, Ref{Entity: target, Dict: c.Dict})
	return nil
}

// primUntil consumes a flag left by a preceding comparison (normalized
// into the Z status bit by OP_0=) and loops back while it is
// false.
func primUntil(c *Compiler, self *Entity) error {
	target, err := c.popLabel()
	if err != nil {
		return err
	}
	c.AddInstruction(OpZeroEq)
	c.AddInstruction(IBz, Ref{Entity: target, Dict: c.Dict})
	return nil
}

func primWhile(c *Compiler, self *Entity) error {
	fwd := c.NewLabel()
	c.AddInstruction(OpZeroEq)
	c.AddInstruction(IBz, Ref{Entity: fwd.ID, Dict: c.Dict})
	c.CtPush(itemEntity(fwd.ID))
	return nil
}

func primRepeat(c *Compiler, self *Entity) error {
	fwd, err := c.popLabel()
	if err != nil {
		return err
	}
	begin, err := c.popLabel()
	if err != nil {
		return err
	}
	c.AddInstruction(IGoto, Ref{Entity: begin, Dict: c.Dict})
	c.AddInstruction(Label, Ref{Entity: fwd, Dict: c.Dict})
	return nil
}

// primIf implements §8 scenario 3: when the flag was just a compile-time
// constant push, no test is compiled. A non-zero constant runs the body
// unconditionally, with a warning, and pushes a no-op marker for `then`/
// `else` to resolve against; a zero constant compiles an unconditional
// goto past the body, also with a warning, and pushes that goto's label.
func primIf(c *Compiler, self *Entity) error {
	if last, ok := c.LastInstruction(); ok && last.Op == OpPush {
		if n, isStatic := last.Args[0].StaticValue(); isStatic {
			c.Rewind()
			if n != 0 {
				c.Warning("constant non-zero will always execute")
				c.CtPush(itemEntity(NoEntity))
				return nil
			}
			c.Warning("constant zero will never execute")
			lbl := c.NewLabel()
			c.AddInstruction(IGoto, Ref{Entity: lbl.ID, Dict: c.Dict})
			c.CtPush(itemEntity(lbl.ID))
			return nil
		}
	}
	fwd := c.NewLabel()
	c.AddInstruction(OpZeroEq)
	c.AddInstruction(IBz, Ref{Entity: fwd.ID, Dict: c.Dict})
	c.CtPush(itemEntity(fwd.ID))
	return nil
}

func primElse(c *Compiler, self *Entity) error {
	ifLabel, err := c.popLabel()
	if err != nil {
		return err
	}
	fwd := c.NewLabel()
	c.AddInstruction(IGoto, Ref{Entity: fwd.ID, Dict: c.Dict})
	if ifLabel != NoEntity {
		c.AddInstruction(Label, Ref{Entity: ifLabel, Dict: c.Dict})
	}
	c.CtPush(itemEntity(fwd.ID))
	return nil
}

func primThen(c *Compiler, self *Entity) error {
	lbl, err := c.popLabel()
	if err != nil {
		return err
	}
	if lbl != NoEntity {
		c.AddInstruction(Label, Ref{Entity: lbl, Dict: c.Dict})
	}
	return nil
}

func primAhead(c *Compiler, self *Entity) error {
	fwd := c.NewLabel()
	c.AddInstruction(IGoto, Ref{Entity: fwd.ID, Dict: c.Dict})
	c.CtPush(itemEntity(fwd.ID))
	return nil
}

// primEarlyOpen/primEarlyClose bracket a scoped block: `[[` allocates a
// label and `]]` places it. Nothing compiles a jump to that label; `exit`
// inside the block still jumps to the enclosing word's end_label (see
// primExit).
func primEarlyOpen(c *Compiler, self *Entity) error {
	lbl := c.NewLabel()
	c.CtPush(itemEntity(lbl.ID))
	return nil
}

func primEarlyClose(c *Compiler, self *Entity) error {
	lbl, err := c.popLabel()
	if err != nil {
		return err
	}
	c.AddInstruction(Label, Ref{Entity: lbl, Dict: c.Dict})
	return nil
}

// primCFor/primCNext implement a byte-counted loop: the count is popped
// off the data stack and pushed onto the return stack (FSR2) as a single
// byte, decremented in place and branched on at cnext, and finally
// discarded once it reaches zero.
func primCFor(c *Compiler, self *Entity) error {
	c.AddInstruction(IMovff, c.ref("POSTDEC0"), c.ref("PREINC2"))
	lbl := c.NewLabel()
	c.AddInstruction(Label, Ref{Entity: lbl.ID, Dict: c.Dict})
	c.CtPush(itemEntity(lbl.ID))
	return nil
}

func primCNext(c *Compiler, self *Entity) error {
	target, err := c.popLabel()
	if err != nil {
		return err
	}
	c.AddInstruction(IDecf, c.ref("INDF2"), DstF, AccessTag)
	c.AddInstruction(IBnz, Ref{Entity: target, Dict: c.Dict})
	c.AddInstruction(IMovf, c.ref("POSTDEC2"), DstW, AccessTag)
	return nil
}

// primSwitchW/primCaseW/... implement a simplified linear chain of
// compare-and-branch tests against W rather than the XOR-chained jump
// table of the source compiler: functionally equivalent, at the cost of
// O(n) dispatch instead of O(1).
func primSwitchW(c *Compiler, self *Entity) error {
	end := c.NewLabel()
	c.CtPush(itemEntity(end.ID))
	return nil
}

func primCaseW(c *Compiler, self *Entity) error {
	item, err := c.CtPop()
	if err != nil {
		return err
	}
	v, err := itemToValue(item)
	if err != nil {
		return err
	}
	end, err := c.popLabel()
	if err != nil {
		return err
	}
	next := c.NewLabel()
	c.AddInstruction(ISublw, v)
	c.AddInstruction(IBnz, Ref{Entity: next.ID, Dict: c.Dict})
	c.CtPush(itemEntity(end))
	c.CtPush(itemEntity(next.ID))
	return nil
}

func primDefaultW(c *Compiler, self *Entity) error { return nil }

func primEndCaseW(c *Compiler, self *Entity) error {
	next, err := c.popLabel()
	if err != nil {
		return err
	}
	end, err := c.popLabel()
	if err != nil {
		return err
	}
	c.AddInstruction(IGoto, Ref{Entity: end, Dict: c.Dict})
	c.AddInstruction(Label, Ref{Entity: next, Dict: c.Dict})
	c.CtPush(itemEntity(end))
	return nil
}

func primEndSwitchW(c *Compiler, self *Entity) error {
	end, err := c.popLabel()
	if err != nil {
		return err
	}
	c.AddInstruction(Label, Ref{Entity: end, Dict: c.Dict})
	return nil
}

// primRecurse compiles a call back to the word currently being defined.
func primRecurse(c *Compiler, self *Entity) error {
	return c.AddCall(c.CurrentObject)
}

// primExit jumps straight to the enclosing word's end_label, skipping
// whatever compiled code remains before its closing `;`. This always
// targets the word's own end_label rather than the nearest enclosing
// `[[ ... ]]` block: a simplification from the source compiler's nested
// early-exit scoping, documented as such.
func primExit(c *Compiler, self *Entity) error {
	if c.CurrentObject == nil || c.CurrentObject.EndLabel == NoEntity {
		return c.Error("exit used outside of a word definition")
	}
	c.AddInstruction(IGoto, Ref{Entity: c.CurrentObject.EndLabel, Dict: c.Dict})
	return nil
}
