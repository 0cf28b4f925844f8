package main

// registerIntrPrimitives installs the interrupt-related immediate words.
// intr-protect/intr-unprotect bracket a critical section with pseudo-ops
// the emitter expands into a plain clear and a plain set of GIE; the
// earlier state of GIE is not saved or restored. low-interrupt/
// high-interrupt bind the word currently being defined to an interrupt
// vector. The word keeps its ordinary closing return: the vector calls it
// and then executes retfie itself.
func registerIntrPrimitives(c *Compiler) {
	c.defPrimitive("intr-protect", PIntrProtect)
	registerPrimitive(PIntrProtect, primIntrProtect)
	c.defPrimitive("intr-unprotect", PIntrUnprotect)
	registerPrimitive(PIntrUnprotect, primIntrUnprotect)
	c.defPrimitive("low-interrupt", PLowInterrupt)
	registerPrimitive(PLowInterrupt, primLowInterrupt)
	c.defPrimitive("high-interrupt", PHighInterrupt)
	registerPrimitive(PHighInterrupt, primHighInterrupt)
}

func primIntrProtect(c *Compiler, self *Entity) error {
	if !c.UseInterrupts {
		return c.Error("interrupts are not enabled")
	}
	c.AddInstruction(OpIntrProtect)
	return nil
}

func primIntrUnprotect(c *Compiler, self *Entity) error {
	if !c.UseInterrupts {
		return c.Error("interrupts are not enabled")
	}
	c.AddInstruction(OpIntrUnprotect)
	return nil
}

func (c *Compiler) markInterrupt(slot *EntityID) error {
	if !c.UseInterrupts {
		return c.Error("interrupts are not enabled")
	}
	if c.CurrentObject == nil || c.CurrentObject.Kind != KindWord {
		return c.Error("low-interrupt/high-interrupt must appear inside a word definition")
	}
	if *slot != NoEntity {
		return c.Error("interrupt vector is already assigned to %s", c.Dict.Entity(*slot).Name)
	}
	*slot = c.CurrentObject.ID
	c.CurrentObject.Flags |= FlagNotInlinable
	return nil
}

func primLowInterrupt(c *Compiler, self *Entity) error {
	return c.markInterrupt(&c.LowInterrupt)
}

func primHighInterrupt(c *Compiler, self *Entity) error {
	return c.markInterrupt(&c.HighInterrupt)
}
