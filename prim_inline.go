package main

// registerInlinePrimitives installs the attribute words that tag the word
// currently being defined: inline makes AddCall inline every call to the
// word and no-inline makes canInline refuse it, and inw/outw/outz record calling-convention
// shortcuts AddCall consults when compiling a call to this word.
func registerInlinePrimitives(c *Compiler) {
	c.defPrimitive("inline", PInlineMark)
	registerPrimitive(PInlineMark, primInlineMark)
	c.defPrimitive("no-inline", PNoInlineMark)
	registerPrimitive(PNoInlineMark, primNoInlineMark)
	c.defPrimitive("inw", PInW)
	registerPrimitive(PInW, primInW)
	c.defPrimitive("outw", POutW)
	registerPrimitive(POutW, primOutW)
	c.defPrimitive("outz", POutZ)
	registerPrimitive(POutZ, primOutZ)
}

func (c *Compiler) requireCurrentWord() error {
	if c.CurrentObject == nil || c.CurrentObject.Kind != KindWord {
		return c.Error("expected a word definition in progress")
	}
	return nil
}

func primInlineMark(c *Compiler, self *Entity) error {
	if err := c.requireCurrentWord(); err != nil {
		return err
	}
	c.CurrentObject.Flags |= FlagInlined
	c.CurrentObject.Flags &^= FlagNotInlinable
	return nil
}

func primNoInlineMark(c *Compiler, self *Entity) error {
	if err := c.requireCurrentWord(); err != nil {
		return err
	}
	c.CurrentObject.Flags |= FlagNotInlinable
	c.CurrentObject.Flags &^= FlagInlined
	return nil
}

func primInW(c *Compiler, self *Entity) error {
	if err := c.requireCurrentWord(); err != nil {
		return err
	}
	c.CurrentObject.Flags |= FlagInW
	return nil
}

func primOutW(c *Compiler, self *Entity) error {
	if err := c.requireCurrentWord(); err != nil {
		return err
	}
	c.CurrentObject.Flags |= FlagOutW
	return nil
}

func primOutZ(c *Compiler, self *Entity) error {
	if err := c.requireCurrentWord(); err != nil {
		return err
	}
	c.CurrentObject.Flags |= FlagOutZ
	return nil
}
