package main

// registerReaderPrimitives installs the two reader-level escapes spec.md
// §1 lists as part of the input format but which aren't control-flow or
// definition words in their own right: parenthesized comments and string
// literals. Both consume raw text off the current line via Lexer.Parse.
func registerReaderPrimitives(c *Compiler) {
	c.defPrimitive("(", PParenComment)
	registerPrimitive(PParenComment, primParenComment)
	c.defPrimitive(`"`, PString)
	registerPrimitive(PString, primString)
}

// primParenComment discards everything up to and including the next ')'
// on the current line.
func primParenComment(c *Compiler, self *Entity) error {
	_, err := c.Lex.Parse(')')
	return err
}

// primString reads a double-quote-delimited literal, lays it out
// (NUL-terminated) in the flash constant pool, binds an anonymous
// FlashData entity to its address, and compiles a push of that address —
// mirroring how a Variable's address is pushed by bare-name lookup,
// except the storage was laid out ahead of time instead of reserved.
func primString(c *Compiler, self *Entity) error {
	text, err := c.Lex.Parse('"')
	if err != nil {
		return err
	}
	data := append([]byte(text), 0)

	addr := c.FlashHere
	c.FlashHere += len(data)
	if err := c.FlashPool.Stor(uint(addr), data...); err != nil {
		return err
	}

	ent := c.Dict.New(`"`, KindFlashData, c.CurrentLocation())
	ent.Addr = NewNumber(addr)
	ent.Data = data
	ent.Flags &^= FlagFromSource
	c.Dict.Enter(ent, c.CurrentObject, nil)

	c.pushOrCtPush(ent.Addr)
	return nil
}
