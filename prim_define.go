package main

// registerDefinitionPrimitives installs the vocabulary that creates new
// dictionary entries: word definitions, constants, variables, and the
// comma/allot family that lays out memory for them.
func registerDefinitionPrimitives(c *Compiler) {
	c.defPrimitive(":", PColon)
	registerPrimitive(PColon, primColon)
	c.defPrimitive(";", PSemi)
	registerPrimitive(PSemi, primSemi)

	c.defPrimitive("constant", PConstant)
	registerPrimitive(PConstant, primConstant)
	c.defPrimitive("variable", PVariable)
	registerPrimitive(PVariable, primVariable)
	c.defPrimitive("cvariable", PCVariable)
	registerPrimitive(PCVariable, primCVariable)
	c.defPrimitive("eevariable", PEEVariable)
	registerPrimitive(PEEVariable, primEEVariable)
	c.defPrimitive("eecvariable", PEECVariable)
	registerPrimitive(PEECVariable, primEECVariable)
	c.defPrimitive("value", PValueWord)
	registerPrimitive(PValueWord, primValue)
	c.defPrimitive("create", PCreate)
	registerPrimitive(PCreate, primCreate)
	c.defPrimitive(",", PComma)
	registerPrimitive(PComma, primComma)
	c.defPrimitive("c,", PCComma)
	registerPrimitive(PCComma, primCComma)
	c.defPrimitive("allot", PAllot)
	registerPrimitive(PAllot, primAllot)
	c.defPrimitive("bit", PBitDef)
	registerPrimitive(PBitDef, primBitDef)
	c.defPrimitive("forward", PForward)
	registerPrimitive(PForward, primForward)
}

// primColon starts a new Word: switch to compile state, install an
// end_label used by early-exit control flow, and make it the current
// compilation target.
func primColon(c *Compiler, self *Entity) error {
	name, err := c.Lex.ParseWord()
	if err != nil {
		return err
	}
	w := c.Dict.New(name, KindWord, c.CurrentLocation())
	endLabel := c.Dict.New("_lbl_", KindLabel, c.CurrentLocation())
	c.Dict.Enter(endLabel, c.CurrentObject, nil)
	w.EndLabel = endLabel.ID
	w.Body = []Opcode{opLabel(w.ID, c.Dict)}
	c.Dict.Enter(w, c.CurrentObject, func(msg string) { c.Warning("redefinition of %s", msg) })
	c.CurrentObject = w
	c.State = StateCompile
	return nil
}

// primSemi closes the current Word with its end_label and an ordinary
// (non-fast) return.
func primSemi(c *Compiler, self *Entity) error {
	w := c.CurrentObject
	c.AddInstruction(Label, Ref{Entity: w.EndLabel, Dict: c.Dict})
	c.AddInstruction(IReturn, NoFastTag)
	c.State = StateInterpret
	return nil
}

// primConstant pops a value off the compile-time data stack and binds
// name to it permanently.
func primConstant(c *Compiler, self *Entity) error {
	name, err := c.Lex.ParseWord()
	if err != nil {
		return err
	}
	item, err := c.CtPop()
	if err != nil {
		return err
	}
	v, err := itemToValue(item)
	if err != nil {
		return err
	}
	ent := c.Dict.New(name, KindConstant, c.CurrentLocation())
	ent.ConstValue = v
	ent.Flags |= FlagImmediate
	ent.PrimKind = 0
	c.Dict.Enter(ent, c.CurrentObject, func(msg string) { c.Warning("redefinition of %s", msg) })
	return nil
}

func itemToValue(it StackItem) (Value, error) {
	switch it.Kind {
	case ItemValue:
		return it.Value, nil
	case ItemEntity:
		return Ref{Entity: it.Entity}, nil
	default:
		return nil, errInternal("cannot convert stack item to a value")
	}
}

// allocVariable handles the variable/cvariable/eevariable/eecvariable
// family: reserve storage (RAM, EEPROM, byte, or cell), bind name to its
// address, and — once InitializeVariables is set — synthesize a store of
// the popped initial value into init_runtime.
func (c *Compiler) allocVariable(name string, cell, eeprom bool) (*Entity, error) {
	item, err := c.CtPop()
	if err != nil {
		return nil, err
	}
	init, err := itemToValue(item)
	if err != nil {
		return nil, err
	}

	size := 1
	if cell {
		size = 2
	}
	var addr int
	if eeprom {
		addr = c.EEHere
		c.EEHere += size
	} else {
		addr = c.Here
		c.Here += size
	}

	ent := c.Dict.New(name, KindVariable, c.CurrentLocation())
	ent.Addr = NewNumber(addr)
	ent.Cell = cell
	ent.EEPROM = eeprom
	ent.Flags |= FlagImmediate
	c.Dict.Enter(ent, c.CurrentObject, func(msg string) { c.Warning("redefinition of %s", msg) })

	if c.InitializeVariables {
		c.PushInitRuntime()
		if cell {
			c.pushValue(Unary{Op: OpLowByte, V: init})
			if err := c.tosToAddrByte(ent.Addr); err != nil {
				return nil, err
			}
			c.pushValue(Unary{Op: OpHighByte, V: init})
			if err := c.tosToAddrByte(Binary{Op: OpAdd, L: ent.Addr, R: NewNumber(1)}); err != nil {
				return nil, err
			}
		} else {
			c.pushValue(init)
			if err := c.tosToAddrByte(ent.Addr); err != nil {
				return nil, err
			}
		}
		c.PopObject()
	}
	return ent, nil
}

func primVariable(c *Compiler, self *Entity) error {
	name, err := c.Lex.ParseWord()
	if err != nil {
		return err
	}
	_, err = c.allocVariable(name, true, false)
	return err
}

func primCVariable(c *Compiler, self *Entity) error {
	name, err := c.Lex.ParseWord()
	if err != nil {
		return err
	}
	_, err = c.allocVariable(name, false, false)
	return err
}

func primEEVariable(c *Compiler, self *Entity) error {
	name, err := c.Lex.ParseWord()
	if err != nil {
		return err
	}
	_, err = c.allocVariable(name, true, true)
	return err
}

func primEECVariable(c *Compiler, self *Entity) error {
	name, err := c.Lex.ParseWord()
	if err != nil {
		return err
	}
	_, err = c.allocVariable(name, false, true)
	return err
}

// primValue defines name exactly as `variable` does: a cell variable
// whose bare name pushes its address, so reading its contents takes an
// explicit @. No implicit fetch is compiled.
func primValue(c *Compiler, self *Entity) error {
	name, err := c.Lex.ParseWord()
	if err != nil {
		return err
	}
	_, err = c.allocVariable(name, true, false)
	return err
}

// primCreate reserves a named location with no initializer and leaves
// Here pointing at it; `,` and `c,` lay out the bytes that follow.
func primCreate(c *Compiler, self *Entity) error {
	name, err := c.Lex.ParseWord()
	if err != nil {
		return err
	}
	ent := c.Dict.New(name, KindVariable, c.CurrentLocation())
	ent.Addr = NewNumber(c.Here)
	ent.Flags |= FlagImmediate
	c.Dict.Enter(ent, c.CurrentObject, func(msg string) { c.Warning("redefinition of %s", msg) })
	return nil
}

func primComma(c *Compiler, self *Entity) error {
	c.Allot(2)
	_, err := c.CtPop()
	return err
}

func primCComma(c *Compiler, self *Entity) error {
	c.Allot(1)
	_, err := c.CtPop()
	return err
}

func primAllot(c *Compiler, self *Entity) error {
	item, err := c.CtPop()
	if err != nil {
		return err
	}
	v, err := itemToValue(item)
	if err != nil {
		return err
	}
	n, ok := v.StaticValue()
	if !ok {
		return c.Error("allot requires a constant size")
	}
	c.Allot(n)
	return nil
}

// primBitDef pops an address and a bit index and binds name to both,
// consumed later by the bit-set/bit-clr family.
func primBitDef(c *Compiler, self *Entity) error {
	name, err := c.Lex.ParseWord()
	if err != nil {
		return err
	}
	bitItem, err := c.CtPop()
	if err != nil {
		return err
	}
	addrItem, err := c.CtPop()
	if err != nil {
		return err
	}
	bit, err := itemToValue(bitItem)
	if err != nil {
		return err
	}
	addr, err := itemToValue(addrItem)
	if err != nil {
		return err
	}
	ent := c.Dict.New(name, KindBit, c.CurrentLocation())
	ent.Addr = addr
	ent.BitIndex = bit
	ent.Flags |= FlagImmediate
	c.Dict.Enter(ent, c.CurrentObject, func(msg string) { c.Warning("redefinition of %s", msg) })
	return nil
}

// primForward installs a placeholder that a later `:` (or other
// definition) for the same name will transparently replace.
func primForward(c *Compiler, self *Entity) error {
	name, err := c.Lex.ParseWord()
	if err != nil {
		return err
	}
	ent := c.Dict.New(name, KindForward, c.CurrentLocation())
	ent.Flags |= FlagImmediate
	c.Dict.Enter(ent, c.CurrentObject, nil)
	return nil
}
