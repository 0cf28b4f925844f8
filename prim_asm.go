package main

// The assembly escape (§4.4 "Assembly escape") lets a word body be
// written as literal PIC18 mnemonics. The source compiler reads operands
// off the compile-time stack in postfix order and defers to a prefix/
// postfix toggle to decide whether an operand token comes before or
// after its mnemonic; this port always reads operands as the tokens
// immediately following the mnemonic (conventional assembler order),
// which is what every worked example in the source actually reads like.
// prefix/postfix remain as recognized words (kept for source
// compatibility with library files that call them) but no longer change
// parsing order.
type asmState struct {
	dst    *Value // nil = unset
	access *Value
	fast   *Value
}

func registerAsmEscapePrimitives(c *Compiler) {
	registerPrimitive(PAsmPlain, primAsmPlain)
	registerPrimitive(PAsmL, primAsmL)
	registerPrimitive(PAsmS, primAsmS)
	registerPrimitive(PAsmLA, primAsmLA)
	registerPrimitive(PAsmLL, primAsmLL)
	registerPrimitive(PAsmLS, primAsmLS)
	registerPrimitive(PAsmLFA, primAsmLFA)
	registerPrimitive(PAsmLLA, primAsmLLA)

	c.defPrimitive("code", PCode)
	registerPrimitive(PCode, primCode)
	c.defPrimitive(";code", PCodeEnd)
	registerPrimitive(PCodeEnd, primCodeEnd)
	c.defPrimitive("prefix", PPrefix)
	registerPrimitive(PPrefix, func(c *Compiler, self *Entity) error { return nil })
	c.defPrimitive("postfix", PPostfix)
	registerPrimitive(PPostfix, func(c *Compiler, self *Entity) error { return nil })

	c.defPrimitive(",w", PSufW)
	registerPrimitive(PSufW, func(c *Compiler, self *Entity) error { c.asm.dst = &[]Value{DstW}[0]; return nil })
	c.defPrimitive(",f", PSufF)
	registerPrimitive(PSufF, func(c *Compiler, self *Entity) error { c.asm.dst = &[]Value{DstF}[0]; return nil })
	c.defPrimitive(",0", PSufAccess)
	registerPrimitive(PSufAccess, func(c *Compiler, self *Entity) error { c.asm.access = &[]Value{AccessTag}[0]; return nil })
	c.defPrimitive(",1", PSufNoAccess)
	registerPrimitive(PSufNoAccess, func(c *Compiler, self *Entity) error { c.asm.access = &[]Value{NoAccess}[0]; return nil })
	c.defPrimitive(",s", PSufFast)
	registerPrimitive(PSufFast, func(c *Compiler, self *Entity) error { c.asm.fast = &[]Value{FastTag}[0]; return nil })
}

// primCode opens a Word whose body is raw assembly; the interpreter
// state switches to interpret (0) so that suffix-modifier words run
// immediately as they're read, rather than being compiled as calls.
func primCode(c *Compiler, self *Entity) error {
	name, err := c.Lex.ParseWord()
	if err != nil {
		return err
	}
	w := c.Dict.New(name, KindWord, c.CurrentLocation())
	w.EndLabel = NoEntity
	w.Body = []Opcode{opLabel(w.ID, c.Dict)}
	c.Dict.Enter(w, c.CurrentObject, func(msg string) { c.Warning("redefinition of %s", msg) })
	c.CurrentObject = w
	c.State = StateInterpret
	c.asm = asmState{}
	return nil
}

func primCodeEnd(c *Compiler, self *Entity) error {
	c.State = StateCompile
	return nil
}

// readAsmOperand reads the next token and resolves it to a Value: a
// number, or a dictionary reference (a register, label, or constant).
func (c *Compiler) readAsmOperand() (Value, error) {
	tok, err := c.Lex.ParseWord()
	if err != nil {
		return nil, err
	}
	if n, ok := ParseNumber(tok); ok {
		return n, nil
	}
	if ent, ok := c.Find(tok); ok {
		return Ref{Entity: ent.ID, Dict: c.Dict}, nil
	}
	return nil, c.Error("unknown assembly operand %s", tok)
}

// scanSuffixes peeks at following tokens, consuming any that are suffix
// modifiers (",w" ",f" ",0" ",1" ",s") and running them, stopping at the
// first token that is not one.
func (c *Compiler) scanSuffixes() error {
	for {
		tok, err := c.Lex.ParseWord()
		if err != nil {
			if IsEOF(err) {
				return nil
			}
			return err
		}
		ent, ok := c.Find(tok)
		if !ok {
			c.Lex.Unread(tok)
			return nil
		}
		switch ent.PrimKind {
		case PSufW, PSufF, PSufAccess, PSufNoAccess, PSufFast:
			if err := c.RunEntity(ent); err != nil {
				return err
			}
		default:
			c.Lex.Unread(tok)
			return nil
		}
	}
}

func (c *Compiler) finishAsm(op Mnemonic, operands []Value, needDst, needAccess, needFast bool) error {
	if err := c.scanSuffixes(); err != nil {
		return err
	}
	args := append([]Value(nil), operands...)
	if needDst {
		if c.asm.dst == nil {
			c.Warning("implicit destination F assumed")
			args = append(args, DstF)
		} else {
			args = append(args, *c.asm.dst)
		}
	}
	if needAccess {
		if c.asm.access == nil {
			c.Warning("implicit access bank assumed")
			args = append(args, AccessTag)
		} else {
			args = append(args, *c.asm.access)
		}
	}
	if needFast {
		if c.asm.fast == nil {
			args = append(args, NoFastTag)
		} else {
			args = append(args, *c.asm.fast)
		}
	}
	c.AddInstruction(op, args...)
	c.asm = asmState{}
	return nil
}

func primAsmPlain(c *Compiler, self *Entity) error {
	return c.finishAsm(self.asmOp, nil, false, false, false)
}

func primAsmL(c *Compiler, self *Entity) error {
	v, err := c.readAsmOperand()
	if err != nil {
		return err
	}
	return c.finishAsm(self.asmOp, []Value{v}, false, false, false)
}

func primAsmS(c *Compiler, self *Entity) error {
	return c.finishAsm(self.asmOp, nil, false, false, true)
}

func primAsmLA(c *Compiler, self *Entity) error {
	v, err := c.readAsmOperand()
	if err != nil {
		return err
	}
	return c.finishAsm(self.asmOp, []Value{v}, false, true, false)
}

func primAsmLL(c *Compiler, self *Entity) error {
	v1, err := c.readAsmOperand()
	if err != nil {
		return err
	}
	v2, err := c.readAsmOperand()
	if err != nil {
		return err
	}
	return c.finishAsm(self.asmOp, []Value{v1, v2}, false, false, false)
}

func primAsmLS(c *Compiler, self *Entity) error {
	v, err := c.readAsmOperand()
	if err != nil {
		return err
	}
	return c.finishAsm(self.asmOp, []Value{v}, false, false, true)
}

func primAsmLFA(c *Compiler, self *Entity) error {
	v, err := c.readAsmOperand()
	if err != nil {
		return err
	}
	return c.finishAsm(self.asmOp, []Value{v}, true, true, false)
}

func primAsmLLA(c *Compiler, self *Entity) error {
	v1, err := c.readAsmOperand()
	if err != nil {
		return err
	}
	v2, err := c.readAsmOperand()
	if err != nil {
		return err
	}
	return c.finishAsm(self.asmOp, []Value{v1, v2}, false, true, false)
}
