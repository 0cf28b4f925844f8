package main

// pushValue compiles a generic push of v onto the data stack (OP_PUSH,
// later expanded into the low/high byte push pair).
func (c *Compiler) pushValue(v Value) { c.AddInstruction(OpPush, v) }

// pushByte compiles a push of a single byte, specializing the zero case
// to a clrf so constant-zero pushes never cost a movlw.
func (c *Compiler) pushByte(v Value) {
	if n, ok := v.StaticValue(); ok && n == 0 {
		c.AddInstruction(IClrf, c.ref("PREINC0"), AccessTag)
		return
	}
	c.AddInstruction(IMovlw, v)
	c.pushW()
}

func (c *Compiler) pushW() { c.AddInstruction(IMovwf, c.ref("PREINC0"), AccessTag) }

func (c *Compiler) popW() { c.AddInstruction(IMovf, c.ref("POSTDEC0"), DstW, AccessTag) }

// tosToAddrByte pops the top-of-stack byte into W then stores it at addr.
func (c *Compiler) tosToAddrByte(addr Value) error {
	c.popW()
	c.AddInstruction(IMovff, c.ref("WREG"), addr)
	return nil
}

// tosToAddr pops a 16-bit cell off the stack and stores it at addr..addr+1.
// Writing through PCL is special-cased: movff into PCL is forbidden by
// the processor, so that byte goes through W instead.
func (c *Compiler) tosToAddr(addr Value) {
	c.AddInstruction(IMovff, c.ref("POSTDEC0"), Binary{Op: OpAdd, L: addr, R: NewNumber(1)})
	if pcl, ok := c.Find("PCL"); ok {
		if av, aok := addr.StaticValue(); aok {
			if pv, pok := (Ref{Entity: pcl.ID, Dict: c.Dict}).StaticValue(); pok && av == pv {
				c.AddInstruction(IMovf, c.ref("POSTDEC0"), DstW, AccessTag)
				c.AddInstruction(IMovwf, addr, AccessTag)
				return
			}
		}
	}
	c.AddInstruction(IMovff, c.ref("POSTDEC0"), addr)
}

// popToFSR pops a 16-bit address off the stack into the given FSR,
// folding the common case where the address was just pushed as a static
// literal or fetched directly from RAM, avoiding a round trip through
// the data stack entirely.
func (c *Compiler) popToFSR(fsr int) {
	last, ok := c.LastInstruction()
	if ok && isStaticPush(last) {
		c.Rewind()
		c.AddInstruction(ILfsr, NewNumber(fsr), last.Args[0])
		return
	}
	if ok && isRAMFetch(c, last) {
		c.Rewind()
		addr := last.Args[0]
		c.AddInstruction(IMovff, addr, c.ref(fsrReg(fsr, "L")))
		c.AddInstruction(IMovff, Binary{Op: OpAdd, L: addr, R: NewNumber(1)}, c.ref(fsrReg(fsr, "H")))
		return
	}
	c.AddInstruction(IMovff, c.ref("POSTDEC0"), c.ref(fsrReg(fsr, "H")))
	c.AddInstruction(IMovff, c.ref("POSTDEC0"), c.ref(fsrReg(fsr, "L")))
}

func fsrReg(fsr int, half string) string {
	return "FSR" + itoa(fsr) + half
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func isStaticPush(op Opcode) bool {
	if op.Op != OpPush || len(op.Args) == 0 {
		return false
	}
	_, ok := op.Args[0].StaticValue()
	return ok
}

func isRAMFetch(c *Compiler, op Opcode) bool {
	if op.Op != OpFetch || len(op.Args) == 0 {
		return false
	}
	return ramAddr(op.Args[0])
}

// Address-class predicates from §3's invariants.
func inAccessBank(v Value) bool {
	n, ok := v.StaticValue()
	return ok && (n <= 0x5f || (n >= 0xf60 && n <= 0xfff))
}

func inBank1(v Value) bool {
	n, ok := v.StaticValue()
	return ok && n&0xff00 == 0x0100
}

func shortAddr(v Value) bool { return inAccessBank(v) || inBank1(v) }

func accessBitFor(v Value) Value {
	if inAccessBank(v) {
		return AccessTag
	}
	return NoAccess
}

func ramAddr(v Value) bool {
	n, ok := v.StaticValue()
	return ok && n&0xf000 == 0x0000
}

func eepromAddr(v Value) bool {
	n, ok := v.StaticValue()
	return ok && n&0xf000 == 0x1000
}

func registerMemPrimitives(c *Compiler) {
	c.defPrimitive("!", PStore)
	registerPrimitive(PStore, primStore)
	c.defPrimitive("c!", PCStore)
	registerPrimitive(PCStore, primCStore)
	c.defPrimitive("@", PFetch)
	registerPrimitive(PFetch, primFetch)
	c.defPrimitive("c@", PCFetch)
	registerPrimitive(PCFetch, primCFetch)
	c.defPrimitive("1+!", POnePlusStore)
	registerPrimitive(POnePlusStore, primOnePlusStore)
}

// peekStaticPushAddr reports the static address a pending push would
// contribute without mutating the body; callers that decide to consume
// it must call rewindStaticPush themselves.
func peekStaticPushAddr(c *Compiler) (Value, bool) {
	last, ok := c.LastInstruction()
	if !ok || !isStaticPush(last) {
		return nil, false
	}
	return last.Args[0], true
}

func rewindStaticPush(c *Compiler) { c.Rewind() }

// primStore stores a 16-bit cell: if the address is a compile-time
// constant in RAM, emit the two movff directly; if it is a known EEPROM
// address, defer to the EEPROM helper word; otherwise fall back to the
// generic runtime store.
func primStore(c *Compiler, self *Entity) error {
	if addr, ok := peekStaticPushAddr(c); ok {
		if ramAddr(addr) {
			rewindStaticPush(c)
			c.tosToAddr(addr)
			return nil
		}
		if eepromAddr(addr) {
			rewindStaticPush(c)
			c.popToFSR(1)
			return c.AddCall(c.Builtin("ee_store"))
		}
	}
	c.popToFSR(1)
	return c.AddCall(c.Builtin("rt_store"))
}

func primCStore(c *Compiler, self *Entity) error {
	if addr, ok := peekStaticPushAddr(c); ok {
		if ramAddr(addr) {
			rewindStaticPush(c)
			return c.tosToAddrByte(addr)
		}
		if eepromAddr(addr) {
			rewindStaticPush(c)
			c.popToFSR(1)
			return c.AddCall(c.Builtin("ee_cstore"))
		}
	}
	c.popToFSR(1)
	return c.AddCall(c.Builtin("rt_cstore"))
}

func primFetch(c *Compiler, self *Entity) error {
	if addr, ok := peekStaticPushAddr(c); ok {
		rewindStaticPush(c)
		c.AddInstruction(OpFetch, addr)
		return nil
	}
	c.popToFSR(1)
	return c.AddCall(c.Builtin("rt_fetch"))
}

func primCFetch(c *Compiler, self *Entity) error {
	if addr, ok := peekStaticPushAddr(c); ok {
		rewindStaticPush(c)
		c.AddInstruction(OpCFetch, addr)
		return nil
	}
	c.popToFSR(1)
	return c.AddCall(c.Builtin("rt_cfetch"))
}

// primOnePlusStore specializes increment-in-place of a known RAM address
// to a two-instruction skip-on-carry sequence instead of a full
// fetch/add/store round trip.
func primOnePlusStore(c *Compiler, self *Entity) error {
	addr, ok := peekStaticPushAddr(c)
	if !ok || !ramAddr(addr) {
		c.popToFSR(1)
		return c.AddCall(c.Builtin("rt_1plus_store"))
	}
	rewindStaticPush(c)
	access := accessBitFor(addr)
	c.AddInstruction(IInfsnz, addr, DstF, access)
	c.AddInstruction(IIncf, Binary{Op: OpAdd, L: addr, R: NewNumber(1)}, DstF, access)
	return nil
}
