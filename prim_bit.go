package main

// registerBitPrimitives installs the bit-twiddling family. When both the
// address and the bit index fold to compile-time constants in a
// short-addressable range, a single bsf/bcf/btg is emitted; otherwise
// compilation falls back to a runtime helper that takes the address and
// bit number off the data stack.
func registerBitPrimitives(c *Compiler) {
	c.defPrimitive("bit-set", PBitSet)
	registerPrimitive(PBitSet, bitOp(IBsf, "rt_bit_set"))
	c.defPrimitive("bit-clr", PBitClr)
	registerPrimitive(PBitClr, bitOp(IBcf, "rt_bit_clr"))
	c.defPrimitive("bit-toggle", PBitToggle)
	registerPrimitive(PBitToggle, bitOp(IBtg, "rt_bit_toggle"))
	c.defPrimitive("bit-set?", PBitSetQ)
	registerPrimitive(PBitSetQ, bitQuery(OpBitSetQ, "rt_bit_set_q"))
	c.defPrimitive("bit-clr?", PBitClrQ)
	registerPrimitive(PBitClrQ, bitQuery(OpBitClrQ, "rt_bit_clr_q"))
}

func bitOp(instr Mnemonic, helper string) primitiveFn {
	return func(c *Compiler, self *Entity) error {
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
		if _, bitStatic := bit.StaticValue(); bitStatic && shortAddr(addr) {
			c.AddInstruction(instr, addr, bit, accessBitFor(addr))
			return nil
		}
		c.pushValue(addr)
		c.pushValue(bit)
		return c.AddCall(c.Builtin(helper))
	}
}

func bitQuery(pseudo Mnemonic, helper string) primitiveFn {
	return func(c *Compiler, self *Entity) error {
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
		if _, bitStatic := bit.StaticValue(); bitStatic && shortAddr(addr) {
			c.AddInstruction(pseudo, addr, bit, accessBitFor(addr))
			return nil
		}
		c.pushValue(addr)
		c.pushValue(bit)
		return c.AddCall(c.Builtin(helper))
	}
}
