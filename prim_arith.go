package main

// registerArithPrimitives installs the folding arithmetic words. In
// compile state, when both operands were just pushed, the two pushes
// collapse into a single push of the symbolic expression so the final
// constant only materializes once, at expansion time. In interpret
// state the same words operate directly on the compile-time data stack.
func registerArithPrimitives(c *Compiler) {
	c.defPrimitive("+", PAdd)
	registerPrimitive(PAdd, binaryPrim(OpAdd, "rt_add"))
	c.defPrimitive("-", PSub)
	registerPrimitive(PSub, binaryPrim(OpSub, "rt_sub"))
	c.defPrimitive("*", PMul)
	registerPrimitive(PMul, binaryPrim(OpMul, "rt_mul"))
	c.defPrimitive("lshift", PLShift)
	registerPrimitive(PLShift, binaryPrim(OpShl, "rt_lshift"))
	c.defPrimitive("1+", POnePlus)
	registerPrimitive(POnePlus, unaryAdd(1))
	c.defPrimitive("1-", POneMinus)
	registerPrimitive(POneMinus, unaryAdd(-1))
}

func binaryPrim(op BinaryOp, helper string) primitiveFn {
	return func(c *Compiler, self *Entity) error {
		if c.State == StateInterpret {
			b, err := c.CtPop()
			if err != nil {
				return err
			}
			a, err := c.CtPop()
			if err != nil {
				return err
			}
			av, err := itemToValue(a)
			if err != nil {
				return err
			}
			bv, err := itemToValue(b)
			if err != nil {
				return err
			}
			c.CtPush(itemValue(Binary{Op: op, L: av, R: bv}))
			return nil
		}

		before, hasBefore := c.BeforeLastInstruction()
		last, hasLast := c.LastInstruction()
		if hasBefore && hasLast && before.Op == OpPush && last.Op == OpPush {
			c.Rewind()
			c.Rewind()
			c.AddInstruction(OpPush, Binary{Op: op, L: before.Args[0], R: last.Args[0]})
			return nil
		}
		return c.AddCall(c.Builtin(helper))
	}
}

// unaryAdd implements 1+/1-, folding into the pending push when possible;
// otherwise it compiles a call to the rt_1plus/rt_1minus helper. No
// inline increment or decrement sequence is compiled in its place.
func unaryAdd(delta int) primitiveFn {
	return func(c *Compiler, self *Entity) error {
		if c.State == StateInterpret {
			item, err := c.CtPop()
			if err != nil {
				return err
			}
			v, err := itemToValue(item)
			if err != nil {
				return err
			}
			c.CtPush(itemValue(Binary{Op: OpAdd, L: v, R: NewNumber(delta)}))
			return nil
		}
		if last, ok := c.LastInstruction(); ok && last.Op == OpPush {
			c.Rewind()
			c.AddInstruction(OpPush, Binary{Op: OpAdd, L: last.Args[0], R: NewNumber(delta)})
			return nil
		}
		if delta == 1 {
			return c.AddCall(c.Builtin("rt_1plus"))
		}
		return c.AddCall(c.Builtin("rt_1minus"))
	}
}
