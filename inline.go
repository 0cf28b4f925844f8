package main

// canInline reports whether target is structurally eligible for inlining
// at all: never directly recursive (a call to itself in its own body),
// never explicitly barred, and never an interrupt vector (those are
// entered only by hardware, inlining them anywhere makes no sense).
// Recursion through another word is not detected.
func canInline(c *Compiler, target *Entity) bool {
	if target.Flags.Has(FlagNotInlinable) {
		return false
	}
	if target.ID == c.LowInterrupt || target.ID == c.HighInterrupt {
		return false
	}
	for _, op := range target.Body {
		if op.Op == ICall {
			if r, ok := op.Args[0].(Ref); ok && r.Entity == target.ID {
				return false
			}
		}
	}
	return true
}

// shouldInline is a size heuristic for words that carry neither `inline`
// nor `no-inline`: bodies of four instructions or fewer count as cheap
// enough that the call/return overhead dominates their cost. Nothing in
// the compiler calls it; automatic inlining (prepare in reach.go) checks
// canInline only.
const inlineSizeThreshold = 4

func shouldInline(c *Compiler, target *Entity) bool {
	if target.Flags.Has(FlagInlined) {
		return canInline(c, target)
	}
	if target.Flags.Has(FlagNotInlinable) {
		return false
	}
	return canInline(c, target) && len(target.Body) <= inlineSizeThreshold
}

// InlineCall clones target's body into the word currently being compiled,
// freshening every label it defines (including its end_label) so that
// inlining the same word twice into one caller, or inlining it into two
// different callers, never collides. The trailing return is turned into
// falling through to the freshened end label instead, exactly like the
// `;` that closed target originally, just without the return instruction
// since control simply continues in the caller's body.
func (c *Compiler) InlineCall(target *Entity) {
	fresh := map[EntityID]EntityID{}
	freshen := func(id EntityID) EntityID {
		if id == NoEntity {
			return NoEntity
		}
		if f, ok := fresh[id]; ok {
			return f
		}
		lbl := c.NewLabel()
		fresh[id] = lbl.ID
		return lbl.ID
	}
	freshen(target.EndLabel)

	remap := func(v Value) Value {
		if r, ok := v.(Ref); ok {
			if r.Entity == target.ID {
				return Ref{Entity: c.CurrentObject.ID, Dict: c.Dict}
			}
			if nr, ok2 := fresh[r.Entity]; ok2 {
				return Ref{Entity: nr, Dict: c.Dict}
			}
		}
		return v
	}

	for _, op := range target.Body {
		if lbl := op.LabelOf(); lbl != NoEntity {
			if lbl == target.ID {
				continue // the word's own entry label never repeats mid-caller
			}
			newID := freshen(lbl)
			c.AddInstruction(Label, Ref{Entity: newID, Dict: c.Dict})
			continue
		}
		if op.Op == IReturn {
			continue
		}
		args := make([]Value, len(op.Args))
		for i, a := range op.Args {
			args[i] = remap(a)
		}
		c.CurrentObject.Body = append(c.CurrentObject.Body, Opcode{Op: op.Op, Args: args})
		for _, a := range args {
			if r, ok := a.(Ref); ok && r.Entity != c.CurrentObject.ID {
				c.CurrentObject.AddRef(r.Entity)
			}
		}
	}
	c.AddInstruction(Label, Ref{Entity: fresh[target.EndLabel], Dict: c.Dict})
}
