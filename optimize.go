package main

// optimize runs the ten peephole rules over w's body to a fixpoint,
// mirroring Word.optimize's repeat-until-stable loop: each rule is given
// another pass as long as any rule in the previous pass made a change.
func optimizeWord(d *Dict, w *Entity) {
	for {
		changed := false
		changed = optimizeTailCall(w) || changed
		changed = optimizeChainedJumps(d, w) || changed
		changed = optimizeRetlwFusion(w) || changed
		changed = optimizeDeadLabels(w) || changed
		changed = optimizeDeadCode(w) || changed
		changed = optimizeSmallGotos(w) || changed
		changed = optimizeShortConditions(w) || changed
		changed = optimizeUselessGotos(w) || changed
		changed = optimizeDuplicateLabels(d, w) || changed
		changed = optimizeSingleGoto(d, w) || changed
		if !changed {
			return
		}
	}
}

// optimizeTailCall rewrites a call immediately followed by a return into
// a single tail jump (goto), since the PIC18 call/return pair is just a
// more expensive way to say "jump there and let it return for us" when
// nothing happens in between.
func optimizeTailCall(w *Entity) bool {
	changed := false
	body := w.Body
	for i := 0; i+1 < len(body); i++ {
		if body[i].Op == ICall && body[i+1].Op == IReturn {
			target := body[i].Args[0]
			fast := body[i+1].Args[0]
			if fast == NoFastTag {
				body[i] = Opcode{Op: IGoto, Args: []Value{target}}
				body = append(body[:i+1], body[i+2:]...)
				changed = true
			}
		}
	}
	w.Body = body
	return changed
}

// optimizeChainedJumps rewrites a goto/bra whose target label is itself
// immediately followed by another goto to jump straight to that final
// destination, collapsing chains built up by earlier inlining or dead
// label removal. Only labels defined within this same word's body are
// considered, matching the source compiler's single-word optimizer
// scope: a jump into another word's body never happens in this design.
func optimizeChainedJumps(d *Dict, w *Entity) bool {
	changed := false
	labelPos := map[EntityID]int{}
	for i, op := range w.Body {
		if lbl := op.LabelOf(); lbl != NoEntity {
			labelPos[lbl] = i
		}
	}
	for i, op := range w.Body {
		if op.Op != IGoto && op.Op != IBra {
			continue
		}
		target := op.LabelTargetEntity()
		pos, ok := labelPos[target]
		if !ok {
			continue
		}
		for next := pos + 1; next < len(w.Body) && w.Body[next].Op == Label; next++ {
			pos = next
		}
		if pos+1 < len(w.Body) && w.Body[pos+1].Op == IGoto {
			finalTarget := w.Body[pos+1].Args[0]
			if w.Body[i].Args[0] != finalTarget {
				w.Body[i].Args[0] = finalTarget
				changed = true
			}
		}
	}
	return changed
}

// LabelTargetEntity returns the entity a goto/bra opcode targets.
func (op Opcode) LabelTargetEntity() EntityID {
	if len(op.Args) == 0 {
		return NoEntity
	}
	if r, ok := op.Args[0].(Ref); ok {
		return r.Entity
	}
	return NoEntity
}

// optimizeRetlwFusion rewrites a movlw N / return pair into retlw N,
// saving an instruction whenever a word's only remaining job at its end
// is to leave a literal in W before returning.
func optimizeRetlwFusion(w *Entity) bool {
	changed := false
	body := w.Body
	for i := 0; i+1 < len(body); i++ {
		if body[i].Op == IMovlw && body[i+1].Op == IReturn {
			fast := body[i+1].Args[0]
			if fast == NoFastTag {
				body[i] = Opcode{Op: IRetlw, Args: []Value{body[i].Args[0]}}
				body = append(body[:i+1], body[i+2:]...)
				changed = true
			}
		}
	}
	w.Body = body
	return changed
}

// optimizeDeadLabels removes any LABEL opcode for an entity nothing in
// this word's body references any more, after chained-jump collapsing
// and tail-call rewriting may have orphaned it.
func optimizeDeadLabels(w *Entity) bool {
	changed := false
	body := w.Body
	for i := 0; i < len(body); i++ {
		lbl := body[i].LabelOf()
		if lbl == NoEntity || lbl == w.EndLabel {
			continue
		}
		referenced := false
		for j, op := range body {
			if j == i {
				continue
			}
			if op.MakesReferenceTo(lbl) {
				referenced = true
				break
			}
		}
		if !referenced {
			body = append(body[:i], body[i+1:]...)
			i--
			changed = true
		}
	}
	w.Body = body
	return changed
}

// optimizeDeadCode drops unreachable instructions: any run starting right
// after an unconditional exit (goto/bra/retlw/return/retfie/reset) and
// ending just before the next LABEL. This is the Open Question spot: the
// run is kept when the label that closes it is referenced by an opcode at
// or before the exit, and the scan for such a reference stops the instant
// it finds one, via an explicit break, rather than by silently
// overwriting a found-so-far flag. The closing label itself always stays.
func optimizeDeadCode(w *Entity) bool {
	changed := false
	body := w.Body
	for i := 0; i < len(body); i++ {
		if !unconditionalExits[body[i].Op] {
			continue
		}
		j := i + 1
		for j < len(body) && body[j].Op != Label {
			j++
		}
		if j == i+1 {
			continue
		}
		if j < len(body) {
			lbl := body[j].LabelOf()
			referencedBefore := false
			for k := 0; k <= i; k++ {
				if body[k].MakesReferenceTo(lbl) {
					referencedBefore = true
					break
				}
			}
			if referencedBefore {
				// the label is a jump target reached from earlier in
				// this same word; the block between i+1 and j is kept
				// although it follows an exit.
				continue
			}
		}
		body = append(body[:i+1], body[j:]...)
		changed = true
	}
	w.Body = body
	return changed
}

// optimizeSmallGotos handles a skip-instruction immediately followed by
// `goto LBL` and then `LABEL LBL`: both outcomes of the skip already
// arrive at LBL, so the goto becomes a nop, which keeps the skip stepping
// over a one-word instruction that does nothing. Gotos are not turned
// into bra here, and no skip is inverted.
func optimizeSmallGotos(w *Entity) bool {
	changed := false
	body := w.Body
	for i := 0; i+2 < len(body); i++ {
		if !skipInstructions[body[i].Op] || body[i+1].Op != IGoto {
			continue
		}
		lbl := body[i+2].LabelOf()
		if lbl == NoEntity {
			continue
		}
		if body[i+1].LabelTargetEntity() == lbl {
			body[i+1] = Opcode{Op: INop}
			changed = true
		}
	}
	w.Body = body
	return changed
}

// optimizeShortConditions drops a MarkerZSet hint that sits directly
// before an OP_0=. The OP_0= itself stays and is expanded in full later;
// no btfsc/btfss or bz/bnz rewrite on the Z or C bit is made here.
func optimizeShortConditions(w *Entity) bool {
	changed := false
	body := w.Body
	for i := 0; i+1 < len(body); i++ {
		if body[i].Op == MarkerZSet && body[i+1].Op == OpZeroEq {
			body = append(body[:i], body[i+1:]...)
			changed = true
		}
	}
	w.Body = body
	return changed
}

// optimizeUselessGotos removes a goto whose target LABEL is the very next
// instruction: a jump to the next line is always a no-op.
func optimizeUselessGotos(w *Entity) bool {
	changed := false
	body := w.Body
	for i := 0; i+1 < len(body); i++ {
		if body[i].Op != IGoto {
			continue
		}
		if body[i+1].LabelOf() == body[i].LabelTargetEntity() {
			body = append(body[:i], body[i+1:]...)
			changed = true
		}
	}
	w.Body = body
	return changed
}

// optimizeDuplicateLabels merges adjacent LABEL opcodes (two labels
// marking the same position) by replacing every reference to the second
// with the first throughout the word, then dropping the redundant LABEL.
func optimizeDuplicateLabels(d *Dict, w *Entity) bool {
	changed := false
	body := w.Body
	for i := 0; i+1 < len(body); i++ {
		if body[i].Op != Label || body[i+1].Op != Label {
			continue
		}
		keep := body[i].LabelOf()
		drop := body[i+1].LabelOf()
		if keep == w.EndLabel {
			keep, drop = drop, keep
		}
		replaceLabel(w, drop, keep)
		body = append(body[:i+1], body[i+2:]...)
		changed = true
	}
	w.Body = body
	return changed
}

func replaceLabel(w *Entity, old, new EntityID) {
	for i := range w.Body {
		for j, a := range w.Body[i].Args {
			if r, ok := a.(Ref); ok && r.Entity == old {
				w.Body[i].Args[j] = Ref{Entity: new, Dict: r.Dict}
			}
		}
	}
}

// optimizeSingleGoto removes a forward goto to a label nothing else
// references, when the instruction just before that label is an
// unconditional exit (so no code falls through into it): the label and
// everything after it move up to where the goto stood, and the code that
// sat between the goto and the label follows after them.
func optimizeSingleGoto(d *Dict, w *Entity) bool {
	changed := false
	refCount := map[EntityID]int{}
	for _, op := range w.Body {
		if op.Op == Label {
			continue
		}
		for _, a := range op.Args {
			if r, ok := a.(Ref); ok {
				refCount[r.Entity]++
			}
		}
	}
	body := w.Body
	for i := 0; i < len(body); i++ {
		if body[i].Op != IGoto {
			continue
		}
		target := body[i].LabelTargetEntity()
		if target == NoEntity || refCount[target] != 1 {
			continue
		}
		j := -1
		for k, op := range body {
			if op.LabelOf() == target {
				j = k
				break
			}
		}
		if j < 0 || j <= i || !unconditionalExits[body[j-1].Op] {
			continue
		}
		moved := append([]Opcode{}, body[j:]...)
		rest := append([]Opcode{}, body[i+1:j]...)
		body = append(body[:i], append(moved, rest...)...)
		changed = true
		break
	}
	w.Body = body
	return changed
}
