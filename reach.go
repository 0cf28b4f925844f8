package main

import "sort"

// Plan is the result of the reachability/inlining/layout pass: the
// ordered list of entities to emit, plus (when automatic inlining is on)
// the further words this pass decided should be force-inlined on the
// next restart.
type Plan struct {
	order    []*Entity
	toInline []*Entity
}

// buildPlan walks the call graph from main (and the interrupt vectors, if
// any) inlining eligible calls, optimizing each word's body to a
// fixpoint, counting references, validating that every reachable Forward
// was eventually resolved, and finally choosing a fallthrough-friendly
// emission order. It mirrors output/deep_references/check_real/
// count_references/reorder, folded into one pass since this port's
// Entity arena makes a second traversal unnecessary.
func (c *Compiler) buildPlan() (*Plan, error) {
	main, err := c.FindMain(true)
	if err != nil {
		return nil, err
	}

	visited := map[EntityID]bool{}
	var order []*Entity
	var toInline []*Entity

	var walk func(e *Entity) error
	walk = func(e *Entity) error {
		if e == nil || visited[e.ID] {
			return nil
		}
		visited[e.ID] = true

		if e.Kind == KindWord {
			if err := c.prepare(e, &toInline); err != nil {
				return err
			}
		}

		for _, op := range e.Body {
			for _, a := range op.Args {
				r, ok := a.(Ref)
				if !ok || r.Entity == NoEntity || r.Entity == e.ID {
					continue
				}
				target := c.Dict.Entity(r.Entity)
				if target == nil {
					continue
				}
				target.ReferencedBy++
				if target.Kind == KindForward {
					return c.Error("%s is never defined", target.Name)
				}
			}
		}

		order = append(order, e)
		for _, op := range e.Body {
			for _, a := range op.Args {
				if r, ok := a.(Ref); ok {
					if err := walk(c.Dict.Entity(r.Entity)); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}

	if err := walk(main); err != nil {
		return nil, err
	}
	if init, ok := c.Dict.LookupFirst("init_runtime"); ok {
		for _, op := range init.Body {
			for _, a := range op.Args {
				r, rok := a.(Ref)
				if !rok || r.Entity == NoEntity {
					continue
				}
				if target := c.Dict.Entity(r.Entity); target != nil {
					if err := walk(target); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	if c.LowInterrupt != NoEntity {
		if err := walk(c.Dict.Entity(c.LowInterrupt)); err != nil {
			return nil, err
		}
	}
	if c.HighInterrupt != NoEntity {
		if err := walk(c.Dict.Entity(c.HighInterrupt)); err != nil {
			return nil, err
		}
	}

	order = c.reorder(order, main)

	seen := map[EntityID]bool{}
	var filtered []*Entity
	for _, t := range toInline {
		if seen[t.ID] || t.ReferencedBy != 1 {
			continue
		}
		seen[t.ID] = true
		filtered = append(filtered, t)
	}

	return &Plan{order: order, toInline: filtered}, nil
}

// prepare runs the peephole optimizer over w's body to a fixpoint
// (inlining itself already happened during compilation, in AddCall, for
// any callee flagged `inline` or named in a prior automatic-inlining
// restart's forced list). Once optimized, if automatic inlining is
// enabled, any remaining call to a not-yet-inlined, inlinable word is
// recorded as a candidate: buildPlan later keeps only the candidates
// referenced from exactly one call site across the whole reachable
// graph, since those are the ones a restart can inline for free.
func (c *Compiler) prepare(w *Entity, toInline *[]*Entity) error {
	if w.Prepared {
		return nil
	}
	w.Prepared = true

	optimizeWord(c.Dict, w)

	if c.AutomaticInlining {
		for _, op := range w.Body {
			if op.Op != ICall {
				continue
			}
			if r, ok := op.Args[0].(Ref); ok {
				if t := c.Dict.Entity(r.Entity); t != nil && t.Kind == KindWord &&
					!t.Flags.Has(FlagInlined) && !c.forcedInline(t) && canInline(c, t) {
					*toInline = append(*toInline, t)
				}
			}
		}
	}
	return nil
}

func (c *Compiler) forcedInline(target *Entity) bool {
	for _, loc := range c.InlineList {
		if loc == target.Loc {
			return true
		}
	}
	return false
}

// reorder places main first, then the remaining reachable words sorted
// by descending reference count, and finally walks the sorted run
// looking for a word whose tail instruction is a `goto` to a word
// placed later on: that callee is pulled up to immediately follow the
// caller and the now-redundant tail goto is dropped, since falling
// through does exactly what the goto did. Interrupt vectors, recursive
// words, and words explicitly marked no-inline are never pulled up this
// way (canInline), since their call sites depend on them keeping a
// stable, independently-reachable body rather than being absorbed as
// someone else's fallthrough. Only entities of KindWord participate;
// labels, forwards and data entities are emitted outside this ordering
// (see emit.go) so their relative position doesn't matter here.
func (c *Compiler) reorder(order []*Entity, main *Entity) []*Entity {
	var words []*Entity
	var rest []*Entity
	for _, e := range order {
		if e.Kind == KindWord {
			words = append(words, e)
		} else {
			rest = append(rest, e)
		}
	}

	sort.SliceStable(words, func(i, j int) bool {
		if words[i].ID == main.ID {
			return true
		}
		if words[j].ID == main.ID {
			return false
		}
		return words[i].ReferencedBy > words[j].ReferencedBy
	})

	idx := make(map[EntityID]int, len(words))
	for i, w := range words {
		idx[w.ID] = i
	}

	for changed := true; changed; {
		changed = false
		for i := 0; i < len(words); i++ {
			w := words[i]
			if len(w.Body) == 0 {
				continue
			}
			last := w.Body[len(w.Body)-1]
			if last.Op != IGoto {
				continue
			}
			ref, ok := last.Args[0].(Ref)
			if !ok {
				continue
			}
			target := c.Dict.Entity(ref.Entity)
			if target == nil || target.Kind != KindWord || target.ID == w.ID || target.ID == main.ID {
				continue
			}
			j, placed := idx[target.ID]
			if !placed {
				continue
			}
			if j == i+1 {
				// already a fallthrough, just drop the now-useless goto.
				w.Body = w.Body[:len(w.Body)-1]
				changed = true
				continue
			}
			if j < i+1 || !canInline(c, target) {
				continue
			}

			moved := append([]*Entity{target}, words[i+1:j]...)
			moved = append(moved, words[j+1:]...)
			words = append(append([]*Entity{}, words[:i+1]...), moved...)
			w.Body = w.Body[:len(w.Body)-1]

			for k, we := range words {
				idx[we.ID] = k
			}
			changed = true
			break
		}
	}

	return append(words, rest...)
}
