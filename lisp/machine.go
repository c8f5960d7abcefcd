// Copyright © 2024 The ELPS authors

package lisp

import "strconv"

// The evaluator is a loop over an explicit continuation stack, so user
// recursion never grows the Go stack.  Each iteration either evaluates an
// expression, which yields a value or pushes frames and names the next
// expression, or resumes the frame on top of the stack with a value.

// MaxStackDepth bounds the number of pending frames of one runtime.
const MaxStackDepth = 1 << 19

type frameOp uint8

const (
	opIf frameOp = iota
	opBegin
	opDefine
	opSet
	opArgs
	opAnd
	opOr
	opCond
	opCase
	opLet
	opCall
)

type letKind uint8

const (
	letPlain letKind = iota
	letStar
	letRec
)

type frame struct {
	op  frameOp
	env *LEnv
	// form is the expression that pushed the frame.
	form *LVal
	// exprs are expressions still to evaluate: remaining arguments, body
	// forms, branches or clauses.
	exprs []*LVal
	// vals are values computed so far.
	vals []*LVal
	sym  *LVal

	// let frames
	kind  letKind
	names []*LVal
	scope *LEnv
	body  []*LVal

	// call frames
	fun      *LVal
	end      func()
	height   int
	prev     int
	terminal bool
}

type machine struct {
	stack []frame
	// base is the stack height at which the innermost run started.  Frames
	// below it belong to an enclosing run.
	base       int
	callHeight int
}

// specialOp evaluates a special form.  It returns either a value, or the next
// expression to evaluate and the environment to evaluate it in.
type specialOp func(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal)

func (m *machine) run(env *LEnv, expr *LVal) *LVal {
	saved := m.base
	m.base = len(m.stack)
	defer func() { m.base = saved }()

	rt := env.Runtime
	if err := rt.Context().Err(); err != nil {
		return ErrorCondition(CondContextCancelled, err).LVal()
	}
	var val *LVal
	cur := expr
	for {
		for val == nil {
			if lerr := m.tick(rt); lerr != nil {
				val = lerr
				break
			}
			cur = expr
			expr, env, val = m.eval(env, expr)
		}
		if val.Type == LError {
			return m.unwind(val, cur)
		}
		if len(m.stack) == m.base {
			return val
		}
		expr, env, val = m.resume(val)
	}
}

func (m *machine) tick(rt *Runtime) *LVal {
	rt.steps++
	if rt.maxSteps > 0 && rt.steps > rt.maxSteps {
		return Errorf(CondStepLimitExceeded, StepLimitMessage).LVal()
	}
	if rt.steps&1023 == 0 && rt.ctx != nil {
		if err := rt.ctx.Err(); err != nil {
			return ErrorCondition(CondContextCancelled, err).LVal()
		}
	}
	if rt.stepHook != nil {
		if err := rt.stepHook(rt.steps); err != nil {
			if lerr, ok := err.(*ErrorVal); ok {
				return lerr.LVal()
			}
			return ErrorCondition(CondInterrupted, err).LVal()
		}
	}
	if len(m.stack) > MaxStackDepth {
		return Errorf(CondStackOverflow, "maximum recursion depth exceeded").LVal()
	}
	return nil
}

// unwind pops the frames of the current run after an error.  The error
// records the call stack at the point of failure.
func (m *machine) unwind(lerr *LVal, cur *LVal) *LVal {
	if lerr.Native == nil {
		lerr.Native = m.callStack()
	}
	if lerr.Source == nil && cur != nil {
		lerr.Source = cur.Source
	}
	for len(m.stack) > m.base {
		f := m.pop()
		if f.op == opCall {
			f.end()
			m.callHeight = f.prev
		}
	}
	return lerr
}

func (m *machine) push(f frame) {
	m.stack = append(m.stack, f)
}

func (m *machine) pop() frame {
	f := m.stack[len(m.stack)-1]
	m.stack[len(m.stack)-1] = frame{}
	m.stack = m.stack[:len(m.stack)-1]
	return f
}

func (m *machine) top() *frame {
	return &m.stack[len(m.stack)-1]
}

func (m *machine) callStack() *CallStack {
	stack := &CallStack{}
	for i := range m.stack {
		f := &m.stack[i]
		if f.op != opCall {
			continue
		}
		stack.Frames = append(stack.Frames, CallFrame{
			Source:        f.form.Source,
			Name:          f.fun.Str,
			HeightLogical: f.height,
			Terminal:      f.terminal,
		})
	}
	return stack
}

func (m *machine) eval(env *LEnv, expr *LVal) (*LVal, *LEnv, *LVal) {
	switch expr.Type {
	case LSymbol:
		return nil, nil, env.Get(expr)
	case LPair:
	default:
		return nil, nil, expr
	}
	head := expr.Car()
	args, ok := expr.Cdr().Slice()
	if !ok {
		return nil, nil, env.errorAt(expr, CondSyntaxError, "#%%app: bad syntax (illegal use of `.')")
	}
	if head.Type == LSymbol {
		if op, found := env.Lookup(head.Str); found && op.IsSpecialOp() {
			return op.FunData().special(m, env, expr, args)
		}
	} else if head.IsSpecialOp() {
		return head.FunData().special(m, env, expr, args)
	}
	m.push(frame{
		op:    opArgs,
		env:   env,
		form:  expr,
		exprs: args,
		vals:  make([]*LVal, 0, len(args)+1),
	})
	return head, env, nil
}

func (m *machine) resume(val *LVal) (*LVal, *LEnv, *LVal) {
	f := m.top()
	switch f.op {
	case opArgs:
		f.vals = append(f.vals, val)
		if len(f.exprs) > 0 {
			next := f.exprs[0]
			f.exprs = f.exprs[1:]
			return next, f.env, nil
		}
		fr := m.pop()
		return m.apply(fr.env, fr.form, fr.vals[0], fr.vals[1:])
	case opCall:
		fr := m.pop()
		fr.end()
		m.callHeight = fr.prev
		return nil, nil, val
	case opBegin:
		next := f.exprs[0]
		env := f.env
		if len(f.exprs) == 1 {
			m.pop()
		} else {
			f.exprs = f.exprs[1:]
		}
		return next, env, nil
	case opIf:
		fr := m.pop()
		switch {
		case val.IsTrue():
			return fr.exprs[0], fr.env, nil
		case len(fr.exprs) > 1:
			return fr.exprs[1], fr.env, nil
		}
		return nil, nil, Void()
	case opDefine:
		fr := m.pop()
		fr.env.Put(fr.sym, val)
		return nil, nil, Void()
	case opSet:
		fr := m.pop()
		return nil, nil, fr.env.Update(fr.sym, val)
	case opAnd, opOr:
		if val.IsTrue() == (f.op == opOr) {
			m.pop()
			return nil, nil, val
		}
		next := f.exprs[0]
		env := f.env
		f.exprs = f.exprs[1:]
		if len(f.exprs) == 0 {
			m.pop()
		}
		return next, env, nil
	case opCond:
		fr := m.pop()
		if !val.IsTrue() {
			return m.cond(fr.env, fr.form, fr.exprs)
		}
		clause := fr.vals
		switch {
		case len(clause) == 1:
			return nil, nil, val
		case clause[1].Type == LSymbol && clause[1].Str == "=>":
			if len(clause) != 3 {
				return nil, nil, fr.env.errorAt(fr.form, CondSyntaxError, "cond: bad syntax (=> must be followed by one expression)")
			}
			m.push(frame{op: opArgs, env: fr.env, form: fr.form, vals: make([]*LVal, 0, 2), exprs: []*LVal{quoted(val)}})
			return clause[2], fr.env, nil
		}
		return m.body(fr.env, clause[1:])
	case opCase:
		fr := m.pop()
		return m.caseClauses(fr.env, fr.form, val, fr.exprs)
	case opLet:
		if f.kind == letPlain {
			f.vals = append(f.vals, val)
		} else {
			f.scope.Put(f.names[len(f.vals)], val)
			f.vals = append(f.vals, val)
		}
		if len(f.exprs) > 0 {
			next := f.exprs[0]
			f.exprs = f.exprs[1:]
			return next, f.env, nil
		}
		fr := m.pop()
		if fr.kind == letPlain {
			for i, name := range fr.names {
				fr.scope.Put(name, fr.vals[i])
			}
		}
		return m.body(fr.scope, fr.body)
	}
	return nil, nil, Errorf(CondSyntaxError, "invalid frame").LVal()
}

// body evaluates exprs in sequence.  The last expression is evaluated in tail
// position.
func (m *machine) body(env *LEnv, exprs []*LVal) (*LVal, *LEnv, *LVal) {
	switch len(exprs) {
	case 0:
		return nil, nil, Void()
	case 1:
	default:
		m.push(frame{op: opBegin, env: env, exprs: exprs[1:]})
	}
	return exprs[0], env, nil
}

func (m *machine) cond(env *LEnv, form *LVal, clauses []*LVal) (*LVal, *LEnv, *LVal) {
	if len(clauses) == 0 {
		return nil, nil, Void()
	}
	parts, ok := clauses[0].Slice()
	if !ok || len(parts) == 0 {
		return nil, nil, env.errorAt(clauses[0], CondSyntaxError, "cond: bad syntax (clause is not a test-value pair)")
	}
	if isSymbol(parts[0], "else") {
		if len(clauses) > 1 {
			return nil, nil, env.errorAt(clauses[0], CondSyntaxError, "cond: bad syntax (`else' clause must be last)")
		}
		return m.body(env, parts[1:])
	}
	m.push(frame{op: opCond, env: env, form: form, vals: parts, exprs: clauses[1:]})
	return parts[0], env, nil
}

func (m *machine) caseClauses(env *LEnv, form *LVal, key *LVal, clauses []*LVal) (*LVal, *LEnv, *LVal) {
	for i, c := range clauses {
		parts, ok := c.Slice()
		if !ok || len(parts) == 0 {
			return nil, nil, env.errorAt(c, CondSyntaxError, "case: bad syntax (not a datum sequence)")
		}
		if isSymbol(parts[0], "else") {
			if i < len(clauses)-1 {
				return nil, nil, env.errorAt(c, CondSyntaxError, "case: bad syntax (`else' clause must be last)")
			}
			return m.body(env, parts[1:])
		}
		data, ok := parts[0].Slice()
		if !ok {
			return nil, nil, env.errorAt(c, CondSyntaxError, "case: bad syntax (not a datum sequence)")
		}
		for _, d := range data {
			if Equal(key, d) {
				return m.body(env, parts[1:])
			}
		}
	}
	return nil, nil, Void()
}

// apply calls fun with args.  form is the expression making the call.
func (m *machine) apply(env *LEnv, form *LVal, fun *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	if fun.Type != LFun {
		return nil, nil, env.errorAt(form, CondTypeError,
			"application: not a procedure; expected a procedure that can be applied to arguments, given: %s", fun)
	}
	fd := fun.FunData()
	if fd.FunType == LFunSpecialOp {
		return nil, nil, env.errorAt(form, CondSyntaxError, "%s: bad syntax", fun.Str)
	}
	if lerr := checkArity(fun, len(args)); lerr != nil {
		lerr.Source = form.Source
		return nil, nil, lerr
	}
	switch {
	case fd.FunType == LFunApply:
		last := args[len(args)-1]
		rest, ok := last.Slice()
		if !ok {
			return nil, nil, env.errorAt(form, CondTypeError, "apply: contract violation, expected: list?, given: %s", last)
		}
		spread := make([]*LVal, 0, len(args)-2+len(rest))
		spread = append(spread, args[1:len(args)-1]...)
		spread = append(spread, rest...)
		return m.apply(env, form, args[0], spread)
	case fd.Builtin != nil:
		v := fd.Builtin(env, args)
		if v.Type == LError && v.Source == nil {
			v.Source = form.Source
		}
		return nil, nil, v
	}
	cenv := newEnvN(fd.Env, len(fd.Params)+1)
	for i, p := range fd.Params {
		cenv.Scope[p] = args[i]
	}
	if fd.Rest != "" {
		cenv.Scope[fd.Rest] = List(args[len(fd.Params):]...)
	}
	m.pushCall(env.Runtime, fun, form)
	return m.body(cenv, fun.Cells)
}

// pushCall records a call to a closure.  A call in tail position replaces
// the frame of its caller.
func (m *machine) pushCall(rt *Runtime, fun *LVal, form *LVal) {
	if len(m.stack) > m.base && m.top().op == opCall {
		f := m.top()
		f.end()
		f.fun = fun
		f.form = form
		f.end = rt.profile(fun)
		f.height++
		f.terminal = true
		m.callHeight = f.height
		return
	}
	m.push(frame{op: opCall, fun: fun, form: form, end: rt.profile(fun), height: m.callHeight + 1, prev: m.callHeight})
	m.callHeight++
}

func checkArity(fun *LVal, n int) *LVal {
	fd := fun.FunData()
	if n >= fd.MinArgs && (fd.MaxArgs < 0 || n <= fd.MaxArgs) {
		return nil
	}
	name := fun.Str
	if name == "" {
		name = "#<procedure>"
	}
	var expected string
	switch {
	case fd.MaxArgs < 0:
		expected = "at least " + strconv.Itoa(fd.MinArgs)
	case fd.MinArgs == fd.MaxArgs:
		expected = strconv.Itoa(fd.MinArgs)
	default:
		expected = "between " + strconv.Itoa(fd.MinArgs) + " and " + strconv.Itoa(fd.MaxArgs)
	}
	return Errorf(CondArityError, "%s: arity mismatch; the expected number of arguments does not match the given number, expected: %s, given: %d",
		name, expected, n).LVal()
}

func isSymbol(v *LVal, name string) bool {
	return v.Type == LSymbol && v.Str == name
}

func quoted(v *LVal) *LVal {
	return List(specialOps["quote"], v)
}
