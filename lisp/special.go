// Copyright © 2018 The ELPS authors

package lisp

type langSpecialOp struct {
	name string
	fun  specialOp
}

// Special forms are bound in the global environment like functions so that
// user definitions can shadow them.
var langSpecialOps = []*langSpecialOp{
	{"quote", opQuote},
	{"quasiquote", opQuasiquote},
	{"if", opIfForm},
	{"define", opDefineForm},
	{"set!", opSetForm},
	{"lambda", opLambda},
	{"λ", opLambda},
	{"begin", opBeginForm},
	{"let", opLetForm(letPlain)},
	{"let*", opLetForm(letStar)},
	{"letrec", opLetForm(letRec)},
	{"and", opAndOr(opAnd)},
	{"or", opAndOr(opOr)},
	{"cond", opCondForm},
	{"case", opCaseForm},
	{"when", opWhen},
	{"unless", opUnless},
	{"define-struct", opDefineStruct},
	{"local", opUnexpanded},
	{"match", opUnexpanded},
}

// specialOps holds the values of the special forms by name.  Expansions
// built by the evaluator refer to these values directly, so user bindings
// cannot capture them.
var specialOps = map[string]*LVal{}

func init() {
	for _, op := range langSpecialOps {
		specialOps[op.name] = &LVal{
			Type: LFun,
			Str:  op.name,
			Native: &LFunData{
				FunType: LFunSpecialOp,
				special: op.fun,
			},
		}
	}
}

// AddSpecialOps binds the special forms in env.
func (env *LEnv) AddSpecialOps() {
	for _, op := range langSpecialOps {
		env.Scope[op.name] = specialOps[op.name]
	}
}

func badSyntax(env *LEnv, form *LVal, name string, detail string) (*LVal, *LEnv, *LVal) {
	if detail != "" {
		return nil, nil, env.errorAt(form, CondSyntaxError, "%s: bad syntax (%s)", name, detail)
	}
	return nil, nil, env.errorAt(form, CondSyntaxError, "%s: bad syntax", name)
}

func opQuote(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	if len(args) != 1 {
		return badSyntax(env, form, "quote", "")
	}
	return nil, nil, args[0]
}

func opQuasiquote(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	if len(args) != 1 {
		return badSyntax(env, form, "quasiquote", "")
	}
	expr, lerr := quasiquote(env, args[0], 1)
	if lerr != nil {
		return nil, nil, lerr
	}
	return expr, env, nil
}

// quasiquote translates a template into an expression that builds it.
func quasiquote(env *LEnv, tmpl *LVal, depth int) (*LVal, *LVal) {
	switch tmpl.Type {
	case LSymbol, LNull:
		return quoted(tmpl), nil
	case LPair:
	default:
		return tmpl, nil
	}
	if form, ok := quoteForm(tmpl); ok {
		switch form {
		case "unquote":
			if depth == 1 {
				return tmpl.Cdr().Car(), nil
			}
			return nestedQuasi(env, form, tmpl, depth-1)
		case "quasiquote":
			return nestedQuasi(env, form, tmpl, depth+1)
		case "unquote-splicing":
			if depth == 1 {
				return nil, env.errorAt(tmpl, CondSyntaxError, "unquote-splicing: invalid context within quasiquote")
			}
			return nestedQuasi(env, form, tmpl, depth-1)
		}
	}
	car := tmpl.Car()
	rest, lerr := quasiquote(env, tmpl.Cdr(), depth)
	if lerr != nil {
		return nil, lerr
	}
	if form, ok := quoteForm(car); ok && form == "unquote-splicing" && depth == 1 {
		return List(builtinValues["append"], car.Cdr().Car(), rest), nil
	}
	first, lerr := quasiquote(env, car, depth)
	if lerr != nil {
		return nil, lerr
	}
	return List(builtinValues["cons"], first, rest), nil
}

func nestedQuasi(env *LEnv, form string, tmpl *LVal, depth int) (*LVal, *LVal) {
	inner, lerr := quasiquote(env, tmpl.Cdr().Car(), depth)
	if lerr != nil {
		return nil, lerr
	}
	return List(builtinValues["list"], quoted(Symbol(form)), inner), nil
}

// quoteForm reports whether v is (form x) for one of the reader
// abbreviations.
func quoteForm(v *LVal) (string, bool) {
	if v.Type != LPair || v.Car().Type != LSymbol || v.Cdr().Type != LPair || v.Cdr().Cdr().Type != LNull {
		return "", false
	}
	switch name := v.Car().Str; name {
	case "quote", "quasiquote", "unquote", "unquote-splicing":
		return name, true
	}
	return "", false
}

func opIfForm(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	if len(args) < 2 || len(args) > 3 {
		return badSyntax(env, form, "if", "expected a test, a then branch and an optional else branch")
	}
	m.push(frame{op: opIf, env: env, form: form, exprs: args[1:]})
	return args[0], env, nil
}

func opDefineForm(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	if len(args) < 2 {
		return badSyntax(env, form, "define", "")
	}
	switch target := args[0]; target.Type {
	case LSymbol:
		if len(args) != 2 {
			return badSyntax(env, form, "define", "multiple expressions after identifier")
		}
		m.push(frame{op: opDefine, env: env, form: form, sym: target})
		return args[1], env, nil
	case LPair:
		name := target.Car()
		if name.Type != LSymbol {
			return badSyntax(env, form, "define", "not an identifier")
		}
		fun := makeLambda(env, form, target.Cdr(), args[1:])
		if fun.Type == LError {
			return nil, nil, fun
		}
		env.Put(name, fun)
		return nil, nil, Void()
	}
	return badSyntax(env, form, "define", "not an identifier")
}

func opSetForm(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	if len(args) != 2 || args[0].Type != LSymbol {
		return badSyntax(env, form, "set!", "")
	}
	m.push(frame{op: opSet, env: env, form: form, sym: args[0]})
	return args[1], env, nil
}

func opLambda(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	if len(args) < 1 {
		return badSyntax(env, form, "lambda", "")
	}
	return nil, nil, makeLambda(env, form, args[0], args[1:])
}

// makeLambda creates a closure over env.  formals is a symbol collecting all
// arguments, or a possibly dotted list of symbols.
func makeLambda(env *LEnv, form *LVal, formals *LVal, body []*LVal) *LVal {
	if len(body) == 0 {
		return env.errorAt(form, CondSyntaxError, "lambda: bad syntax (no expressions for procedure body)")
	}
	fd := &LFunData{Env: env}
	seen := make(map[string]bool)
	v := formals
	for ; v.Type == LPair; v = v.Cdr() {
		p := v.Car()
		if p.Type != LSymbol {
			return env.errorAt(form, CondSyntaxError, "lambda: bad syntax (not an identifier: %s)", p)
		}
		if seen[p.Str] {
			return env.errorAt(form, CondSyntaxError, "lambda: duplicate argument name: %s", p.Str)
		}
		seen[p.Str] = true
		fd.Params = append(fd.Params, p.Str)
	}
	switch v.Type {
	case LNull:
		fd.MaxArgs = len(fd.Params)
	case LSymbol:
		if seen[v.Str] {
			return env.errorAt(form, CondSyntaxError, "lambda: duplicate argument name: %s", v.Str)
		}
		fd.Rest = v.Str
		fd.MaxArgs = -1
	default:
		return env.errorAt(form, CondSyntaxError, "lambda: bad syntax (not an identifier: %s)", v)
	}
	fd.MinArgs = len(fd.Params)
	return &LVal{Type: LFun, Native: fd, Cells: body, Source: form.Source}
}

func opBeginForm(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	return m.body(env, args)
}

func opLetForm(kind letKind) specialOp {
	names := []string{letPlain: "let", letStar: "let*", letRec: "letrec"}
	name := names[kind]
	return func(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
		if len(args) < 2 {
			return badSyntax(env, form, name, "")
		}
		if kind == letPlain && args[0].Type == LSymbol {
			return namedLet(m, env, form, args)
		}
		bindings, ok := args[0].Slice()
		if !ok {
			return badSyntax(env, form, name, "not a sequence of identifier--expression bindings")
		}
		names := make([]*LVal, len(bindings))
		inits := make([]*LVal, len(bindings))
		for i, b := range bindings {
			parts, ok := b.Slice()
			if !ok || len(parts) != 2 || parts[0].Type != LSymbol {
				return badSyntax(env, form, name, "not an identifier and expression for a binding")
			}
			names[i], inits[i] = parts[0], parts[1]
		}
		scope := newEnvN(env, len(bindings))
		if kind == letRec {
			for _, n := range names {
				scope.Scope[n.Str] = unassigned
			}
		}
		body := args[1:]
		if len(bindings) == 0 {
			return m.body(scope, body)
		}
		evalEnv := scope
		if kind == letPlain {
			evalEnv = env
		}
		m.push(frame{
			op:    opLet,
			kind:  kind,
			env:   evalEnv,
			form:  form,
			names: names,
			scope: scope,
			exprs: inits[1:],
			vals:  make([]*LVal, 0, len(inits)),
			body:  body,
		})
		return inits[0], evalEnv, nil
	}
}

// namedLet rewrites (let loop ([v e] ...) body ...) as an application of a
// recursive procedure.
func namedLet(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	if len(args) < 3 {
		return badSyntax(env, form, "let", "")
	}
	bindings, ok := args[1].Slice()
	if !ok {
		return badSyntax(env, form, "let", "not a sequence of identifier--expression bindings")
	}
	params := make([]*LVal, len(bindings))
	inits := make([]*LVal, len(bindings))
	for i, b := range bindings {
		parts, ok := b.Slice()
		if !ok || len(parts) != 2 || parts[0].Type != LSymbol {
			return badSyntax(env, form, "let", "not an identifier and expression for a binding")
		}
		params[i], inits[i] = parts[0], parts[1]
	}
	lambda := Cons(specialOps["lambda"], Cons(List(params...), List(args[2:]...)))
	lambda.Source = form.Source
	proc := List(specialOps["letrec"], List(List(args[0], lambda)), args[0])
	call := Cons(proc, List(inits...))
	call.Source = form.Source
	return call, env, nil
}

func opAndOr(op frameOp) specialOp {
	return func(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
		switch len(args) {
		case 0:
			return nil, nil, Bool(op == opAnd)
		case 1:
			return args[0], env, nil
		}
		m.push(frame{op: op, env: env, form: form, exprs: args[1:]})
		return args[0], env, nil
	}
}

func opCondForm(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	return m.cond(env, form, args)
}

func opCaseForm(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	if len(args) < 1 {
		return badSyntax(env, form, "case", "")
	}
	m.push(frame{op: opCase, env: env, form: form, exprs: args[1:]})
	return args[0], env, nil
}

func opWhen(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	if len(args) < 2 {
		return badSyntax(env, form, "when", "")
	}
	m.push(frame{op: opIf, env: env, form: form, exprs: []*LVal{Cons(specialOps["begin"], List(args[1:]...))}})
	return args[0], env, nil
}

func opUnless(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	if len(args) < 2 {
		return badSyntax(env, form, "unless", "")
	}
	m.push(frame{op: opIf, env: env, form: form, exprs: []*LVal{Void(), Cons(specialOps["begin"], List(args[1:]...))}})
	return args[0], env, nil
}

// opDefineStruct defines a struct's procedures when a declaration reaches
// the evaluator unexpanded, as it does inside a procedure body.  Instances
// share the tagged list representation of expanded declarations.
func opDefineStruct(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	if len(args) != 2 || args[0].Type != LSymbol {
		return badSyntax(env, form, "define-struct", "")
	}
	fields, ok := args[1].Slice()
	if !ok {
		return badSyntax(env, form, "define-struct", "expected a sequence of field names")
	}
	for _, f := range fields {
		if f.Type != LSymbol {
			return badSyntax(env, form, "define-struct", "field name is not an identifier")
		}
	}
	for _, def := range structProcedures(args[0].Str, fields) {
		env.Put(Symbol(def.Str), def)
	}
	return nil, nil, Void()
}

func opUnexpanded(m *machine, env *LEnv, form *LVal, args []*LVal) (*LVal, *LEnv, *LVal) {
	return badSyntax(env, form, form.Car().Str, "")
}
