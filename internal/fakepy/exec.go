package fakepy

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Start symbols accepted by PyRun_StringFlags.
const (
	startSingle int32 = 256
	startFile   int32 = 257
	startEval   int32 = 258
)

// run executes src. Statements are one per line: assignment to a name,
// import, raise, pass, or an expression. Expressions cover literals
// (numbers, quoted strings, lists, tuples, dicts, None/True/False), names,
// attribute access, calls, subscripts and binary + - * / %.
func (r *Runtime) run(src string, start int32, globals, locals uintptr) uintptr {
	if r.kindOf(globals, kindDict) == nil {
		r.setErr("SystemError", "globals must be a dict")
		return 0
	}
	if locals == 0 {
		locals = globals
	}
	if r.get(locals) == nil {
		r.setErr("SystemError", "locals must be a mapping")
		return 0
	}
	ev := evaluator{r: r, globals: globals, locals: locals}

	switch start {
	case startEval:
		expr := strings.TrimSpace(src)
		if strings.Contains(expr, "\n") {
			r.setErr("SyntaxError", "invalid syntax")
			return 0
		}
		return ev.eval(expr)
	case startSingle, startFile:
		for _, line := range strings.Split(src, "\n") {
			if !ev.exec(strings.TrimSpace(line)) {
				return 0
			}
		}
		return r.incref(r.none)
	}
	r.setErr("SystemError", fmt.Sprintf("invalid start symbol %d", start))
	return 0
}

type evaluator struct {
	r       *Runtime
	globals uintptr
	locals  uintptr
}

// exec runs one statement and reports success.
func (e evaluator) exec(line string) bool {
	r := e.r
	switch {
	case line == "" || line == "pass" || strings.HasPrefix(line, "#"):
		return true
	case strings.HasPrefix(line, "import "):
		name := strings.TrimSpace(strings.TrimPrefix(line, "import "))
		m, ok := r.modules[name]
		if !ok {
			r.setErr("ModuleNotFoundError", fmt.Sprintf("No module named '%s'", name))
			return false
		}
		r.dictSetString(e.locals, name, m)
		return true
	case line == "raise" || strings.HasPrefix(line, "raise "):
		e.raise(strings.TrimSpace(strings.TrimPrefix(line, "raise")))
		return false
	}

	if name, expr, ok := splitAssign(line); ok {
		v := e.eval(expr)
		if v == 0 {
			return false
		}
		r.dictSetString(e.locals, name, v)
		r.decref(v)
		return true
	}

	v := e.eval(line)
	if v == 0 {
		return false
	}
	r.decref(v)
	return true
}

func (e evaluator) raise(expr string) {
	r := e.r
	if expr == "" {
		r.setErr("RuntimeError", "No active exception to reraise")
		return
	}
	v := e.eval(expr)
	if v == 0 {
		return
	}
	o := r.objs[v]
	switch {
	case o.kind == kindExc:
		r.decref(r.pending)
		r.pending = v
	case r.isExcType(o):
		r.setErr(o.name, "")
	default:
		r.decref(v)
		r.setErr("TypeError", "exceptions must derive from BaseException")
	}
}

// splitAssign recognizes "name = expr".
func splitAssign(line string) (string, string, bool) {
	i := strings.IndexByte(line, '=')
	if i <= 0 || i+1 >= len(line) || line[i+1] == '=' || strings.ContainsRune("!<>", rune(line[i-1])) {
		return "", "", false
	}
	name := strings.TrimSpace(line[:i])
	if !isIdent(name) {
		return "", "", false
	}
	return name, strings.TrimSpace(line[i+1:]), true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// scan calls visit for every byte of s that is outside string literals and
// brackets. It returns the index of the last top-level opening bracket and
// whether s is balanced.
func scan(s string, visit func(i int)) (int, bool) {
	lastOpen, depth := -1, 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[' || c == '{':
			if depth == 0 {
				lastOpen = i
			}
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
			if depth < 0 {
				return lastOpen, false
			}
		case depth == 0 && visit != nil:
			visit(i)
		}
	}
	return lastOpen, depth == 0 && quote == 0
}

// splitTop splits s on sep outside literals and brackets.
func splitTop(s string, sep byte) []string {
	var parts []string
	last := 0
	scan(s, func(i int) {
		if s[i] == sep {
			parts = append(parts, s[last:i])
			last = i + 1
		}
	})
	return append(parts, s[last:])
}

// lastOp finds the rightmost top-level binary operator from ops.
func lastOp(s string, ops ...string) (int, string) {
	at, found := -1, ""
	scan(s, func(i int) {
		for _, op := range ops {
			if strings.HasPrefix(s[i:], op) {
				at, found = i, op
			}
		}
	})
	return at, found
}

func isQuoted(s string) bool {
	if len(s) < 2 || (s[0] != '\'' && s[0] != '"') || s[len(s)-1] != s[0] {
		return false
	}
	return strings.IndexByte(s[1:len(s)-1], s[0]) < 0
}

func numeric(s string) bool {
	return s != "" && (s[0] >= '0' && s[0] <= '9' || s[0] == '-' || s[0] == '+' || s[0] == '.')
}

// eval returns a new reference or 0 with an exception set.
func (e evaluator) eval(s string) uintptr {
	r := e.r
	s = strings.TrimSpace(s)
	lastOpen, balanced := scan(s, nil)
	if s == "" || !balanced {
		r.setErr("SyntaxError", "invalid syntax")
		return 0
	}

	switch s {
	case "None":
		return r.incref(r.none)
	case "True":
		return r.newBool(true)
	case "False":
		return r.newBool(false)
	}
	if numeric(s) {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return r.newInt(v)
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return r.newFloat(v)
		}
	}
	if isQuoted(s) {
		return r.newStr(s[1 : len(s)-1])
	}

	if i, op := lastOp(s, " + ", " - "); i >= 0 {
		return e.binary(s[:i], op, s[i+len(op):])
	}
	if i, op := lastOp(s, " * ", " / ", " % "); i >= 0 {
		return e.binary(s[:i], op, s[i+len(op):])
	}

	last := s[len(s)-1]
	switch {
	case lastOpen == 0 && last == ']':
		return e.sequence(s[1:len(s)-1], false)
	case lastOpen == 0 && last == ')':
		inner := s[1 : len(s)-1]
		if len(splitTop(inner, ',')) > 1 || strings.TrimSpace(inner) == "" {
			return e.sequence(inner, true)
		}
		return e.eval(inner)
	case lastOpen == 0 && last == '}':
		return e.dict(s[1 : len(s)-1])
	case lastOpen > 0 && last == ')':
		return e.call(s[:lastOpen], s[lastOpen+1:len(s)-1])
	case lastOpen > 0 && last == ']':
		return e.subscript(s[:lastOpen], s[lastOpen+1:len(s)-1])
	}

	if i, _ := lastOp(s, "."); i > 0 {
		obj := e.eval(s[:i])
		if obj == 0 {
			return 0
		}
		defer r.decref(obj)
		return r.getAttr(obj, s[i+1:])
	}

	if isIdent(s) {
		return e.lookup(s)
	}
	r.setErr("SyntaxError", "invalid syntax")
	return 0
}

func (e evaluator) lookup(name string) uintptr {
	r := e.r
	for _, d := range []uintptr{e.locals, e.globals, r.builtins} {
		if r.kindOf(d, kindDict) == nil {
			continue
		}
		if v := r.dictGetString(d, name); v != 0 {
			return r.incref(v)
		}
	}
	r.setErr("NameError", fmt.Sprintf("name '%s' is not defined", name))
	return 0
}

// evalAll evaluates comma-separated items, releasing partial results on
// failure.
func (e evaluator) evalAll(list string) ([]uintptr, bool) {
	var out []uintptr
	if strings.TrimSpace(list) == "" {
		return nil, true
	}
	for _, part := range splitTop(list, ',') {
		if strings.TrimSpace(part) == "" {
			continue
		}
		v := e.eval(part)
		if v == 0 {
			for _, o := range out {
				e.r.decref(o)
			}
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func (e evaluator) sequence(list string, tuple bool) uintptr {
	items, ok := e.evalAll(list)
	if !ok {
		return 0
	}
	var a uintptr
	if tuple {
		a = e.r.newTuple(0)
	} else {
		a = e.r.newList(0)
	}
	e.r.objs[a].items = items
	return a
}

func (e evaluator) dict(body string) uintptr {
	r := e.r
	d := r.newDict()
	if strings.TrimSpace(body) == "" {
		return d
	}
	for _, pair := range splitTop(body, ',') {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		kv := splitTop(pair, ':')
		if len(kv) != 2 {
			r.decref(d)
			r.setErr("SyntaxError", "invalid syntax")
			return 0
		}
		k := e.eval(kv[0])
		if k == 0 {
			r.decref(d)
			return 0
		}
		v := e.eval(kv[1])
		if v == 0 {
			r.decref(k)
			r.decref(d)
			return 0
		}
		r.dictSet(d, k, v)
		r.decref(k)
		r.decref(v)
	}
	return d
}

func (e evaluator) call(callee, args string) uintptr {
	r := e.r
	fn := e.eval(callee)
	if fn == 0 {
		return 0
	}
	defer r.decref(fn)
	items, ok := e.evalAll(args)
	if !ok {
		return 0
	}
	t := r.newTuple(0)
	r.objs[t].items = items
	defer r.decref(t)
	return r.invoke(fn, t)
}

func (e evaluator) subscript(target, index string) uintptr {
	r := e.r
	obj := e.eval(target)
	if obj == 0 {
		return 0
	}
	defer r.decref(obj)
	key := e.eval(index)
	if key == 0 {
		return 0
	}
	defer r.decref(key)

	o, k := r.objs[obj], r.objs[key]
	switch o.kind {
	case kindList, kindTuple:
		if !isIntegral(k) {
			r.setErr("TypeError", fmt.Sprintf("%s indices must be integers, not %s", r.typeName(o), r.typeName(k)))
			return 0
		}
		i := int(k.i)
		if i < 0 {
			i += len(o.items)
		}
		if i < 0 || i >= len(o.items) {
			r.setErr("IndexError", r.typeName(o)+" index out of range")
			return 0
		}
		return r.incref(o.items[i])
	case kindDict:
		if i := r.dictIndex(o, key); i >= 0 {
			return r.incref(o.vals[i])
		}
		r.setErr("KeyError", r.repr(k))
		return 0
	}
	r.setErr("TypeError", fmt.Sprintf("'%s' object is not subscriptable", r.typeName(o)))
	return 0
}

func (e evaluator) binary(lhs, op, rhs string) uintptr {
	r := e.r
	a := e.eval(lhs)
	if a == 0 {
		return 0
	}
	defer r.decref(a)
	b := e.eval(rhs)
	if b == 0 {
		return 0
	}
	defer r.decref(b)
	return r.arith(strings.TrimSpace(op), r.objs[a], r.objs[b])
}

func (r *Runtime) arith(op string, a, b *object) uintptr {
	if a.kind == kindStr && b.kind == kindStr && op == "+" {
		return r.newStr(a.s + b.s)
	}
	num := func(o *object) (float64, bool) {
		switch {
		case isIntegral(o):
			return float64(o.i), true
		case o.kind == kindFloat:
			return o.f, true
		}
		return 0, false
	}
	x, okA := num(a)
	y, okB := num(b)
	if !okA || !okB {
		r.setErr("TypeError", fmt.Sprintf("unsupported operand type(s) for %s: '%s' and '%s'", op, r.typeName(a), r.typeName(b)))
		return 0
	}
	if (op == "/" || op == "%") && y == 0 {
		r.setErr("ZeroDivisionError", "division by zero")
		return 0
	}
	if isIntegral(a) && isIntegral(b) && op != "/" {
		switch op {
		case "+":
			return r.newInt(a.i + b.i)
		case "-":
			return r.newInt(a.i - b.i)
		case "*":
			return r.newInt(a.i * b.i)
		case "%":
			m := a.i % b.i
			if m != 0 && (m < 0) != (b.i < 0) {
				m += b.i
			}
			return r.newInt(m)
		}
	}
	switch op {
	case "+":
		return r.newFloat(x + y)
	case "-":
		return r.newFloat(x - y)
	case "*":
		return r.newFloat(x * y)
	case "/":
		return r.newFloat(x / y)
	case "%":
		return r.newFloat(math.Mod(x, y))
	}
	r.setErr("TypeError", "unsupported operand type(s) for "+op)
	return 0
}
