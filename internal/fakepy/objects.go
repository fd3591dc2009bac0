package fakepy

import (
	"fmt"
	"strconv"
	"strings"
)

type kind uint8

const (
	kindNone kind = iota
	kindBool
	kindInt
	kindFloat
	kindStr
	kindList
	kindTuple
	kindDict
	kindType
	kindModule
	kindFunc
	kindIter
	kindExc
)

type object struct {
	addr     uintptr
	refcnt   int
	immortal bool
	kind     kind
	typ      uintptr

	i    int64
	f    float64
	s    string
	utf8 []byte

	items []uintptr // list, tuple
	keys  []uintptr // dict, insertion order
	vals  []uintptr

	name  string             // type, module, func
	dict  uintptr            // module namespace
	attrs map[string]uintptr // exceptions, funcs

	self uintptr // bound method receiver
	call func(self, args uintptr) uintptr

	src    uintptr // iterator source
	pos    int
	failAt int
}

var scalarTypes = []string{
	"type", "NoneType", "bool", "int", "float", "str", "list", "tuple", "dict",
	"module", "builtin_function_or_method", "iterator",
}

var exceptionTypes = []string{
	"BaseException", "Exception", "TypeError", "ValueError", "KeyError",
	"IndexError", "AttributeError", "NameError", "ZeroDivisionError",
	"SyntaxError", "RuntimeError", "SystemError", "OverflowError",
	"ModuleNotFoundError", "StopIteration",
}

// boot builds the immortal objects every interpreter starts with.
func (r *Runtime) boot() {
	for _, name := range scalarTypes {
		r.types[name] = r.allocImmortal(&object{kind: kindType, name: name})
	}
	for _, name := range exceptionTypes {
		r.types[name] = r.allocImmortal(&object{kind: kindType, name: name})
	}
	for _, a := range r.types {
		r.objs[a].typ = r.types["type"]
	}

	r.none = r.allocImmortal(&object{kind: kindNone, typ: r.types["NoneType"]})
	r.trueObj = r.allocImmortal(&object{kind: kindBool, typ: r.types["bool"], i: 1})
	r.falseObj = r.allocImmortal(&object{kind: kindBool, typ: r.types["bool"]})

	r.builtins = r.allocImmortal(&object{kind: kindDict, typ: r.types["dict"]})
	for name, a := range r.types {
		r.dictSetString(r.builtins, name, a)
	}
	r.dictSetString(r.builtins, "None", r.none)
	r.dictSetString(r.builtins, "True", r.trueObj)
	r.dictSetString(r.builtins, "False", r.falseObj)
	r.modules["builtins"] = r.newModule("builtins", r.builtins)

	main := r.newModule("__main__", 0)
	r.dictSetString(r.objs[main].dict, "__name__", r.intern("__main__"))
	r.dictSetString(r.objs[main].dict, "__builtins__", r.modules["builtins"])
	r.modules["__main__"] = main

	r.sysPath = r.allocImmortal(&object{kind: kindList, typ: r.types["list"]})
	sys := r.newModule("sys", 0)
	r.dictSetString(r.objs[sys].dict, "path", r.sysPath)
	r.dictSetString(r.objs[sys].dict, "version", r.intern(r.banner))
	r.modules["sys"] = sys
}

func (r *Runtime) alloc(o *object) uintptr {
	r.next += 0x20
	o.addr = r.next
	o.refcnt = 1
	if o.kind == kindStr {
		o.utf8 = append([]byte(o.s), 0)
	}
	r.objs[o.addr] = o
	return o.addr
}

func (r *Runtime) allocImmortal(o *object) uintptr {
	a := r.alloc(o)
	o.immortal = true
	return a
}

// intern returns an immortal str, for names owned by the runtime itself.
func (r *Runtime) intern(s string) uintptr {
	return r.allocImmortal(&object{kind: kindStr, typ: r.types["str"], s: s})
}

func (r *Runtime) newModule(name string, dict uintptr) uintptr {
	if dict == 0 {
		dict = r.allocImmortal(&object{kind: kindDict, typ: r.types["dict"]})
	}
	return r.allocImmortal(&object{kind: kindModule, typ: r.types["module"], name: name, dict: dict})
}

func (r *Runtime) get(a uintptr) *object {
	if a == 0 {
		return nil
	}
	return r.objs[a]
}

func (r *Runtime) incref(a uintptr) uintptr {
	if o := r.get(a); o != nil {
		o.refcnt++
	}
	return a
}

func (r *Runtime) decref(a uintptr) {
	o := r.get(a)
	if o == nil || o.immortal {
		return
	}
	o.refcnt--
	if o.refcnt > 0 {
		return
	}
	delete(r.objs, a)
	for _, it := range o.items {
		r.decref(it)
	}
	for i := range o.keys {
		r.decref(o.keys[i])
		r.decref(o.vals[i])
	}
	for _, v := range o.attrs {
		r.decref(v)
	}
	r.decref(o.self)
	r.decref(o.src)
}

func (r *Runtime) newInt(v int64) uintptr {
	return r.alloc(&object{kind: kindInt, typ: r.types["int"], i: v})
}

func (r *Runtime) newFloat(v float64) uintptr {
	return r.alloc(&object{kind: kindFloat, typ: r.types["float"], f: v})
}

func (r *Runtime) newStr(s string) uintptr {
	return r.alloc(&object{kind: kindStr, typ: r.types["str"], s: s})
}

func (r *Runtime) newBool(v bool) uintptr {
	if v {
		return r.incref(r.trueObj)
	}
	return r.incref(r.falseObj)
}

func (r *Runtime) newList(n int) uintptr {
	return r.alloc(&object{kind: kindList, typ: r.types["list"], items: make([]uintptr, n)})
}

func (r *Runtime) newTuple(n int) uintptr {
	return r.alloc(&object{kind: kindTuple, typ: r.types["tuple"], items: make([]uintptr, n)})
}

func (r *Runtime) newDict() uintptr {
	return r.alloc(&object{kind: kindDict, typ: r.types["dict"]})
}

func (r *Runtime) newMethod(name string, self uintptr, call func(self, args uintptr) uintptr) uintptr {
	return r.alloc(&object{
		kind: kindFunc,
		typ:  r.types["builtin_function_or_method"],
		name: name,
		self: r.incref(self),
		call: call,
	})
}

// excType returns the type object for an exception name, creating it on
// first use so scripts can raise arbitrary exception classes.
func (r *Runtime) excType(name string) uintptr {
	if t, ok := r.types[name]; ok {
		return t
	}
	t := r.allocImmortal(&object{kind: kindType, typ: r.types["type"], name: name})
	r.types[name] = t
	r.dictSetString(r.builtins, name, t)
	return t
}

func (r *Runtime) isExcType(o *object) bool {
	if o == nil || o.kind != kindType {
		return false
	}
	for _, n := range scalarTypes {
		if o.name == n {
			return false
		}
	}
	return true
}

func (r *Runtime) newExc(typeName, msg string) uintptr {
	return r.alloc(&object{kind: kindExc, typ: r.excType(typeName), s: msg})
}

func (r *Runtime) setErr(typeName, msg string) {
	r.decref(r.pending)
	r.pending = r.newExc(typeName, msg)
}

func (r *Runtime) typeName(o *object) string {
	if t := r.get(o.typ); t != nil {
		return t.name
	}
	return "object"
}

// keyEqual compares dict keys by value for str and int, by identity otherwise.
func (r *Runtime) keyEqual(a, b uintptr) bool {
	if a == b {
		return true
	}
	x, y := r.get(a), r.get(b)
	if x == nil || y == nil {
		return false
	}
	switch {
	case x.kind == kindStr && y.kind == kindStr:
		return x.s == y.s
	case isIntegral(x) && isIntegral(y):
		return x.i == y.i
	}
	return false
}

func isIntegral(o *object) bool {
	return o.kind == kindInt || o.kind == kindBool
}

func (r *Runtime) dictIndex(d *object, key uintptr) int {
	for i, k := range d.keys {
		if r.keyEqual(k, key) {
			return i
		}
	}
	return -1
}

func (r *Runtime) dictIndexString(d *object, key string) int {
	for i, k := range d.keys {
		if o := r.get(k); o != nil && o.kind == kindStr && o.s == key {
			return i
		}
	}
	return -1
}

// dictSet stores a new reference to key and value.
func (r *Runtime) dictSet(d uintptr, key, val uintptr) {
	o := r.get(d)
	if i := r.dictIndex(o, key); i >= 0 {
		r.incref(val)
		r.decref(o.vals[i])
		o.vals[i] = val
		return
	}
	o.keys = append(o.keys, r.incref(key))
	o.vals = append(o.vals, r.incref(val))
}

func (r *Runtime) dictSetString(d uintptr, key string, val uintptr) {
	o := r.get(d)
	if i := r.dictIndexString(o, key); i >= 0 {
		r.incref(val)
		r.decref(o.vals[i])
		o.vals[i] = val
		return
	}
	k := r.newStr(key)
	if o.immortal {
		r.objs[k].immortal = true
	}
	o.keys = append(o.keys, k)
	o.vals = append(o.vals, r.incref(val))
}

func (r *Runtime) dictGetString(d uintptr, key string) uintptr {
	o := r.get(d)
	if i := r.dictIndexString(o, key); i >= 0 {
		return o.vals[i]
	}
	return 0
}

func (r *Runtime) truth(o *object) bool {
	switch o.kind {
	case kindNone:
		return false
	case kindBool, kindInt:
		return o.i != 0
	case kindFloat:
		return o.f != 0
	case kindStr:
		return o.s != ""
	case kindList, kindTuple:
		return len(o.items) > 0
	case kindDict:
		return len(o.keys) > 0
	}
	return true
}

func (r *Runtime) str(o *object) string {
	switch o.kind {
	case kindStr:
		return o.s
	case kindExc:
		return o.s
	}
	return r.repr(o)
}

func (r *Runtime) repr(o *object) string {
	switch o.kind {
	case kindNone:
		return "None"
	case kindBool:
		if o.i != 0 {
			return "True"
		}
		return "False"
	case kindInt:
		return strconv.FormatInt(o.i, 10)
	case kindFloat:
		return formatFloat(o.f)
	case kindStr:
		return "'" + o.s + "'"
	case kindList:
		return "[" + r.joinRepr(o.items) + "]"
	case kindTuple:
		if len(o.items) == 1 {
			return "(" + r.joinRepr(o.items) + ",)"
		}
		return "(" + r.joinRepr(o.items) + ")"
	case kindDict:
		parts := make([]string, len(o.keys))
		for i := range o.keys {
			parts[i] = r.reprAddr(o.keys[i]) + ": " + r.reprAddr(o.vals[i])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case kindType:
		return fmt.Sprintf("<class '%s'>", o.name)
	case kindModule:
		return fmt.Sprintf("<module '%s'>", o.name)
	case kindFunc:
		return fmt.Sprintf("<built-in method %s>", o.name)
	case kindIter:
		return "<iterator object>"
	case kindExc:
		return fmt.Sprintf("%s('%s')", r.typeName(o), o.s)
	}
	return "<object>"
}

func (r *Runtime) reprAddr(a uintptr) string {
	if o := r.get(a); o != nil {
		return r.repr(o)
	}
	return "<NULL>"
}

func (r *Runtime) joinRepr(items []uintptr) string {
	parts := make([]string, len(items))
	for i, a := range items {
		parts[i] = r.reprAddr(a)
	}
	return strings.Join(parts, ", ")
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
