package fakepy

import (
	"fmt"
	"unsafe"
)

// symbolTable maps exported names to implementations whose Go types match
// the signatures the bridge binds them as.
func (r *Runtime) symbolTable() map[string]any {
	return map[string]any{
		// lifecycle
		"Py_InitializeEx":  r.initializeEx,
		"Py_IsInitialized": r.isInitialized,
		"Py_FinalizeEx":    r.finalizeEx,
		"Py_GetVersion":    func() string { return r.banner },
		"Py_IncRef":        r.pyIncRef,
		"Py_DecRef":        r.pyDecRef,
		"Py_Is":            func(a, b uintptr) int32 { return boolInt32(a == b) },

		// containers
		"PyDict_New":              r.dictNew,
		"PyDict_SetItem":          r.dictSetItem,
		"PyDict_SetItemString":    r.dictSetItemString,
		"PyDict_GetItemWithError": r.dictGetItemWithError,
		"PyDict_GetItemString":    r.dictGetItemString,
		"PyDict_Size":             r.dictSize,
		"PyDict_Keys":             r.dictKeys,
		"PyDict_Next":             r.dictNext,
		"PyList_New":              r.listNew,
		"PyList_SetItem":          r.listSetItem,
		"PyList_GetItem":          r.listGetItem,
		"PyList_Append":           r.listAppend,
		"PyList_Size":             r.listSize,
		"PyTuple_New":             r.tupleNew,
		"PyTuple_SetItem":         r.tupleSetItem,
		"PyTuple_GetItem":         r.tupleGetItem,
		"PyTuple_Size":            r.tupleSize,

		// objects
		"PyObject_GetAttrString": r.getAttrString,
		"PyObject_SetAttrString": r.setAttrString,
		"PyObject_HasAttrString": r.hasAttrString,
		"PyObject_CallObject":    r.callObject,
		"PyObject_Type":          r.objectType,
		"PyObject_Str":           r.objectStr,
		"PyObject_Repr":          r.objectRepr,
		"PyObject_IsTrue":        r.objectIsTrue,
		"PyObject_GetIter":       r.getIter,

		// scalars
		"PyUnicode_FromStringAndSize": r.unicodeFromStringAndSize,
		"PyUnicode_AsUTF8AndSize":     r.unicodeAsUTF8AndSize,
		"PyLong_FromLongLong":         r.longFromLongLong,
		"PyLong_AsLongLong":           r.longAsLongLong,
		"PyFloat_FromDouble":          r.floatFromDouble,
		"PyFloat_AsDouble":            r.floatAsDouble,
		"PyBool_FromLong":             r.boolFromLong,

		// modules
		"PyImport_ImportModule": r.importModule,
		"PyImport_AddModule":    r.addModule,
		"PyModule_GetDict":      r.moduleGetDict,
		"PyEval_GetBuiltins":    func() uintptr { return r.builtins },
		"PySys_GetObject":       r.sysGetObject,

		// protocols
		"PyIter_Check":     r.iterCheck,
		"PySequence_Check": r.sequenceCheck,
		"PyIter_Next":      r.iterNext,
		"PyIter_NextItem":  r.iterNextItem,

		// exceptions
		"PyErr_Occurred":           r.errOccurred,
		"PyErr_Clear":              r.errClear,
		"PyErr_Fetch":              r.errFetch,
		"PyErr_NormalizeException": func(*uintptr, *uintptr, *uintptr) {},
		"PyErr_GetRaisedException": r.errGetRaised,

		// execution
		"PyRun_StringFlags":       r.runStringFlags,
		"PyRun_SimpleStringFlags": r.runSimpleStringFlags,
	}
}

func boolInt32(v bool) int32 {
	if v {
		return 1
	}
	return 0
}

func (r *Runtime) initializeEx(int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initCalls++
	r.initialized = true
}

func (r *Runtime) isInitialized() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return boolInt32(r.initialized)
}

func (r *Runtime) finalizeEx() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return -1
	}
	r.finalizeCalls++
	r.initialized = false
	return 0
}

func (r *Runtime) pyIncRef(a uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incref(a)
}

func (r *Runtime) pyDecRef(a uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decref(a)
}

// badCall mirrors PyErr_BadInternalCall.
func (r *Runtime) badCall(fn string) {
	r.setErr("SystemError", fn+": bad argument to internal function")
}

func (r *Runtime) kindOf(a uintptr, k kind) *object {
	if o := r.get(a); o != nil && o.kind == k {
		return o
	}
	return nil
}

func (r *Runtime) dictNew() uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newDict()
}

func (r *Runtime) dictSetItem(d, key, val uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kindOf(d, kindDict) == nil || r.get(key) == nil || r.get(val) == nil {
		r.badCall("PyDict_SetItem")
		return -1
	}
	if k := r.get(key); k.kind == kindList || k.kind == kindDict {
		r.setErr("TypeError", fmt.Sprintf("unhashable type: '%s'", r.typeName(k)))
		return -1
	}
	r.dictSet(d, key, val)
	return 0
}

func (r *Runtime) dictSetItemString(d uintptr, key string, val uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kindOf(d, kindDict) == nil || r.get(val) == nil {
		r.badCall("PyDict_SetItemString")
		return -1
	}
	r.dictSetString(d, key, val)
	return 0
}

func (r *Runtime) dictGetItemWithError(d, key uintptr) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.kindOf(d, kindDict)
	if o == nil {
		r.badCall("PyDict_GetItemWithError")
		return 0
	}
	if i := r.dictIndex(o, key); i >= 0 {
		return o.vals[i]
	}
	return 0
}

func (r *Runtime) dictGetItemString(d uintptr, key string) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kindOf(d, kindDict) == nil {
		return 0
	}
	return r.dictGetString(d, key)
}

func (r *Runtime) dictSize(d uintptr) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.kindOf(d, kindDict)
	if o == nil {
		r.badCall("PyDict_Size")
		return -1
	}
	return len(o.keys)
}

func (r *Runtime) dictKeys(d uintptr) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.kindOf(d, kindDict)
	if o == nil {
		r.badCall("PyDict_Keys")
		return 0
	}
	l := r.newList(0)
	for _, k := range o.keys {
		r.objs[l].items = append(r.objs[l].items, r.incref(k))
	}
	return l
}

func (r *Runtime) dictNext(d uintptr, pos *int, key, val *uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.kindOf(d, kindDict)
	if o == nil || pos == nil || *pos < 0 || *pos >= len(o.keys) {
		return 0
	}
	if key != nil {
		*key = o.keys[*pos]
	}
	if val != nil {
		*val = o.vals[*pos]
	}
	*pos++
	return 1
}

func (r *Runtime) listNew(n int) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 0 {
		r.badCall("PyList_New")
		return 0
	}
	return r.newList(n)
}

func (r *Runtime) tupleNew(n int) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 0 {
		r.badCall("PyTuple_New")
		return 0
	}
	return r.newTuple(n)
}

// setItem implements the stealing store shared by lists and tuples: item is
// consumed even when the store fails.
func (r *Runtime) setItem(fn string, k kind, seq uintptr, i int, item uintptr) int32 {
	o := r.kindOf(seq, k)
	if o == nil {
		r.decref(item)
		r.badCall(fn)
		return -1
	}
	if i < 0 || i >= len(o.items) {
		r.decref(item)
		r.setErr("IndexError", r.typeName(o)+" assignment index out of range")
		return -1
	}
	r.decref(o.items[i])
	o.items[i] = item
	return 0
}

func (r *Runtime) getItem(k kind, seq uintptr, i int) uintptr {
	o := r.kindOf(seq, k)
	if o == nil {
		r.badCall("GetItem")
		return 0
	}
	if i < 0 || i >= len(o.items) {
		r.setErr("IndexError", r.typeName(o)+" index out of range")
		return 0
	}
	return o.items[i]
}

func (r *Runtime) size(k kind, seq uintptr) int {
	o := r.kindOf(seq, k)
	if o == nil {
		r.badCall("Size")
		return -1
	}
	return len(o.items)
}

func (r *Runtime) listSetItem(l uintptr, i int, item uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setItem("PyList_SetItem", kindList, l, i, item)
}

func (r *Runtime) listGetItem(l uintptr, i int) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getItem(kindList, l, i)
}

func (r *Runtime) listAppend(l, item uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.kindOf(l, kindList)
	if o == nil || r.get(item) == nil {
		r.badCall("PyList_Append")
		return -1
	}
	o.items = append(o.items, r.incref(item))
	return 0
}

func (r *Runtime) listSize(l uintptr) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size(kindList, l)
}

func (r *Runtime) tupleSetItem(t uintptr, i int, item uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setItem("PyTuple_SetItem", kindTuple, t, i, item)
}

func (r *Runtime) tupleGetItem(t uintptr, i int) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getItem(kindTuple, t, i)
}

func (r *Runtime) tupleSize(t uintptr) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size(kindTuple, t)
}

// getAttr returns a new reference or 0 with AttributeError set.
func (r *Runtime) getAttr(a uintptr, name string) uintptr {
	o := r.get(a)
	if o == nil {
		r.badCall("PyObject_GetAttrString")
		return 0
	}
	switch o.kind {
	case kindList:
		switch name {
		case "clear":
			return r.newMethod("clear", a, func(self, _ uintptr) uintptr {
				l := r.objs[self]
				items := l.items
				l.items = nil
				for _, it := range items {
					r.decref(it)
				}
				return r.incref(r.none)
			})
		case "append":
			return r.newMethod("append", a, func(self, args uintptr) uintptr {
				t := r.kindOf(args, kindTuple)
				if t == nil || len(t.items) != 1 {
					r.setErr("TypeError", "list.append() takes exactly one argument")
					return 0
				}
				l := r.objs[self]
				l.items = append(l.items, r.incref(t.items[0]))
				return r.incref(r.none)
			})
		}
	case kindDict:
		if name == "keys" {
			return r.newMethod("keys", a, func(self, _ uintptr) uintptr {
				l := r.newList(0)
				for _, k := range r.objs[self].keys {
					r.objs[l].items = append(r.objs[l].items, r.incref(k))
				}
				return l
			})
		}
	case kindStr:
		if name == "upper" {
			return r.newMethod("upper", a, func(self, _ uintptr) uintptr {
				return r.newStr(upper(r.objs[self].s))
			})
		}
	case kindType:
		if name == "__name__" {
			return r.newStr(o.name)
		}
	case kindModule:
		if name == "__name__" {
			return r.newStr(o.name)
		}
		if v := r.dictGetString(o.dict, name); v != 0 {
			return r.incref(v)
		}
		r.setErr("AttributeError", fmt.Sprintf("module '%s' has no attribute '%s'", o.name, name))
		return 0
	case kindExc:
		if name == "args" {
			t := r.newTuple(1)
			r.objs[t].items[0] = r.newStr(o.s)
			return t
		}
	}
	if v, ok := o.attrs[name]; ok {
		return r.incref(v)
	}
	r.setErr("AttributeError", fmt.Sprintf("'%s' object has no attribute '%s'", r.typeName(o), name))
	return 0
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func (r *Runtime) getAttrString(a uintptr, name string) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getAttr(a, name)
}

func (r *Runtime) setAttrString(a uintptr, name string, val uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.get(a)
	if o == nil || r.get(val) == nil {
		r.badCall("PyObject_SetAttrString")
		return -1
	}
	switch o.kind {
	case kindModule:
		r.dictSetString(o.dict, name, val)
		return 0
	case kindFunc, kindExc:
		if o.attrs == nil {
			o.attrs = make(map[string]uintptr)
		}
		r.incref(val)
		r.decref(o.attrs[name])
		o.attrs[name] = val
		return 0
	}
	r.setErr("AttributeError", fmt.Sprintf("'%s' object has no attribute '%s'", r.typeName(o), name))
	return -1
}

func (r *Runtime) hasAttrString(a uintptr, name string) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := r.pending
	r.pending = 0
	v := r.getAttr(a, name)
	r.decref(v)
	r.decref(r.pending)
	r.pending = saved
	return boolInt32(v != 0)
}

func (r *Runtime) callObject(callable, args uintptr) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.get(callable)
	if o == nil {
		r.badCall("PyObject_CallObject")
		return 0
	}
	if args != 0 && r.kindOf(args, kindTuple) == nil {
		r.setErr("TypeError", "argument list must be a tuple")
		return 0
	}
	return r.invoke(callable, args)
}

// invoke calls o with a borrowed args tuple, which may be 0.
func (r *Runtime) invoke(callable, args uintptr) uintptr {
	o := r.objs[callable]
	switch {
	case o.kind == kindFunc:
		return o.call(o.self, args)
	case r.isExcType(o):
		msg := ""
		if t := r.get(args); t != nil && len(t.items) > 0 {
			msg = r.str(r.objs[t.items[0]])
		}
		return r.alloc(&object{kind: kindExc, typ: callable, s: msg})
	}
	r.setErr("TypeError", fmt.Sprintf("'%s' object is not callable", r.typeName(o)))
	return 0
}

func (r *Runtime) objectType(a uintptr) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.get(a)
	if o == nil {
		r.badCall("PyObject_Type")
		return 0
	}
	return r.incref(o.typ)
}

func (r *Runtime) objectStr(a uintptr) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.get(a)
	if o == nil {
		return r.newStr("<NULL>")
	}
	if o.kind == kindStr {
		return r.incref(a)
	}
	return r.newStr(r.str(o))
}

func (r *Runtime) objectRepr(a uintptr) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.get(a)
	if o == nil {
		return r.newStr("<NULL>")
	}
	return r.newStr(r.repr(o))
}

func (r *Runtime) objectIsTrue(a uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.get(a)
	if o == nil {
		r.badCall("PyObject_IsTrue")
		return -1
	}
	return boolInt32(r.truth(o))
}

func (r *Runtime) getIter(a uintptr) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.get(a)
	if o == nil {
		r.badCall("PyObject_GetIter")
		return 0
	}
	switch o.kind {
	case kindIter:
		return r.incref(a)
	case kindList, kindTuple, kindDict, kindStr:
		return r.alloc(&object{kind: kindIter, typ: r.types["iterator"], src: r.incref(a), failAt: -1})
	}
	r.setErr("TypeError", fmt.Sprintf("'%s' object is not iterable", r.typeName(o)))
	return 0
}

func (r *Runtime) unicodeFromStringAndSize(s string, n int) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 0 || n > len(s) {
		r.badCall("PyUnicode_FromStringAndSize")
		return 0
	}
	return r.newStr(s[:n])
}

func (r *Runtime) unicodeAsUTF8AndSize(a uintptr, size *int) unsafe.Pointer {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.kindOf(a, kindStr)
	if o == nil {
		r.setErr("TypeError", "bad argument type for built-in operation")
		return nil
	}
	if size != nil {
		*size = len(o.s)
	}
	return unsafe.Pointer(&o.utf8[0])
}

func (r *Runtime) longFromLongLong(v int64) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newInt(v)
}

func (r *Runtime) longAsLongLong(a uintptr) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.get(a)
	if o == nil || !isIntegral(o) {
		name := "NULL"
		if o != nil {
			name = r.typeName(o)
		}
		r.setErr("TypeError", fmt.Sprintf("'%s' object cannot be interpreted as an integer", name))
		return -1
	}
	return o.i
}

func (r *Runtime) floatFromDouble(v float64) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newFloat(v)
}

func (r *Runtime) floatAsDouble(a uintptr) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.get(a)
	switch {
	case o == nil:
		r.badCall("PyFloat_AsDouble")
	case o.kind == kindFloat:
		return o.f
	case isIntegral(o):
		return float64(o.i)
	default:
		r.setErr("TypeError", fmt.Sprintf("must be real number, not %s", r.typeName(o)))
	}
	return -1
}

func (r *Runtime) boolFromLong(v int) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newBool(v != 0)
}

func (r *Runtime) importModule(name string) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.modules[name]; ok {
		return r.incref(m)
	}
	r.setErr("ModuleNotFoundError", fmt.Sprintf("No module named '%s'", name))
	return 0
}

func (r *Runtime) addModule(name string) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.modules[name]; ok {
		return m
	}
	m := r.newModule(name, 0)
	r.dictSetString(r.objs[m].dict, "__name__", r.intern(name))
	r.modules[name] = m
	return m
}

func (r *Runtime) moduleGetDict(m uintptr) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.kindOf(m, kindModule)
	if o == nil {
		r.badCall("PyModule_GetDict")
		return 0
	}
	return o.dict
}

func (r *Runtime) sysGetObject(name string) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dictGetString(r.objs[r.modules["sys"]].dict, name)
}

func (r *Runtime) iterCheck(a uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return boolInt32(r.kindOf(a, kindIter) != nil)
}

func (r *Runtime) sequenceCheck(a uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.get(a)
	return boolInt32(o != nil && (o.kind == kindList || o.kind == kindTuple || o.kind == kindStr))
}

// advance produces the next element of it: 1 with a new reference in item,
// 0 when exhausted, -1 with an exception set.
func (r *Runtime) advance(it uintptr, item *uintptr) int32 {
	*item = 0
	o := r.kindOf(it, kindIter)
	if o == nil {
		r.setErr("TypeError", "object is not an iterator")
		return -1
	}
	if o.failAt >= 0 && o.pos == o.failAt {
		r.setErr("RuntimeError", "iteration failed")
		return -1
	}
	src := r.get(o.src)
	if src == nil {
		return 0
	}
	switch src.kind {
	case kindList, kindTuple:
		if o.pos >= len(src.items) {
			return 0
		}
		*item = r.incref(src.items[o.pos])
	case kindDict:
		if o.pos >= len(src.keys) {
			return 0
		}
		*item = r.incref(src.keys[o.pos])
	case kindStr:
		runes := []rune(src.s)
		if o.pos >= len(runes) {
			return 0
		}
		*item = r.newStr(string(runes[o.pos]))
	default:
		return 0
	}
	o.pos++
	return 1
}

func (r *Runtime) iterNext(it uintptr) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	var item uintptr
	r.advance(it, &item)
	return item
}

func (r *Runtime) iterNextItem(it uintptr, item *uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.advance(it, item)
}

func (r *Runtime) errOccurred() uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o := r.get(r.pending); o != nil {
		return o.typ
	}
	return 0
}

func (r *Runtime) errClear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decref(r.pending)
	r.pending = 0
}

func (r *Runtime) errFetch(typ, val, tb *uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*typ, *val, *tb = 0, 0, 0
	if o := r.get(r.pending); o != nil {
		*typ = r.incref(o.typ)
		*val = r.pending
		r.pending = 0
	}
}

func (r *Runtime) errGetRaised() uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.pending
	r.pending = 0
	return v
}

func (r *Runtime) runStringFlags(src string, start int32, globals, locals uintptr, _ unsafe.Pointer) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run(src, start, globals, locals)
}

func (r *Runtime) runSimpleStringFlags(src string, _ unsafe.Pointer) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	main := r.objs[r.modules["__main__"]].dict
	v := r.run(src, startFile, main, main)
	if v == 0 {
		r.decref(r.pending)
		r.pending = 0
		return -1
	}
	r.decref(v)
	return 0
}
