package bridge

// DictEntry is the result of one DictNext step.
type DictEntry struct {
	// Key and Value are borrowed from the dict and stay valid while the
	// dict is alive and unmodified. Both are null when OK is false.
	Key   Borrowed
	Value Borrowed
	// Pos is the cursor to pass to the following DictNext call.
	Pos int
	OK  bool
}

// DictNext advances a dict iteration. Start with pos 0 and feed each
// returned Pos back in until OK is false. The dict must not be mutated
// during the iteration.
func (b Bridge) DictNext(dict Handle, pos int) (DictEntry, error) {
	fn, err := bind[func(uintptr, *int, *uintptr, *uintptr) int32](b.s, "PyDict_Next")
	if err != nil {
		return DictEntry{Pos: pos}, err
	}
	var key, value uintptr
	if fn(addr(dict), &pos, &key, &value) == 0 {
		return DictEntry{Pos: pos}, nil
	}
	return DictEntry{
		Key:   Borrowed{Ref(key)},
		Value: Borrowed{Ref(value)},
		Pos:   pos,
		OK:    true,
	}, nil
}

// DictEach calls fn for every entry until fn returns false.
func (b Bridge) DictEach(dict Handle, fn func(key, value Borrowed) bool) error {
	pos := 0
	for {
		e, err := b.DictNext(dict, pos)
		if err != nil {
			return err
		}
		if !e.OK || !fn(e.Key, e.Value) {
			return nil
		}
		pos = e.Pos
	}
}
