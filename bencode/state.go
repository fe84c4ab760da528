package bencode

import "golang.org/x/exp/maps"

type containerKind uint8

const (
	listFrame containerKind = iota
	dictionaryFrame
)

// frame is one open container. Dictionary frames own the set of keys seen so far.
type frame struct {
	kind              containerKind
	keys              map[string]struct{}
	skipDuplicateKeys bool
}

func (f *frame) hasKey(key []byte) bool {
	_, ok := f.keys[string(key)]
	return ok
}

func (f *frame) addKey(key []byte) {
	if f.keys == nil {
		f.keys = make(map[string]struct{})
	}
	f.keys[string(key)] = struct{}{}
}

// machine is the grammar state shared by Reader and Writer: a state register kept in sync with a stack of open
// containers.
type machine struct {
	state  State
	frames []frame
	err    error
}

// State returns the current state.
func (m *machine) State() State {
	return m.state
}

// Depth returns the number of open containers.
func (m *machine) Depth() int {
	return len(m.frames)
}

// Err returns the error that moved the machine into the Error state, if any.
func (m *machine) Err() error {
	return m.err
}

func (m *machine) reset() {
	m.state = Initial
	m.frames = m.frames[:0]
	m.err = nil
}

// check returns a usage error unless allowed. In the Error state every operation is refused.
func (m *machine) check(allowed bool, op string) error {
	if m.state == Error {
		return invalidOperation("cannot %s after a previous error", op)
	}
	if !allowed {
		return invalidOperation("cannot %s in state %s", op, m.state)
	}
	return nil
}

func (m *machine) checkValue(op string) error {
	return m.check(m.state.acceptsValue(), op)
}

func (m *machine) fail(err error) error {
	m.state = Error
	m.err = err
	return err
}

// push opens a container. Frames and their key sets are reused from earlier containers at the same depth.
func (m *machine) push(kind containerKind, skipDuplicateKeys bool) {
	if n := len(m.frames); n < cap(m.frames) {
		m.frames = m.frames[:n+1]
		f := &m.frames[n]
		f.kind = kind
		f.skipDuplicateKeys = skipDuplicateKeys
		if f.keys != nil {
			maps.Clear(f.keys)
		}
	} else {
		m.frames = append(m.frames, frame{kind: kind, skipDuplicateKeys: skipDuplicateKeys})
	}
	if kind == listFrame {
		m.state = ListValue
	} else {
		m.state = DictionaryKey
	}
}

func (m *machine) pop() {
	m.frames = m.frames[:len(m.frames)-1]
	m.valueDone()
}

func (m *machine) top() *frame {
	return &m.frames[len(m.frames)-1]
}

// valueDone resumes the enclosing container after a complete value.
func (m *machine) valueDone() {
	switch {
	case len(m.frames) == 0:
		m.state = Final
	case m.top().kind == listFrame:
		m.state = ListValue
	default:
		m.state = DictionaryKey
	}
}

func (m *machine) keyDone() {
	m.state = DictionaryValue
}

func (m *machine) contextForState() scanContext {
	switch m.state {
	case ListValue:
		return contextList
	case DictionaryKey:
		return contextKey
	default:
		return contextValue
	}
}
