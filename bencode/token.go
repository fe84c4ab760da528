package bencode

// TokenType is the lexical class of one bencode unit.
type TokenType uint8

const (
	None TokenType = iota
	Integer
	String
	ListHead
	ListTail
	DictionaryHead
	DictionaryTail
	Key
)

var tokenTypeNames = [...]string{
	None:           "None",
	Integer:        "Integer",
	String:         "String",
	ListHead:       "ListHead",
	ListTail:       "ListTail",
	DictionaryHead: "DictionaryHead",
	DictionaryTail: "DictionaryTail",
	Key:            "Key",
}

func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "TokenType(?)"
}

// State is the register shared by Reader and Writer.
type State uint8

const (
	Initial State = iota
	ListValue
	DictionaryKey
	DictionaryValue
	Final
	Error
)

var stateNames = [...]string{
	Initial:         "Initial",
	ListValue:       "ListValue",
	DictionaryKey:   "DictionaryKey",
	DictionaryValue: "DictionaryValue",
	Final:           "Final",
	Error:           "Error",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(?)"
}

// acceptsValue reports whether a value (integer, string, list or dictionary) may start in s.
func (s State) acceptsValue() bool {
	return s == Initial || s == ListValue || s == DictionaryValue
}
