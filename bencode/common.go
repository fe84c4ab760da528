// This package defines (yet another) bencode encoding/decoding library. At its core is a pull-style Reader and a
// matching push-style Writer which walk a single contiguous buffer token by token, enforcing the nested grammar with
// an explicit state machine rather than recursion. Neither side builds an intermediate tree.
//
// On top of the token API the package keeps its tag-based struct mapping: Serialize and Deserialize expect structs
// annotated with `bencode:".."` tags, and support fixed-byte array map keys.
package bencode

const (
	numberStart    = 0x69 // i
	dictStart      = 0x64 // d
	listStart      = 0x6c // l
	bencodeEnd     = 0x65 // e
	bytesLengthSep = 0x3a // :
	minusSign      = 0x2d // -
)

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
