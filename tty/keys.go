package tty

// KeyKind classifies one decoded input chunk.
type KeyKind int

const (
	KeyUnknown KeyKind = iota
	KeyPrintable
	KeyEnter
	KeyDelete
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
)

// Key is the logical event produced from one raw input chunk.
type Key struct {
	Kind KeyKind
	Char byte
}

// ChunkSize is the number of bytes read from the terminal per decode.
const ChunkSize = 8

// Raw input patterns. Each value is the chunk bytes accumulated little-endian,
// so ESC [ A becomes 0x415b1b.
const (
	patternLineFeed       uint64 = 0x0a
	patternCarriageReturn uint64 = 0x0d
	patternBackspace      uint64 = 0x08
	patternRubout         uint64 = 0x7f
	patternDeleteSeq      uint64 = 0x7e335b1b
	patternUp             uint64 = 0x415b1b
	patternDown           uint64 = 0x425b1b
	patternRight          uint64 = 0x435b1b
	patternLeft           uint64 = 0x445b1b
	patternUpSS3          uint64 = 0x414f1b
	patternDownSS3        uint64 = 0x424f1b
	patternRightSS3       uint64 = 0x434f1b
	patternLeftSS3        uint64 = 0x444f1b
)

var keyPatterns = map[uint64]KeyKind{
	patternLineFeed:       KeyEnter,
	patternCarriageReturn: KeyEnter,
	patternBackspace:      KeyDelete,
	patternRubout:         KeyDelete,
	patternDeleteSeq:      KeyDelete,
	patternUp:             KeyUp,
	patternDown:           KeyDown,
	patternRight:          KeyRight,
	patternLeft:           KeyLeft,
	patternUpSS3:          KeyUp,
	patternDownSS3:        KeyDown,
	patternRightSS3:       KeyRight,
	patternLeftSS3:        KeyLeft,
}

// chunkValue folds up to ChunkSize bytes into an integer, byte i shifted by 8*i.
func chunkValue(chunk []byte) uint64 {
	var v uint64
	for i := 0; i < len(chunk) && i < ChunkSize; i++ {
		v |= uint64(chunk[i]) << (8 * i)
	}
	return v
}

// Decode classifies a raw input chunk. Every chunk yields exactly one Key;
// multi-byte chunks that match no pattern and control bytes are KeyUnknown.
func Decode(chunk []byte) Key {
	v := chunkValue(chunk)
	if kind, ok := keyPatterns[v]; ok {
		return Key{Kind: kind}
	}
	if v == uint64(byte(v)) && v >= 0x20 {
		return Key{Kind: KeyPrintable, Char: byte(v)}
	}
	return Key{Kind: KeyUnknown}
}
