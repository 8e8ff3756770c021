package tty

type lineBuffer struct {
	buf    []rune
	cursor int
}

func (b *lineBuffer) String() string {
	return string(b.buf)
}

func (b *lineBuffer) Len() int {
	return len(b.buf)
}

func (b *lineBuffer) Cursor() int {
	return b.cursor
}

func (b *lineBuffer) Clear() {
	b.buf = nil
	b.cursor = 0
}

func (b *lineBuffer) SetString(value string) {
	if value == "" {
		b.Clear()
		return
	}
	b.buf = []rune(value)
	b.cursor = len(b.buf)
}

func (b *lineBuffer) Insert(r rune) {
	if b.cursor < 0 {
		b.cursor = 0
	}
	if b.cursor > len(b.buf) {
		b.cursor = len(b.buf)
	}
	b.buf = append(b.buf[:b.cursor], append([]rune{r}, b.buf[b.cursor:]...)...)
	b.cursor++
}

func (b *lineBuffer) Backspace() {
	if b.cursor <= 0 {
		return
	}
	b.buf = append(b.buf[:b.cursor-1], b.buf[b.cursor:]...)
	b.cursor--
}

func (b *lineBuffer) MoveLeft() {
	if b.cursor > 0 {
		b.cursor--
	}
}

func (b *lineBuffer) MoveRight() {
	if b.cursor < len(b.buf) {
		b.cursor++
	}
}
