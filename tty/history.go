package tty

// history is an append-only list of committed lines with a recall cursor.
// pos ranges over [0, len(entries)]; len(entries) means "one past the newest".
type history struct {
	entries []string
	pos     int
}

func (h *history) Append(entry string) {
	h.entries = append(h.entries, entry)
	h.pos = len(h.entries)
}

func (h *history) Len() int {
	return len(h.entries)
}

func (h *history) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Older steps toward the oldest entry, clamping there.
func (h *history) Older() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.pos > 0 {
		h.pos--
	}
	return h.entries[h.pos], true
}

// Newer steps toward the newest entry. Stepping past the newest yields an empty line.
func (h *history) Newer() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.pos >= len(h.entries)-1 {
		h.pos = len(h.entries)
		return "", true
	}
	h.pos++
	return h.entries[h.pos], true
}
