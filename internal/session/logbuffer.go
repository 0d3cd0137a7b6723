package session

// LogBuffer keeps the most recent lines up to a fixed capacity. Appending to a
// full buffer drops exactly the oldest line. It is not safe for concurrent use;
// the Store guards it.
type LogBuffer struct {
	lines      []string
	maxHistory int
}

func NewLogBuffer(maxHistory int) *LogBuffer {
	if maxHistory <= 0 {
		maxHistory = DefaultLogCapacity
	}
	return &LogBuffer{
		lines:      make([]string, 0, maxHistory),
		maxHistory: maxHistory,
	}
}

func (b *LogBuffer) Append(line string) {
	b.lines = append(b.lines, line)
	if len(b.lines) > b.maxHistory {
		b.lines = b.lines[len(b.lines)-b.maxHistory:]
	}
}

// Reset discards the history and starts over with the given lines.
func (b *LogBuffer) Reset(lines ...string) {
	b.lines = make([]string, 0, b.maxHistory)
	for _, l := range lines {
		b.Append(l)
	}
}

func (b *LogBuffer) Len() int {
	return len(b.lines)
}

func (b *LogBuffer) Cap() int {
	return b.maxHistory
}

func (b *LogBuffer) Snapshot() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}
