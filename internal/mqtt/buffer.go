package mqtt

import "log"

// bufferedMsg is a serialized MQTT message held until the broker is reachable.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// msgBuffer holds messages published while disconnected, oldest first.
// When full it evicts the oldest unretained message, so retained lifecycle
// events outlive relay events. Not safe for concurrent use.
type msgBuffer struct {
	msgs     []bufferedMsg
	capacity int
	dropped  int // evicted since the last drain
}

func newMsgBuffer(capacity int) *msgBuffer {
	return &msgBuffer{
		msgs:     make([]bufferedMsg, 0, capacity),
		capacity: capacity,
	}
}

func (b *msgBuffer) push(msg bufferedMsg) {
	if b.capacity <= 0 {
		b.dropped++
		return
	}
	if len(b.msgs) == b.capacity {
		if b.dropped == 0 {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", b.capacity)
		}
		b.evict()
	}
	b.msgs = append(b.msgs, msg)
}

// evict removes the oldest unretained message, or the oldest message if all
// are retained.
func (b *msgBuffer) evict() {
	victim := 0
	for i, m := range b.msgs {
		if !m.retained {
			victim = i
			break
		}
	}
	b.msgs = append(b.msgs[:victim], b.msgs[victim+1:]...)
	b.dropped++
}

// drain returns the held messages in publish order and the number evicted
// since the previous drain, and empties the buffer.
func (b *msgBuffer) drain() ([]bufferedMsg, int) {
	dropped := b.dropped
	b.dropped = 0
	if len(b.msgs) == 0 {
		return nil, dropped
	}
	msgs := b.msgs
	b.msgs = make([]bufferedMsg, 0, b.capacity)
	return msgs, dropped
}

func (b *msgBuffer) len() int {
	return len(b.msgs)
}
