package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO that stores messages while disconnected.
// When full, the oldest message is dropped to make room.
// Not safe for concurrent use — caller must synchronize.
type ringBuffer struct {
	msgs    []bufferedMsg
	head    int // oldest message position
	count   int
	dropped int // messages discarded since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{msgs: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(m bufferedMsg) {
	if r.count == len(r.msgs) {
		if r.dropped == 0 {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", len(r.msgs))
		}
		r.dropped++
		r.msgs[r.head] = m
		r.head = (r.head + 1) % len(r.msgs)
		return
	}

	r.msgs[(r.head+r.count)%len(r.msgs)] = m
	r.count++
}

// drainAll returns the buffered messages oldest first and empties the buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}

	out := make([]bufferedMsg, r.count)
	for i := range out {
		out[i] = r.msgs[(r.head+i)%len(r.msgs)]
	}

	r.head = 0
	r.count = 0
	r.dropped = 0
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
