package memlimit

// Buffer is a scoped byte region backed by a shared Limiter. Multiple Buffers
// may charge against the same Limiter; each Buffer releases its own charged
// capacity when Release is called (the caller-visible equivalent of "drop").
type Buffer struct {
	limiter *Limiter
	data    []byte
	// charged is how many bytes of cap(data) are currently charged against
	// the limiter. It can exceed len(data) since Go slice growth doubles
	// capacity ahead of need; we charge for the capacity we actually hold.
	charged uint64
}

// NewBuffer creates an empty Buffer against limiter with an optional initial
// preallocation (the Settings.preallocated_parsing_buffer_size from §6).
func NewBuffer(limiter *Limiter, preallocate int) (*Buffer, error) {
	b := &Buffer{limiter: limiter}
	if preallocate > 0 {
		if err := limiter.Preallocate(uint64(preallocate)); err != nil {
			return nil, err
		}
		b.data = make([]byte, 0, preallocate)
		b.charged = uint64(preallocate)
	}
	return b, nil
}

// Bytes returns a read-only view of the buffered bytes.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Append appends chunk to the buffer, charging the limiter for any
// incremental capacity growth before it happens.
func (b *Buffer) Append(chunk []byte) error {
	needed := len(b.data) + len(chunk)
	if needed > cap(b.data) {
		newCap := nextCap(cap(b.data), needed)
		delta := uint64(newCap - cap(b.data))
		if err := b.limiter.IncreaseUsage(delta); err != nil {
			return err
		}
		grown := make([]byte, len(b.data), newCap)
		copy(grown, b.data)
		b.data = grown
		b.charged += delta
	}
	b.data = append(b.data, chunk...)
	return nil
}

// InitWith clears the buffer and appends chunk, reusing existing capacity
// when possible.
func (b *Buffer) InitWith(chunk []byte) error {
	b.data = b.data[:0]
	return b.Append(chunk)
}

// ShrinkToLast retains only the trailing n bytes, shifting them to offset 0
// in place. It never reallocates.
func (b *Buffer) ShrinkToLast(n int) {
	if n <= 0 {
		b.data = b.data[:0]
		return
	}
	if n >= len(b.data) {
		return
	}
	start := len(b.data) - n
	copy(b.data[:n], b.data[start:])
	b.data = b.data[:n]
}

// Release returns the buffer's full charged capacity to the limiter. The
// Buffer must not be used afterwards.
func (b *Buffer) Release() {
	if b.charged > 0 {
		b.limiter.DecreaseUsage(b.charged)
		b.charged = 0
	}
	b.data = nil
}

func nextCap(cur, needed int) int {
	if cur == 0 {
		cur = 64
	}
	for cur < needed {
		cur *= 2
	}
	return cur
}
