package fxbuf

import "sync"

// Pool recycles transient buffers, grouped by descriptor. It also keeps count
// of how many buffers are currently checked out, which is how the frame loop
// notices a pass that forgot to release something.
//
// All methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets map[Descriptor][]*Buffer
	maxSize int // max idle buffers kept per descriptor; 0 means unlimited

	live      int
	allocated int // buffers created, as opposed to reused
	gets      int
	puts      int
}

func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: map[Descriptor][]*Buffer{},
		maxSize: maxPerBucket,
	}
}

// Get hands out a cleared buffer matching desc, reusing an idle one if it can.
func (p *Pool) Get(desc Descriptor) (*Buffer, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.gets++
	p.live++

	if bucket := p.buckets[desc]; len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.buckets[desc] = bucket[:len(bucket)-1]
		buf.Clear()
		return buf, nil
	}

	p.allocated++
	return NewBuffer(desc)
}

// Put returns a buffer obtained from Get.
func (p *Pool) Put(buf *Buffer) {
	if buf == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.puts++
	p.live--

	bucket := p.buckets[buf.desc]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[buf.desc] = append(bucket, buf)
}

// PoolStats is a snapshot of the pool counters.
type PoolStats struct {
	Live      int // checked out right now
	Allocated int // ever created
	Gets      int
	Puts      int
	Idle      int // sitting in the pool
}

func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	idle := 0
	for _, bucket := range p.buckets {
		idle += len(bucket)
	}
	return PoolStats{Live: p.live, Allocated: p.allocated, Gets: p.gets, Puts: p.puts, Idle: idle}
}

func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// Drain drops all idle buffers.
func (p *Pool) Drain() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buckets = map[Descriptor][]*Buffer{}
}
