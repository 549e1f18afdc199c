package palette

import "math/bits"

// keySpace is the number of distinct 24-bit packed colors.
const keySpace = 1 << 24

// keySet is a presence bitmap over packed 24-bit colors with rank lookup.
// Iteration and ranks follow ascending key order.
type keySet struct {
	words  []uint64
	prefix []int32 // set bits before each word
	count  int
}

func newKeySet() *keySet {
	return &keySet{words: make([]uint64, keySpace/64)}
}

func (s *keySet) add(k uint32) {
	s.words[k>>6] |= 1 << (k & 63)
}

// seal computes the rank prefix table; call after the last add.
func (s *keySet) seal() {
	s.prefix = make([]int32, len(s.words))
	n := 0
	for i, w := range s.words {
		s.prefix[i] = int32(n)
		n += bits.OnesCount64(w)
	}
	s.count = n
}

// rank returns the position of k among the present keys in ascending order.
func (s *keySet) rank(k uint32) int32 {
	w := s.words[k>>6] & (1<<(k&63) - 1)
	return s.prefix[k>>6] + int32(bits.OnesCount64(w))
}

// keys returns the present keys in ascending order.
func (s *keySet) keys() []uint32 {
	out := make([]uint32, 0, s.count)
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, uint32(i)<<6|uint32(b))
			w &= w - 1
		}
	}
	return out
}
