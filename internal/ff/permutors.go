package ff

import (
	"math/big"
	"math/rand"

	"github.com/segmentio/fasthash/jody"
)

// IndexPermutor permutes an integer range from 0 to N.
type IndexPermutor struct {
	indices []int
}

// PrefixPermutor produces the distinct length-n prefixes of the permutations of [0, size).
// Each prefix is one way to assign n distinct opponents to n weeks.
type PrefixPermutor struct {
	IndexPermutor
	n int
}

// NewIndexPermutor creates an IndexPermutor for the integer range [0, size)
func NewIndexPermutor(size int) *IndexPermutor {
	out := make([]int, size)
	for i := 0; i < size; i++ {
		out[i] = i
	}
	return &IndexPermutor{indices: out}
}

// NewPrefixPermutor creates a PrefixPermutor over [0, size) producing prefixes of length n.
// n must be no larger than size.
func NewPrefixPermutor(size, n int) *PrefixPermutor {
	return &PrefixPermutor{IndexPermutor: *NewIndexPermutor(size), n: n}
}

// Len returns the length of the set being permuted.
func (ip IndexPermutor) Len() int {
	return len(ip.indices)
}

func factorial(n int) *big.Int {
	z := new(big.Int)
	return z.MulRange(1, int64(n))
}

// NumberOfPermutations returns the number of permutations possible for the set.
func (ip IndexPermutor) NumberOfPermutations() *big.Int {
	return factorial(ip.Len())
}

// NumberOfPrefixes returns size!/(size-n)!, the number of distinct prefixes.
func (pp PrefixPermutor) NumberOfPrefixes() *big.Int {
	z := new(big.Int)
	return z.MulRange(int64(pp.Len()-pp.n+1), int64(pp.Len()))
}

func hash(v []int) uint64 {
	h := jody.HashUint64(uint64(len(v)))
	for _, x := range v {
		h = jody.AddUint64(h, uint64(x))
	}
	return h
}

func clone(x []int) []int {
	out := make([]int, len(x))
	copy(out, x)
	return out
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Iterator returns a channel-backed iterator that produces every permutation of the set.
// The channel closes once all the permutations have been pushed.
// The implementation uses Heap's algorithm (non-recursive).
func (ip *IndexPermutor) Iterator() <-chan []int {
	ch := make(chan []int, 20)

	go func() {
		out := make([]int, ip.Len())
		counter := make([]int, len(out))

		copy(out, ip.indices)

		ch <- clone(out)

		i := 0
		for i < len(out) {
			if counter[i] < i {
				if i%2 == 0 {
					out[0], out[i] = out[i], out[0]
				} else {
					out[counter[i]], out[i] = out[i], out[counter[i]]
				}

				ch <- clone(out)

				counter[i]++
				i = 0

			} else {
				counter[i] = 0
				i++
			}
		}
		close(ch)
	}()

	return ch
}

// Iterator returns a channel-backed iterator that produces each distinct prefix exactly once.
// The channel closes once all the prefixes have been pushed.
// Full permutations come from Heap's algorithm; prefixes already seen are skipped using a map of hashes.
// Hash buckets keep the prefixes themselves, so a hash collision cannot drop a prefix.
func (pp *PrefixPermutor) Iterator() <-chan []int {
	ch := make(chan []int, 20)

	go func() {
		visited := make(map[uint64][][]int)
		for perm := range pp.IndexPermutor.Iterator() {
			prefix := perm[:pp.n]
			h := hash(prefix)
			seen := false
			for _, v := range visited[h] {
				if equal(v, prefix) {
					seen = true
					break
				}
			}
			if seen {
				continue
			}
			visited[h] = append(visited[h], prefix)
			ch <- clone(prefix)
		}
		close(ch)
	}()

	return ch
}

// drawPrefix shuffles the first n entries of order into a uniformly random selection of n distinct entries.
// It is a partial Fisher-Yates shuffle, so the result is uniform whatever order held before the call.
func drawPrefix(rng *rand.Rand, order []int, n int) {
	for j := 0; j < n; j++ {
		k := j + rng.Intn(len(order)-j)
		order[j], order[k] = order[k], order[j]
	}
}
