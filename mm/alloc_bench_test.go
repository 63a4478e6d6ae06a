package mm

import (
	"math/rand"
	"testing"

	"github.com/joshuapare/segalloc/heap"
)

func BenchmarkAllocFree_Small(b *testing.B) {
	a := New(heap.NewMemStore(0), nil)
	if err := a.Init(); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		p := a.Alloc(24)
		a.Free(p)
	}
}

func BenchmarkMixed(b *testing.B) {
	for _, order := range []InsertOrder{Ascending, MostRecentFirst} {
		b.Run(order.String(), func(b *testing.B) {
			opts := DefaultOptions()
			opts.InsertionOrder = order
			rng := rand.New(rand.NewSource(1))
			sizes := make([]int, 1024)
			for i := range sizes {
				sizes[i] = randomSize(rng)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for range b.N {
				b.StopTimer()
				a := New(heap.NewMemStore(0), opts)
				if err := a.Init(); err != nil {
					b.Fatal(err)
				}
				live := make([]Ptr, 0, len(sizes))
				b.StartTimer()

				for i, size := range sizes {
					live = append(live, a.Alloc(size))
					if i%3 == 2 {
						a.Free(live[i-1])
						live[i-1] = Nil
					}
				}
				for _, p := range live {
					a.Free(p)
				}
			}
		})
	}
}

func BenchmarkRealloc_Grow(b *testing.B) {
	a := New(heap.NewMemStore(0), nil)
	if err := a.Init(); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for range b.N {
		p := a.Alloc(16)
		for size := 32; size <= 4096; size *= 2 {
			p = a.Realloc(p, size)
		}
		a.Free(p)
	}
}
