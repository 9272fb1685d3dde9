package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/store"
)

var benchWords = []string{
	"ferret", "puppy", "eagle", "keyboard", "simple", "words", "compute",
	"employed", "dollars", "unbelief", "spoke", "frog", "ideas", "stuff",
}

func benchIndex(b *testing.B, docs int) *Index {
	b.Helper()
	idx, err := New(store.NewMemory(), "bench")
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	for i := 0; i < docs; i++ {
		text := fmt.Sprintf("%s %s %s",
			benchWords[i%len(benchWords)],
			benchWords[(i*7)%len(benchWords)],
			benchWords[(i*3)%len(benchWords)],
		)
		if err := idx.Add(ctx, fmt.Sprintf("doc-%d", i), text); err != nil {
			b.Fatal(err)
		}
	}
	return idx
}

// BenchmarkMemoryIndexAdd measures indexing one short document.
func BenchmarkMemoryIndexAdd(b *testing.B) {
	idx, err := New(store.NewMemory(), "bench")
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := idx.Add(ctx, fmt.Sprintf("doc-%d", i%1000), "puppy dog eagle puppy frog puppy dog simple"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMemoryQuery measures a full query for growing corpus sizes.
func BenchmarkMemoryQuery(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			idx := benchIndex(b, size)
			q := idx.Query("ferret puppy").Mode(Union).Range(0, 9)
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := q.Execute(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkMemoryQueryParallel(b *testing.B) {
	idx := benchIndex(b, 1000)
	q := idx.Query("simple words")
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			if _, err := q.Execute(ctx); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
