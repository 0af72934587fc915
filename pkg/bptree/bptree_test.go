package bptree_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/ssargent/dbcforge/pkg/bptree"
)

func TestTree_InsertAndSearch(t *testing.T) {
	type search struct {
		key      int
		expected string
		found    bool
	}
	tests := map[string]struct {
		inserts  [][2]any
		searches []search
	}{
		"Insert and search integers": {
			inserts: [][2]any{{1, "one"}, {2, "two"}, {3, "three"}, {4, "four"}, {5, "five"}},
			searches: []search{
				{1, "one", true},
				{3, "three", true},
				{5, "five", true},
				{6, "", false},
			},
		},
		"Insert duplicate keys": {
			inserts:  [][2]any{{1, "one"}, {1, "uno"}},
			searches: []search{{1, "uno", true}},
		},
		"Search empty tree": {
			searches: []search{{1, "", false}},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tree := bptree.New[int, string](4)
			for _, kv := range tt.inserts {
				tree.Insert(kv[0].(int), kv[1].(string))
			}
			for _, s := range tt.searches {
				value, found := tree.Search(s.key)
				if found != s.found || value != s.expected {
					t.Errorf("Search(%d) = %v, %v; want %v, %v", s.key, value, found, s.expected, s.found)
				}
			}
		})
	}
}

func TestTree_SplitsKeepOrder(t *testing.T) {
	tree := bptree.New[int, int](3)
	keys := rand.New(rand.NewSource(1)).Perm(500)
	for _, k := range keys {
		tree.Insert(k, k*10)
	}

	if tree.Len() != 500 {
		t.Fatalf("Len = %d, want 500", tree.Len())
	}
	if tree.Height() < 3 {
		t.Errorf("Height = %d, expected the tree to have split", tree.Height())
	}

	for _, k := range keys {
		if v, ok := tree.Search(k); !ok || v != k*10 {
			t.Fatalf("Search(%d) = %d, %v", k, v, ok)
		}
	}

	want := 0
	tree.Ascend(func(k, v int) bool {
		if k != want {
			t.Fatalf("Ascend visited %d, want %d", k, want)
		}
		want++
		return true
	})
	if want != 500 {
		t.Errorf("Ascend visited %d keys", want)
	}
}

func TestTree_Range(t *testing.T) {
	tree := bptree.New[uint32, string](4)
	for i := uint32(0); i < 100; i += 2 {
		tree.Insert(i, fmt.Sprint(i))
	}

	collect := func(from, to uint32, limit int) []uint32 {
		var got []uint32
		tree.Range(from, to, func(k uint32, _ string) bool {
			got = append(got, k)
			return limit == 0 || len(got) < limit
		})
		return got
	}

	if got := collect(10, 16, 0); fmt.Sprint(got) != "[10 12 14 16]" {
		t.Errorf("Range(10,16) = %v", got)
	}
	if got := collect(11, 15, 0); fmt.Sprint(got) != "[12 14]" {
		t.Errorf("Range(11,15) = %v", got)
	}
	if got := collect(90, 1000, 0); fmt.Sprint(got) != "[90 92 94 96 98]" {
		t.Errorf("Range(90,1000) = %v", got)
	}
	if got := collect(0, 98, 3); fmt.Sprint(got) != "[0 2 4]" {
		t.Errorf("Range with early stop = %v", got)
	}
	if got := collect(20, 10, 0); len(got) != 0 {
		t.Errorf("Range with from > to = %v", got)
	}
	if got := collect(101, 200, 0); len(got) != 0 {
		t.Errorf("Range past the end = %v", got)
	}
}

func TestTree_Update(t *testing.T) {
	tree := bptree.New[string, []int](3)
	for i, name := range []string{"Fireball", "Frostbolt", "Fireball", "Arcane", "Fireball"} {
		tree.Update(name, func(old []int, _ bool) []int { return append(old, i) })
	}

	got, ok := tree.Search("Fireball")
	if !ok || fmt.Sprint(got) != "[0 2 4]" {
		t.Errorf("Search(Fireball) = %v, %v", got, ok)
	}
	if tree.Len() != 3 {
		t.Errorf("Len = %d, want 3", tree.Len())
	}
}

func TestTree_Concurrency(t *testing.T) {
	tree := bptree.New[int, string](4)

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tree.Insert(i, string(rune('a'+i-1)))
		}(i)
	}
	wg.Wait()

	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, found := tree.Search(i); !found {
				t.Errorf("Expected to find key %d", i)
			}
		}(i)
	}
	wg.Wait()
}
