package solver

import (
	"image"
	"testing"

	"github.com/microdog/wechat-automated-jump-game/internal/vision"
)

func tmplAt(scale float64) *vision.Template {
	return &vision.Template{Scale: scale, Image: image.NewRGBA(image.Rect(0, 0, 1, 1))}
}

func TestTemplateCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewTemplateCache(3)
	c.Put(0.5, tmplAt(0.5))
	c.Put(0.75, tmplAt(0.75))
	c.Put(1, tmplAt(1))

	// refresh 0.5 so 0.75 becomes the oldest
	if _, ok := c.Get(0.5); !ok {
		t.Fatal("expected hit for 0.5")
	}
	c.Put(1.25, tmplAt(1.25))

	if _, ok := c.Get(0.75); ok {
		t.Fatal("0.75 should have been evicted")
	}
	for _, s := range []float64{0.5, 1, 1.25} {
		if _, ok := c.Get(s); !ok {
			t.Fatalf("expected %v to survive", s)
		}
	}
	if c.Len() != 3 {
		t.Fatalf("len=%d want 3", c.Len())
	}
}

func TestTemplateCache_RefreshedKeySurvivesCapacityMinusOneInserts(t *testing.T) {
	const capacity = 4
	c := NewTemplateCache(capacity)
	for i := range capacity {
		c.Put(float64(i), tmplAt(float64(i)))
	}
	c.Get(0)
	for i := range capacity - 1 {
		c.Put(float64(100+i), tmplAt(0))
	}
	if _, ok := c.Get(0); !ok {
		t.Fatal("recently used entry evicted too early")
	}
}

func TestTemplateCache_ReplaceAndDefaults(t *testing.T) {
	c := NewTemplateCache(0)
	for i := range DefaultCacheSize + 5 {
		c.Put(float64(i), tmplAt(float64(i)))
	}
	if c.Len() != DefaultCacheSize {
		t.Fatalf("len=%d want %d", c.Len(), DefaultCacheSize)
	}

	repl := tmplAt(42)
	c.Put(14, repl)
	got, ok := c.Get(14)
	if !ok || got != repl {
		t.Fatal("put must replace an existing entry")
	}
	if c.Len() != DefaultCacheSize {
		t.Fatalf("replace changed len to %d", c.Len())
	}
	if _, ok := c.Get(-1); ok {
		t.Fatal("unknown scale must miss")
	}
}
