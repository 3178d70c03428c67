package providers

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedDeterministicAndNormalized(t *testing.T) {
	p := NewMockProvider(64)
	req := EmbedRequest{Operation: "embed", Inputs: []string{"attention is all you need"}, Dimension: 64}

	a, _, err := p.Embed(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := p.Embed(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 1 || len(a[0]) != 64 {
		t.Fatalf("unexpected shape: %d x %d", len(a), len(a[0]))
	}
	var norm float64
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("mock embedding not deterministic at %d", i)
		}
		norm += float64(a[0][i]) * float64(a[0][i])
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-5 {
		t.Fatalf("mock embedding not unit-norm: %f", math.Sqrt(norm))
	}
}

func TestMockEmbedDistinctInputsDiffer(t *testing.T) {
	p := NewMockProvider(32)
	out, _, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"alpha", "beta"}, Dimension: 32})
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range out[0] {
		if out[0][i] != out[1][i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("distinct inputs produced identical vectors")
	}
}
