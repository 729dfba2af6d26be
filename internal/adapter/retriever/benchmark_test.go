package retriever

import (
	"context"
	"fmt"
	"testing"

	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/memstore"
	"docrag/internal/domain"
)

var qualityCorpus = []string{
	"grace period of thirty days for premium payment",
	"waiting period of two years for pre existing diseases",
	"maternity expenses covered after continuous coverage",
	"cataract surgery limited to a fixed amount per eye",
	"organ donor hospitalisation expenses are indemnified",
	"no claim discount applied at renewal",
}

var qualityQueries = []struct {
	query    string
	relevant string
}{
	{"grace period premium payment", qualityCorpus[0]},
	{"pre existing diseases waiting", qualityCorpus[1]},
	{"maternity coverage", qualityCorpus[2]},
	{"cataract surgery", qualityCorpus[3]},
	{"organ donor", qualityCorpus[4]},
	{"no claim discount renewal", qualityCorpus[5]},
}

func newQualityRetriever(t testing.TB) *SemanticRetriever {
	t.Helper()
	emb := embedding.NewMockEmbedder(512)
	st := memstore.NewMemoryStore(0)
	ctx := context.Background()
	for _, text := range qualityCorpus {
		vec, err := emb.Embed(ctx, text, 0)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := st.Insert(ctx, text, vec); err != nil {
			t.Fatal(err)
		}
	}
	return NewSemanticRetriever(emb, st, nil)
}

func TestRetrievalQuality(t *testing.T) {
	r := newQualityRetriever(t)
	ctx := context.Background()

	var mrr, recall float64
	for _, q := range qualityQueries {
		results, err := r.Search(ctx, q.query, domain.DefaultTopK)
		if err != nil {
			t.Fatal(err)
		}
		texts := domain.Texts(results)
		rr := reciprocalRank(texts, q.relevant)
		if rr != 1 {
			t.Errorf("%q: relevant chunk at reciprocal rank %.3f, got %v", q.query, rr, texts)
		}
		mrr += rr
		recall += recallAtK(texts, []string{q.relevant})
	}

	n := float64(len(qualityQueries))
	if mrr/n < 0.99 {
		t.Errorf("MRR = %.3f, want 1", mrr/n)
	}
	if recall/n < 0.99 {
		t.Errorf("recall@%d = %.3f, want 1", domain.DefaultTopK, recall/n)
	}
}

func TestMetrics(t *testing.T) {
	cases := []struct {
		name      string
		retrieved []string
		relevant  []string
		wantR     float64
		wantRR    float64
	}{
		{"first", []string{"a", "b", "c"}, []string{"a"}, 1.0, 1.0},
		{"second", []string{"x", "a", "c"}, []string{"a"}, 1.0, 0.5},
		{"partial", []string{"a", "x"}, []string{"a", "b"}, 0.5, 1.0},
		{"missing", []string{"x", "y", "z"}, []string{"a"}, 0.0, 0.0},
		{"empty_relevant", []string{"a"}, []string{}, 0.0, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if r := recallAtK(tc.retrieved, tc.relevant); diff(r, tc.wantR) > 0.01 {
				t.Errorf("recall = %.3f, want %.3f", r, tc.wantR)
			}
			if len(tc.relevant) == 0 {
				return
			}
			if rr := reciprocalRank(tc.retrieved, tc.relevant[0]); diff(rr, tc.wantRR) > 0.01 {
				t.Errorf("reciprocal rank = %.3f, want %.3f", rr, tc.wantRR)
			}
		})
	}
}

func BenchmarkSemanticSearch(b *testing.B) {
	emb := embedding.NewMockEmbedder(768)
	st := memstore.NewMemoryStore(0)
	ctx := context.Background()
	for i := 0; i < 2000; i++ {
		text := fmt.Sprintf("%s clause %d", qualityCorpus[i%len(qualityCorpus)], i)
		vec, _ := emb.Embed(ctx, text, 0)
		st.Insert(ctx, text, vec)
	}
	r := NewSemanticRetriever(emb, st, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Search(ctx, "waiting period diseases", domain.DefaultTopK); err != nil {
			b.Fatal(err)
		}
	}
}

func recallAtK(retrieved, relevant []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	relevantSet := make(map[string]bool)
	for _, r := range relevant {
		relevantSet[r] = true
	}
	hits := 0
	for _, r := range retrieved {
		if relevantSet[r] {
			hits++
		}
	}
	return float64(hits) / float64(len(relevant))
}

func reciprocalRank(retrieved []string, relevant string) float64 {
	for i, r := range retrieved {
		if r == relevant {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
