package relevance

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/mohammad-safakhou/confpilot/internal/agenda"
	"github.com/mohammad-safakhou/confpilot/provider"
)

const rrfK = 60 // reciprocal-rank-fusion constant

// EmbedVec pairs a session id with its embedding vector.
type EmbedVec struct {
	SessionID string
	Vec       []float32
}

// sessionDoc is the shape bleve indexes per session.
type sessionDoc struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Track       string `json:"track"`
	Tags        string `json:"tags"`
	Speakers    string `json:"speakers"`
}

// Index is an in-memory hybrid index over the session catalog: BM25 through
// bleve plus embedding cosine similarity, fused with reciprocal-rank fusion.
// The embedder is optional; without it search degrades to BM25 only.
type Index struct {
	bleve    bleve.Index
	embedder provider.Provider
	vectors  []EmbedVec
	meta     map[string]agenda.Session
	mu       sync.RWMutex
}

// New builds an empty index. embedder may be nil.
func New(embedder provider.Provider) (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	return &Index{
		bleve:    idx,
		embedder: embedder,
		meta:     make(map[string]agenda.Session),
	}, nil
}

// IndexCatalog loads the session catalog into the index. Embeddings are
// fetched in one batch; an embedding failure leaves the BM25 side usable.
func (x *Index) IndexCatalog(ctx context.Context, sessions []agenda.Session) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	texts := make([]string, 0, len(sessions))
	for _, s := range sessions {
		doc := sessionDoc{
			Title:       s.Title,
			Description: s.Description,
			Track:       s.Track,
			Tags:        strings.Join(s.Tags, " "),
			Speakers:    speakerNames(s),
		}
		if err := x.bleve.Index(s.ID, doc); err != nil {
			return fmt.Errorf("indexing session %s: %w", s.ID, err)
		}
		x.meta[s.ID] = s
		texts = append(texts, sessionEmbedText(s))
	}

	if x.embedder == nil || len(sessions) == 0 {
		return nil
	}
	vecs, err := x.embedder.CreateEmbedding(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding catalog: %w", err)
	}
	x.vectors = x.vectors[:0]
	for i, v := range vecs {
		if i >= len(sessions) {
			break
		}
		x.vectors = append(x.vectors, EmbedVec{SessionID: sessions[i].ID, Vec: v})
	}
	return nil
}

// Session returns the indexed session for id. The second return is false when
// the id was never indexed.
func (x *Index) Session(id string) (agenda.Session, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	s, ok := x.meta[id]
	return s, ok
}

type rankedHit struct {
	id    string
	score float64
	rank  int
}

// Search runs the hybrid query and returns hits with scores normalized to
// [0,1], best first. excludeIDs are dropped from the results.
func (x *Index) Search(ctx context.Context, query string, excludeIDs []string, limit int) ([]agenda.Hit, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	bmHits, err := x.bm25Search(query, limit)
	if err != nil {
		return nil, err
	}

	var vecHits []rankedHit
	if x.embedder != nil && len(x.vectors) > 0 {
		qvecs, err := x.embedder.CreateEmbedding(ctx, []string{query})
		if err == nil && len(qvecs) == 1 {
			vecHits = x.vectorSearch(qvecs[0], limit)
		}
	}

	fused := fuseRRF(bmHits, vecHits)

	// Normalize fused scores so the top hit sits at 1.0 and the engine's
	// similarity threshold stays meaningful.
	var maxScore float64
	for _, h := range fused {
		if h.score > maxScore {
			maxScore = h.score
		}
	}
	out := make([]agenda.Hit, 0, limit)
	for _, h := range fused {
		if excluded[h.id] {
			continue
		}
		score := 0.0
		if maxScore > 0 {
			score = h.score / maxScore
		}
		out = append(out, agenda.Hit{SessionID: h.id, Score: score})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (x *Index) bm25Search(q string, k int) ([]rankedHit, error) {
	query := bleve.NewQueryStringQuery(q)
	searchReq := bleve.NewSearchRequestOptions(query, k*3, 0, false)
	res, err := x.bleve.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	var out []rankedHit
	for i, hit := range res.Hits {
		out = append(out, rankedHit{id: hit.ID, score: hit.Score, rank: i + 1})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

func (x *Index) vectorSearch(q []float32, k int) []rankedHit {
	x.mu.RLock()
	defer x.mu.RUnlock()
	scored := make([]rankedHit, 0, len(x.vectors))
	for _, v := range x.vectors {
		scored = append(scored, rankedHit{id: v.SessionID, score: cosine(q, v.Vec)})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > k {
		scored = scored[:k]
	}
	for i := range scored {
		scored[i].rank = i + 1
	}
	return scored
}

func fuseRRF(a, b []rankedHit) []rankedHit {
	m := map[string]*rankedHit{}
	add := func(list []rankedHit) {
		for _, h := range list {
			x, ok := m[h.id]
			if !ok {
				m[h.id] = &rankedHit{id: h.id}
				x = m[h.id]
			}
			x.score += 1.0 / float64(rrfK+h.rank)
		}
	}
	add(a)
	add(b)
	out := make([]rankedHit, 0, len(m))
	for _, v := range m {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score == out[j].score {
			return out[i].id < out[j].id
		}
		return out[i].score > out[j].score
	})
	for i := range out {
		out[i].rank = i + 1
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func sessionEmbedText(s agenda.Session) string {
	parts := []string{s.Title, s.Description, s.Track, strings.Join(s.Tags, " "), speakerNames(s)}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func speakerNames(s agenda.Session) string {
	names := make([]string, 0, len(s.Speakers))
	for _, sp := range s.Speakers {
		names = append(names, sp.Name)
	}
	return strings.Join(names, " ")
}
