// Package mock provides test double implementations of AI service interfaces.
//
// MockEmbedder produces deterministic bag-of-words vectors so that texts
// sharing vocabulary have positive cosine similarity. Failures are injected
// through the EmbedTextFunc and EmbedTextsFunc fields.
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("service down")
//	}
//
//	count := embedder.CallCount()
package mock
