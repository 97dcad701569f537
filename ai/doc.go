// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ai provides abstractions for the embedding services used by InvenTree.
//
// The dense index and the hybrid retriever depend only on the Embedder
// interface defined here. Concrete clients live in sub-packages:
//
//   - ai/openai: any OpenAI-compatible embedding endpoint
//   - ai/ollama: the native Ollama embedding API
//   - ai/mock: deterministic test doubles
//
// Public constructors return interface types. The mock constructors return
// concrete types so tests can inject failures and inspect call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithProvider(ai.ProviderOllama))
//	provider, err := ollama.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "regenerative braking")
package ai
