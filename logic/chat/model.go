package chat

import (
	"context"
	"log"
	"time"

	embedollama "github.com/cloudwego/eino-ext/components/embedding/ollama"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/ollama/ollama/api"

	"loanrisk/vars"
)

// CreateChatModel builds the chat backend named by LLM_BACKEND. Ollama is the
// default; "openai" covers any OpenAI-compatible endpoint.
func CreateChatModel(ctx context.Context) model.ToolCallingChatModel {
	switch vars.LLM_BACKEND {
	case "openai":
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: vars.OPENAI_URL,
			APIKey:  vars.OPENAI_KEY,
			Model:   vars.CHAT_MODEL,
		})
		if err != nil {
			log.Fatalf("create openai chat model failed: %v", err)
		}
		return chatModel
	default:
		chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: vars.OLLAMA_PATH,
			Model:   vars.CHAT_MODEL,
			Timeout: vars.GEN_TIMEOUT,
			Options: &api.Options{
				Runner: api.Runner{NumCtx: vars.GEN_NUM_CTX},
			},
		})
		if err != nil {
			log.Fatalf("create ollama chat model failed: %v", err)
		}
		return chatModel
	}
}

// CreateEmbedder builds the embedding backend used for similarity search.
func CreateEmbedder(ctx context.Context) embedding.Embedder {
	embedder, err := embedollama.NewEmbedder(ctx, &embedollama.EmbeddingConfig{
		BaseURL: vars.OLLAMA_PATH,
		Model:   vars.EMBED_MODEL,
		Timeout: 30 * time.Second,
	})
	if err != nil {
		log.Fatalf("create ollama embedder failed: %v", err)
	}
	return embedder
}
