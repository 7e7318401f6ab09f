package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/northfiber/concierge/agent/agents/conversation"
	contractx "github.com/northfiber/concierge/agent/contract"
	directoryx "github.com/northfiber/concierge/agent/directory"
	llmx "github.com/northfiber/concierge/agent/llm"
	statex "github.com/northfiber/concierge/agent/state"
	configx "github.com/northfiber/concierge/pkg/config"
	_ "github.com/northfiber/concierge/pkg/logger/autoload"
	openrouterx "github.com/northfiber/concierge/pkg/openrouter"
)

type AppConfig struct {
	StoreBackend     string `envconfig:"STORE_BACKEND" split_words:"true" default:"memory"`
	SQLitePath       string `envconfig:"SQLITE_PATH" split_words:"true" default:"concierge.sqlite"`
	DirectoryBackend string `envconfig:"DIRECTORY_BACKEND" split_words:"true" default:"static"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llmx.Config]("LLM")

	client := openrouterx.NewClient(llmCfg.OpenRouterFor(llmx.BindingRouter))
	if client == nil {
		log.Fatal().Msg("failed to initialize openrouter client")
	}

	models, err := llmx.NewRegistry(ctx, *llmCfg, client)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build model registry")
	}

	store, err := newStore(*appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build session store")
	}
	directory, err := newDirectory(*appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build account directory")
	}

	controller, err := conversation.New(store, models, directory)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build conversation controller")
	}

	runConversation(ctx, controller)
}

func newStore(cfg AppConfig) (statex.Store, error) {
	switch cfg.StoreBackend {
	case "memory":
		return statex.NewMemoryStore(), nil
	case "sqlite":
		return statex.NewSQLiteStore(cfg.SQLitePath)
	case "upstash":
		redisCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		return statex.NewUpstashRedisStore(*redisCfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func newDirectory(cfg AppConfig) (contractx.Directory, error) {
	switch cfg.DirectoryBackend {
	case "static":
		return directoryx.NewStatic(), nil
	case "postgres":
		pgCfg := configx.MustNew[directoryx.PostgresConfig]("DIRECTORY_POSTGRES")
		return directoryx.NewPostgres(*pgCfg)
	default:
		return nil, fmt.Errorf("unknown directory backend %q", cfg.DirectoryBackend)
	}
}

func runConversation(ctx context.Context, controller *conversation.Controller) {
	threadID := "support-" + uuid.NewString()
	log.Info().Str("thread_id", threadID).Msg("starting conversation")

	fmt.Println("AI: Hello! I'm Nova, Northwind Fiber's AI assistant. How can I help you today?")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if lowered := strings.ToLower(input); lowered == "exit" || lowered == "quit" {
			fmt.Println("AI: Goodbye!")
			return
		}

		reply, err := controller.HandleUserInput(ctx, threadID, input)
		if err != nil {
			// The session is untouched on failure; the same input can be
			// retried on the next read.
			log.Error().Err(err).Msg("turn failed")
			fmt.Println("AI: I'm sorry, something went wrong on my end. Could you try that again?")
			continue
		}
		fmt.Printf("AI: %s\n", reply)
	}
}
