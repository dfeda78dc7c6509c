package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	orchestratorx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/agents/orchestrator"
	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
	nlux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/nlu"
	statex "github.com/tamersaada/Sofra-Conversational-Ordering/agent/state"
	submitx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/submit"
	toolx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/tool"
	configx "github.com/tamersaada/Sofra-Conversational-Ordering/pkg/config"
	_ "github.com/tamersaada/Sofra-Conversational-Ordering/pkg/logger/autoload"
	openrouterx "github.com/tamersaada/Sofra-Conversational-Ordering/pkg/openrouter"
	orderlogx "github.com/tamersaada/Sofra-Conversational-Ordering/pkg/orderlog"
	toolserverx "github.com/tamersaada/Sofra-Conversational-Ordering/pkg/toolserver"
)

type AppConfig struct {
	SessionID string `envconfig:"SESSION_ID" default:"local-session"`

	// Optional backends; empty values fall back to in-process equivalents.
	SessionStoreURL string `envconfig:"SESSION_STORE_URL"`
	ToolServerURL   string `envconfig:"TOOL_SERVER_URL"`
	PostgresDSN     string `envconfig:"POSTGRES_DSN"`
	OpenRouterKey   string `envconfig:"OPENROUTER_API_KEY"`
}

func main() {
	ctx := context.Background()
	appCfg := configx.MustNew[AppConfig]("")

	catalog, err := menux.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load menu catalog")
	}

	store := buildSessionStore(appCfg, catalog)
	backend := buildToolBackend(appCfg, catalog)
	records := buildSubmissionStore(ctx, appCfg)

	dispatcher := toolx.NewDispatcher(backend, *configx.MustNew[toolx.Config]("DISPATCHER"))

	pipeline, err := submitx.NewPipeline(catalog, dispatcher, records, *configx.MustNew[submitx.Config]("SUBMIT"))
	if err != nil {
		log.Fatal().Err(err).Msg("build submission pipeline")
	}

	extractor := buildExtractor(ctx, appCfg, catalog)

	orch, err := orchestratorx.New(store, catalog, pipeline, extractor)
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	runREPL(ctx, orch, appCfg.SessionID, extractor != nil)
}

func buildSessionStore(cfg *AppConfig, catalog *menux.Catalog) statex.Store {
	if strings.TrimSpace(cfg.SessionStoreURL) == "" {
		return statex.NewMemoryStore(catalog)
	}
	redisCfg := configx.MustNew[statex.UpstashRedisConfig]("SESSION_STORE")
	store, err := statex.NewUpstashRedisStore(*redisCfg, catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("build session store")
	}
	return store
}

func buildToolBackend(cfg *AppConfig, catalog *menux.Catalog) contractx.ToolBackend {
	if strings.TrimSpace(cfg.ToolServerURL) != "" {
		return toolserverx.MustNew(*configx.MustNew[toolserverx.Config]("TOOL_SERVER"))
	}

	orders := orderlogx.New(*configx.MustNew[orderlogx.Config]("ORDER_LOG"))

	backend := toolx.NewLocalBackend()
	backend.Register(contractx.ToolMenuQuery, toolx.MenuQueryHandler(catalog))
	backend.Register(contractx.ToolLogOrder, toolx.LogOrderHandler(orders))
	backend.Register(contractx.ToolEmailNotify, toolx.EmailNotifyHandler(
		func(_ context.Context, to, subject, _ string) error {
			// Local runs have no mail transport; record the dispatch instead.
			log.Info().Str("to", to).Str("subject", subject).Msg("kitchen notification")
			return nil
		},
	))
	return backend
}

func buildSubmissionStore(ctx context.Context, cfg *AppConfig) contractx.SubmissionStore {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return submitx.NewMemoryStore()
	}
	store, err := submitx.OpenPostgres(*configx.MustNew[submitx.PostgresConfig]("POSTGRES"))
	if err != nil {
		log.Fatal().Err(err).Msg("open postgres submission store")
	}
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure submission schema")
	}
	return store
}

func buildExtractor(ctx context.Context, cfg *AppConfig, catalog *menux.Catalog) contractx.Extractor {
	if strings.TrimSpace(cfg.OpenRouterKey) == "" {
		return nil
	}
	orCfg := configx.MustNew[openrouterx.OpenRouterConfig]("OPENROUTER")
	if err := openrouterx.VerifyModel(ctx, *orCfg); err != nil {
		log.Fatal().Err(err).Msg("verify openrouter model")
	}
	chatModel, err := orCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build chat model")
	}
	extractor, err := nlux.New(ctx, chatModel, catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("build intent extractor")
	}
	return extractor
}

// runREPL reads one customer turn per line. Without an extractor it accepts
// structured commands only (menu, add CODE QTY, remove CODE, qty CODE QTY,
// confirm, cancel).
func runREPL(ctx context.Context, orch *orchestratorx.Orchestrator, sessionID string, freeText bool) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Welcome to Sofra. Type 'menu' to browse, 'quit' to leave.")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}

		var (
			out contractx.TurnOutcome
			err error
		)
		if freeText {
			out, err = orch.HandleMessage(ctx, sessionID, line)
		} else {
			out, err = orch.HandleIntent(ctx, sessionID, parseCommand(line))
		}
		if err != nil {
			log.Error().Err(err).Msg("turn failed")
			continue
		}

		fmt.Println(out.Reply)
		for _, item := range out.MenuItems {
			fmt.Printf("  %-8s %-24s $%s\n", item.Code, item.Name, item.Price.StringFixed(2))
		}
	}
}

func parseCommand(line string) contractx.Intent {
	fields := strings.Fields(line)
	switch fields[0] {
	case "menu":
		intent := contractx.Intent{Kind: contractx.IntentQueryMenu}
		if len(fields) > 1 {
			intent.MenuFilter = fields[1]
		}
		return intent
	case "add":
		intent := contractx.Intent{Kind: contractx.IntentAddItem, Quantity: 1}
		if len(fields) > 1 {
			intent.ItemCode = fields[1]
		}
		if len(fields) > 2 {
			fmt.Sscanf(fields[2], "%d", &intent.Quantity)
		}
		return intent
	case "remove":
		intent := contractx.Intent{Kind: contractx.IntentRemoveItem}
		if len(fields) > 1 {
			intent.ItemCode = fields[1]
		}
		return intent
	case "qty":
		intent := contractx.Intent{Kind: contractx.IntentUpdateQuantity}
		if len(fields) > 1 {
			intent.ItemCode = fields[1]
		}
		if len(fields) > 2 {
			fmt.Sscanf(fields[2], "%d", &intent.Quantity)
		}
		return intent
	case "confirm":
		return contractx.Intent{Kind: contractx.IntentConfirmOrder}
	case "cancel":
		return contractx.Intent{Kind: contractx.IntentCancelOrder}
	default:
		return contractx.Intent{Kind: contractx.IntentUnrecognized}
	}
}
