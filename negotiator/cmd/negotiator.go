// Command-line interface for running a negotiation session from a terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/228Labs/negotiator/negotiator/config"
	"github.com/228Labs/negotiator/negotiator/services/llm"
	"github.com/228Labs/negotiator/negotiator/services/negotiation"
	"github.com/228Labs/negotiator/negotiator/services/prompts"
	"github.com/228Labs/negotiator/negotiator/services/recording"
	"github.com/228Labs/negotiator/negotiator/sources/psql"
	"github.com/228Labs/negotiator/negotiator/sources/psql/dao"
	"github.com/228Labs/negotiator/negotiator/sources/psql/models"
	"github.com/228Labs/negotiator/negotiator/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	args := os.Args[1:]
	if len(args) < 1 || args[0] != "negotiate" {
		fmt.Println("Negotiator CLI usage:")
		fmt.Println("  negotiator negotiate   # Haggle with the seller from your terminal")
		os.Exit(1)
	}

	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	persona, err := prompts.LoadPersona(cfg.PersonaFile)
	if err != nil {
		logging.ErrorLogger.Error("persona load error", zap.Error(err))
		os.Exit(1)
	}

	negotiationService := negotiation.NewService(db.DB, dao.NewNegotiationDAO(db.DB), dao.NewMessageDAO(db.DB), persona)
	client := llm.NewClient(cfg)
	llmService := llm.NewService(
		negotiationService,
		prompts.NewTemplateProvider(persona),
		client.ChatCompletion,
		recording.NopRecorder{},
		cfg.PromptsProjectID,
		cfg.PromptName,
		cfg.PromptsEnvironment,
	)

	negotiationID, err := negotiationService.Create(context.Background())
	if err != nil {
		logging.ErrorLogger.Error("negotiation create error", zap.Error(err))
		os.Exit(1)
	}
	logging.AppLogger.Info("cli negotiation started", zap.String("negotiation_id", negotiationID.String()))

	neg, err := negotiationService.Find(context.Background(), negotiationID)
	if err != nil || neg == nil {
		logging.ErrorLogger.Error("negotiation find error", zap.Error(err))
		os.Exit(1)
	}

	fmt.Println("Negotiation:", negotiationID)
	fmt.Println()
	for _, m := range neg.UserFacingMessages() {
		fmt.Printf("seller> %s\n", m.Content)
	}
	fmt.Println()
	fmt.Println("Type your message, or 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			fmt.Println("Goodbye!")
			break
		}
		if line == "" {
			continue
		}

		neg, err = negotiationService.Find(context.Background(), negotiationID)
		if err != nil || neg == nil {
			logging.ErrorLogger.Error("negotiation find error", zap.Error(err))
			break
		}

		userMessage := negotiation.Message{ID: uuid.New(), Role: models.RoleUser, Content: line}
		result, err := llmService.NegotiateTurn(context.Background(), neg, userMessage)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}

		if result.Resolved != nil {
			fmt.Printf("\nDeal! Final price: $%s\n", result.Resolved.FinalPrice.String())
			break
		}
		fmt.Printf("seller> %s\n", result.Reply.Content)
	}
}
