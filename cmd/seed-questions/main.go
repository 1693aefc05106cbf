package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/database"
	"github.com/stemsi/exstem-quiz/internal/logger"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/repository"
	"github.com/stemsi/exstem-quiz/internal/validator"
)

func main() {
	var file string
	flag.StringVar(&file, "file", "seeds/questions.json", "JSON array of questions to insert")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat).With().Str("component", "seed_questions").Logger()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	questions, err := load(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read questions")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)

	fmt.Printf("=== Seeding %d Questions ===\n", len(questions))

	successCount := 0
	for i := range questions {
		q := &questions[i]
		if err := validator.Struct(q); err != nil {
			fmt.Printf("Skipping question %d: %v\n", i+1, validator.TranslateErrors(err))
			continue
		}
		if err := questionRepo.Create(ctx, q); err != nil {
			fmt.Printf("Error creating question %d (%s): %v\n", i+1, q.Subject, err)
			continue
		}
		successCount++
		if successCount%10 == 0 {
			fmt.Printf("Created %d questions...\n", successCount)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d questions.\n", successCount, len(questions))
}

func load(path string) ([]model.Question, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var questions []model.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return questions, nil
}
