package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// AnswerUseCase answers questions from retrieved context.
type AnswerUseCase struct {
	retrieve  *RetrieveUseCase
	ingest    *IngestUseCase
	generator port.Generator
	fetcher   port.Fetcher
	logger    *slog.Logger
}

// NewAnswerUseCase creates a new answer use case. fetcher and ingest are only
// needed by Run.
func NewAnswerUseCase(
	retrieve *RetrieveUseCase,
	ingest *IngestUseCase,
	generator port.Generator,
	fetcher port.Fetcher,
	logger *slog.Logger,
) *AnswerUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		retrieve:  retrieve,
		ingest:    ingest,
		generator: generator,
		fetcher:   fetcher,
		logger:    logger,
	}
}

// Answer retrieves the k best chunks for question and asks the generator to
// answer from them.
func (u *AnswerUseCase) Answer(ctx context.Context, question string, k int) (*domain.Answer, error) {
	matched, err := u.retrieve.Retrieve(ctx, domain.Query{Text: question, K: k})
	if err != nil {
		return nil, err
	}

	response, err := u.generator.Generate(ctx, domain.Texts(matched), question)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &domain.Answer{
		Query:         question,
		MatchedChunks: matched,
		Response:      response,
	}, nil
}

// Run downloads the document at documentURL, ingests it, then answers each
// question in order. Answers are trimmed.
func (u *AnswerUseCase) Run(ctx context.Context, documentURL string, questions []string) ([]string, error) {
	if u.fetcher == nil || u.ingest == nil {
		return nil, fmt.Errorf("%w: document runs are not configured", domain.ErrDownload)
	}

	data, filename, err := u.fetcher.Fetch(ctx, documentURL)
	if err != nil {
		return nil, err
	}

	result, err := u.ingest.Ingest(ctx, domain.Document{Filename: filename, Content: data}, nil)
	if err != nil {
		return nil, err
	}
	u.logger.Info("document ingested", "url", documentURL, "filename", filename, "chunks", result.Chunks)

	answers := make([]string, 0, len(questions))
	for _, question := range questions {
		answer, err := u.Answer(ctx, question, domain.DefaultTopK)
		if err != nil {
			return nil, err
		}
		answers = append(answers, strings.TrimSpace(answer.Response))
	}

	return answers, nil
}

// Prompt sends query to the generator without retrieval.
func (u *AnswerUseCase) Prompt(ctx context.Context, query string) (string, error) {
	response, err := u.generator.Prompt(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	return response, nil
}
