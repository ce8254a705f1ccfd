package statement

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/insightdelivered/statement-assistant/internal/config"
	"github.com/insightdelivered/statement-assistant/internal/extractor"
	"github.com/insightdelivered/statement-assistant/internal/logger"
	"github.com/insightdelivered/statement-assistant/internal/metrics"
	"github.com/insightdelivered/statement-assistant/internal/models"
	"github.com/insightdelivered/statement-assistant/internal/parser"
	"github.com/insightdelivered/statement-assistant/internal/storage"
)

// ErrNoDatabase is returned by Import and Query when no database is attached.
var ErrNoDatabase = errors.New("no transaction database configured")

const (
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// Deps are the collaborators a Service uses. Every field is optional.
type Deps struct {
	DB        *storage.Database
	Passwords config.PasswordBook
	Metrics   *metrics.Metrics
	CacheTTL  time.Duration
}

// Service ties extraction, parsing and storage together for the CLI and the
// HTTP API.
type Service struct {
	db        *storage.Database
	passwords config.PasswordBook
	metrics   *metrics.Metrics
	cache     *cache.Cache

	extract func(ctx context.Context, path, password string) ([]extractor.Page, error)
}

func NewService(d Deps) *Service {
	ttl := d.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheExpiration
	}
	return &Service{
		db:        d.DB,
		passwords: d.Passwords,
		metrics:   d.Metrics,
		cache:     cache.New(ttl, CacheCleanupInterval),
		extract:   extractor.ExtractPages,
	}
}

// ParseOptions select the bank and password for one statement.
type ParseOptions struct {
	Bank     string // empty: auto-detect
	Password string // empty: try none, then the password book
}

// ParseFile extracts and parses a statement PDF. Results are cached by file
// content and bank, so a re-upload is not parsed again. Callers must not
// modify the returned value.
func (s *Service) ParseFile(ctx context.Context, path string, opts ParseOptions) (*models.StatementInfo, error) {
	start := time.Now()

	digest, err := fileDigest(path)
	if err != nil {
		return nil, err
	}
	cacheKey := digest + "|" + strings.ToLower(strings.TrimSpace(opts.Bank))
	if cached, found := s.cache.Get(cacheKey); found {
		logger.FromContext(ctx).Debug("parse cache hit", "file", path)
		return cached.(*models.StatementInfo), nil
	}

	pages, err := s.extractPages(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	info, err := s.parse(ctx, parser.PageStrings(pageTexts(pages)), opts.Bank, start)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, info, cache.DefaultExpiration)
	return info, nil
}

// ParsePages parses text that was extracted elsewhere.
func (s *Service) ParsePages(ctx context.Context, pages []parser.PageText, bank string) (*models.StatementInfo, error) {
	return s.parse(ctx, parser.PageStrings(pages), bank, time.Now())
}

func (s *Service) extractPages(ctx context.Context, path string, opts ParseOptions) ([]extractor.Page, error) {
	pages, err := s.extract(ctx, path, opts.Password)
	if err == nil || !errors.Is(err, extractor.ErrPasswordRequired) || opts.Password != "" {
		return pages, err
	}

	bank := opts.Bank
	if bank == "" {
		bank = string(models.BankICICI)
	}
	password, lookupErr := s.passwords.PasswordFor(bank)
	if lookupErr != nil {
		return nil, fmt.Errorf("%w (%v)", err, lookupErr)
	}
	logger.FromContext(ctx).Info("retrying encrypted statement with stored password", "file", path, "bank", bank)
	return s.extract(ctx, path, password)
}

func (s *Service) parse(ctx context.Context, texts []string, bank string, start time.Time) (*models.StatementInfo, error) {
	log := logger.FromContext(ctx)

	var bankType models.BankType
	var err error
	if strings.TrimSpace(bank) == "" {
		bankType, err = parser.AutoDetect(texts)
	} else {
		bankType, err = parser.ParseBankType(bank)
	}
	if err != nil {
		return nil, err
	}

	p, err := parser.New(bankType, parser.WithLogger(log))
	if err != nil {
		return nil, err
	}
	info, err := p.Parse(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s statement: %w", p.BankName(), err)
	}

	elapsed := time.Since(start)
	s.metrics.ObserveParse(info, elapsed)
	log.Info("statement parsed",
		"bank", p.BankName(),
		"pages", len(texts),
		"transactions", len(info.Transactions),
		"unrecognized", info.Unrecognized,
		"malformed", info.Malformed,
		"elapsed", elapsed)
	return info, nil
}

// Import stores a parsed statement. accountNo overrides the number found on
// the statement.
func (s *Service) Import(ctx context.Context, info *models.StatementInfo, accountNo string) (*storage.ImportResult, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	if accountNo == "" {
		accountNo = info.AccountNumber
	}
	meta := storage.ImportMeta{
		Bank:      strings.ToUpper(string(info.Bank)),
		AccountNo: accountNo,
	}

	res, err := s.db.Save(ctx, info.Transactions, meta)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveStored(res.Inserted)
	logger.FromContext(ctx).Info("transactions imported",
		"importId", res.ImportID, "inserted", res.Inserted, "skipped", res.Skipped)
	return res, nil
}

// Query runs a read-only SQL query against stored transactions.
func (s *Service) Query(ctx context.Context, sql string) (*storage.QueryResult, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	return s.db.Query(ctx, sql)
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading statement: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func pageTexts(pages []extractor.Page) []parser.PageText {
	out := make([]parser.PageText, len(pages))
	for i, p := range pages {
		out[i] = p
	}
	return out
}
