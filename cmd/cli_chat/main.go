package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"styleguide-bot/internal/backend"
	"styleguide-bot/internal/config"
	"styleguide-bot/internal/domain"
	"styleguide-bot/internal/recaptcha"
	"styleguide-bot/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	sessions := newSessionStore(ctx, cfg, logger)
	tokens := recaptcha.NewDisabledProvider("recaptcha token url not configured")
	if cfg.RecaptchaTokenURL != "" {
		tokens = recaptcha.NewHTTPProvider(cfg.RecaptchaTokenURL, cfg.RecaptchaSiteKey, cfg.RecaptchaTimeout, logger)
	}
	client := backend.NewHTTPClient(cfg.APIURL, cfg.QueryTimeout, logger)
	conv := service.NewConversationService(logger, sessions, tokens, client, cfg.ErrorDisplay)

	if _, err := conv.Start(ctx); err != nil {
		log.Fatalf("iniciar sesion: %v", err)
	}

	if err := chatFlow(ctx, reader, os.Stdout, conv); err != nil && !errors.Is(err, io.EOF) {
		logger.Error("chat ended with error", zap.Error(err))
	}
}

// newSessionStore usa redis si esta configurado y responde; si no, memoria.
func newSessionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) service.SessionStore {
	if cfg.RedisAddr == "" {
		return service.NewMemorySessionStore()
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctxPing).Err(); err != nil {
		logger.Warn("redis ping failed, using memory session store", zap.Error(err))
		_ = redisClient.Close()
		return service.NewMemorySessionStore()
	}
	return service.NewRedisSessionStore(redisClient, cfg.SessionNamespace, cfg.BrowsingContext, cfg.SessionTTL)
}

func chatFlow(ctx context.Context, reader *bufio.Reader, out io.Writer, conv *service.ConversationService) error {
	printHeader(out, conv.Snapshot())
	fmt.Fprintln(out, "Ask about Wikipedia's style guide. '/new' starts a new chat, 'exit' quits.")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, "You > ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("leer input: %w", err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "salir") || strings.EqualFold(text, "exit") {
			fmt.Fprintln(out, "Bye!")
			return nil
		}
		if strings.EqualFold(text, "/new") {
			if err := conv.Handle(ctx, service.NewChatEvent{}); err != nil {
				fmt.Fprintf(out, "Could not start a fresh session: %v\n", err)
			}
			printHeader(out, conv.Snapshot())
			continue
		}

		before := len(conv.Snapshot().Messages)
		fmt.Fprintln(out, "...")
		err = conv.Handle(ctx, service.SubmitEvent{Text: text})
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			fmt.Fprintln(out, ve.Message)
			continue
		case errors.Is(err, service.ErrQuotaExceeded):
			fmt.Fprintln(out, service.QuotaReason)
			continue
		case err != nil:
			fmt.Fprintln(out, service.FailureReason)
			continue
		}
		render(out, conv.Snapshot(), before)
	}
}

func printHeader(out io.Writer, snap service.ConversationSnapshot) {
	fmt.Fprintf(out, "===== StyleGuideBot | Wikipedia Manual of Style Assistant | %d/%d queries =====\n",
		snap.Queries.Count, snap.Queries.Limit)
}

// render imprime los mensajes nuevos del bot y el estado visible.
func render(out io.Writer, snap service.ConversationSnapshot, from int) {
	if from > len(snap.Messages) {
		from = len(snap.Messages)
	}
	for _, m := range snap.Messages[from:] {
		if m.Role != domain.RoleBot {
			continue
		}
		fmt.Fprintf(out, "Bot > %s\n", m.Content)
		if len(m.Citations) > 0 {
			fmt.Fprintln(out, "Sources:")
			for i, c := range m.Citations {
				fmt.Fprintf(out, "  [%d] %s: %s\n", i+1, c.Title, c.Body)
			}
		}
	}
	if snap.Status.Visible(time.Now().UTC()) {
		fmt.Fprintln(out, snap.Status.Reason)
	}
	fmt.Fprintf(out, "(%d/%d queries)\n", snap.Queries.Count, snap.Queries.Limit)
}
