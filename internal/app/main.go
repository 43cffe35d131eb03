package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mateusmacedo/go-flights/internal/config"
	zapAdapter "github.com/mateusmacedo/go-flights/pkg/infrastructure/zaplogger/adapter"
)

// Main carrega a configuração, aplica override (usado pelos binários de cada
// transporte) e roda até SIGINT ou SIGTERM. Devolve o código de saída do processo.
func Main(override func(*config.Config)) int {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = config.DefaultPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	appLogger, err := zapAdapter.NewZapAppLogger(zapAdapter.Config{
		AppName: cfg.App.Name,
		Level:   cfg.Log.Level,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := Run(ctx, cfg, appLogger); err != nil {
		appLogger.Error(context.Background(), "server failed", map[string]interface{}{"error": err})
		return 1
	}
	return 0
}
