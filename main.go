package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/shandysiswandi/twofa/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		slog.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout())
	defer cancel()
	application.Stop(ctx)
}
