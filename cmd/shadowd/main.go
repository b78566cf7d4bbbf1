package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaizee-khan/shadow-ai-main/internal/app"
	"github.com/shaizee-khan/shadow-ai-main/internal/dispatch"
	"github.com/shaizee-khan/shadow-ai-main/internal/storage"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.json", "path to config file (json or yaml)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	// Default handlers print due tasks; embedders replace these with their
	// own notification callbacks.
	for _, ev := range []dispatch.Event{
		dispatch.EventReminder, dispatch.EventTimer, dispatch.EventAlarm, dispatch.EventScheduledTask,
	} {
		ev := ev
		a.Scheduler().RegisterCallback(ev, func(_ context.Context, t *storage.Task) error {
			fmt.Printf("[%s] %s: %s\n", ev, t.Type, t.Title)
			return nil
		})
	}

	if err := a.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		os.Exit(1)
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx)
}
