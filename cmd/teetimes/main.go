package main

import (
	"context"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/cmd/teetimes/commands"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/serviceutil"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	instruments, err := telemetry.SetupFromEnv(ctx, "teetimes")
	if err == nil {
		defer instruments.Shutdown(context.Background())
	}

	commands.Execute(ctx)
}
