package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/attachvault/pkg/app"
	"github.com/yeisme/attachvault/pkg/log"
)

// shutdownTimeout 收到退出信号后等待后台组件收尾的时间.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the attachment service",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := app.NewApp(configPath)

		errCh := make(chan error, 1)

		go func() {
			errCh <- a.Run()
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-quit:
			log.Logger().Info().Str("signal", sig.String()).Msg("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return a.Shutdown(ctx)
		}
	},
}

// registerServeCommand 注册服务启动命令.
func registerServeCommand() {
	rootCmd.AddCommand(serveCmd)
}
