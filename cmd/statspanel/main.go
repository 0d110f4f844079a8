package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/statspanel/statspanel/internal/common"
	"github.com/statspanel/statspanel/internal/common/health"
	"github.com/statspanel/statspanel/internal/statspanel"
	"github.com/statspanel/statspanel/internal/statspanel/configuration"
)

const CustomConfigLocation string = "config"

func init() {
	pflag.String(CustomConfigLocation, "", "Fully qualified path to application configuration file")
	pflag.Parse()
}

func main() {
	common.ConfigureLogging()
	common.BindCommandlineArguments()

	var config configuration.StatspanelConfig
	userSpecifiedConfig := viper.GetString(CustomConfigLocation)
	common.LoadConfig(&config, "./config/statspanel", userSpecifiedConfig)

	log.Info("Starting...")

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownMetricServer := common.ServeMetrics(config.MetricsPort)
	defer shutdownMetricServer()

	healthChecks := health.NewMultiChecker()

	shutdown, err := statspanel.Serve(ctx, &config, healthChecks)
	if err != nil {
		log.Errorf("Failed to start server: %v", err)
		os.Exit(-1)
	}
	defer shutdown()

	<-stopSignal
}
