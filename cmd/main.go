package main

import (
	"flag"
	"time"

	"github.com/basaltfs/basalt/cmd/apps/apis"
	"github.com/basaltfs/basalt/config"
	"github.com/basaltfs/basalt/pkg/controller"
	"github.com/basaltfs/basalt/pkg/events"
	"github.com/basaltfs/basalt/pkg/metastore"
	"github.com/basaltfs/basalt/utils"
	"github.com/basaltfs/basalt/utils/logger"
	_ "github.com/basaltfs/basalt/utils/metrics"
)

func init() {
	flag.StringVar(&config.FilePath, "config", "", "basalt config file")
}

func main() {
	flag.Parse()
	logger.InitLogger()
	defer logger.Sync()

	loader := config.NewConfigLoader()
	cfg, err := loader.GetConfig()
	if err != nil {
		panic(err)
	}
	if cfg.Debug {
		logger.SetDebug(cfg.Debug)
	}

	meta, err := metastore.NewMetaStorage(cfg.Meta.Type, cfg.Meta)
	if err != nil {
		panic(err)
	}
	counters, err := metastore.NewCounterStore(cfg.Counter.Type, cfg.Counter)
	if err != nil {
		panic(err)
	}
	defer counters.Close()

	ctrl, err := controller.New(loader, meta, counters)
	if err != nil {
		panic(err)
	}

	stop := utils.HandleTerminalSignal()
	run(ctrl, cfg, stop)
}

func run(ctrl controller.Controller, cfg config.Config, stopCh chan struct{}) {
	log := logger.NewLogger("mgm")
	log.Info("starting")
	actions := events.StartActionListener()
	defer actions.Stop()
	shutdown := make(chan struct{})
	go func() {
		<-stopCh
		log.Info("shutdown after 5s")
		time.Sleep(time.Second * 5)
		close(shutdown)
	}()

	if cfg.Api.Enable {
		s, err := apis.NewApiServer(ctrl, cfg)
		if err != nil {
			log.Panicw("init http server failed", "err", err.Error())
		}
		go s.Run(stopCh)
	}

	log.Info("started")
	<-shutdown
	log.Info("stopped")
}
