/*
 Copyright 2025 Basalt Authors.

 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package apis

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/basaltfs/basalt/config"
	"github.com/basaltfs/basalt/pkg/controller"
	"github.com/basaltfs/basalt/utils/logger"
)

const (
	defaultHttpTimeout = time.Minute * 30
)

type Server struct {
	engine    *gin.Engine
	ctrl      controller.Controller
	apiConfig config.Api
	logger    *zap.SugaredLogger
}

func NewApiServer(ctrl controller.Controller, cfg config.Config) (*Server, error) {
	apiConfig := cfg.Api
	if apiConfig.Enable && apiConfig.Port == 0 {
		return nil, fmt.Errorf("http port not set")
	}
	if apiConfig.Enable && apiConfig.Host == "" {
		apiConfig.Host = "127.0.0.1"
	}

	s := &Server{
		engine:    gin.New(),
		ctrl:      ctrl,
		apiConfig: apiConfig,
		logger:    logger.NewLogger("api"),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.logMiddleware())

	s.engine.GET("/_ping", s.Ping)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if apiConfig.Pprof {
		pprof.Register(s.engine)
	}

	v1 := s.engine.Group("/mgm/v1")
	v1.POST("/open", s.Open)
	v1.POST("/commit", s.Commit)
	v1.POST("/capability/verify", s.VerifyCapability)
	v1.GET("/stat", s.Stat)
	v1.GET("/exists", s.Exists)
	v1.GET("/dir", s.ListDirectory)
	v1.POST("/dir", s.Mkdir)
	v1.DELETE("/dir", s.RemoveContainer)
	v1.DELETE("/file", s.RemoveFile)
	v1.POST("/quota", s.RegisterQuota)
	v1.DELETE("/quota", s.RemoveQuota)
	v1.GET("/quota", s.QuotaReport)
	v1.GET("/nodes", s.Nodes)

	return s, nil
}

func (s *Server) Run(stopCh chan struct{}) {
	addr := fmt.Sprintf("%s:%d", s.apiConfig.Host, s.apiConfig.Port)
	s.logger.Infof("http server on %s", addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  defaultHttpTimeout,
		WriteTimeout: defaultHttpTimeout,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil {
			if err != http.ErrServerClosed {
				s.logger.Panicw("api server down", "err", err.Error())
			}
			s.logger.Infof("api server stopped")
		}
	}()

	<-stopCh
	shutdownCtx, canF := context.WithTimeout(context.TODO(), time.Second)
	defer canF()
	_ = httpServer.Shutdown(shutdownCtx)
}

func (s *Server) Ping(gCtx *gin.Context) {
	gCtx.JSON(200, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) logMiddleware() gin.HandlerFunc {
	return func(gCtx *gin.Context) {
		start := time.Now()
		path := gCtx.Request.URL.Path
		method := gCtx.Request.Method

		gCtx.Next()

		s.logger.Infow("api request",
			"method", method,
			"path", path,
			"query", gCtx.Request.URL.Query().Encode(),
			"status", gCtx.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
