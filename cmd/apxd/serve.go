/*
MIT License

Copyright (c) 2026 cogu

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/cogu/goapx/internal/conn"
	"github.com/cogu/goapx/internal/connmgr"
	"github.com/cogu/goapx/internal/filemgr"
	"github.com/cogu/goapx/pkg/apxcfg"
	"github.com/cogu/goapx/pkg/apxctx"
	"github.com/cogu/goapx/pkg/apxlog"
	"github.com/cogu/goapx/pkg/apxmetrics"
)

// runServe wires the listener, metrics server and signal handler as three
// members of an errgroup, so that any one of them exiting (a listener
// error, a metrics server crash, or SIGTERM) tears down the other two
// through the group's shared context.
func runServe(v *viper.Viper, cfgFile string) error {
	cfg, err := apxcfg.Load(v, cfgFile)
	if err != nil {
		return err
	}

	log := apxlog.New("apxd", hclog.LevelFromString(cfg.LogLevel), os.Stderr)
	reg := prometheus.NewRegistry()
	metrics := apxmetrics.New(reg)
	actx := apxctx.New(log, metrics, apxctx.RealClock())

	mgr := connmgr.New(nil)
	mgr.Run(actx, 0)
	defer mgr.Stop()

	ln, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return err
	}
	log.Info("listening", "address", cfg.ListenAddress)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: metricsMux(reg)}

	gctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(gctx)

	g.Go(func() error {
		<-gctx.Done()
		_ = ln.Close()
		_ = metricsSrv.Close()
		return nil
	})

	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
			log.Info("shutting down")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	g.Go(func() error {
		log.Info("serving metrics", "address", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		for {
			c, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				return err
			}
			go handleConn(actx, mgr, cfg, c)
		}
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}
	return nil
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

func handleConn(ctx *apxctx.Context, mgr *connmgr.Manager, cfg apxcfg.Config, c net.Conn) {
	id := mgr.AllocateID()
	files := filemgr.New(ctx.Metrics)
	cn, err := conn.New(id, conn.RoleServer, ctx, c, files, cfg.MaxMessageSize, cfg.SendBufferSize)
	if err != nil {
		ctx.Log.Error("failed to build connection", "error", err, "remote", c.RemoteAddr())
		_ = c.Close()
		return
	}
	cn.OnDisconnect(func() { _ = c.Close() })
	mgr.Register(cn)
	if cfg.GreetingTimeout > 0 {
		_ = c.SetReadDeadline(time.Now().Add(cfg.GreetingTimeout))
		cn.OnActive(func() { _ = c.SetReadDeadline(time.Time{}) })
	}

	if openErr := cn.Open(); openErr != nil {
		ctx.Log.Error("handshake failed", "error", openErr, "conn_id", id)
		cn.Close()
		return
	}
	cn.RunHeartbeat(cfg.HeartbeatInterval)

	buf := make([]byte, 4096)
	for {
		n, err := c.Read(buf)
		if n > 0 {
			if feedErr := cn.FeedBytes(buf[:n]); feedErr != nil {
				ctx.Log.Warn("dropping connection", "error", feedErr, "conn_id", id)
				cn.Close()
				return
			}
		}
		if err != nil {
			cn.Close()
			return
		}
	}
}
