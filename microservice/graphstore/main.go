package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"

	"github.com/mycok/uResolve/clustergraph/graph"
	graphapi "github.com/mycok/uResolve/clustergraph/store/api/rpc"
	"github.com/mycok/uResolve/clustergraph/store/cdb"
	"github.com/mycok/uResolve/clustergraph/store/memory"
	"github.com/mycok/uResolve/clustergraph/store/redis"
)

var (
	appName = "uresolve-graphstore"
	appSHA  = "latest-app-git-sha" // Populated by the compiler at the linking stage.
	logger  *logrus.Entry
)

func main() {
	host, _ := os.Hostname()
	rootLogger := logrus.New()
	rootLogger.SetFormatter(new(logrus.JSONFormatter))
	logger = rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"sha":  appSHA,
		"host": host,
	})

	if err := configureAppEnv().Run(os.Args); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		_ = os.Stderr.Sync()

		os.Exit(1)
	}
}

func configureAppEnv() *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Version = appSHA
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "graph-store-uri",
			EnvVars: []string{"GRAPH_STORE_URI"},
			Usage: "URI for connecting to the clustering graph store (supported URI's: in-memory://," +
				" postgresql://user@host:26257/uresolve?sslmode=disable, redis://host:6379/0)",
		},
		&cli.IntFlag{
			Name:    "grpc-port",
			Value:   8080,
			EnvVars: []string{"GRPC_PORT"},
			Usage:   "Exposed port for graph store gRPC endpoints",
		},
		&cli.IntFlag{
			Name:    "pprof-port",
			Value:   6060,
			EnvVars: []string{"PPROF_PORT"},
			Usage:   "Exposed port for pprof endpoints",
		},
	}

	app.Action = execute

	return app
}

func execute(appCtx *cli.Context) error {
	var wg sync.WaitGroup

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	store, err := getGraphStore(appCtx.String("graph-store-uri"))
	if err != nil {
		return err
	}

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", appCtx.Int("grpc-port")))
	if err != nil {
		return err
	}
	defer func() { _ = grpcListener.Close() }()

	srv := grpc.NewServer()
	graphapi.RegisterClusterGraphServer(srv, graphapi.NewClusterGraphServer(store))

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.WithField("port", appCtx.Int("grpc-port")).Info("listening for gRPC connections")
		_ = srv.Serve(grpcListener)
	}()

	pprofListener, err := net.Listen("tcp", fmt.Sprintf(":%d", appCtx.Int("pprof-port")))
	if err != nil {
		return err
	}
	defer func() { _ = pprofListener.Close() }()

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.WithField("port", appCtx.Int("pprof-port")).Info("listening for pprof requests")

		srv := new(http.Server)
		_ = srv.Serve(pprofListener)
	}()

	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGHUP)

		select {
		case s := <-signalChan:
			logger.WithField("signal", s.String()).Info("shutting down due to signal")
			cancelFn()
		case <-ctx.Done():
		}

		srv.GracefulStop()
		_ = pprofListener.Close()
	}()

	wg.Wait()

	return nil
}

func getGraphStore(graphStoreURI string) (graph.Store, error) {
	if graphStoreURI == "" {
		return nil, fmt.Errorf("graph store URI must be specified with --graph-store-uri")
	}

	u, err := url.Parse(graphStoreURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graph store URI: %w", err)
	}

	switch u.Scheme {
	case "in-memory":
		return memory.NewInMemoryGraph(), nil
	case "postgresql":
		return cdb.NewCockroachDBGraph(graphStoreURI)
	case "redis":
		return redis.NewRedisGraph(graphStoreURI)
	default:
		return nil, fmt.Errorf("unsupported graph store URI scheme: %q", u.Scheme)
	}
}
