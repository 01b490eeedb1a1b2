package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mycok/uResolve/clustergraph/graph"
	graphrpc "github.com/mycok/uResolve/clustergraph/store/api/rpc"
	graphcdb "github.com/mycok/uResolve/clustergraph/store/cdb"
	graphmemory "github.com/mycok/uResolve/clustergraph/store/memory"
	graphredis "github.com/mycok/uResolve/clustergraph/store/redis"
	"github.com/mycok/uResolve/countdown"
	latchmemory "github.com/mycok/uResolve/countdown/memory"
	latchredis "github.com/mycok/uResolve/countdown/redis"
	"github.com/mycok/uResolve/edgestore"
	edgecdb "github.com/mycok/uResolve/edgestore/cdb"
	edgedynamo "github.com/mycok/uResolve/edgestore/dynamo"
	edgememory "github.com/mycok/uResolve/edgestore/memory"
	edgeredis "github.com/mycok/uResolve/edgestore/redis"
	"github.com/mycok/uResolve/entity"
	entitycdb "github.com/mycok/uResolve/entity/store/cdb"
	entitymemory "github.com/mycok/uResolve/entity/store/memory"
	"github.com/mycok/uResolve/monolith/partition"
	"github.com/mycok/uResolve/monolith/service"
	"github.com/mycok/uResolve/monolith/service/resolver"
	"github.com/mycok/uResolve/record"
	"github.com/mycok/uResolve/record/index"
	"github.com/mycok/uResolve/record/store/es"
	indexmemory "github.com/mycok/uResolve/record/store/memory"
	"github.com/mycok/uResolve/resolve"
)

const (
	appName = "uResolve-monolith"
	appSHA  = "compiled-and-deployed-at"
)

func main() {
	host, _ := os.Hostname()
	rootLogger := logrus.New()
	logger := rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"sha":  appSHA,
		"host": host,
	})

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	svcGroup, err := configureServices(ctx, logger)
	if err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")

		return
	}

	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGHUP)

		select {
		case s := <-signalChan:
			logger.WithField("signal", s.String()).Info("shutting down due to os signal")
			cancelFn()
		case <-ctx.Done():
		}
	}()

	if err := svcGroup.Execute(ctx); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")

		return
	}

	logger.Info("shutdown complete")
}

func configureServices(ctx context.Context, logger *logrus.Entry) (service.Group, error) {
	var (
		resolveConfig  resolve.Config
		resolverConfig resolver.Config
	)

	flag.Float64Var(
		&resolveConfig.Threshold, "threshold", 0.4,
		"Maximum distance of two records that may end up in the same cluster",
	)
	flag.IntVar(
		&resolveConfig.BlockSize, "block-size", index.DefaultBlockSize,
		"Maximum number of candidates considered for each record",
	)
	flag.IntVar(
		&resolveConfig.NumBlockWorkers, "block-workers", runtime.NumCPU(),
		"Number of workers querying the candidate index",
	)
	flag.IntVar(
		&resolveConfig.NumScoreWorkers, "score-workers", 4*runtime.NumCPU(),
		"Maximum number of workers scoring record pairs",
	)
	flag.IntVar(
		&resolveConfig.NumMaterializers, "materialize-workers", runtime.NumCPU(),
		"Number of workers writing canonical entities",
	)
	flag.Float64Var(
		&resolveConfig.IndexQueryRate, "index-query-rate", 0,
		"Maximum number of candidate index queries per second (0 means unlimited)",
	)
	flag.IntVar(
		&resolveConfig.EdgeReadSize, "edge-read-size", 1000,
		"Number of edges loaded by a single edge buffer refill",
	)
	flag.DurationVar(
		&resolverConfig.UpdateInterval, "update-interval", time.Hour,
		"Time between subsequent resolution passes",
	)

	collections := flag.String(
		"collections", "",
		"Comma-separated list of the record collections to resolve",
	)
	recordsFile := flag.String(
		"records-file", "",
		"Optional file with newline-delimited JSON records loaded into the entity store at startup",
	)
	entityStoreURI := flag.String(
		"entity-store-uri", "in-memory://",
		"URI for connecting to the entity store."+
			" [supported URI's: in-memory://, postgresql://user@host:26257/uresolve?sslmode=disable]",
	)
	candidateIndexURI := flag.String(
		"candidate-index-uri", "in-memory://",
		"URI for connecting to the candidate index."+
			" [supported URI's: in-memory://, es://node1:9200,...,nodeN:9200]",
	)
	graphStoreURI := flag.String(
		"graph-store-uri", "in-memory://",
		"URI for connecting to the clustering graph store."+
			" [supported URI's: in-memory://, postgresql://..., redis://host:6379/0, grpc://host:8080]",
	)
	edgeStoreURI := flag.String(
		"edge-store-uri", "in-memory://",
		"URI for connecting to the edge store."+
			" [supported URI's: in-memory://, postgresql://..., redis://host:6379/0,"+
			" dynamodb://TABLE?endpoint=http://localhost:8000]",
	)
	latchURI := flag.String(
		"latch-uri", "in-memory://",
		"URI for connecting to the completion latch store. [supported URI's: in-memory://, redis://host:6379/0]",
	)
	metricsAddr := flag.String(
		"metrics-addr", ":9090", "Address to listen on for prometheus scrape requests",
	)
	partitionDetectorMode := flag.String(
		"partition-detection-mode", "single",
		"The partition detection mode to use. Supported values are"+
			" 'dns=HEADLESS_SERVICE_NAME' (k8s) and 'single' (local dev mode)",
	)

	flag.Parse()

	entities, err := getEntityStore(*entityStoreURI, logger)
	if err != nil {
		return nil, err
	}

	if *recordsFile != "" {
		if err = loadRecords(ctx, *recordsFile, entities, logger); err != nil {
			return nil, err
		}
	}

	if resolveConfig.Index, err = getCandidateIndex(*candidateIndexURI, logger); err != nil {
		return nil, err
	}

	if resolveConfig.Graph, err = getGraphStore(*graphStoreURI, logger); err != nil {
		return nil, err
	}

	if resolveConfig.Edges, err = getEdgeStore(ctx, *edgeStoreURI, logger); err != nil {
		return nil, err
	}

	if resolveConfig.Latch, err = getLatch(*latchURI, logger); err != nil {
		return nil, err
	}

	partDet, err := getPartitionDetector(*partitionDetectorMode)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	resolveConfig.Entities = entities
	resolveConfig.Registerer = reg
	resolveConfig.Logger = logger.WithField("service", "resolver")

	r, err := resolve.New(resolveConfig)
	if err != nil {
		return nil, err
	}

	resolverConfig.ResolverAPI = r
	resolverConfig.Collections = splitList(*collections)
	resolverConfig.PartitionDetector = partDet
	resolverConfig.Logger = logger.WithField("service", "resolver")

	svc, err := resolver.New(resolverConfig)
	if err != nil {
		return nil, err
	}

	return service.Group{
		svc,
		&metricsService{
			addr:    *metricsAddr,
			handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			logger:  logger.WithField("service", "metrics"),
		},
	}, nil
}

func getEntityStore(uri string, logger *logrus.Entry) (entity.Store, error) {
	u, err := parseURI("entity store", uri)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "in-memory":
		logger.Info("using in-memory entity store")

		return entitymemory.NewInMemoryEntityStore(), nil
	case "postgresql":
		logger.Info("using CDB entity store")

		return entitycdb.NewCockroachDBEntityStore(uri)
	default:
		return nil, fmt.Errorf("unsupported entity store URI scheme: %q", u.Scheme)
	}
}

func getCandidateIndex(uri string, logger *logrus.Entry) (index.Index, error) {
	u, err := parseURI("candidate index", uri)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "in-memory":
		logger.Info("using in-memory candidate index")

		return indexmemory.NewInMemoryIndex()
	case "es":
		nodes := strings.Split(u.Host, ",")
		for i := 0; i < len(nodes); i++ {
			nodes[i] = "http://" + nodes[i]
		}
		logger.Info("using ES candidate index")

		return es.NewElasticsearchIndex(nodes, false)
	default:
		return nil, fmt.Errorf("unsupported candidate index URI scheme: %q", u.Scheme)
	}
}

func getGraphStore(uri string, logger *logrus.Entry) (graph.Store, error) {
	u, err := parseURI("graph store", uri)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "in-memory":
		logger.Info("using in-memory graph store")

		return graphmemory.NewInMemoryGraph(), nil
	case "postgresql":
		logger.Info("using CDB graph store")

		return graphcdb.NewCockroachDBGraph(uri)
	case "redis":
		logger.Info("using redis graph store")

		return graphredis.NewRedisGraph(uri)
	case "grpc":
		logger.WithField("addr", u.Host).Info("using remote graph store")

		conn, err := grpc.Dial(u.Host, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("dial graph store: %w", err)
		}

		return graphrpc.NewClusterGraphClient(conn), nil
	default:
		return nil, fmt.Errorf("unsupported graph store URI scheme: %q", u.Scheme)
	}
}

func getEdgeStore(ctx context.Context, uri string, logger *logrus.Entry) (edgestore.Store, error) {
	u, err := parseURI("edge store", uri)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "in-memory":
		logger.Info("using in-memory edge store")

		return edgememory.NewInMemoryEdgeStore(), nil
	case "postgresql":
		logger.Info("using CDB edge store")

		return edgecdb.NewCockroachDBEdgeStore(uri)
	case "redis":
		logger.Info("using redis edge store")

		return edgeredis.NewRedisEdgeStore(uri)
	case "dynamodb":
		logger.WithField("table", u.Host).Info("using DynamoDB edge store")

		return edgedynamo.NewDynamoDBEdgeStoreFromEnv(ctx, u.Host, u.Query().Get("endpoint"))
	default:
		return nil, fmt.Errorf("unsupported edge store URI scheme: %q", u.Scheme)
	}
}

func getLatch(uri string, logger *logrus.Entry) (countdown.Latch, error) {
	u, err := parseURI("latch", uri)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "in-memory":
		logger.Info("using in-memory completion latch")

		return latchmemory.NewInMemoryLatch(), nil
	case "redis":
		logger.Info("using redis completion latch")

		return latchredis.NewRedisLatch(uri)
	default:
		return nil, fmt.Errorf("unsupported latch URI scheme: %q", u.Scheme)
	}
}

func getPartitionDetector(mode string) (partition.Detector, error) {
	switch {
	case mode == "single":
		return partition.Fixed{Partition: 0, NumOfPartitions: 1}, nil
	case strings.HasPrefix(mode, "dns="):
		tokens := strings.Split(mode, "=")
		return partition.DetectFromSRVRecords(tokens[1]), nil
	default:
		return nil, fmt.Errorf("unsupported partition detector mode: %q", mode)
	}
}

func parseURI(what, uri string) (*url.URL, error) {
	if uri == "" {
		return nil, fmt.Errorf("%s URI must be specified", what)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s URI: %w", what, err)
	}

	return u, nil
}

func splitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

// recordLine is the JSON representation of a record in a records file.
type recordLine struct {
	ID         uuid.UUID           `json:"id"`
	Collection string              `json:"collection"`
	Properties map[string][]string `json:"properties"`
}

func loadRecords(ctx context.Context, path string, entities entity.Store, logger *logrus.Entry) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	defer func() { _ = f.Close() }()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		if len(strings.TrimSpace(scanner.Text())) == 0 {
			continue
		}

		var line recordLine
		if err = json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return fmt.Errorf("load records: line %d: %w", count+1, err)
		}

		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}

		err = entities.WriteEntity(ctx, &record.Record{
			ID:         line.ID,
			Collection: line.Collection,
			Properties: line.Properties,
		})
		if err != nil {
			return fmt.Errorf("load records: %w", err)
		}

		count++
	}

	if err = scanner.Err(); err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"file":    path,
		"records": count,
	}).Info("loaded records")

	return nil
}

// metricsService exposes the prometheus metrics of the application.
type metricsService struct {
	addr    string
	handler http.Handler
	logger  *logrus.Entry
}

func (s *metricsService) Name() string { return "metrics" }

func (s *metricsService) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.handler)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.WithField("addr", s.addr).Info("listening for metric scrapes")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
