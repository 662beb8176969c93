// Package node is the main service which launches a beacon-ingest node and
// manages the lifecycle of its services: storage, fork choice, the import
// pipeline and the metrics endpoint.
package node

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/blockchain"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/blockchain/reprocess"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/core/feed"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/db"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/execution"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice"
	doublylinkedtree "github.com/prysmaticlabs/beacon-ingest/beacon-chain/forkchoice/doubly-linked-tree"
	lightclient "github.com/prysmaticlabs/beacon-ingest/beacon-chain/light-client"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/state/stategen"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/sync/backfill"
	"github.com/prysmaticlabs/beacon-ingest/cmd/beacon-ingest/flags"
	"github.com/prysmaticlabs/beacon-ingest/config/features"
	"github.com/prysmaticlabs/beacon-ingest/config/params"
	"github.com/prysmaticlabs/beacon-ingest/io/logs"
	"github.com/prysmaticlabs/beacon-ingest/monitoring/prometheus"
	"github.com/prysmaticlabs/beacon-ingest/runtime"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// dbDirName is the directory of the database inside the data directory.
const dbDirName = "beaconingest"

// BeaconNode defines a struct that handles the services running a beacon-ingest
// node. It handles the lifecycle of the entire system and registers services to
// a service registry.
type BeaconNode struct {
	cliCtx          *cli.Context
	ctx             context.Context
	cancel          context.CancelFunc
	services        *runtime.ServiceRegistry
	lock            sync.RWMutex
	stop            chan struct{} // Channel to wait for termination notifications.
	db              db.Database
	anchor          *Anchor
	stateFeed       *feed.Bus
	forkChoiceStore forkchoice.ForkChoicer
	stateGen        *stategen.State
	engine          execution.EngineCaller
	engineClient    *execution.Client
	reprocess       *reprocess.Controller
	lightClient     *lightclient.Server
	backfill        *backfill.StatusUpdater
	blockchainOpts  []blockchain.Option
}

// New creates a new node instance, sets up configuration options, and registers
// every required service to the node.
func New(cliCtx *cli.Context, opts ...Option) (*BeaconNode, error) {
	features.ConfigureBeaconIngest(cliCtx)
	if cliCtx.IsSet(flags.ChainConfigFileFlag.Name) {
		cfg, err := params.LoadChainConfigFile(cliCtx.String(flags.ChainConfigFileFlag.Name))
		if err != nil {
			return nil, err
		}
		params.OverrideBeaconConfig(cfg)
	}

	ctx, cancel := context.WithCancel(cliCtx.Context)
	beacon := &BeaconNode{
		cliCtx:    cliCtx,
		ctx:       ctx,
		cancel:    cancel,
		services:  runtime.NewServiceRegistry(),
		stop:      make(chan struct{}),
		stateFeed: feed.NewBus(),
		stateGen:  stategen.New(),
		reprocess: reprocess.New(cliCtx.Duration(flags.ReprocessTTLFlag.Name)),
	}
	for _, opt := range opts {
		if err := opt(beacon); err != nil {
			cancel()
			return nil, err
		}
	}

	if err := beacon.setup(); err != nil {
		beacon.closeResources()
		cancel()
		return nil, err
	}
	return beacon, nil
}

func (b *BeaconNode) setup() error {
	if err := b.startDB(); err != nil {
		return err
	}
	if err := b.startAnchor(); err != nil {
		return err
	}
	if err := b.startForkChoice(); err != nil {
		return err
	}
	if err := b.startExecutionEngine(); err != nil {
		return err
	}
	if features.Get().EnableLightClient {
		b.lightClient = lightclient.NewServer()
	}
	b.backfill = backfill.NewStatus(b.db, b.anchor.Block)
	if err := b.registerBlockchainService(); err != nil {
		return err
	}
	if !b.cliCtx.Bool(flags.DisableMonitoringFlag.Name) {
		if err := b.registerPrometheusService(); err != nil {
			return err
		}
	}
	return nil
}

// StateFeed returns the notification bus of the import pipeline.
func (b *BeaconNode) StateFeed() *feed.Bus {
	return b.stateFeed
}

// Backfill returns the backfill status of the node history below the anchor.
func (b *BeaconNode) Backfill() *backfill.StatusUpdater {
	return b.backfill
}

// Reprocess returns the controller operations waiting for unknown blocks register with.
func (b *BeaconNode) Reprocess() *reprocess.Controller {
	return b.reprocess
}

// LightClient returns the light client server, nil unless enabled.
func (b *BeaconNode) LightClient() *lightclient.Server {
	return b.lightClient
}

// BlockchainService returns the import pipeline of the node.
func (b *BeaconNode) BlockchainService() (*blockchain.Service, error) {
	var s *blockchain.Service
	if err := b.services.FetchService(&s); err != nil {
		return nil, err
	}
	return s, nil
}

// Start the BeaconNode and kicks off every registered service. It blocks until
// the node is closed.
func (b *BeaconNode) Start() {
	b.lock.Lock()
	log.WithFields(logrus.Fields{
		"anchorSlot": b.anchor.Block.Slot(),
		"config":     params.BeaconConfig().ConfigName,
	}).Info("Starting beacon-ingest node")
	b.services.StartAll()
	stop := b.stop
	b.lock.Unlock()

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")
		go b.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.WithField("times", i-1).Info("Already shutting down, interrupt more to panic")
			}
		}
		panic("Panic closing the beacon-ingest node")
	}()

	// Wait for stop channel to be closed.
	<-stop
}

// Close handles graceful shutdown of the system.
func (b *BeaconNode) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()

	log.Info("Stopping beacon-ingest node")
	if err := b.services.StopAll(); err != nil {
		log.WithError(err).Error("Could not stop all services")
	}
	b.closeResources()
	b.cancel()
	close(b.stop)
}

func (b *BeaconNode) closeResources() {
	if b.engineClient != nil {
		b.engineClient.Close()
	}
	b.stateFeed.Close()
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			log.WithError(err).Error("Failed to close database")
		}
	}
}

func (b *BeaconNode) startDB() error {
	dbPath := filepath.Join(b.cliCtx.String(flags.DataDirFlag.Name), dbDirName)
	log.WithField("databasePath", dbPath).Info("Checking DB")
	d, err := db.NewDB(b.ctx, dbPath)
	if err != nil {
		return errors.Wrap(err, "could not open database")
	}
	if b.cliCtx.Bool(flags.ClearDB.Name) {
		log.Warn("Removing database")
		if err := d.Close(); err != nil {
			return errors.Wrap(err, "could not close db prior to clearing")
		}
		if err := d.ClearDB(); err != nil {
			return errors.Wrap(err, "could not clear database")
		}
		d, err = db.NewDB(b.ctx, dbPath)
		if err != nil {
			return errors.Wrap(err, "could not create new database")
		}
	}
	b.db = d
	return nil
}

func (b *BeaconNode) startAnchor() error {
	if b.anchor == nil {
		blockPath := b.cliCtx.String(flags.AnchorBlockFlag.Name)
		statePath := b.cliCtx.String(flags.AnchorStateFlag.Name)
		var err error
		switch {
		case blockPath != "" && statePath != "":
			b.anchor, err = LoadAnchor(blockPath, statePath)
		case blockPath != "" || statePath != "":
			err = errors.Errorf("--%s and --%s must be set together", flags.AnchorBlockFlag.Name, flags.AnchorStateFlag.Name)
		default:
			log.Warn("No anchor given, starting from an empty genesis")
			b.anchor, err = GenesisAnchor()
		}
		if err != nil {
			return err
		}
	}
	return b.anchor.save(b.ctx, b.db, b.stateGen)
}

func (b *BeaconNode) startForkChoice() error {
	f, err := doublylinkedtree.New(b.anchor.protoBlock())
	if err != nil {
		return errors.Wrap(err, "could not initialize fork choice")
	}
	b.forkChoiceStore = f
	return nil
}

func (b *BeaconNode) startExecutionEngine() error {
	if b.engine != nil {
		return nil
	}
	endpoint := b.cliCtx.String(flags.ExecutionEngineEndpoint.Name)
	if endpoint == "" {
		log.Warn("No execution endpoint given, forkchoice updates are disabled")
		return nil
	}
	var secret []byte
	if path := b.cliCtx.String(flags.ExecutionJWTSecretFlag.Name); path != "" {
		var err error
		secret, err = execution.LoadJWTSecret(path)
		if err != nil {
			return err
		}
	}
	client, err := execution.NewClient(b.ctx, endpoint, secret)
	if err != nil {
		return errors.Wrapf(err, "could not dial execution endpoint %s", logs.MaskCredentialsLogging(endpoint))
	}
	b.engineClient = client
	b.engine = client
	return nil
}

func (b *BeaconNode) registerBlockchainService() error {
	opts := []blockchain.Option{
		blockchain.WithDatabase(b.db),
		blockchain.WithForkChoiceStore(b.forkChoiceStore),
		blockchain.WithStateGen(b.stateGen),
		blockchain.WithStateNotifier(b.stateFeed),
		blockchain.WithReprocessController(b.reprocess),
	}
	if b.engine != nil {
		opts = append(opts, blockchain.WithExecutionEngineCaller(b.engine))
	}
	if b.lightClient != nil {
		opts = append(opts, blockchain.WithLightClientServer(b.lightClient))
	}
	s, err := blockchain.New(b.ctx, append(opts, b.blockchainOpts...)...)
	if err != nil {
		return errors.Wrap(err, "could not register blockchain service")
	}
	return b.services.RegisterService(s)
}

func (b *BeaconNode) registerPrometheusService() error {
	addr := fmt.Sprintf("%s:%d", b.cliCtx.String(flags.MonitoringHostFlag.Name), b.cliCtx.Int(flags.MonitoringPortFlag.Name))
	service := prometheus.NewService(addr, b.services)
	logrus.AddHook(prometheus.NewLogrusCollector())
	return b.services.RegisterService(service)
}
