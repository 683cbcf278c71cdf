package main

import (
	"flag"
	"net"
	"os"
	"runtime"
	"strings"
	"syscall"

	"crypto/tls"
	"os/signal"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/go-voidmail/voidmail/config"
	"github.com/go-voidmail/voidmail/crypto"
	"github.com/go-voidmail/voidmail/distributor"
	"github.com/go-voidmail/voidmail/storage"
	"github.com/go-voidmail/voidmail/store"
)

// Functions

// initLogger initializes a JSON gokit-logger set
// to the according log level supplied via cli flag.
func initLogger(loglevel string) log.Logger {

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
	)

	switch strings.ToLower(loglevel) {
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowDebug())
	}

	return logger
}

// initListener binds the public socket, either plain
// or TLS-wrapped as selected in supplied config.
func initListener(conf *config.Config) (net.Listener, error) {

	if !conf.Distributor.UseTLS {
		return net.Listen("tcp", conf.Distributor.ListenMailAddr)
	}

	tlsConfig, err := crypto.NewPublicTLSConfig(conf.Distributor.PublicTLS.CertLoc, conf.Distributor.PublicTLS.KeyLoc)
	if err != nil {
		return nil, err
	}

	return tls.Listen("tcp", conf.Distributor.ListenMailAddr, tlsConfig)
}

func main() {

	// Set CPUs usable by voidmail to all available.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Parse command-line flag that defines a config path.
	configFlag := flag.String("config", "config.toml", "Provide path to configuration file in TOML syntax.")
	loglevelFlag := flag.String("loglevel", "debug", "This flag sets the default logging level.")
	flag.Parse()

	logger := initLogger(*loglevelFlag)

	// Read configuration from file.
	conf, err := config.LoadConfig(*configFlag)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to load the config", "err", err,
		)
		os.Exit(1)
	}

	// Prepare the persistence boundary and make sure
	// the document locations exist on first run.
	gateway := storage.NewGateway(conf.Storage.DataDir, conf.Storage.UsersFile, conf.Storage.EmailsFile)
	if err := gateway.EnsureLocations(); err != nil {
		level.Error(logger).Log(
			"msg", "failed to prepare storage locations",
			"err", err,
		)
		os.Exit(2)
	}

	users := store.NewUserStore(log.With(logger, "table", "users"))
	emails := store.NewEmailStore(log.With(logger, "table", "emails"), users)

	// Load persisted snapshots before accepting
	// any connection.
	userTable, err := gateway.LoadUsers()
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to load persisted user table",
			"err", err,
		)
		os.Exit(3)
	}
	users.Restore(userTable)

	emailTable, err := gateway.LoadEmails()
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to load persisted email table",
			"err", err,
		)
		os.Exit(3)
	}
	emails.Restore(emailTable)

	metrics := NewVoidmailMetrics(conf.Distributor.PrometheusAddr)
	go runPromHTTP(logger, conf.Distributor.PrometheusAddr)

	// Compose the command handler service with its
	// logging and metrics middleware.
	var service distributor.Service
	service = distributor.NewService(log.With(logger, "service", "distributor"), users, emails)
	service = distributor.NewLoggingService(service, log.With(logger, "service", "distributor"))
	service = distributor.NewMetricsService(service,
		metrics.Distributor.Commands,
		metrics.Distributor.Registrations,
		metrics.Distributor.Logins,
		metrics.Distributor.EmailsSent,
	)

	distr := distributor.New(logger, service)

	listener, err := initListener(conf)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to bind public listener",
			"err", err,
		)
		os.Exit(4)
	}

	level.Info(logger).Log(
		"msg", "listening for incoming voidmail requests",
		"addr", listener.Addr().String(),
		"tls", conf.Distributor.UseTLS,
	)

	// Closing the listener is the cooperative stop signal
	// for the accept loop. In-flight connections drain on
	// their own and are not forcibly closed.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		level.Info(logger).Log("msg", "received shutdown signal", "signal", sig.String())
		listener.Close()
	}()

	// Loop on incoming requests.
	if err := distr.Run(listener); err != nil {
		level.Error(logger).Log(
			"msg", "failed to run distributor",
			"err", err,
		)
		os.Exit(5)
	}

	// Snapshot both tables to disk before exiting.
	if err := gateway.SaveAll(users.Snapshot(), emails.Snapshot()); err != nil {
		level.Error(logger).Log(
			"msg", "failed to save tables during shutdown",
			"err", err,
		)
		os.Exit(6)
	}

	level.Info(logger).Log("msg", "tables saved, shutting down")
}
