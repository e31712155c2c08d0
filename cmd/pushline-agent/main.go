// Command pushline-agent is a reference push subscription client.
//
// This command demonstrates a complete push client with:
//   - CLI argument parsing
//   - Configuration file and environment support
//   - File-backed registration state
//   - Interactive command interface
//   - CBOR event logging
//   - Simulated message delivery over the loopback service
//
// Usage:
//
//	pushline-agent [flags]
//
// Flags:
//
//	-config string           Configuration file path (YAML)
//	-state string            State file path (empty = in-memory)
//	-event-log string        Event log file path (empty = disabled)
//	-log-level string        Log level: debug, info, warn, error (default "info")
//	-verify-interval duration Minimum time between verification passes (default 24h)
//	-subscribe string        Comma-separated features to subscribe at startup
//	-interactive             Enable interactive command mode
//	-simulate                Deliver synthetic push messages periodically
//	-reset                   Clear persisted state before starting
//
// Environment:
//
//	PUSHLINE_STATE            State file path
//	PUSHLINE_EVENT_LOG        Event log file path
//	PUSHLINE_LOG_LEVEL        Log level
//	PUSHLINE_VERIFY_INTERVAL  Verification interval (e.g. "1h")
//	PUSHLINE_SUBSCRIBE        Startup subscriptions
//
// Values are resolved in order: flags, then environment (a .env file is
// honored), then the -config file, then built-in defaults.
//
// Examples:
//
//	# Interactive session with persistent state
//	pushline-agent -state /var/lib/pushline/state.json -interactive
//
//	# Headless agent that subscribes services and logs every push event
//	pushline-agent -subscribe services -simulate -event-log events.plog
//
//	# Reset persistent state
//	pushline-agent -state /var/lib/pushline/state.json -reset
//
// Interactive Commands:
//
//	subscribe <feature>   - Subscribe a feature (webpush, services)
//	unsubscribe <feature> - Drop a feature subscription
//	subs                  - List active subscriptions
//	deliver <feature> <text> - Deliver a simulated push message
//	rotate <feature>      - Simulate a server-side endpoint rotation
//	verify                - Verify subscriptions against the service
//	token                 - Show transport and persisted tokens
//	renew                 - Drop the registration and request a fresh token
//	status                - Show agent status
//	quit                  - Exit the agent
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pushline/pushline-go/cmd/pushline-agent/interactive"
	"github.com/pushline/pushline-go/pkg/examples"
	pushlog "github.com/pushline/pushline-go/pkg/log"
	"github.com/pushline/pushline-go/pkg/persistence"
	"github.com/pushline/pushline-go/pkg/push"
)

// verifyTickPeriod is how often the agent polls the verification gate.
// The gate itself decides whether a pass actually runs.
const verifyTickPeriod = time.Minute

// Config holds the agent configuration.
// It implements interactive.AgentConfig.
type Config struct {
	ConfigFile     string
	StatePathValue string
	EventLogValue  string
	LogLevel       string
	VerifyInterval time.Duration
	Subscribe      string
	Interactive    bool
	Simulate       bool
	Reset          bool
}

// StatePath implements interactive.AgentConfig.
func (c *Config) StatePath() string {
	return c.StatePathValue
}

// EventLogPath implements interactive.AgentConfig.
func (c *Config) EventLogPath() string {
	return c.EventLogValue
}

var (
	config  Config
	manager *push.Manager
	loop    *examples.Loopback
)

func init() {
	flag.StringVar(&config.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&config.StatePathValue, "state", "", "State file path (empty = in-memory)")
	flag.StringVar(&config.EventLogValue, "event-log", "", "Event log file path (empty = disabled)")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.DurationVar(&config.VerifyInterval, "verify-interval", push.DefaultVerifyInterval, "Minimum time between verification passes")
	flag.StringVar(&config.Subscribe, "subscribe", "", "Comma-separated features to subscribe at startup (webpush, services)")
	flag.BoolVar(&config.Interactive, "interactive", false, "Enable interactive command mode")
	flag.BoolVar(&config.Simulate, "simulate", false, "Deliver synthetic push messages periodically")
	flag.BoolVar(&config.Reset, "reset", false, "Clear persisted state before starting")
}

func main() {
	flag.Parse()

	// Flags win over environment, environment wins over the config file.
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	if err := applyConfigFile(setFlags); err != nil {
		log.Fatalf("Invalid config file: %v", err)
	}
	applyEnv(setFlags)

	// Setup logging
	setupLogging(config.LogLevel)

	log.Println("Pushline Reference Agent")
	log.Println("========================")
	if config.StatePathValue != "" {
		log.Printf("State file: %s", config.StatePathValue)
	} else {
		log.Println("State: in-memory")
	}
	log.Printf("Verify interval: %s", config.VerifyInterval)

	// Validate configuration
	features, err := validateConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := newSlogLogger(config.LogLevel)

	// Set up persistence
	store, err := newStore()
	if err != nil {
		log.Fatalf("Failed to set up state store: %v", err)
	}

	// Set up event logging
	eventLogger, closeEventLog, err := newEventLogger(logger)
	if err != nil {
		log.Fatalf("Failed to open event log: %v", err)
	}
	defer closeEventLog()

	// Create the loopback push service and the manager on top of it
	loop = examples.NewLoopback()

	manager, err = push.NewManager(push.Config{
		Connection:     loop,
		Transport:      loop,
		Store:          store,
		Reporter:       consoleReporter{},
		VerifyInterval: config.VerifyInterval,
		Logger:         logger,
		EventLogger:    eventLogger,
	})
	if err != nil {
		log.Fatalf("Failed to create push manager: %v", err)
	}
	loop.Bind(manager)

	// Start the manager
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.Initialize(ctx); err != nil {
		log.Fatalf("Failed to start push manager: %v", err)
	}
	log.Printf("Agent started (state: %s)", manager.State())

	// Startup subscriptions
	for _, feature := range features {
		log.Printf("Subscribing %s", feature)
		manager.Subscribe(feature)
	}

	// Start background tasks
	go runVerifyLoop(ctx)

	if config.Simulate {
		go runSimulation(ctx)
	}

	// Run interactive mode or wait for signal
	if config.Interactive {
		ic, err := interactive.New(manager, loop, store, &config)
		if err != nil {
			log.Fatalf("Failed to create interactive agent: %v", err)
		}
		// Redirect log output through readline to avoid interfering with input
		log.SetOutput(ic.Stdout())
		go ic.Run(ctx, cancel)
	} else {
		registerLogObservers()
	}

	// Wait for shutdown signal or context cancellation
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
		// Context was cancelled (e.g., by interactive quit command)
	}

	log.Println("Shutting down...")

	cancel()

	if err := manager.Shutdown(); err != nil {
		log.Printf("Error stopping manager: %v", err)
	}

	log.Println("Goodbye!")
}

// fileConfig is the YAML shape of the -config file.
type fileConfig struct {
	State          string `yaml:"state"`
	EventLog       string `yaml:"event_log"`
	LogLevel       string `yaml:"log_level"`
	VerifyInterval string `yaml:"verify_interval"`
	Subscribe      string `yaml:"subscribe"`
}

// applyConfigFile fills config fields from the YAML config file. Fields set
// on the command line keep their flag value.
func applyConfigFile(setFlags map[string]bool) error {
	if config.ConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(config.ConfigFile)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if fc.State != "" && !setFlags["state"] {
		config.StatePathValue = fc.State
	}
	if fc.EventLog != "" && !setFlags["event-log"] {
		config.EventLogValue = fc.EventLog
	}
	if fc.LogLevel != "" && !setFlags["log-level"] {
		config.LogLevel = fc.LogLevel
	}
	if fc.VerifyInterval != "" && !setFlags["verify-interval"] {
		d, err := time.ParseDuration(fc.VerifyInterval)
		if err != nil {
			return fmt.Errorf("verify_interval: %w", err)
		}
		config.VerifyInterval = d
	}
	if fc.Subscribe != "" && !setFlags["subscribe"] {
		config.Subscribe = fc.Subscribe
	}

	return nil
}

// applyEnv fills config fields from the environment. A .env file in the
// working directory is loaded first if present. Fields set on the command
// line keep their flag value.
func applyEnv(setFlags map[string]bool) {
	_ = godotenv.Load()

	if v := os.Getenv("PUSHLINE_STATE"); v != "" && !setFlags["state"] {
		config.StatePathValue = v
	}
	if v := os.Getenv("PUSHLINE_EVENT_LOG"); v != "" && !setFlags["event-log"] {
		config.EventLogValue = v
	}
	if v := os.Getenv("PUSHLINE_LOG_LEVEL"); v != "" && !setFlags["log-level"] {
		config.LogLevel = v
	}
	if v := os.Getenv("PUSHLINE_VERIFY_INTERVAL"); v != "" && !setFlags["verify-interval"] {
		if d, err := time.ParseDuration(v); err == nil {
			config.VerifyInterval = d
		}
	}
	if v := os.Getenv("PUSHLINE_SUBSCRIBE"); v != "" && !setFlags["subscribe"] {
		config.Subscribe = v
	}
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}

func validateConfig() ([]push.FeatureType, error) {
	switch config.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		return nil, fmt.Errorf("unknown log level: %s", config.LogLevel)
	}
	if config.VerifyInterval <= 0 {
		return nil, fmt.Errorf("verify interval must be positive, got %s", config.VerifyInterval)
	}
	if config.Reset && config.StatePathValue == "" {
		return nil, fmt.Errorf("-reset requires -state")
	}

	var features []push.FeatureType
	for _, name := range strings.Split(config.Subscribe, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		feature, err := push.ParseFeatureType(name)
		if err != nil {
			return nil, err
		}
		features = append(features, feature)
	}
	return features, nil
}

// newSlogLogger builds the structured logger the manager uses for debug
// output. It writes to stderr so interactive prompts stay clean.
func newSlogLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func newStore() (persistence.Store, error) {
	if config.StatePathValue == "" {
		return persistence.NewMemoryStore(), nil
	}

	fileStore := persistence.NewFileStore(config.StatePathValue)
	if config.Reset {
		log.Println("Resetting persisted state...")
		if err := fileStore.Clear(); err != nil {
			return nil, err
		}
	}
	return fileStore, nil
}

// newEventLogger wires the event log file, mirrored onto the structured
// logger at debug level. The returned func closes the file on shutdown.
func newEventLogger(logger *slog.Logger) (pushlog.Logger, func(), error) {
	if config.EventLogValue == "" {
		return nil, func() {}, nil
	}

	fileLogger, err := pushlog.NewFileLogger(config.EventLogValue)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Event log: %s", config.EventLogValue)

	var eventLogger pushlog.Logger = fileLogger
	if config.LogLevel == "debug" {
		eventLogger = pushlog.NewMultiLogger(fileLogger, pushlog.NewSlogAdapter(logger))
	}
	closeFn := func() {
		if err := fileLogger.Close(); err != nil {
			log.Printf("Error closing event log: %v", err)
		}
	}
	return eventLogger, closeFn, nil
}

// consoleReporter routes manager errors to the console log.
type consoleReporter struct{}

func (consoleReporter) ReportError(err error) {
	log.Printf("[ERROR] %v", err)
}

// registerLogObservers prints pushes and subscription changes to the console
// log. Used in headless mode; the interactive console displays its own.
func registerLogObservers() {
	for _, feature := range push.AllFeatureTypes() {
		manager.RegisterForPushMessages(feature, func(feature push.FeatureType, payload []byte) {
			log.Printf("[PUSH] %s: %s", feature, payload)
		})
	}
	manager.RegisterForSubscriptions(func(feature push.FeatureType, sub push.Subscription) {
		log.Printf("[SUB] %s -> %s", feature, sub.Endpoint)
	})
}

// runVerifyLoop polls the verification gate until the context ends.
func runVerifyLoop(ctx context.Context) {
	ticker := time.NewTicker(verifyTickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.TryVerifySubscriptions()
		}
	}
}

// runSimulation periodically delivers a synthetic push message to the
// services subscription, creating it first if needed.
func runSimulation(ctx context.Context) {
	log.Println("Simulation mode enabled")
	manager.Subscribe(push.FeatureTypeServices)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	var n int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sub, ok := manager.GetSubscription(push.FeatureTypeServices)
			if !ok {
				continue
			}
			n++
			payload := fmt.Sprintf("simulated message %d at %s", n, time.Now().Format("15:04:05"))
			if err := loop.Deliver(sub.ChannelID, []byte(payload)); err != nil {
				log.Printf("[SIM] Delivery failed: %v", err)
			}
		}
	}
}
