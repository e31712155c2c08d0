// Package interactive provides the interactive command-line interface
// for the pushline agent.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/pushline/pushline-go/pkg/examples"
	"github.com/pushline/pushline-go/pkg/persistence"
	"github.com/pushline/pushline-go/pkg/push"
)

// AgentConfig provides configuration information to the interactive agent.
// This interface allows the interactive layer to access agent settings
// without depending on the main package's config structure.
type AgentConfig interface {
	// StatePath returns the state file path, or "" for in-memory state.
	StatePath() string

	// EventLogPath returns the event log path, or "" when disabled.
	EventLogPath() string
}

// Agent handles interactive mode for pushline-agent.
type Agent struct {
	manager *push.Manager
	loop    *examples.Loopback
	store   persistence.Store
	config  AgentConfig
	rl      *readline.Instance

	// Observer removal functions, run on exit
	cleanups []func()
}

// New creates a new interactive agent handler.
func New(manager *push.Manager, loop *examples.Loopback, store persistence.Store, cfg AgentConfig) (*Agent, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "push> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	a := &Agent{
		manager: manager,
		loop:    loop,
		store:   store,
		config:  cfg,
		rl:      rl,
	}

	// Register observers for displaying pushes and subscription changes
	for _, feature := range push.AllFeatureTypes() {
		a.cleanups = append(a.cleanups, manager.RegisterForPushMessages(feature, a.displayMessage))
	}
	a.cleanups = append(a.cleanups, manager.RegisterForSubscriptions(a.displaySubscription))

	return a, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (a *Agent) Stdout() io.Writer {
	return a.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (a *Agent) Stderr() io.Writer {
	return a.rl.Stderr()
}

// Run starts the interactive command loop.
func (a *Agent) Run(ctx context.Context, cancel context.CancelFunc) {
	defer a.close()

	a.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := a.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(a.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			a.printHelp()

		case "subscribe", "sub":
			a.cmdSubscribe(args)

		case "unsubscribe", "unsub":
			a.cmdUnsubscribe(args)

		case "subs", "list", "l":
			a.cmdSubs(args)

		case "deliver", "d":
			a.cmdDeliver(args)

		case "rotate":
			a.cmdRotate(args)

		case "verify", "v":
			a.cmdVerify()

		case "token", "t":
			a.cmdToken()

		case "renew":
			a.cmdRenew()

		case "status":
			a.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(a.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(a.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

// close removes the display observers and shuts the readline down.
func (a *Agent) close() {
	for _, remove := range a.cleanups {
		remove()
	}
	a.rl.Close()
}

func (a *Agent) printHelp() {
	fmt.Fprintln(a.rl.Stdout(), `
Pushline Agent Commands:
  Subscriptions:
    subscribe <feature>      - Subscribe a feature (webpush, services)
    unsubscribe <feature>    - Drop a feature subscription
    subs                     - List active subscriptions
    verify                   - Verify subscriptions against the service now
    rotate <feature>         - Simulate a server-side endpoint rotation

  Registration:
    token                    - Show transport and persisted tokens
    renew                    - Drop the registration and request a fresh token

  Messages:
    deliver <feature> <text> - Deliver a simulated push message

  General:
    status                   - Show agent status
    help                     - Show this help
    quit                     - Exit agent`)
}

// cmdSubscribe handles the subscribe command.
func (a *Agent) cmdSubscribe(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(a.rl.Stdout(), "Usage: subscribe <feature>")
		fmt.Fprintln(a.rl.Stdout(), "  Features: webpush, services")
		return
	}

	feature, err := push.ParseFeatureType(args[0])
	if err != nil {
		fmt.Fprintf(a.rl.Stdout(), "Unknown feature: %s (use: webpush, services)\n", args[0])
		return
	}

	a.manager.Subscribe(feature)
	fmt.Fprintf(a.rl.Stdout(), "Subscribe requested for %s\n", feature)
}

// cmdUnsubscribe handles the unsubscribe command.
func (a *Agent) cmdUnsubscribe(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(a.rl.Stdout(), "Usage: unsubscribe <feature>")
		fmt.Fprintln(a.rl.Stdout(), "  Features: webpush, services")
		return
	}

	feature, err := push.ParseFeatureType(args[0])
	if err != nil {
		fmt.Fprintf(a.rl.Stdout(), "Unknown feature: %s (use: webpush, services)\n", args[0])
		return
	}

	if _, ok := a.manager.GetSubscription(feature); !ok {
		fmt.Fprintf(a.rl.Stdout(), "No %s subscription\n", feature)
		return
	}

	a.manager.Unsubscribe(feature)
	fmt.Fprintf(a.rl.Stdout(), "Unsubscribe requested for %s\n", feature)
}

// cmdSubs handles the subs command.
func (a *Agent) cmdSubs(_ []string) {
	subs := a.manager.Subscriptions()
	if len(subs) == 0 {
		fmt.Fprintln(a.rl.Stdout(), "No active subscriptions")
		return
	}

	fmt.Fprintf(a.rl.Stdout(), "\nActive Subscriptions (%d):\n", len(subs))
	fmt.Fprintln(a.rl.Stdout(), "-------------------------------------------")
	for _, feature := range push.AllFeatureTypes() {
		sub, ok := subs[feature]
		if !ok {
			continue
		}
		fmt.Fprintf(a.rl.Stdout(), "  Feature:  %s\n", feature)
		fmt.Fprintf(a.rl.Stdout(), "    Channel:  %s\n", shortChannel(sub.ChannelID))
		fmt.Fprintf(a.rl.Stdout(), "    Endpoint: %s\n", sub.Endpoint)
		fmt.Fprintln(a.rl.Stdout())
	}
}

// cmdDeliver handles the deliver command.
func (a *Agent) cmdDeliver(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(a.rl.Stdout(), "Usage: deliver <feature> <text>")
		fmt.Fprintln(a.rl.Stdout(), "  Example: deliver services hello from the server")
		return
	}

	feature, err := push.ParseFeatureType(args[0])
	if err != nil {
		fmt.Fprintf(a.rl.Stdout(), "Unknown feature: %s (use: webpush, services)\n", args[0])
		return
	}

	sub, ok := a.manager.GetSubscription(feature)
	if !ok {
		fmt.Fprintf(a.rl.Stdout(), "No %s subscription (run 'subscribe %s' first)\n", feature, args[0])
		return
	}

	payload := strings.Join(args[1:], " ")
	if err := a.loop.Deliver(sub.ChannelID, []byte(payload)); err != nil {
		fmt.Fprintf(a.rl.Stdout(), "Delivery failed: %v\n", err)
		return
	}

	fmt.Fprintln(a.rl.Stdout(), "Delivered")
}

// cmdRotate handles the rotate command.
func (a *Agent) cmdRotate(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(a.rl.Stdout(), "Usage: rotate <feature>")
		fmt.Fprintln(a.rl.Stdout(), "  Rotates the endpoint server-side; 'verify' picks up the change")
		return
	}

	feature, err := push.ParseFeatureType(args[0])
	if err != nil {
		fmt.Fprintf(a.rl.Stdout(), "Unknown feature: %s (use: webpush, services)\n", args[0])
		return
	}

	sub, ok := a.manager.GetSubscription(feature)
	if !ok {
		fmt.Fprintf(a.rl.Stdout(), "No %s subscription\n", feature)
		return
	}

	if err := a.loop.RotateEndpoint(sub.ChannelID); err != nil {
		fmt.Fprintf(a.rl.Stdout(), "Rotation failed: %v\n", err)
		return
	}

	fmt.Fprintln(a.rl.Stdout(), "Endpoint rotated; run 'verify' to reconcile")
}

// cmdVerify handles the verify command.
func (a *Agent) cmdVerify() {
	a.manager.VerifyActiveSubscriptions()
	fmt.Fprintln(a.rl.Stdout(), "Verification requested")
}

// cmdToken handles the token command.
func (a *Agent) cmdToken() {
	token := a.loop.CurrentToken()
	if token == "" {
		fmt.Fprintln(a.rl.Stdout(), "No registration token issued yet")
	} else {
		fmt.Fprintf(a.rl.Stdout(), "Transport token: %s\n", token)
	}

	if persisted, ok := a.store.Token(); ok {
		fmt.Fprintf(a.rl.Stdout(), "Persisted token: %s\n", persisted)
	} else {
		fmt.Fprintln(a.rl.Stdout(), "Persisted token: none")
	}
}

// cmdRenew handles the renew command.
func (a *Agent) cmdRenew() {
	a.manager.RenewRegistration()
	fmt.Fprintln(a.rl.Stdout(), "Registration renewal requested")
}

// cmdStatus shows the agent status.
func (a *Agent) cmdStatus() {
	fmt.Fprintln(a.rl.Stdout(), "\nAgent Status")
	fmt.Fprintln(a.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(a.rl.Stdout(), "  Manager State:  %s\n", a.manager.State())

	token := a.loop.CurrentToken()
	if token == "" {
		fmt.Fprintf(a.rl.Stdout(), "  Token:          none\n")
	} else {
		fmt.Fprintf(a.rl.Stdout(), "  Token:          %s\n", token)
	}

	subs := a.manager.Subscriptions()
	names := make([]string, 0, len(subs))
	for _, feature := range push.AllFeatureTypes() {
		if _, ok := subs[feature]; ok {
			names = append(names, feature.String())
		}
	}
	if len(names) > 0 {
		fmt.Fprintf(a.rl.Stdout(), "  Subscriptions:  %d (%s)\n", len(names), strings.Join(names, ", "))
	} else {
		fmt.Fprintf(a.rl.Stdout(), "  Subscriptions:  0\n")
	}

	if path := a.config.StatePath(); path != "" {
		fmt.Fprintf(a.rl.Stdout(), "  State Store:    %s\n", path)
	} else {
		fmt.Fprintf(a.rl.Stdout(), "  State Store:    in-memory\n")
	}

	if path := a.config.EventLogPath(); path != "" {
		fmt.Fprintf(a.rl.Stdout(), "  Event Log:      %s\n", path)
	} else {
		fmt.Fprintf(a.rl.Stdout(), "  Event Log:      disabled\n")
	}

	if last, ok := a.store.LastVerified(); ok {
		fmt.Fprintf(a.rl.Stdout(), "  Last Verified:  %s\n", last.Format("15:04:05"))
	} else {
		fmt.Fprintf(a.rl.Stdout(), "  Last Verified:  never\n")
	}

	fmt.Fprintln(a.rl.Stdout())
}

// displayMessage displays a decrypted push message.
func (a *Agent) displayMessage(feature push.FeatureType, payload []byte) {
	fmt.Fprintf(a.rl.Stdout(), "\n[%s] %s message: %s\n",
		time.Now().Format("15:04:05"), feature, payload)
	a.rl.Refresh()
}

// displaySubscription displays a subscription change.
func (a *Agent) displaySubscription(feature push.FeatureType, sub push.Subscription) {
	fmt.Fprintf(a.rl.Stdout(), "\n[%s] %s subscription -> %s\n",
		time.Now().Format("15:04:05"), feature, sub.Endpoint)
	a.rl.Refresh()
}

// shortChannel truncates a channel ID for display.
func shortChannel(id push.ChannelID) string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
