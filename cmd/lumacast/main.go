package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stagelight/lumacast/internal/adapters/config"
	"github.com/stagelight/lumacast/internal/adapters/idgen"
	"github.com/stagelight/lumacast/internal/adapters/mqtt"
	"github.com/stagelight/lumacast/internal/adapters/output"
	"github.com/stagelight/lumacast/pkg/show"
)

type app struct {
	client    *mqtt.Client
	printer   output.Printer
	idgen     idgen.Generator
	node      string
	identity  string
	topicBase string
	timeout   time.Duration
}

func main() {
	root := &cobra.Command{
		Use:   "lumacast",
		Short: "Lumacast control CLI",
	}

	var (
		broker    string
		topicBase string
		identity  string
		node      string
		timeout   time.Duration
		jsonOut   bool
		tlsCA     string
		tlsCert   string
		tlsKey    string
		userOpt   string
		passOpt   string
	)

	root.PersistentFlags().StringVarP(&broker, "broker", "b", "", "MQTT broker URL")
	root.PersistentFlags().StringVar(&topicBase, "topic-base", show.BaseTopic, "MQTT topic base")
	root.PersistentFlags().StringVarP(&identity, "identity", "i", "", "controller identity")
	root.PersistentFlags().StringVarP(&node, "node", "n", "", "target node id")
	root.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 2*time.Second, "command timeout")
	root.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output json")
	root.PersistentFlags().StringVar(&tlsCA, "tls-ca", "", "TLS CA path")
	root.PersistentFlags().StringVar(&tlsCert, "tls-cert", "", "TLS cert path")
	root.PersistentFlags().StringVar(&tlsKey, "tls-key", "", "TLS key path")
	root.PersistentFlags().StringVar(&userOpt, "user", "", "MQTT username")
	root.PersistentFlags().StringVar(&passOpt, "pass", "", "MQTT password")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var printer output.Printer
		if jsonOut {
			printer = output.JSONPrinter{}
		} else {
			printer = output.HumanPrinter{}
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if broker == "" {
			broker = cfg.Broker
		}
		if topicBase == show.BaseTopic && cfg.TopicBase != "" {
			topicBase = cfg.TopicBase
		}
		if identity == "" {
			identity = cfg.Identity
		}
		if identity == "" {
			host, _ := os.Hostname()
			if host == "" {
				host = "unknown"
			}
			identity = "lumacast@" + host
		}
		if node == "" {
			node = cfg.Node
		}

		state := &app{
			printer:   printer,
			node:      node,
			identity:  identity,
			topicBase: topicBase,
			timeout:   timeout,
		}

		// The send command talks UDP straight to the daemon; no broker needed.
		if cmd.Name() != "send" {
			if broker == "" {
				return errors.New("broker is required (set --broker or config)")
			}
			client, err := mqtt.NewClient(mqtt.Options{
				BrokerURL: broker,
				ClientID:  fmt.Sprintf("lumacast-%d", time.Now().UnixNano()),
				Username:  userOpt,
				Password:  passOpt,
				TLSCA:     tlsCA,
				TLSCert:   tlsCert,
				TLSKey:    tlsKey,
				TopicBase: topicBase,
				Timeout:   timeout,
			})
			if err != nil {
				return err
			}
			state.client = client
		}

		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, state))
		return nil
	}

	root.AddCommand(statusCommand())
	root.AddCommand(nodesCommand())
	root.AddCommand(setRootCommand())
	root.AddCommand(sendCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type appKey struct{}

func fromContext(cmd *cobra.Command) *app {
	val := cmd.Context().Value(appKey{})
	if val == nil {
		return nil
	}
	return val.(*app)
}

func (a *app) targetNode() (string, error) {
	if a.node == "" {
		return "", errors.New("node is required (set --node or config)")
	}
	return a.node, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}
