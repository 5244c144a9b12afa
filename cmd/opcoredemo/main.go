// Command opcoredemo wires the core end to end: generate a signing key,
// build a resilient transport, and run a GNAP grant request against an
// Open Payments authorization server endpoint. Grounded on the teacher's
// cmd/apigw/main.go wiring style (explicit service map, named loggers,
// signal-driven shutdown) — adapted from a long-running server to a
// one-shot client call, and with no configuration.Parse step since
// spec.md's Non-goals exclude config loading; flags are read directly.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opnet-go/op-core/pkg/grant"
	"github.com/opnet-go/op-core/pkg/httpsig"
	"github.com/opnet-go/op-core/pkg/keys"
	"github.com/opnet-go/op-core/pkg/logger"
	"github.com/opnet-go/op-core/pkg/model"
	"github.com/opnet-go/op-core/pkg/resilience"
	"github.com/opnet-go/op-core/pkg/retry"
	"github.com/opnet-go/op-core/pkg/token"
	"github.com/opnet-go/op-core/pkg/transport"
)

func main() {
	endpoint := flag.String("endpoint", "", "Open Payments grant endpoint, e.g. https://auth.example.com/")
	clientDisplay := flag.String("client-name", "opcoredemo", "client display name sent in the grant request")
	keyID := flag.String("key-id", "opcoredemo-1", "signing key id")
	flag.Parse()

	log, err := logger.New("opcoredemo", true)
	if err != nil {
		panic(err)
	}

	if *endpoint == "" {
		log.Error(nil, "missing required -endpoint flag")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, log, *endpoint, *clientDisplay, *keyID); err != nil {
		log.Error(err, "demo run failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Log, endpoint, clientDisplay, keyID string) error {
	kp, err := keys.Generate(keyID)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	jwk, err := kp.ToJWK()
	if err != nil {
		return fmt.Errorf("derive jwk: %w", err)
	}
	jwkJSON, err := json.Marshal(jwk)
	if err != nil {
		return fmt.Errorf("marshal jwk: %w", err)
	}
	log.Info("signing key ready", "key_id", kp.KeyID(), "jwk", string(jwkJSON))

	signer := httpsig.NewSigner(kp)

	base := transport.New(&http.Client{Timeout: 15 * time.Second})
	base.AddRequestInterceptor(func(req *http.Request) error {
		log.Debug("request", "method", req.Method, "url", req.URL.String())
		return nil
	})

	resilient := resilience.NewResilientTransport(base, resilience.Config{
		Strategy:      &retry.EqualJitter{Delay: 250 * time.Millisecond},
		MaxRetries:    3,
		MaxRetryDelay: 5 * time.Second,
		Breaker:       resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
	})

	grantClient := grant.NewClient(signer, resilient, log.New("grant"))

	req := &model.GrantRequest{
		AccessToken: model.AccessTokenRequest{
			Access: []model.Access{
				{Type: model.AccessTypeQuote, Actions: []string{"create", "read"}},
			},
		},
		Client: model.Client{
			Key:     model.ClientKey{JWKS: endpoint + "jwks/" + kp.KeyID()},
			Display: model.Display{Name: clientDisplay},
		},
	}

	result, err := grantClient.RequestGrant(ctx, endpoint+"auth", req)
	if err != nil {
		return fmt.Errorf("request_grant: %w", err)
	}

	log.Info("grant negotiated", "state", result.State)

	switch result.State {
	case grant.StateApproved:
		log.Info("access token issued", "manage_uri", result.AccessToken.Manage)
		cache := token.NewCache(0)
		defer cache.Stop()
		cache.Set(result.AccessToken)
	case grant.StateInteractionRequired:
		log.Info("user interaction required", "redirect", result.Response.Interact.Redirect)
	case grant.StatePending:
		log.Info("grant pending", "continue_uri", result.Response.Continue.URI)
	default:
		log.Warn("grant did not reach a recognized terminal state", "state", result.State)
	}

	return nil
}
