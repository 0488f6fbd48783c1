package letsencrypt

import (
	"context"
	"crypto"

	"github.com/go-acme/lego/v4/certificate"
	legochallenge "github.com/go-acme/lego/v4/challenge"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"

	"github.com/PoeBlu/ssl/challenge"
)

// acmeClient is the subset of the lego client exercised by a cycle.
// It exists so tests can stub the ACME exchange.
type acmeClient interface {
	Register(options registration.RegisterOptions) (*registration.Resource, error)
	SetHTTP01Provider(provider legochallenge.Provider) error
	Obtain(request certificate.ObtainRequest) (*certificate.Resource, error)
}

type clientFactory func(*lego.Config) (acmeClient, error)

func defaultClientFactory(cfg *lego.Config) (acmeClient, error) {
	client, err := lego.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &legoClientAdapter{client: client}, nil
}

type legoClientAdapter struct {
	client *lego.Client
}

func (l *legoClientAdapter) Register(options registration.RegisterOptions) (*registration.Resource, error) {
	return l.client.Registration.Register(options)
}

func (l *legoClientAdapter) SetHTTP01Provider(provider legochallenge.Provider) error {
	return l.client.Challenge.SetHTTP01Provider(provider)
}

func (l *legoClientAdapter) Obtain(request certificate.ObtainRequest) (*certificate.Resource, error) {
	return l.client.Certificate.Obtain(request)
}

// tokenSolver bridges the authority's challenge callbacks to the token
// store the listening server reads from. The context belongs to the cycle
// that created the solver.
type tokenSolver struct {
	ctx    context.Context
	tokens challenge.TokenStore
}

func (s *tokenSolver) Present(_, token, keyAuth string) error {
	return s.tokens.Put(s.ctx, token, keyAuth)
}

func (s *tokenSolver) CleanUp(_, token, _ string) error {
	return s.tokens.Delete(s.ctx, token)
}

// accountUser carries the ACME account identity required by the client.
type accountUser struct {
	email        string
	registration *registration.Resource
	key          crypto.PrivateKey
}

func (u *accountUser) GetEmail() string {
	return u.email
}

func (u *accountUser) GetRegistration() *registration.Resource {
	return u.registration
}

func (u *accountUser) GetPrivateKey() crypto.PrivateKey {
	return u.key
}
