package app

import (
	"context"

	"github.com/autopeer-io/dispatch/cmd/dispatchctl/app/options"
	"github.com/autopeer-io/dispatch/internal/dispatch/command"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/internal/dispatch/profile"
	"github.com/autopeer-io/dispatch/internal/dispatch/remote"
	"github.com/autopeer-io/dispatch/internal/dispatch/snapshot"
	"github.com/autopeer-io/dispatch/internal/dispatch/store"
	"github.com/autopeer-io/dispatch/pkg/log"
)

// roomSession is a short-lived roster of one room, loaded once per command.
type roomSession struct {
	room     string
	client   *remote.Client
	store    *store.Store
	loader   *snapshot.Loader
	gateway  *command.Gateway
	profiles *profile.Cache
}

func newRoomSession(opts *options.CtlOptions, room string) *roomSession {
	client := remote.New(opts.APIOptions)
	s := store.New()
	return &roomSession{
		room:     room,
		client:   client,
		store:    s,
		loader:   snapshot.NewLoader(client, s, log.WithName("snapshot")),
		gateway:  command.NewGateway(client, s, nil, log.WithName("command")),
		profiles: profile.NewCache(client, log.WithName("profiles")),
	}
}

func (s *roomSession) load(ctx context.Context) ([]model.Vehicle, error) {
	if err := s.loader.Load(ctx, s.room); err != nil {
		return nil, err
	}
	return s.store.Vehicles(), nil
}
