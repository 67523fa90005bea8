package projector

import (
	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/dispatcher"
	"github.com/richardliu001/bloglite/internal/repo"
	"go.uber.org/zap"
)

// Consumers builds the outbox dispatchers a process runs: the read-model
// projection with the delete policy, and the Kafka relay when w is not nil.
// Each drains its own track, so a broker outage only delays the relay.
func Consumers(r *repo.Repository, renderer article.Renderer, w dispatcher.MessageWriter, cfg dispatcher.Config, log *zap.SugaredLogger) []*dispatcher.Dispatcher {
	reg := dispatcher.NewRegistry()
	New(renderer, log).Register(reg)
	DeletePolicy{}.Register(reg)

	projectionCfg := cfg
	projectionCfg.Name = repo.ProjectionTrack.Name
	out := []*dispatcher.Dispatcher{
		dispatcher.New(r.Queue(repo.ProjectionTrack), reg, projectionCfg, log),
	}
	if w == nil {
		return out
	}

	relayReg := dispatcher.NewRegistry()
	dispatcher.NewRelay(w).Register(relayReg)
	relayCfg := cfg
	relayCfg.Name = repo.RelayTrack.Name
	return append(out, dispatcher.New(r.Queue(repo.RelayTrack), relayReg, relayCfg, log))
}
