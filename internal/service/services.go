package service

import (
	"github.com/deppfellow/rsweb/internal/lib/job"
	"github.com/deppfellow/rsweb/internal/repository"
	"github.com/deppfellow/rsweb/internal/server"
)

type Services struct {
	Scenes *SceneService
	Job    *job.JobService
}

func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	if s.Job != nil && repos.Cache != nil {
		s.Job.InitHandlers(repos.Cache)
	}

	return &Services{
		Scenes: NewSceneService(s, repos.Store),
		Job:    s.Job,
	}, nil
}
