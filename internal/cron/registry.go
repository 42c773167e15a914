package cron

import (
	"context"
	"time"
)

// Job is one unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Cadenced jobs run at most once per Every(). Jobs without it run on every cycle.
type Cadenced interface {
	Every() time.Duration
}

// Registry holds jobs by name in registration order. A second job with the same name is ignored.
type Registry struct {
	order []string
	jobs  map[string]Job
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{jobs: make(map[string]Job, len(jobs))}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register reports whether job was added.
func (r *Registry) Register(job Job) bool {
	if job == nil {
		return false
	}
	if r.jobs == nil {
		r.jobs = map[string]Job{}
	}
	name := job.Name()
	if _, dup := r.jobs[name]; dup {
		return false
	}
	r.jobs[name] = job
	r.order = append(r.order, name)
	return true
}

// Jobs returns a copy in registration order.
func (r *Registry) Jobs() []Job {
	out := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.jobs[name])
	}
	return out
}

func (r *Registry) Lookup(name string) (Job, bool) {
	job, ok := r.jobs[name]
	return job, ok
}

func cadenceOf(job Job) time.Duration {
	if c, ok := job.(Cadenced); ok {
		return c.Every()
	}
	return 0
}
