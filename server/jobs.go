package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// Job is one tracked conversion owned by the service.
type Job struct {
	ID       string  `json:"id"`
	FileName string  `json:"file_name"`
	Format   string  `json:"format"`
	DPI      int     `json:"dpi"`
	Status   string  `json:"status"`
	Fraction float64 `json:"fraction"`
	Phase    string  `json:"phase"`
	Pages    int     `json:"pages"`
	Error    string  `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	outputPath string
	inputPath  string
}

// jobManager keeps in-flight and finished jobs in memory. Terminal job states
// are additionally persisted to history by the handler that owns the job.
type jobManager struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func newJobManager() *jobManager {
	return &jobManager{
		jobs: map[string]*Job{},
	}
}

// newJobID returns an unguessable job identifier. Download URLs carry the ID,
// so it must not be enumerable.
func newJobID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate job ID: %s", err)
	}

	return hex.EncodeToString(buf), nil
}

func (m *jobManager) create(fileName string, format string, dpi int) (*Job, error) {
	id, err := newJobID()
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:        id,
		FileName:  fileName,
		Format:    format,
		DPI:       dpi,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	return job, nil
}

// get returns a snapshot copy of the job, safe to serialize without holding
// the manager lock.
func (m *jobManager) get(id string) (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}

	return *job, true
}

func (m *jobManager) update(id string, updateFunc func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, ok := m.jobs[id]; ok {
		updateFunc(job)
	}
}

func (m *jobManager) setProgress(id string, fraction float64, phase string) {
	m.update(id, func(job *Job) {
		job.Status = JobStatusRunning
		job.Fraction = fraction
		job.Phase = phase
	})
}
