package jobs

import (
	"log"
	"time"

	"github.com/shipra-ai/shipra-backend/internal/services"
)

// SessionCleanupJob periodically sweeps expired sessions out of the store
type SessionCleanupJob struct {
	sessions  *services.SessionStore
	interval  time.Duration
	stop      chan struct{}
	isRunning bool
}

// NewSessionCleanupJob creates a new cleanup job scheduler. A non-positive
// interval defaults to one hour.
func NewSessionCleanupJob(sessions *services.SessionStore, interval time.Duration) *SessionCleanupJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionCleanupJob{
		sessions: sessions,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (j *SessionCleanupJob) Start() {
	if j.isRunning {
		log.Println("Session cleanup job already running")
		return
	}

	j.isRunning = true
	log.Printf("Starting session cleanup job (every %v)...", j.interval)

	go j.run()
}

// Stop halts the sweep
func (j *SessionCleanupJob) Stop() {
	if !j.isRunning {
		return
	}
	j.isRunning = false
	close(j.stop)
	log.Println("Stopping session cleanup job...")
}

func (j *SessionCleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if purged := j.sessions.CleanupExpiredSessions(); purged > 0 {
				log.Printf("🧹 Session sweep purged %d session(s)", purged)
			}
		case <-j.stop:
			return
		}
	}
}
