package jobstore

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

const (
	// RecentItemCapacity bounds the recent-new-item buffer.
	RecentItemCapacity = 3
	// ActivityCapacity bounds the activity log buffer.
	ActivityCapacity = 50
)

// Store is the in-memory registry of scan jobs: job records, the FIFO
// ticket queue, the capped recent-item and activity buffers, and the
// drain guard. All state is owned by the store and protected by a
// single mutex; Get and the list accessors return copies so readers
// never observe a half-applied mutation.
type Store struct {
	mu          sync.Mutex
	jobs        map[int64]*Job
	nextID      int64
	tickets     []int64
	recentItems []RecentItem
	activity    []string
	draining    atomic.Bool
	logger      *slog.Logger
}

// NewStore creates an empty job store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		jobs:   make(map[int64]*Job),
		logger: logger,
	}
}

// Enqueue registers a new job with a strictly increasing id, default
// status PENDING, and appends its ticket to the FIFO queue. Execution
// does not start here; the caller drives the drain loop separately.
func (s *Store) Enqueue(operation, subject string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	job := &Job{
		ID:        s.nextID,
		Status:    StatusPending,
		Operation: operation,
		Subject:   subject,
		Logs:      []string{},
	}
	s.jobs[job.ID] = job
	s.tickets = append(s.tickets, job.ID)

	s.logger.Debug("Job enqueued",
		slog.Int64("job_id", job.ID),
		slog.String("operation", operation),
		slog.Int("queue_len", len(s.tickets)),
	)

	return job.ID
}

// Dequeue pops the oldest ticket. ok is false when the queue is empty.
func (s *Store) Dequeue() (id int64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tickets) == 0 {
		return 0, false
	}
	id = s.tickets[0]
	s.tickets = s.tickets[1:]
	return id, true
}

// QueueLen reports the number of pending tickets.
func (s *Store) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

// Get returns a snapshot copy of the job. ok is false for unknown ids.
func (s *Store) Get(id int64) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return snapshot(job), true
}

// UpdateStatus sets the job status. Unknown ids are a silent no-op;
// the returned flag lets callers escalate if they need strict checks.
func (s *Store) UpdateStatus(id int64, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	job.Status = status
	return true
}

// SetResult attaches an opaque result value to the job.
func (s *Store) SetResult(id int64, result any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	job.Result = result
	return true
}

// AppendLog appends a message to the job's log sequence. Replay order
// for display is append order.
func (s *Store) AppendLog(id int64, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	job.Logs = append(job.Logs, message)
	return true
}

// PushRecentItem inserts an item at the front of the recent-item
// buffer, evicting the oldest beyond capacity.
func (s *Store) PushRecentItem(item RecentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recentItems = append([]RecentItem{item}, s.recentItems...)
	if len(s.recentItems) > RecentItemCapacity {
		s.recentItems = s.recentItems[:RecentItemCapacity]
	}
}

// UpdateRecentItem merges non-zero fields into the buffered item with
// the given product id. Returns false when no item matches.
func (s *Store) UpdateRecentItem(productID int64, merge RecentItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.recentItems {
		if s.recentItems[i].ProductID != productID {
			continue
		}
		it := &s.recentItems[i]
		if merge.Name != "" {
			it.Name = merge.Name
		}
		if merge.Barcode != "" {
			it.Barcode = merge.Barcode
		}
		if merge.BestBeforeDate != "" {
			it.BestBeforeDate = merge.BestBeforeDate
		}
		if merge.LocationID != 0 {
			it.LocationID = merge.LocationID
		}
		if merge.LocationLabel != "" {
			it.LocationLabel = merge.LocationLabel
		}
		if merge.BookingID != "" {
			it.BookingID = merge.BookingID
		}
		return true
	}
	return false
}

// RecentItems returns a copy of the recent-item buffer, most recent first.
func (s *Store) RecentItems() []RecentItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]RecentItem, len(s.recentItems))
	copy(out, s.recentItems)
	return out
}

// LogActivity prepends a free-text entry to the activity buffer,
// evicting the oldest beyond capacity.
func (s *Store) LogActivity(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activity = append([]string{message}, s.activity...)
	if len(s.activity) > ActivityCapacity {
		s.activity = s.activity[:ActivityCapacity]
	}
}

// Activity returns a copy of the activity buffer, most recent first.
func (s *Store) Activity() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.activity))
	copy(out, s.activity)
	return out
}

// TryAcquireDrain claims the single drain lane. Returns false when a
// drain loop is already running. The cooperative flag of the original
// design is a compare-and-swap here so two drain goroutines can never
// interleave dequeues.
func (s *Store) TryAcquireDrain() bool {
	return s.draining.CompareAndSwap(false, true)
}

// ReleaseDrain clears the drain guard.
func (s *Store) ReleaseDrain() {
	s.draining.Store(false)
}

// Reset clears all jobs, tickets, and buffers. The id counter keeps
// counting so ids stay unique across resets.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = make(map[int64]*Job)
	s.tickets = nil
	s.recentItems = nil
	s.activity = nil

	s.logger.Info("Job store reset")
}

func snapshot(job *Job) Job {
	out := *job
	out.Logs = make([]string, len(job.Logs))
	copy(out.Logs, job.Logs)
	return out
}
