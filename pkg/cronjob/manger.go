package cronjob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"

	"github.com/raids-lab/approvalflow/pkg/approval"
	"github.com/raids-lab/approvalflow/pkg/metrics"
)

const RefreshStatusGaugesJob = "refresh-status-gauges"

type CronJobManager struct {
	store     approval.Store
	cron      *cron.Cron
	cronMutex sync.RWMutex
	entries   map[string]cron.EntryID
}

func NewCronJobManager(store approval.Store) *CronJobManager {
	return &CronJobManager{
		store:   store,
		cron:    cron.New(cron.WithLocation(time.Local)),
		entries: make(map[string]cron.EntryID),
	}
}

// AddCronJob schedules f under name, replacing any job already registered
// with that name.
func (cm *CronJobManager) AddCronJob(name, spec string, f func()) (cron.EntryID, error) {
	cm.cronMutex.Lock()
	defer cm.cronMutex.Unlock()

	entryID, err := cm.cron.AddFunc(spec, f)
	if err != nil {
		err = fmt.Errorf("CronJobManager.AddCronJob: failed to add cron job %s with spec %s: %w", name, spec, err)
		klog.Error(err)
		return -1, err
	}
	if old, ok := cm.entries[name]; ok {
		cm.cron.Remove(old)
	}
	cm.entries[name] = entryID
	return entryID, nil
}

// GetCronjobNames returns the registered job names.
func (cm *CronJobManager) GetCronjobNames() []string {
	cm.cronMutex.RLock()
	defer cm.cronMutex.RUnlock()
	names := make([]string, 0, len(cm.entries))
	for name := range cm.entries {
		names = append(names, name)
	}
	return names
}

// RefreshStatusGauges loads per-status request counts into the metrics gauge.
func (cm *CronJobManager) RefreshStatusGauges(ctx context.Context) error {
	counts, err := cm.store.CountRequestsByStatus(ctx)
	if err != nil {
		return fmt.Errorf("CronJobManager.RefreshStatusGauges: %w", err)
	}
	metrics.SetStatusCounts(counts)
	return nil
}

// Start registers the built-in jobs, refreshes once immediately and starts the
// scheduler. It stops the scheduler when ctx is done.
func (cm *CronJobManager) Start(ctx context.Context, refreshSpec string) error {
	_, err := cm.AddCronJob(RefreshStatusGaugesJob, refreshSpec, func() {
		jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := cm.RefreshStatusGauges(jobCtx); err != nil {
			klog.Error(err)
		}
	})
	if err != nil {
		return err
	}
	if err := cm.RefreshStatusGauges(ctx); err != nil {
		klog.Error(err)
	}

	cm.cron.Start()
	klog.Info("CronJobManager: cron scheduler started")
	go func() {
		<-ctx.Done()
		cm.StopCron()
	}()
	return nil
}

// StopCron stops the cron scheduler and waits for running jobs.
func (cm *CronJobManager) StopCron() {
	cm.cronMutex.Lock()
	defer cm.cronMutex.Unlock()
	<-cm.cron.Stop().Done()
}
