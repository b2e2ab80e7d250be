// Пакет для фоновых задач сервиса по расписанию: автосохранение сеансов, выгрузка простаивающих
// документов, очистка автоматических версий.
//
// Основные возможности:
//   - Реестр именованных задач с расписанием в формате cron.
//   - Перезагрузка и удаление задач.
//   - Немедленный запуск задачи вне расписания.
//   - Восстановление после паники внутри задачи.
package cronmanager

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type CronJobFunc func()

type Job struct {
	Func     CronJobFunc
	Schedule string
}

type JobRegistry map[string]Job

type CronManager struct {
	dispatcher  *cron.Cron
	jobs        map[string]cron.EntryID
	mu          sync.Mutex
	jobRegistry JobRegistry
}

// NewCronManager создает менеджер задач.
//
// Параметры:
//   - jobRegistry: реестр задач
func NewCronManager(jobRegistry JobRegistry) *CronManager {
	dispatcher := cron.New(
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	return &CronManager{
		dispatcher:  dispatcher,
		jobs:        make(map[string]cron.EntryID),
		jobRegistry: jobRegistry,
	}
}

// LoadJobs заново добавляет в расписание все задачи реестра.
//
// Возвращает:
//   - error: первая ошибка разбора расписания; остальные задачи при этом все равно добавляются
func (cm *CronManager) LoadJobs() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for name, entryID := range cm.jobs {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}

	var firstErr error
	for _, name := range cm.names() {
		if err := cm.addJob(name); err != nil {
			slog.Error("Error adding job", "name", name, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (cm *CronManager) names() []string {
	res := make([]string, 0, len(cm.jobRegistry))
	for name := range cm.jobRegistry {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

func (cm *CronManager) addJob(name string) error {
	job, exists := cm.jobRegistry[name]
	if !exists {
		return fmt.Errorf("no job function registered for name: %s", name)
	}

	id, err := cm.dispatcher.AddFunc(job.Schedule, cm.wrap(name, job.Func))
	if err != nil {
		return fmt.Errorf("failed to add job '%s': %w", name, err)
	}
	cm.jobs[name] = id
	return nil
}

func (cm *CronManager) wrap(name string, fn CronJobFunc) func() {
	return func() {
		start := time.Now()
		fn()
		slog.Debug("Cron job finished", "name", name, "elapsed", time.Since(start).String())
	}
}

// RemoveJob убирает задачу из расписания.
func (cm *CronManager) RemoveJob(name string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if entryID, exists := cm.jobs[name]; exists {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}
}

// RunNow выполняет задачу синхронно вне расписания.
func (cm *CronManager) RunNow(name string) error {
	cm.mu.Lock()
	job, exists := cm.jobRegistry[name]
	cm.mu.Unlock()
	if !exists {
		return fmt.Errorf("no job function registered for name: %s", name)
	}
	cm.wrap(name, job.Func)()
	return nil
}

// Scheduled имена задач, стоящих в расписании.
func (cm *CronManager) Scheduled() []string {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	res := make([]string, 0, len(cm.jobs))
	for name := range cm.jobs {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

func (cm *CronManager) Start() {
	cm.dispatcher.Start()
}

// Stop останавливает расписание и ждет завершения выполняющихся задач.
func (cm *CronManager) Stop() {
	ctx := cm.dispatcher.Stop()
	<-ctx.Done()
}
