package metrics

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Metrics struct {
	startTime time.Time

	requestsTotal   atomic.Int64
	requestsSuccess atomic.Int64
	requestsFailed  atomic.Int64

	dosesTaken    atomic.Int64
	dosesUnmarked atomic.Int64
	dosesDelayed  atomic.Int64

	rolloversTotal   atomic.Int64
	rolloverFailures atomic.Int64

	remindersSent atomic.Int64
	notifyErrors  atomic.Int64
	triggersArmed atomic.Int64

	storeErrors atomic.Int64

	responseTimes     []time.Duration
	responseTimesLock sync.Mutex
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

func New() *Metrics {
	return &Metrics{
		startTime:     time.Now(),
		responseTimes: make([]time.Duration, 0, 1000),
	}
}

func (m *Metrics) RecordRequest(success bool) {
	m.requestsTotal.Add(1)
	if success {
		m.requestsSuccess.Add(1)
	} else {
		m.requestsFailed.Add(1)
	}
}

func (m *Metrics) RecordDoseTaken() {
	m.dosesTaken.Add(1)
}

func (m *Metrics) RecordDoseUnmarked() {
	m.dosesUnmarked.Add(1)
}

func (m *Metrics) RecordDoseDelayed() {
	m.dosesDelayed.Add(1)
}

func (m *Metrics) RecordRollover() {
	m.rolloversTotal.Add(1)
}

func (m *Metrics) RecordRolloverFailure() {
	m.rolloverFailures.Add(1)
}

func (m *Metrics) RecordReminderSent() {
	m.remindersSent.Add(1)
}

func (m *Metrics) RecordNotifyError() {
	m.notifyErrors.Add(1)
}

func (m *Metrics) SetTriggersArmed(count int64) {
	m.triggersArmed.Store(count)
}

func (m *Metrics) RecordStoreError() {
	m.storeErrors.Add(1)
}

func (m *Metrics) RecordResponseTime(d time.Duration) {
	m.responseTimesLock.Lock()
	defer m.responseTimesLock.Unlock()

	m.responseTimes = append(m.responseTimes, d)
	if len(m.responseTimes) > 1000 {
		m.responseTimes = m.responseTimes[1:]
	}
}

type Snapshot struct {
	Uptime           time.Duration `json:"uptime"`
	RequestsTotal    int64         `json:"requests_total"`
	RequestsSuccess  int64         `json:"requests_success"`
	RequestsFailed   int64         `json:"requests_failed"`
	DosesTaken       int64         `json:"doses_taken"`
	DosesUnmarked    int64         `json:"doses_unmarked"`
	DosesDelayed     int64         `json:"doses_delayed"`
	RolloversTotal   int64         `json:"rollovers_total"`
	RolloverFailures int64         `json:"rollover_failures"`
	RemindersSent    int64         `json:"reminders_sent"`
	NotifyErrors     int64         `json:"notify_errors"`
	TriggersArmed    int64         `json:"triggers_armed"`
	StoreErrors      int64         `json:"store_errors"`
	AvgResponseTime  time.Duration `json:"avg_response_time"`
	P99ResponseTime  time.Duration `json:"p99_response_time"`
	SuccessRate      float64       `json:"success_rate"`
}

func (m *Metrics) Snapshot() *Snapshot {
	s := &Snapshot{
		Uptime:           time.Since(m.startTime),
		RequestsTotal:    m.requestsTotal.Load(),
		RequestsSuccess:  m.requestsSuccess.Load(),
		RequestsFailed:   m.requestsFailed.Load(),
		DosesTaken:       m.dosesTaken.Load(),
		DosesUnmarked:    m.dosesUnmarked.Load(),
		DosesDelayed:     m.dosesDelayed.Load(),
		RolloversTotal:   m.rolloversTotal.Load(),
		RolloverFailures: m.rolloverFailures.Load(),
		RemindersSent:    m.remindersSent.Load(),
		NotifyErrors:     m.notifyErrors.Load(),
		TriggersArmed:    m.triggersArmed.Load(),
		StoreErrors:      m.storeErrors.Load(),
	}

	if s.RequestsTotal > 0 {
		s.SuccessRate = float64(s.RequestsSuccess) / float64(s.RequestsTotal) * 100
	}

	m.responseTimesLock.Lock()
	if len(m.responseTimes) > 0 {
		var total time.Duration
		for _, rt := range m.responseTimes {
			total += rt
		}
		s.AvgResponseTime = total / time.Duration(len(m.responseTimes))

		sorted := make([]time.Duration, len(m.responseTimes))
		copy(sorted, m.responseTimes)
		for i := 0; i < len(sorted)-1; i++ {
			for j := i + 1; j < len(sorted); j++ {
				if sorted[j] < sorted[i] {
					sorted[i], sorted[j] = sorted[j], sorted[i]
				}
			}
		}
		p99Index := int(float64(len(sorted)) * 0.99)
		if p99Index >= len(sorted) {
			p99Index = len(sorted) - 1
		}
		s.P99ResponseTime = sorted[p99Index]
	}
	m.responseTimesLock.Unlock()

	return s
}

func (m *Metrics) Prometheus() string {
	var sb strings.Builder

	writeMetric := func(name, help, kind string, value int64) {
		sb.WriteString("# HELP medtrack_" + name + " " + help + "\n")
		sb.WriteString("# TYPE medtrack_" + name + " " + kind + "\n")
		sb.WriteString("medtrack_" + name + " " + strconv.FormatInt(value, 10) + "\n\n")
	}

	writeMetric("uptime_seconds", "Time since server start", "gauge",
		int64(time.Since(m.startTime).Seconds()))
	writeMetric("requests_total", "Total number of requests", "counter", m.requestsTotal.Load())
	writeMetric("requests_success", "Successful requests", "counter", m.requestsSuccess.Load())
	writeMetric("requests_failed", "Failed requests", "counter", m.requestsFailed.Load())
	writeMetric("doses_taken_total", "Doses marked taken", "counter", m.dosesTaken.Load())
	writeMetric("doses_unmarked_total", "Doses un-marked", "counter", m.dosesUnmarked.Load())
	writeMetric("doses_delayed_total", "Doses delayed", "counter", m.dosesDelayed.Load())
	writeMetric("rollovers_total", "Daily rollovers applied", "counter", m.rolloversTotal.Load())
	writeMetric("rollover_failures_total", "Daily rollovers that failed", "counter", m.rolloverFailures.Load())
	writeMetric("reminders_sent_total", "Reminders delivered", "counter", m.remindersSent.Load())
	writeMetric("notify_errors_total", "Notification backend errors", "counter", m.notifyErrors.Load())
	writeMetric("triggers_armed", "Currently armed reminder triggers", "gauge", m.triggersArmed.Load())
	writeMetric("store_errors_total", "Store errors", "counter", m.storeErrors.Load())

	return sb.String()
}

func RecordRequest(success bool) {
	Default().RecordRequest(success)
}

func RecordDoseTaken() {
	Default().RecordDoseTaken()
}

func RecordDoseUnmarked() {
	Default().RecordDoseUnmarked()
}

func RecordDoseDelayed() {
	Default().RecordDoseDelayed()
}

func RecordRollover() {
	Default().RecordRollover()
}

func RecordRolloverFailure() {
	Default().RecordRolloverFailure()
}

func RecordReminderSent() {
	Default().RecordReminderSent()
}

func RecordNotifyError() {
	Default().RecordNotifyError()
}

func SetTriggersArmed(count int64) {
	Default().SetTriggersArmed(count)
}

func RecordStoreError() {
	Default().RecordStoreError()
}

func RecordResponseTime(d time.Duration) {
	Default().RecordResponseTime(d)
}

func GetSnapshot() *Snapshot {
	return Default().Snapshot()
}

func Prometheus() string {
	return Default().Prometheus()
}
