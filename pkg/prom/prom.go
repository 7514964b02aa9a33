package prom

import (
	"sync"

	xhttp "github.com/nimasrn/collections-ledger/pkg/http"
	"github.com/nimasrn/collections-ledger/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemLedger         = "ledger"
	SystemReconciliation = "reconciliation"
)
const (
	MetricPaymentsApplied      = "payments_applied_total"
	MetricPaymentConflicts     = "payment_conflicts_total"
	MetricSalesRecorded        = "sales_recorded_total"
	MetricPaymentDuration      = "payment_duration_seconds"
	MetricOrphansPurged        = "orphans_purged_total"
	MetricStoreInconsistencies = "store_inconsistencies_total"
	MetricDocumentsBackfilled  = "documents_backfilled_total"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var MetricCollectionCounters = make(map[string]prometheus.Counter)
var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

func Create(host string, env string, nameSpace string) error {
	defaultLabels = make(prometheus.Labels)
	defaultLabels["env"] = env
	defaultLabels["instance"] = host
	namespace = nameSpace
	MetricSystemEnabled = true

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	// Ledger
	hasError(createCounter(SystemLedger, MetricPaymentsApplied))
	hasError(createCounter(SystemLedger, MetricPaymentConflicts))
	hasError(createCounter(SystemLedger, MetricSalesRecorded))
	hasError(createHistogramVec(SystemLedger, MetricPaymentDuration, []string{"outcome"}))

	// Reconciliation
	hasError(createCounter(SystemReconciliation, MetricOrphansPurged))
	hasError(createCounterVec(SystemReconciliation, MetricStoreInconsistencies, []string{"source"}))
	hasError(createCounter(SystemReconciliation, MetricDocumentsBackfilled))

	return err
}

func ListenAndServer(port string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.NewServer(xhttp.DefaultServerOption())
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "url", url)
	if err := s.ListenAndServe(port); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

func createCounter(subsystem, name string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounters[subsystem+name] = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
	})
	return prometheus.Register(MetricCollectionCounters[subsystem+name])
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounterVec[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
	}, labels)
	return prometheus.Register(MetricCollectionCounterVec[subsystem+name])
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogramVec[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
	}, labels)
	return prometheus.Register(MetricCollectionHistogramVec[subsystem+name])
}

func IncCounter(subsystem, name string) {
	AddCounter(subsystem, name, 1)
}

func AddCounter(subsystem, name string, number float64) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionCounters[subsystem+name]; ok {
		v.Add(number)
		return
	}
	logger.Warn("[metrics-server] counter not found", "subsystem", subsystem, "name", name)
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionHistogramVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

func IncPaymentApplied() {
	IncCounter(SystemLedger, MetricPaymentsApplied)
}

func IncPaymentConflict() {
	IncCounter(SystemLedger, MetricPaymentConflicts)
}

func IncSaleRecorded() {
	IncCounter(SystemLedger, MetricSalesRecorded)
}

func ObservePaymentDuration(seconds float64, outcome string) {
	AddHistogramVec(SystemLedger, MetricPaymentDuration, seconds, outcome)
}

func AddOrphansPurged(n int) {
	AddCounter(SystemReconciliation, MetricOrphansPurged, float64(n))
}

func IncStoreInconsistency(source string) {
	IncCounterVec(SystemReconciliation, MetricStoreInconsistencies, source)
}

func AddDocumentsBackfilled(n int) {
	AddCounter(SystemReconciliation, MetricDocumentsBackfilled, float64(n))
}
