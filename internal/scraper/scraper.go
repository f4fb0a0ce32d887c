// Command scraper forwards homer's Prometheus metrics to Google Cloud
// Monitoring. It runs as its own small service, typically on Cloud Run, and is
// poked by Cloud Scheduler: each request scrapes the dashboard's /metrics
// endpoint once, converts the homer_ families into time series and writes
// them to the project.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"github.com/googleapis/gax-go/v2"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/genproto/googleapis/api/distribution"
	"google.golang.org/genproto/googleapis/api/metric"
	"google.golang.org/genproto/googleapis/api/monitoredres"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	metricPrefix    = "homer_"
	metricTypeRoot  = "prometheus.googleapis.com/"
	defaultLocation = "us-central1"
	defaultJob      = "homer"
)

// timeSeriesWriter is the part of the monitoring client the scraper uses.
type timeSeriesWriter interface {
	CreateTimeSeries(ctx context.Context, req *monitoringpb.CreateTimeSeriesRequest, opts ...gax.CallOption) error
}

type scraper struct {
	metricsURL string
	projectID  string
	location   string
	job        string
	httpClient *http.Client
	// newWriter opens a monitoring client per scrape.
	newWriter func(ctx context.Context) (timeSeriesWriter, func() error, error)
	now       func() time.Time
	logger    *slog.Logger
}

func newScraperFromEnv(logger *slog.Logger) (*scraper, error) {
	s := &scraper{
		metricsURL: os.Getenv("METRICS_URL"),
		projectID:  os.Getenv("PROJECT_ID"),
		location:   envOr("MONITORING_LOCATION", defaultLocation),
		job:        envOr("MONITORING_JOB", defaultJob),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		newWriter:  newMonitoringWriter,
		now:        time.Now,
		logger:     logger,
	}
	var missing []string
	if s.metricsURL == "" {
		missing = append(missing, "METRICS_URL")
	}
	if s.projectID == "" {
		missing = append(missing, "PROJECT_ID")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("environment variables must be set: %s", strings.Join(missing, ", "))
	}
	return s, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newMonitoringWriter(ctx context.Context) (timeSeriesWriter, func() error, error) {
	client, err := monitoring.NewMetricClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create monitoring client: %w", err)
	}
	return client, client.Close, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	s, err := newScraperFromEnv(logger)
	if err != nil {
		logger.Error("scraper configuration failed", "error", err)
		os.Exit(1)
	}

	port := envOr("PORT", "8080")
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleScrape)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("starting scraper", "port", port, "metrics_url", s.metricsURL)
	if err := server.ListenAndServe(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

func (s *scraper) handleScrape(w http.ResponseWriter, r *http.Request) {
	n, err := s.scrapeAndIngest(r.Context())
	if err != nil {
		s.logger.Error("scrape failed", "error", err)
		http.Error(w, "scrape failed", http.StatusInternalServerError)
		return
	}
	s.logger.Info("metrics ingested", "series", n)
	fmt.Fprintf(w, "ingested %d series\n", n)
}

// scrapeAndIngest returns the number of series written.
func (s *scraper) scrapeAndIngest(ctx context.Context) (int, error) {
	families, err := s.scrape(ctx)
	if err != nil {
		return 0, err
	}
	series := s.toTimeSeries(families)
	if len(series) == 0 {
		s.logger.Info("no homer metric samples to ingest")
		return 0, nil
	}

	writer, closeWriter, err := s.newWriter(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := closeWriter(); err != nil {
			s.logger.Warn("closing monitoring client", "error", err)
		}
	}()

	err = writer.CreateTimeSeries(ctx, &monitoringpb.CreateTimeSeriesRequest{
		Name:       "projects/" + s.projectID,
		TimeSeries: series,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to write time series data: %w", err)
	}
	return len(series), nil
}

func (s *scraper) scrape(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.metricsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", s.metricsURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scrape %s: status %d", s.metricsURL, resp.StatusCode)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prometheus metrics: %w", err)
	}
	return families, nil
}

// toTimeSeries converts the homer_ families. Go runtime and process metrics
// are left to the platform's own agents. Output is ordered by metric name.
func (s *scraper) toTimeSeries(families map[string]*dto.MetricFamily) []*monitoringpb.TimeSeries {
	names := make([]string, 0, len(families))
	for name := range families {
		if strings.HasPrefix(name, metricPrefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	resource := &monitoredres.MonitoredResource{
		Type: "prometheus_target",
		Labels: map[string]string{
			"project_id": s.projectID,
			"location":   s.location,
			"cluster":    "__gce__",
			"namespace":  s.job,
			"job":        s.job,
			"instance":   s.metricsURL,
		},
	}
	now := timestamppb.New(s.now())

	var out []*monitoringpb.TimeSeries
	for _, name := range names {
		mf := families[name]
		for _, m := range mf.GetMetric() {
			point, err := s.point(now, mf.GetType(), m)
			if err != nil {
				s.logger.Debug("skipping metric", "metric", name, "reason", err)
				continue
			}
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			out = append(out, &monitoringpb.TimeSeries{
				Metric:   &metric.Metric{Type: metricTypeRoot + name, Labels: labels},
				Resource: resource,
				Points:   []*monitoringpb.Point{point},
			})
		}
	}
	return out
}

var errUnsupportedType = errors.New("unsupported metric type")

func (s *scraper) point(ts *timestamppb.Timestamp, kind dto.MetricType, m *dto.Metric) (*monitoringpb.Point, error) {
	switch kind {
	case dto.MetricType_COUNTER:
		return doublePoint(ts, m.GetCounter().GetValue()), nil
	case dto.MetricType_GAUGE:
		return doublePoint(ts, m.GetGauge().GetValue()), nil
	case dto.MetricType_UNTYPED:
		return doublePoint(ts, m.GetUntyped().GetValue()), nil
	case dto.MetricType_HISTOGRAM:
		return s.distributionPoint(ts, m.GetHistogram()), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedType, kind)
	}
}

func doublePoint(ts *timestamppb.Timestamp, value float64) *monitoringpb.Point {
	return &monitoringpb.Point{
		Interval: &monitoringpb.TimeInterval{EndTime: ts},
		Value: &monitoringpb.TypedValue{
			Value: &monitoringpb.TypedValue_DoubleValue{DoubleValue: value},
		},
	}
}

// distributionPoint turns cumulative Prometheus buckets into per-bucket
// counts. The trailing +Inf bucket becomes the overflow bucket.
func (s *scraper) distributionPoint(ts *timestamppb.Timestamp, h *dto.Histogram) *monitoringpb.Point {
	buckets := h.GetBucket()
	var bounds []float64
	counts := make([]int64, 0, len(buckets)+1)
	var prev uint64
	for _, b := range buckets {
		if math.IsInf(b.GetUpperBound(), 1) {
			continue
		}
		bounds = append(bounds, b.GetUpperBound())
		counts = append(counts, capInt64(b.GetCumulativeCount()-prev, s.logger))
		prev = b.GetCumulativeCount()
	}
	counts = append(counts, capInt64(h.GetSampleCount()-prev, s.logger))

	var mean float64
	if h.GetSampleCount() > 0 {
		mean = h.GetSampleSum() / float64(h.GetSampleCount())
	}

	dist := &distribution.Distribution{
		Count: capInt64(h.GetSampleCount(), s.logger),
		Mean:  mean,
		BucketOptions: &distribution.Distribution_BucketOptions{
			Options: &distribution.Distribution_BucketOptions_ExplicitBuckets{
				ExplicitBuckets: &distribution.Distribution_BucketOptions_Explicit{Bounds: bounds},
			},
		},
		BucketCounts: counts,
	}
	return &monitoringpb.Point{
		Interval: &monitoringpb.TimeInterval{EndTime: ts},
		Value: &monitoringpb.TypedValue{
			Value: &monitoringpb.TypedValue_DistributionValue{DistributionValue: dist},
		},
	}
}

func capInt64(v uint64, logger *slog.Logger) int64 {
	if v > math.MaxInt64 {
		logger.Warn("count exceeds MaxInt64, capping value", "value", v)
		return math.MaxInt64
	}
	return int64(v)
}
