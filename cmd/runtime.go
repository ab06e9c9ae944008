package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/capture"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/capture/pcap"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/counter"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/kvprovider"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/pipeline"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/report"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/restapi"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/sightings"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// capture flags shared by every role that reads frames
type captureFlags struct {
	iface     string
	readFile  string
	tracePath string
}

func (f *captureFlags) register(cmd *cobra.Command, traceDefault string) {
	cmd.Flags().StringVarP(&f.iface, "interface", "i", st.Capture.Interface, "interface to capture frames from")
	cmd.Flags().StringVarP(&f.readFile, "read", "r", st.Capture.ReadFile, "replay frames from a pcap file instead of an interface")
	cmd.Flags().StringVarP(&f.tracePath, "write", "w", traceDefault, "pcap file every admitted frame is written to, empty disables")
}

func (f *captureFlags) enabled() bool {
	return f.iface != "" || f.readFile != ""
}

// exit prints a startup failure and stops the process
func exit(msg string, err error) {
	fmt.Println(msg, err)
	os.Exit(1)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// captureSession is an open frame source with the filter and archive that go with it.
type captureSession struct {
	source capture.Source
	trace  *capture.TraceWriter
	opts   []pipeline.Option
}

func openCapture(f *captureFlags) (*captureSession, error) {
	opts := pcap.Options{
		Snaplen:     st.Capture.Snaplen,
		Promiscuous: st.Capture.Promiscuous,
		ReadTimeout: st.Capture.ReadTimeout,
		BPF:         st.Capture.BPF,
	}
	sess := &captureSession{}
	var local []net.IP
	if f.readFile != "" {
		src, err := pcap.OpenOffline(f.readFile, opts)
		if err != nil {
			return nil, err
		}
		sess.source = src
	} else {
		iface, err := pcap.FindInterface(f.iface)
		if err != nil {
			return nil, err
		}
		local = iface.Addresses
		src, err := pcap.OpenLive(iface.Name, opts)
		if err != nil {
			return nil, err
		}
		sess.source = src
	}

	rules, err := st.LoadFilterRules(st.Capture)
	if err != nil {
		sess.close()
		return nil, err
	}
	filter, err := capture.NewAddressFilter(rules, local)
	if err != nil {
		sess.close()
		return nil, err
	}
	sess.opts = append(sess.opts, pipeline.WithFilter(filter))

	if f.tracePath != "" {
		sess.trace, err = capture.CreateTrace(f.tracePath, st.Capture.Snaplen, sess.source.LinkType())
		if err != nil {
			sess.close()
			return nil, err
		}
		sess.opts = append(sess.opts, pipeline.WithArchive(sess.trace))
	}
	return sess, nil
}

func (s *captureSession) pipeline(fwd pipeline.Forwarder) *pipeline.Pipeline {
	return pipeline.New(pipeline.ConfigFromSettings(), s.source, fwd, s.opts...)
}

func (s *captureSession) close() {
	if s.trace != nil {
		if err := s.trace.Close(); err != nil {
			st.Logger.Warn().Err(err).Msg("could not close trace file")
		}
	}
	if err := s.source.Close(); err != nil {
		st.Logger.Debug().Err(err).Msg("could not close capture source")
	}
}

// countingStack is the counter with its optional sightings index and report sinks.
type countingStack struct {
	counter    *counter.Counter
	sightings  *sightings.Index
	dispatcher *report.Dispatcher
}

func newCountingStack(ctx context.Context) (*countingStack, error) {
	stack := &countingStack{}
	opts := []counter.Option{}

	if st.Sightings.SizeBytes > 0 {
		cfg := sightings.ConfigFromSettings()
		cfg.Registerer = prometheus.DefaultRegisterer
		idx, err := sightings.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("could not create sightings index: %w", err)
		}
		stack.sightings = idx
		opts = append(opts, counter.WithSightings(idx))
	}

	var sinks []report.Sink
	if st.Report.File {
		sinks = append(sinks, report.NewFileSink(st.ChLogDuplicates))
	}
	if st.Report.Kafka.Endpoint != "" {
		producer, err := report.NewKafkaProducer(st.Report.Kafka)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, report.NewKafkaSink(producer, st.Report.Kafka.Topic))
	}
	if st.Report.Redis.Endpoint != "" {
		kv, err := kvprovider.NewRedisProvider(st.Report.Redis)
		if err != nil {
			return nil, err
		}
		sink := report.NewKVSink(kv, time.Second*time.Duration(st.Report.Redis.ExpirationSeconds))
		kept, err := sink.Prepare(ctx, st.Report.Redis.ResetOnStart)
		if err != nil {
			return nil, err
		}
		st.Logger.Info().Int("kept", kept).Bool("reset", st.Report.Redis.ResetOnStart).Msg("redis report sink ready")
		sinks = append(sinks, sink)
	}
	if len(sinks) > 0 {
		stack.dispatcher = report.NewDispatcher(st.Report.QueueSize, sinks...)
		opts = append(opts, counter.WithReporter(stack.dispatcher))
	}

	stack.counter = counter.New(opts...)
	return stack, nil
}

func (s *countingStack) statusServer(stats *pipeline.Stats) *restapi.StatusServer {
	opts := []restapi.Option{}
	if s.sightings != nil {
		opts = append(opts, restapi.WithSightings(s.sightings))
	}
	if stats != nil {
		opts = append(opts, restapi.WithStats(stats))
	}
	return restapi.NewStatusServer(s.counter, opts...)
}

// run delivers duplicate reports, or just waits when no sink is configured.
func (s *countingStack) run(ctx context.Context) error {
	if s.dispatcher == nil {
		<-ctx.Done()
		return nil
	}
	return s.dispatcher.Run(ctx)
}

func (s *countingStack) close() {
	if s.sightings != nil {
		s.sightings.Close()
	}
}

// serveHTTP runs handler on addr until ctx is cancelled.
func serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	st.Logger.Info().Str("addr", addr).Msg("launching status server")
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
