package prometheus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/loopholelabs/fwctl/pkg/fwctl/cxl"
	"github.com/prometheus/client_golang/prometheus"
)

type MetricsConfig struct {
	Namespace   string
	SubMailbox  string
	TickMailbox time.Duration
}

func DefaultConfig() *MetricsConfig {
	return &MetricsConfig{
		Namespace:   "fwctl",
		SubMailbox:  "mailbox",
		TickMailbox: 100 * time.Millisecond,
	}
}

type Metrics struct {
	reg    prometheus.Registerer
	lock   sync.Mutex
	config *MetricsConfig

	// mailbox
	mailboxCommands        *prometheus.GaugeVec
	mailboxTransportErrors *prometheus.GaugeVec
	mailboxDeviceErrors    *prometheus.GaugeVec
	mailboxGetSupported    *prometheus.GaugeVec
	mailboxGetFeature      *prometheus.GaugeVec
	mailboxSetFeature      *prometheus.GaugeVec
	mailboxBytesIn         *prometheus.GaugeVec
	mailboxBytesOut        *prometheus.GaugeVec

	cancelfns map[string]context.CancelFunc
}

func New(reg prometheus.Registerer, config *MetricsConfig) *Metrics {

	met := &Metrics{
		config: config,
		reg:    reg,
		// Mailbox
		mailboxCommands: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubMailbox, Name: "commands", Help: "Commands submitted"}, []string{"device"}),
		mailboxTransportErrors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubMailbox, Name: "transport_errors", Help: "Transport errors"}, []string{"device"}),
		mailboxDeviceErrors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubMailbox, Name: "device_errors", Help: "Device rejections"}, []string{"device"}),
		mailboxGetSupported: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubMailbox, Name: "get_supported_features", Help: "GetSupportedFeatures commands"}, []string{"device"}),
		mailboxGetFeature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubMailbox, Name: "get_feature", Help: "GetFeature commands"}, []string{"device"}),
		mailboxSetFeature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubMailbox, Name: "set_feature", Help: "SetFeature commands"}, []string{"device"}),
		mailboxBytesIn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubMailbox, Name: "bytes_in", Help: "Bytes sent to the device"}, []string{"device"}),
		mailboxBytesOut: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubMailbox, Name: "bytes_out", Help: "Bytes received from the device"}, []string{"device"}),

		cancelfns: make(map[string]context.CancelFunc),
	}

	reg.MustRegister(met.mailboxCommands, met.mailboxTransportErrors, met.mailboxDeviceErrors,
		met.mailboxGetSupported, met.mailboxGetFeature, met.mailboxSetFeature,
		met.mailboxBytesIn, met.mailboxBytesOut)

	return met
}

func (m *Metrics) remove(subsystem string, name string) {
	m.lock.Lock()
	cancelfn, ok := m.cancelfns[fmt.Sprintf("%s_%s", subsystem, name)]
	if ok {
		cancelfn()
		delete(m.cancelfns, fmt.Sprintf("%s_%s", subsystem, name))
	}
	m.lock.Unlock()
}

func (m *Metrics) add(subsystem string, name string, interval time.Duration, tickfn func()) {
	ctx, cancelfn := context.WithCancel(context.TODO())
	m.lock.Lock()
	m.cancelfns[fmt.Sprintf("%s_%s", subsystem, name)] = cancelfn
	m.lock.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickfn()
			}
		}
	}()
}

// Shutdown everything
func (m *Metrics) Shutdown() {
	m.lock.Lock()
	for _, cancelfn := range m.cancelfns {
		cancelfn()
	}
	m.cancelfns = make(map[string]context.CancelFunc)
	m.lock.Unlock()
}

func (m *Metrics) AddMailbox(name string, mb *cxl.Mailbox) {
	m.add(m.config.SubMailbox, name, m.config.TickMailbox, func() {
		met := mb.GetMetrics()
		if met != nil {
			m.mailboxCommands.WithLabelValues(name).Set(float64(met.Commands))
			m.mailboxTransportErrors.WithLabelValues(name).Set(float64(met.TransportErrors))
			m.mailboxDeviceErrors.WithLabelValues(name).Set(float64(met.DeviceErrors))
			m.mailboxGetSupported.WithLabelValues(name).Set(float64(met.GetSupported))
			m.mailboxGetFeature.WithLabelValues(name).Set(float64(met.GetFeature))
			m.mailboxSetFeature.WithLabelValues(name).Set(float64(met.SetFeature))
			m.mailboxBytesIn.WithLabelValues(name).Set(float64(met.BytesIn))
			m.mailboxBytesOut.WithLabelValues(name).Set(float64(met.BytesOut))
		}
	})
}

func (m *Metrics) RemoveMailbox(name string) {
	m.remove(m.config.SubMailbox, name)
}
