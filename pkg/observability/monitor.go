package observability

import (
	"context"
	"time"

	"github.com/matzehuels/careflow/pkg/monitor"
)

type monitorHooks struct {
	m *monitor.Monitor
}

// MonitorHooks reports every attempt to m. Responses are recorded as calls;
// attempts without a response are recorded as a status-0 call plus a
// network_error.
func MonitorHooks(m *monitor.Monitor) HTTPHooks {
	if m == nil {
		return NoopHTTPHooks{}
	}
	return monitorHooks{m: m}
}

func (monitorHooks) OnRequest(context.Context, string, string) {}

func (h monitorHooks) OnResponse(_ context.Context, method, url string, status int, d time.Duration) {
	h.m.RecordCall(method, url, status, d)
}

func (h monitorHooks) OnError(_ context.Context, method, url string, d time.Duration, err error) {
	h.m.RecordCall(method, url, 0, d)
	h.m.RecordError(monitor.TypeNetworkError, err)
}
