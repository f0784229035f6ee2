// Package monitoring serves the status of a running simulation over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// LevelStatus is the counters of one cache level at a point in time.
type LevelStatus struct {
	Name         string  `json:"name"`
	Instantiated bool    `json:"instantiated"`
	References   uint64  `json:"references"`
	Misses       uint64  `json:"misses"`
	Penalties    uint64  `json:"penalties"`
	MissRate     float64 `json:"miss_rate"`
}

// Status is what a simulation shows to the monitor. It must be a copy that
// the simulation no longer modifies.
type Status struct {
	ID         string        `json:"id"`
	References uint64        `json:"references"`
	Done       bool          `json:"done"`
	Levels     []LevelStatus `json:"levels"`
}

// A StatusReporter is a simulation that the monitor can observe.
type StatusReporter interface {
	// Status returns the latest published status. It must be safe to call
	// from any goroutine.
	Status() Status

	// Config returns the configuration of the simulated system.
	Config() any
}

// Monitor turns a simulation into a server so that its progress can be
// observed while it runs.
type Monitor struct {
	simulation StatusReporter
	portNumber int
	server     *http.Server
	url        string

	profileDuration time.Duration

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterSimulation registers the simulation to observe.
func (m *Monitor) RegisterSimulation(s StatusReporter) {
	m.simulation = s
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the progress list.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/config", m.showConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/status", m.showStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/level/{name}", m.showLevel).Methods(http.MethodGet)
	r.HandleFunc("/api/progress", m.listProgressBars).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)

	return r
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.server = &http.Server{
		Handler:           m.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	go func() {
		err := m.server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			dieOnErr(err)
		}
	}()
}

// URL returns the address of the server, once started.
func (m *Monitor) URL() string {
	return m.url
}

// OpenBrowser opens the status page in the default browser.
func (m *Monitor) OpenBrowser() error {
	if m.url == "" {
		return errors.New("monitoring server is not started")
	}

	return browser.OpenURL(m.url + "/api/status")
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) showConfig(w http.ResponseWriter, _ *http.Request) {
	if !m.mustHaveSimulation(w) {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.simulation.Config())
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) showStatus(w http.ResponseWriter, _ *http.Request) {
	if !m.mustHaveSimulation(w) {
		return
	}

	writeJSON(w, m.simulation.Status())
}

func (m *Monitor) showLevel(w http.ResponseWriter, r *http.Request) {
	if !m.mustHaveSimulation(w) {
		return
	}

	name := mux.Vars(r)["name"]

	for _, l := range m.simulation.Status().Levels {
		if l.Name == name {
			writeJSON(w, l)
			return
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Level not found"))
	dieOnErr(err)
}

func (m *Monitor) mustHaveSimulation(w http.ResponseWriter) bool {
	if m.simulation != nil {
		return true
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	_, err := w.Write([]byte("No simulation registered"))
	dieOnErr(err)

	return false
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := append([]*ProgressBar(nil), m.progressBars...)
	m.progressBarsLock.Unlock()

	now := time.Now()
	rsp := make([]progressRsp, 0, len(bars))

	for _, b := range bars {
		rsp = append(rsp, b.snapshot(now))
	}

	writeJSON(w, rsp)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
