package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecTableName is the table that holds the information of the run.
const ExecTableName = "exec_info"

// ExecInfo is one property of a program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records when and how the program ran.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates an ExecRecorder and its table.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	e := &ExecRecorder{
		recorder: recorder,
	}

	e.recorder.CreateTable(ExecTableName, ExecInfo{})

	return e
}

// Start captures the start time, the command line and the working
// directory.
func (e *ExecRecorder) Start() {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", now()},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.entries = append(e.entries, ExecInfo{"Working Directory", wd})
}

// Add captures an extra property of the run.
func (e *ExecRecorder) Add(property, value string) {
	e.entries = append(e.entries, ExecInfo{property, value})
}

// End writes the captured properties along with the end time.
func (e *ExecRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(ExecTableName, entry)
	}

	e.recorder.InsertData(ExecTableName, ExecInfo{"End Time", now()})

	e.entries = nil

	e.recorder.Flush()
}

func now() string {
	return time.Now().Format("2006-01-02 15:04:05.000000000")
}
